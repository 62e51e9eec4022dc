package pkm_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkm/internal/database"
	"pkm/internal/pkm"
	"pkm/internal/testutil"
)

func TestSnapshotter_CreateListRestore(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestFileDatabase(t)
	clock := testutil.FixedClock()
	svc := pkm.NewService(db, nil, nil, clock, testutil.NewStubIDGenerator())
	b := createBookmark(t, svc, pkm.PersonaResearcher, "https://arxiv.org/abs/2401", "llm")

	v := testutil.NewTestVault()
	enc := testutil.NewTestEncryptor()
	snap := pkm.NewSnapshotter(db, v, enc, nil, clock)

	first, err := snap.Create(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/owner-1/20240115T103000Z.db.age", first)

	clock.Advance(time.Hour)
	second, err := snap.Create(ctx, owner)
	require.NoError(t, err)

	keys, err := snap.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{second, first}, keys, "newest first")

	others, err := snap.List(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, others)

	dec, err := enc.Unlock("")
	require.NoError(t, err)
	dest := filepath.Join(t.TempDir(), "restored", "pkm.db")
	require.NoError(t, snap.Restore(ctx, first, dec, dest))

	restored, err := database.NewSQLiteDatabase(dest, nil, testutil.NewPrefixedIDGenerator("tag"))
	require.NoError(t, err)
	defer restored.Close()
	require.NoError(t, restored.CheckMigrations())

	got, err := restored.GetBookmark(ctx, owner, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.URL, got.URL)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "llm", got.Tags[0].Name)
}

func TestSnapshotter_RestoreMissingKey(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	snap := pkm.NewSnapshotter(db, testutil.NewTestVault(), testutil.NewTestEncryptor(), nil, nil)
	dec, err := testutil.NewTestEncryptor().Unlock("")
	require.NoError(t, err)

	dir := t.TempDir()
	err = snap.Restore(context.Background(), "snapshots/owner-1/nope.db.age", dec, filepath.Join(dir, "pkm.db"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "downloading snapshot"), err.Error())
	assert.NoFileExists(t, filepath.Join(dir, "pkm.db"))
}
