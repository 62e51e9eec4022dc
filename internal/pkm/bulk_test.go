package pkm_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pkm/internal/pkm"
	"pkm/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// database/sql keeps one opener goroutine per open pool.
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

func TestService_ApplyBulk_Archive(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	a := createBookmark(t, svc, pkm.PersonaStudent, "https://example.com/a")
	b := createBookmark(t, svc, pkm.PersonaStudent, "https://example.com/b")

	results, err := svc.ApplyBulk(ctx, owner, pkm.BulkArchive, []string{a.ID, "missing", b.ID}, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, pkm.BulkResult{ResourceID: a.ID, Success: true}, results[0])
	assert.Equal(t, "missing", results[1].ResourceID)
	assert.False(t, results[1].Success)
	require.NotNil(t, results[1].Error)
	assert.Equal(t, pkm.CodeNotFound, results[1].Error.Code)
	assert.True(t, results[2].Success)

	archived := true
	page, err := svc.ListBookmarks(ctx, owner, pkm.PersonaStudent, pkm.BookmarkQuery{Archived: &archived})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	results, err = svc.ApplyBulk(ctx, owner, pkm.BulkUnarchive, []string{a.ID}, nil)
	require.NoError(t, err)
	assert.True(t, results[0].Success)
}

func TestService_ApplyBulk_MoveFolder(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	f, err := svc.CreateFolder(ctx, owner, pkm.PersonaStudent, "Week 1")
	require.NoError(t, err)
	b := createBookmark(t, svc, pkm.PersonaStudent, "https://example.com/a")
	other := createBookmark(t, svc, pkm.PersonaCreator, "https://example.com/b")

	results, err := svc.ApplyBulk(ctx, owner, pkm.BulkMoveFolder, []string{b.ID, other.ID},
		map[string]string{pkm.ParamFolderID: f.ID})
	require.NoError(t, err)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success, "folder belongs to another persona")

	got, err := svc.GetBookmark(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ID}, got.FolderIDs)
}

func TestService_ApplyBulk_RequestErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)
	b := createBookmark(t, svc, pkm.PersonaStudent, "https://example.com/a")

	t.Run("missing folder id fails the batch", func(t *testing.T) {
		results, err := svc.ApplyBulk(ctx, owner, pkm.BulkMoveFolder, []string{b.ID}, nil)
		assert.Nil(t, results)
		var mp *pkm.MissingParameterError
		require.ErrorAs(t, err, &mp)
		assert.Equal(t, pkm.ParamFolderID, mp.Param)
		assert.Equal(t, pkm.CodeMissingParameter, pkm.ErrorCode(err))
	})

	t.Run("missing category fails the batch", func(t *testing.T) {
		_, err := svc.ApplyBulk(ctx, owner, pkm.BulkChangeCategory, []string{b.ID}, map[string]string{})
		assert.ErrorIs(t, err, pkm.ErrMissingParameter)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := svc.ApplyBulk(ctx, owner, "explode", []string{b.ID}, nil)
		assert.ErrorIs(t, err, pkm.ErrValidation)
	})

	t.Run("nothing was applied", func(t *testing.T) {
		got, err := svc.GetBookmark(ctx, owner, b.ID)
		require.NoError(t, err)
		assert.Empty(t, got.FolderIDs)
	})
}

func TestService_ApplyBulk_ChangeCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)
	b := createBookmark(t, svc, pkm.PersonaStudent, "https://example.com/a")

	_, err := svc.ApplyBulk(ctx, owner, pkm.BulkChangeCategory, []string{b.ID}, map[string]string{pkm.ParamCategory: "reading"})
	require.NoError(t, err)
	got, err := svc.GetBookmark(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "reading", got.Category)

	_, err = svc.ApplyBulk(ctx, owner, pkm.BulkChangeCategory, []string{b.ID}, map[string]string{pkm.ParamCategory: ""})
	require.NoError(t, err, "an explicit empty category clears it")
	got, err = svc.GetBookmark(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Category)
}

func TestService_ApplyBulk_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)
	b := createBookmark(t, svc, pkm.PersonaStudent, "https://example.com/a", "go")

	results, err := svc.ApplyBulk(ctx, owner, pkm.BulkDelete, []string{b.ID, b.ID}, nil)
	require.NoError(t, err)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success, "second delete of the same id finds a tombstone")

	tags, err := svc.ListTags(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, tags[0].UsageCount)
}

func TestService_ApplyBulk_Concurrent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestFileDatabase(t)
	svc := pkm.NewService(db, nil, nil, testutil.FixedClock(), testutil.NewStubIDGenerator())
	svc.SetBulkConcurrency(4)

	var ids []string
	for i := 0; i < 20; i++ {
		ids = append(ids, createBookmark(t, svc, pkm.PersonaStudent, fmt.Sprintf("https://example.com/%d", i)).ID)
		if i%5 == 0 {
			ids = append(ids, fmt.Sprintf("missing-%d", i))
		}
	}

	results, err := svc.ApplyBulk(ctx, owner, pkm.BulkArchive, ids, nil)
	require.NoError(t, err)
	require.Len(t, results, len(ids))

	failed := 0
	for i, r := range results {
		assert.Equal(t, ids[i], r.ResourceID, "results keep input order")
		if !r.Success {
			failed++
		}
	}
	assert.Equal(t, 4, failed)

	archived := true
	page, err := svc.ListBookmarks(ctx, owner, pkm.PersonaStudent, pkm.BookmarkQuery{Archived: &archived})
	require.NoError(t, err)
	assert.Equal(t, 20, page.Total)
}
