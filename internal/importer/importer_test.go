package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkm/internal/pkm"
	"pkm/internal/testutil"
)

const owner = "owner-1"

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)
	im := New(svc, nil)

	_, err := svc.CreateBookmark(ctx, owner, pkm.PersonaResearcher, pkm.BookmarkInput{URL: "https://example.com/seen", Title: "seen"})
	require.NoError(t, err)

	entries := []Entry{
		{URL: "https://example.com/a", Title: "A", Folder: "Papers", Tags: []string{"ml"}},
		{URL: "https://example.com/b", Folder: "Papers"},
		{URL: "https://example.com/seen", Title: "again"},
		{URL: "ftp://example.com/c", Title: "bad scheme"},
	}
	res, err := im.Import(ctx, owner, pkm.PersonaResearcher, entries)
	require.NoError(t, err)
	assert.Equal(t, &Result{Added: 2, Skipped: 1, Failed: 1}, res)

	folders, err := svc.ListFolders(ctx, owner, pkm.PersonaResearcher)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Papers", folders[0].Name)

	page, err := svc.ListBookmarks(ctx, owner, pkm.PersonaResearcher, pkm.BookmarkQuery{FolderID: folders[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	t.Run("reimport skips everything", func(t *testing.T) {
		res, err := im.Import(ctx, owner, pkm.PersonaResearcher, entries[:2])
		require.NoError(t, err)
		assert.Equal(t, &Result{Skipped: 2}, res)
	})

	t.Run("unknown persona", func(t *testing.T) {
		_, err := im.Import(ctx, owner, "wizard", entries)
		assert.ErrorIs(t, err, pkm.ErrValidation)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := im.Import(ctx, owner, pkm.PersonaResearcher, entries)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "links.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("bookmarks:\n  - url: https://example.com\n"), 0600))
	entries, err := ParseFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	htmlPath := filepath.Join(dir, "export.HTML")
	require.NoError(t, os.WriteFile(htmlPath, []byte(`<DL><DT><A HREF="https://example.com">x</A></DL>`), 0600))
	entries, err = ParseFile(htmlPath)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, nil, 0600))
	_, err = ParseFile(txtPath)
	assert.ErrorContains(t, err, "unsupported import format")

	_, err = ParseFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
