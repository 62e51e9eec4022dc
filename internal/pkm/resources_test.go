package pkm_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkm/internal/pkm"
	"pkm/internal/testutil"
)

const owner = "owner-1"

func ptr[T any](v T) *T { return &v }

func createBookmark(t *testing.T, svc *pkm.Service, persona pkm.Persona, url string, tags ...string) *pkm.Bookmark {
	t.Helper()
	b, err := svc.CreateBookmark(context.Background(), owner, persona, pkm.BookmarkInput{
		URL:   url,
		Title: "Page at " + url,
		Tags:  tags,
	})
	require.NoError(t, err)
	return b
}

func violationFields(t *testing.T, err error) []string {
	t.Helper()
	var ve *pkm.ValidationError
	require.ErrorAs(t, err, &ve)
	var fields []string
	for _, v := range ve.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func TestService_CreateBookmark(t *testing.T) {
	ctx := context.Background()
	svc, clock := testutil.NewTestService(t)

	b, err := svc.CreateBookmark(ctx, owner, pkm.PersonaStudent, pkm.BookmarkInput{
		URL:   "  HTTPS://WWW.YouTube.com/watch?v=1 ",
		Title: "  Lecture  ",
		Tags:  []string{"ml", "ML", " video "},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/watch?v=1", b.URL)
	assert.Equal(t, "Lecture", b.Title)
	assert.Equal(t, pkm.PriorityMedium, b.Priority)
	assert.Equal(t, "youtube.com", b.Metadata.Domain)
	assert.Equal(t, pkm.ContentVideo, b.Metadata.ContentType)
	assert.Equal(t, clock.Now(), b.CreatedAt)
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)
	assert.Zero(t, b.VisitCount)
	assert.False(t, b.IsArchived)
	require.Len(t, b.Tags, 2, "case variants collapse onto one tag")

	got, err := svc.GetBookmark(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.URL, got.URL)
	assert.Len(t, got.Tags, 2)
}

func TestService_CreateBookmark_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	t.Run("reports every violation", func(t *testing.T) {
		_, err := svc.CreateBookmark(ctx, owner, pkm.PersonaStudent, pkm.BookmarkInput{
			URL:         "ftp://example.com",
			Title:       strings.Repeat("x", 201),
			Description: strings.Repeat("d", 501),
			ShortURL:    "a b",
			Priority:    "urgent",
		})
		assert.ErrorIs(t, err, pkm.ErrValidation)
		assert.ElementsMatch(t, []string{"url", "title", "description", "shortUrl", "priority"}, violationFields(t, err))
	})

	t.Run("title length counts characters", func(t *testing.T) {
		_, err := svc.CreateBookmark(ctx, owner, pkm.PersonaStudent, pkm.BookmarkInput{
			URL:   "https://example.com/unicode",
			Title: strings.Repeat("é", 200),
		})
		assert.NoError(t, err)
	})

	t.Run("unknown persona", func(t *testing.T) {
		_, err := svc.CreateBookmark(ctx, owner, "pirate", pkm.BookmarkInput{URL: "https://example.com", Title: "t"})
		assert.Equal(t, []string{"persona"}, violationFields(t, err))
	})

	t.Run("folder from another persona", func(t *testing.T) {
		f, err := svc.CreateFolder(ctx, owner, pkm.PersonaCreator, "Drafts")
		require.NoError(t, err)

		_, err = svc.CreateBookmark(ctx, owner, pkm.PersonaStudent, pkm.BookmarkInput{
			URL: "https://example.com/f", Title: "t", FolderIDs: []string{f.ID},
		})
		assert.Equal(t, []string{"folderIds"}, violationFields(t, err))
	})

	t.Run("field and folder violations together", func(t *testing.T) {
		_, err := svc.CreateBookmark(ctx, owner, pkm.PersonaStudent, pkm.BookmarkInput{
			URL: "https://example.com/both", Title: "", FolderIDs: []string{"nope"},
		})
		assert.ElementsMatch(t, []string{"title", "folderIds"}, violationFields(t, err))
	})
}

func TestService_CreateBookmark_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	createBookmark(t, svc, pkm.PersonaStudent, "https://example.com/")

	_, err := svc.CreateBookmark(ctx, owner, pkm.PersonaStudent, pkm.BookmarkInput{URL: "https://EXAMPLE.com", Title: "again"})
	assert.ErrorIs(t, err, pkm.ErrDuplicate, "normalized urls collide")

	_, err = svc.CreateBookmark(ctx, owner, pkm.PersonaResearcher, pkm.BookmarkInput{URL: "https://example.com", Title: "again"})
	assert.NoError(t, err, "same url in another persona is allowed")
}

func TestService_UpdateBookmark(t *testing.T) {
	ctx := context.Background()
	svc, clock := testutil.NewTestService(t)

	b := createBookmark(t, svc, pkm.PersonaProfessional, "https://example.com/a", "go", "old")
	clock.Advance(time.Hour)

	got, err := svc.UpdateBookmark(ctx, owner, b.ID, pkm.BookmarkPatch{
		Title:    ptr("New title"),
		Priority: ptr(pkm.PriorityHigh),
		Tags:     &[]string{"go", "new"},
	})
	require.NoError(t, err)

	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, pkm.PriorityHigh, got.Priority)
	assert.Equal(t, "https://example.com/a", got.URL, "untouched fields keep their value")
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	var names []string
	for _, tag := range got.Tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"go", "new"}, names)

	tags, err := svc.ListTags(ctx, owner)
	require.NoError(t, err)
	usage := map[string]int64{}
	for _, tag := range tags {
		usage[tag.Name] = tag.UsageCount
	}
	assert.Equal(t, map[string]int64{"go": 1, "new": 1, "old": 0}, usage)

	t.Run("invalid field", func(t *testing.T) {
		_, err := svc.UpdateBookmark(ctx, owner, b.ID, pkm.BookmarkPatch{URL: ptr("not a url")})
		assert.Equal(t, []string{"url"}, violationFields(t, err))
	})

	t.Run("field and folder violations together", func(t *testing.T) {
		_, err := svc.UpdateBookmark(ctx, owner, b.ID, pkm.BookmarkPatch{Title: ptr(""), FolderIDs: &[]string{"nope"}})
		assert.ElementsMatch(t, []string{"title", "folderIds"}, violationFields(t, err))

		got, err := svc.GetBookmark(ctx, owner, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "New title", got.Title, "a rejected patch changes nothing")
	})

	t.Run("missing bookmark", func(t *testing.T) {
		_, err := svc.UpdateBookmark(ctx, owner, "nope", pkm.BookmarkPatch{Title: ptr("x")})
		assert.ErrorIs(t, err, pkm.ErrNotFound)
	})

	t.Run("url change recomputes domain", func(t *testing.T) {
		got, err := svc.UpdateBookmark(ctx, owner, b.ID, pkm.BookmarkPatch{URL: ptr("https://github.com/golang/go")})
		require.NoError(t, err)
		assert.Equal(t, "github.com", got.Metadata.Domain)
	})
}

func TestService_DeleteBookmark(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	b := createBookmark(t, svc, pkm.PersonaStudent, "https://example.com", "go")
	require.NoError(t, svc.DeleteBookmark(ctx, owner, b.ID))

	_, err := svc.GetBookmark(ctx, owner, b.ID)
	assert.ErrorIs(t, err, pkm.ErrNotFound)

	err = svc.DeleteBookmark(ctx, owner, b.ID)
	assert.ErrorIs(t, err, pkm.ErrNotFound)

	page, err := svc.ListBookmarks(ctx, owner, pkm.PersonaStudent, pkm.BookmarkQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	tags, err := svc.SearchTags(ctx, owner, "go", 0)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Zero(t, tags[0].UsageCount)
}

func TestService_RecordVisit(t *testing.T) {
	ctx := context.Background()
	svc, clock := testutil.NewTestService(t)

	b := createBookmark(t, svc, pkm.PersonaStudent, "https://example.com")
	clock.Advance(time.Minute)

	stats, err := svc.RecordVisit(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.VisitCount)
	assert.Equal(t, clock.Now(), stats.LastVisited)

	got, err := svc.GetBookmark(ctx, owner, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastVisited)
	assert.True(t, got.LastVisited.Equal(clock.Now()))

	_, err = svc.RecordVisit(ctx, owner, "missing")
	assert.ErrorIs(t, err, pkm.ErrNotFound)
}

func TestService_ToggleArchive(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	b := createBookmark(t, svc, pkm.PersonaStudent, "https://example.com")

	archived, err := svc.ToggleArchive(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.True(t, archived)

	archived, err = svc.ToggleArchive(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.False(t, archived)
}

func TestService_ResolveShortURL(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	_, err := svc.CreateBookmark(ctx, owner, pkm.PersonaCreator, pkm.BookmarkInput{
		URL: "https://example.com/long/path", Title: "t", ShortURL: "ex-1",
	})
	require.NoError(t, err)

	target, err := svc.ResolveShortURL(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/long/path", target)

	_, err = svc.ResolveShortURL(ctx, "unknown")
	assert.ErrorIs(t, err, pkm.ErrNotFound)
}

func TestService_Folders(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	f, err := svc.CreateFolder(ctx, owner, pkm.PersonaStudent, "Papers")
	require.NoError(t, err)

	_, err = svc.CreateFolder(ctx, owner, pkm.PersonaStudent, "Papers")
	assert.ErrorIs(t, err, pkm.ErrDuplicate)

	again, err := svc.EnsureFolder(ctx, owner, pkm.PersonaStudent, " Papers ")
	require.NoError(t, err)
	assert.Equal(t, f.ID, again.ID)

	_, err = svc.CreateFolder(ctx, owner, pkm.PersonaStudent, "")
	assert.Equal(t, []string{"name"}, violationFields(t, err))

	b, err := svc.CreateBookmark(ctx, owner, pkm.PersonaStudent, pkm.BookmarkInput{
		URL: "https://example.com", Title: "t", FolderIDs: []string{f.ID},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFolder(ctx, owner, f.ID))
	got, err := svc.GetBookmark(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FolderIDs)

	folders, err := svc.ListFolders(ctx, owner, pkm.PersonaStudent)
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestService_CanceledContext(t *testing.T) {
	svc, _ := testutil.NewTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GetBookmark(ctx, owner, "any")
	assert.True(t, errors.Is(err, pkm.ErrTimeout), "got %v", err)
	assert.Equal(t, pkm.CodeTimeout, pkm.ErrorCode(err))
}
