package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pkm/internal/pkm"
)

const bookmarkColumns = `id, owner_id, persona, url, title, description, category, short_url,
	clicks, visit_count, last_visited, is_archived, is_public, priority,
	meta_image, meta_author, meta_published_date, meta_reading_time, meta_content_type, meta_language,
	deleted_at, created_at, updated_at`

func scanBookmark(row interface{ Scan(...any) error }) (*pkm.Bookmark, error) {
	var (
		b                               pkm.Bookmark
		persona, priority               string
		shortURL                        sql.NullString
		lastVisited, published, deleted sql.NullTime
	)
	err := row.Scan(&b.ID, &b.OwnerID, &persona, &b.URL, &b.Title, &b.Description, &b.Category, &shortURL,
		&b.Clicks, &b.VisitCount, &lastVisited, &b.IsArchived, &b.IsPublic, &priority,
		&b.Metadata.Image, &b.Metadata.Author, &published, &b.Metadata.ReadingTime, &b.Metadata.ContentType, &b.Metadata.Language,
		&deleted, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Persona = pkm.Persona(persona)
	b.Priority = pkm.Priority(priority)
	b.ShortURL = shortURL.String
	b.LastVisited = timePtr(lastVisited)
	b.Metadata.PublishedDate = timePtr(published)
	b.Metadata.Domain = pkm.DomainOf(b.URL)
	b.DeletedAt = timePtr(deleted)
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	b.FolderIDs = []string{}
	b.Tags = []pkm.TagRef{}
	return &b, nil
}

// bookmarkDuplicate converts a unique violation on bookmarks into a
// *pkm.DuplicateError naming the clashing field.
func bookmarkDuplicate(err error) error {
	cols := uniqueViolation(err)
	switch {
	case cols == "":
		return nil
	case strings.Contains(cols, "short_url"):
		return &pkm.DuplicateError{Resource: "bookmark", Field: "shortUrl"}
	default:
		return &pkm.DuplicateError{Resource: "bookmark", Field: "url"}
	}
}

// hydrate loads tags and folders for a page of bookmarks in two queries.
func hydrate(ctx context.Context, q querier, bookmarks []*pkm.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}
	ids := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		ids[i] = b.ID
	}

	tags, err := loadTagRefs(ctx, q, bookmarkTagLink, ids)
	if err != nil {
		return err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT bookmark_id, folder_id FROM bookmark_folders
		WHERE bookmark_id IN (`+placeholders(len(ids))+`)
		ORDER BY folder_id`, stringArgs(ids)...)
	if err != nil {
		return mapError("loading folders", err)
	}
	defer rows.Close()

	folders := make(map[string][]string, len(ids))
	for rows.Next() {
		var bookmarkID, folderID string
		if err := rows.Scan(&bookmarkID, &folderID); err != nil {
			return mapError("scanning folder link", err)
		}
		folders[bookmarkID] = append(folders[bookmarkID], folderID)
	}
	if err := rows.Err(); err != nil {
		return mapError("loading folders", err)
	}

	for _, b := range bookmarks {
		if t, ok := tags[b.ID]; ok {
			b.Tags = t
		}
		if f, ok := folders[b.ID]; ok {
			b.FolderIDs = f
		}
	}
	return nil
}

func setFolders(ctx context.Context, q querier, bookmarkID string, folderIDs []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM bookmark_folders WHERE bookmark_id = ?`, bookmarkID); err != nil {
		return mapError("clearing folders", err)
	}
	for _, fid := range folderIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO bookmark_folders (bookmark_id, folder_id) VALUES (?, ?)`, bookmarkID, fid); err != nil {
			return mapError("linking folder", err)
		}
	}
	return nil
}

func (s *SQLiteDatabase) InsertBookmark(ctx context.Context, b *pkm.Bookmark, tagNames []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bookmarks (`+bookmarkColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, NULL, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
			b.ID, b.OwnerID, string(b.Persona), b.URL, b.Title, b.Description, b.Category, nullString(b.ShortURL),
			b.IsArchived, b.IsPublic, string(b.Priority),
			b.Metadata.Image, b.Metadata.Author, nullTime(b.Metadata.PublishedDate), b.Metadata.ReadingTime,
			b.Metadata.ContentType, b.Metadata.Language,
			b.CreatedAt, b.UpdatedAt)
		if err != nil {
			if dup := bookmarkDuplicate(err); dup != nil {
				return dup
			}
			return mapError("inserting bookmark", err)
		}

		if err := setFolders(ctx, tx, b.ID, b.FolderIDs); err != nil {
			return err
		}

		refs, err := s.attachTagNames(ctx, tx, bookmarkTagLink, b.OwnerID, b.Persona, b.ID, tagNames, b.CreatedAt)
		if err != nil {
			return err
		}
		b.Tags = refs
		if b.FolderIDs == nil {
			b.FolderIDs = []string{}
		}
		return nil
	})
}

func (s *SQLiteDatabase) getBookmark(ctx context.Context, ownerID, id string, includeDeleted bool) (*pkm.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE id = ? AND owner_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	b, err := scanBookmark(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("finding bookmark", err)
	}
	if err := hydrate(ctx, s.db, []*pkm.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *SQLiteDatabase) GetBookmark(ctx context.Context, ownerID, id string) (*pkm.Bookmark, error) {
	return s.getBookmark(ctx, ownerID, id, false)
}

func (s *SQLiteDatabase) FindBookmarkIncludingDeleted(ctx context.Context, ownerID, id string) (*pkm.Bookmark, error) {
	return s.getBookmark(ctx, ownerID, id, true)
}

func (s *SQLiteDatabase) UpdateBookmark(ctx context.Context, b *pkm.Bookmark, tagNames, folderIDs []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE bookmarks SET
				url = ?, title = ?, description = ?, category = ?, short_url = ?,
				is_public = ?, priority = ?,
				meta_image = ?, meta_author = ?, meta_published_date = ?, meta_reading_time = ?,
				meta_content_type = ?, meta_language = ?,
				updated_at = ?
			WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`,
			b.URL, b.Title, b.Description, b.Category, nullString(b.ShortURL),
			b.IsPublic, string(b.Priority),
			b.Metadata.Image, b.Metadata.Author, nullTime(b.Metadata.PublishedDate), b.Metadata.ReadingTime,
			b.Metadata.ContentType, b.Metadata.Language,
			b.UpdatedAt,
			b.ID, b.OwnerID)
		if err != nil {
			if dup := bookmarkDuplicate(err); dup != nil {
				return dup
			}
			return mapError("updating bookmark", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &pkm.NotFoundError{Kind: "bookmark", ID: b.ID}
		}

		if folderIDs != nil {
			if err := setFolders(ctx, tx, b.ID, folderIDs); err != nil {
				return err
			}
		}
		if tagNames != nil {
			if err := s.replaceTags(ctx, tx, bookmarkTagLink, b.OwnerID, b.Persona, b.ID, tagNames, b.UpdatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteDatabase) SoftDeleteBookmark(ctx context.Context, ownerID, id string, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE bookmarks SET deleted_at = ?, updated_at = ?
			WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`, at, at, id, ownerID)
		if err != nil {
			return mapError("deleting bookmark", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &pkm.NotFoundError{Kind: "bookmark", ID: id}
		}

		tagIDs, err := linkedTagIDs(ctx, tx, bookmarkTagLink, id)
		if err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			if err := s.detachTag(ctx, tx, bookmarkTagLink, id, tagID, at); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteDatabase) IncrementVisit(ctx context.Context, ownerID, id string, at time.Time) (*pkm.VisitStats, error) {
	var stats pkm.VisitStats
	err := s.db.QueryRowContext(ctx, `
		UPDATE bookmarks SET visit_count = visit_count + 1, last_visited = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
		RETURNING visit_count`, at, id, ownerID).Scan(&stats.VisitCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &pkm.NotFoundError{Kind: "bookmark", ID: id}
		}
		return nil, mapError("incrementing visit count", err)
	}
	stats.LastVisited = at.UTC()
	return &stats, nil
}

func (s *SQLiteDatabase) ToggleArchive(ctx context.Context, ownerID, id string, at time.Time) (bool, error) {
	var archived bool
	err := s.db.QueryRowContext(ctx, `
		UPDATE bookmarks SET is_archived = NOT is_archived, updated_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
		RETURNING is_archived`, at, id, ownerID).Scan(&archived)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, &pkm.NotFoundError{Kind: "bookmark", ID: id}
		}
		return false, mapError("toggling archive", err)
	}
	return archived, nil
}

// updateLive runs a single-row UPDATE against a live bookmark and reports
// *pkm.NotFoundError when nothing matched.
func (s *SQLiteDatabase) updateLive(ctx context.Context, op, set string, ownerID, id string, args ...any) error {
	args = append(args, id, ownerID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookmarks SET `+set+` WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`, args...)
	if err != nil {
		return mapError(op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &pkm.NotFoundError{Kind: "bookmark", ID: id}
	}
	return nil
}

func (s *SQLiteDatabase) SetArchived(ctx context.Context, ownerID, id string, archived bool, at time.Time) error {
	return s.updateLive(ctx, "setting archive flag", "is_archived = ?, updated_at = ?", ownerID, id, archived, at)
}

func (s *SQLiteDatabase) SetCategory(ctx context.Context, ownerID, id, category string, at time.Time) error {
	return s.updateLive(ctx, "setting category", "category = ?, updated_at = ?", ownerID, id, category, at)
}

func (s *SQLiteDatabase) MoveToFolder(ctx context.Context, ownerID, id, folderID string, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var persona string
		err := tx.QueryRowContext(ctx,
			`SELECT persona FROM bookmarks WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`, id, ownerID).Scan(&persona)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &pkm.NotFoundError{Kind: "bookmark", ID: id}
			}
			return mapError("finding bookmark", err)
		}

		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM folders WHERE id = ? AND owner_id = ? AND persona = ?`, folderID, ownerID, persona).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &pkm.NotFoundError{Kind: "folder", ID: folderID}
			}
			return mapError("finding folder", err)
		}

		if err := setFolders(ctx, tx, id, []string{folderID}); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE bookmarks SET updated_at = ? WHERE id = ?`, at, id); err != nil {
			return mapError("touching bookmark", err)
		}
		return nil
	})
}

// IncrementClicks leaves updated_at alone; a click is not an edit.
func (s *SQLiteDatabase) IncrementClicks(ctx context.Context, shortURL string, at time.Time) (*pkm.Bookmark, error) {
	var id, ownerID string
	err := s.db.QueryRowContext(ctx, `
		UPDATE bookmarks SET clicks = clicks + 1
		WHERE short_url = ? AND deleted_at IS NULL
		RETURNING id, owner_id`, shortURL).Scan(&id, &ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("incrementing clicks", err)
	}
	return s.GetBookmark(ctx, ownerID, id)
}

// sortColumns whitelists ORDER BY targets.
var sortColumns = map[pkm.SortField]string{
	pkm.SortCreatedAt:   "b.created_at",
	pkm.SortUpdatedAt:   "b.updated_at",
	pkm.SortTitle:       "b.title COLLATE NOCASE",
	pkm.SortVisitCount:  "b.visit_count",
	pkm.SortClicks:      "b.clicks",
	pkm.SortLastVisited: "b.last_visited",
}

func (s *SQLiteDatabase) ListBookmarks(ctx context.Context, ownerID string, persona pkm.Persona, q pkm.BookmarkQuery) ([]*pkm.Bookmark, int, error) {
	where := []string{"b.owner_id = ?", "b.persona = ?", "b.deleted_at IS NULL"}
	args := []any{ownerID, string(persona)}

	if q.FolderID != "" {
		where = append(where, "EXISTS (SELECT 1 FROM bookmark_folders bf WHERE bf.bookmark_id = b.id AND bf.folder_id = ?)")
		args = append(args, q.FolderID)
	}
	if q.Archived != nil {
		where = append(where, "b.is_archived = ?")
		args = append(args, *q.Archived)
	}
	if q.Search != "" {
		where = append(where, `(unicode_lower(b.title) LIKE ? ESCAPE '\' OR unicode_lower(b.description) LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		args = append(args, pattern, pattern)
	}
	if len(q.Tags) > 0 {
		where = append(where, `b.id IN (
			SELECT bt.bookmark_id FROM bookmark_tags bt JOIN tags t ON t.id = bt.tag_id
			WHERE t.owner_id = ? AND t.name_key IN (`+placeholders(len(q.Tags))+`)
			GROUP BY bt.bookmark_id
			HAVING COUNT(DISTINCT t.id) = ?)`)
		args = append(args, ownerID)
		args = append(args, stringArgs(q.Tags)...)
		args = append(args, len(q.Tags))
	}
	filter := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks b WHERE `+filter, args...).Scan(&total); err != nil {
		return nil, 0, mapError("counting bookmarks", err)
	}

	col, ok := sortColumns[q.Sort]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported sort field %q", q.Sort)
	}
	dir := "DESC"
	if q.Order == pkm.SortAsc {
		dir = "ASC"
	}

	pageArgs := append(append([]any{}, args...), q.PageSize, q.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixed("b.", bookmarkColumns)+` FROM bookmarks b
		WHERE `+filter+`
		ORDER BY `+col+` `+dir+`, b.id `+dir+`
		LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, mapError("listing bookmarks", err)
	}
	defer rows.Close()

	bookmarks := []*pkm.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, 0, mapError("scanning bookmark", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("listing bookmarks", err)
	}
	rows.Close()

	if err := hydrate(ctx, s.db, bookmarks); err != nil {
		return nil, 0, err
	}
	return bookmarks, total, nil
}

// prefixed qualifies every column in a comma separated list with p.
func prefixed(p, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = p + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}
