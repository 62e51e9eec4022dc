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

// tagLink names the link table joining a resource type to tags.
type tagLink struct {
	table  string
	column string
}

var (
	bookmarkTagLink  = tagLink{table: "bookmark_tags", column: "bookmark_id"}
	satelliteTagLink = tagLink{table: "satellite_tags", column: "satellite_id"}
)

const tagColumns = "id, owner_id, persona, name, usage_count, created_at, updated_at"

func scanTag(row interface{ Scan(...any) error }) (*pkm.Tag, error) {
	var t pkm.Tag
	var persona string
	if err := row.Scan(&t.ID, &t.OwnerID, &persona, &t.Name, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Persona = pkm.Persona(persona)
	return &t, nil
}

// escapeLike escapes LIKE wildcards; queries pair it with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// findOrCreateTag returns the owner's tag for name, creating it on first use.
// The display name and persona of the first use are kept.
func (s *SQLiteDatabase) findOrCreateTag(ctx context.Context, q querier, ownerID string, persona pkm.Persona, name string, at time.Time) (pkm.TagRef, error) {
	name = strings.TrimSpace(name)
	key := pkm.TagKey(name)

	_, err := q.ExecContext(ctx, `
		INSERT INTO tags (id, owner_id, persona, name, name_key, usage_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (owner_id, name_key) DO NOTHING`,
		s.idgen.New(), ownerID, string(persona), name, key, at, at)
	if err != nil {
		return pkm.TagRef{}, mapError("inserting tag", err)
	}

	var ref pkm.TagRef
	err = q.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE owner_id = ? AND name_key = ?`, ownerID, key).
		Scan(&ref.ID, &ref.Name)
	if err != nil {
		return pkm.TagRef{}, mapError("finding tag", err)
	}
	return ref, nil
}

// attachTag links tagID to a resource and bumps usage if the link is new.
func attachTag(ctx context.Context, q querier, link tagLink, resourceID, tagID string, at time.Time) error {
	res, err := q.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s, tag_id) VALUES (?, ?)`, link.table, link.column),
		resourceID, tagID)
	if err != nil {
		return mapError("linking tag", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE tags SET usage_count = usage_count + 1, updated_at = ? WHERE id = ?`, at, tagID); err != nil {
		return mapError("incrementing tag usage", err)
	}
	return nil
}

// detachTag unlinks tagID from a resource and decrements usage. A count
// already at zero is left there and logged.
func (s *SQLiteDatabase) detachTag(ctx context.Context, q querier, link tagLink, resourceID, tagID string, at time.Time) error {
	res, err := q.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND tag_id = ?`, link.table, link.column),
		resourceID, tagID)
	if err != nil {
		return mapError("unlinking tag", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	res, err = q.ExecContext(ctx,
		`UPDATE tags SET usage_count = usage_count - 1, updated_at = ? WHERE id = ? AND usage_count > 0`, at, tagID)
	if err != nil {
		return mapError("decrementing tag usage", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Warn("tag usage underflow clamped at zero",
			"tag_id", tagID, "resource_id", resourceID, "error", pkm.ErrInconsistency)
	}
	return nil
}

// attachTagNames find-or-creates and links every name, returning refs in
// input order.
func (s *SQLiteDatabase) attachTagNames(ctx context.Context, q querier, link tagLink, ownerID string, persona pkm.Persona, resourceID string, names []string, at time.Time) ([]pkm.TagRef, error) {
	refs := make([]pkm.TagRef, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		ref, err := s.findOrCreateTag(ctx, q, ownerID, persona, name, at)
		if err != nil {
			return nil, err
		}
		if seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		if err := attachTag(ctx, q, link, resourceID, ref.ID, at); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// replaceTags makes the resource's tag set exactly names, adjusting usage
// for each added or removed link.
func (s *SQLiteDatabase) replaceTags(ctx context.Context, q querier, link tagLink, ownerID string, persona pkm.Persona, resourceID string, names []string, at time.Time) error {
	current, err := linkedTagIDs(ctx, q, link, resourceID)
	if err != nil {
		return err
	}
	refs, err := s.attachTagNames(ctx, q, link, ownerID, persona, resourceID, names, at)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(refs))
	for _, r := range refs {
		keep[r.ID] = true
	}
	for _, id := range current {
		if keep[id] {
			continue
		}
		if err := s.detachTag(ctx, q, link, resourceID, id, at); err != nil {
			return err
		}
	}
	return nil
}

func linkedTagIDs(ctx context.Context, q querier, link tagLink, resourceID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT tag_id FROM %s WHERE %s = ?`, link.table, link.column), resourceID)
	if err != nil {
		return nil, mapError("listing tag links", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError("scanning tag link", err)
		}
		ids = append(ids, id)
	}
	return ids, mapError("listing tag links", rows.Err())
}

// loadTagRefs returns the tags of each resource in ids, ordered by name.
func loadTagRefs(ctx context.Context, q querier, link tagLink, ids []string) (map[string][]pkm.TagRef, error) {
	out := make(map[string][]pkm.TagRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT l.%[2]s, t.id, t.name
		FROM %[1]s l JOIN tags t ON t.id = l.tag_id
		WHERE l.%[2]s IN (%[3]s)
		ORDER BY t.name_key, t.id`, link.table, link.column, placeholders(len(ids))),
		stringArgs(ids)...)
	if err != nil {
		return nil, mapError("loading tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var resourceID string
		var ref pkm.TagRef
		if err := rows.Scan(&resourceID, &ref.ID, &ref.Name); err != nil {
			return nil, mapError("scanning tag", err)
		}
		out[resourceID] = append(out[resourceID], ref)
	}
	return out, mapError("loading tags", rows.Err())
}

func (s *SQLiteDatabase) SearchTags(ctx context.Context, ownerID, prefix string, limit int) ([]*pkm.Tag, error) {
	return s.queryTags(ctx, `
		SELECT `+tagColumns+` FROM tags
		WHERE owner_id = ? AND name_key LIKE ? ESCAPE '\'
		ORDER BY usage_count DESC, name_key ASC, name ASC
		LIMIT ?`,
		ownerID, escapeLike(pkm.TagKey(prefix))+"%", limit)
}

func (s *SQLiteDatabase) ListTags(ctx context.Context, ownerID string) ([]*pkm.Tag, error) {
	return s.queryTags(ctx, `
		SELECT `+tagColumns+` FROM tags
		WHERE owner_id = ?
		ORDER BY usage_count DESC, name_key ASC, name ASC`, ownerID)
}

func (s *SQLiteDatabase) queryTags(ctx context.Context, query string, args ...any) ([]*pkm.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("querying tags", err)
	}
	defer rows.Close()

	tags := []*pkm.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, mapError("scanning tag", err)
		}
		tags = append(tags, t)
	}
	return tags, mapError("querying tags", rows.Err())
}

func (s *SQLiteDatabase) FindTagByName(ctx context.Context, ownerID, name string) (*pkm.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = ? AND name_key = ?`, ownerID, pkm.TagKey(name))
	t, err := scanTag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("finding tag", err)
	}
	return t, nil
}

// taggedContent is the union of live bookmarks and satellites carrying a tag.
const taggedContent = `
	SELECT 'bookmark' AS kind, b.id AS id, b.persona AS persona, b.title AS title, b.created_at AS created_at
	FROM bookmark_tags bt JOIN bookmarks b ON b.id = bt.bookmark_id
	WHERE bt.tag_id = ? AND b.deleted_at IS NULL
	UNION ALL
	SELECT s.kind, s.id, s.persona, s.title, s.created_at
	FROM satellite_tags st JOIN satellites s ON s.id = st.satellite_id
	WHERE st.tag_id = ?`

func (s *SQLiteDatabase) ContentByTag(ctx context.Context, tagID string, limit, offset int) ([]pkm.TaggedItem, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (`+taggedContent+`)`, tagID, tagID).Scan(&total); err != nil {
		return nil, 0, mapError("counting tagged content", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, id, persona, title FROM (`+taggedContent+`)
		ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`,
		tagID, tagID, limit, offset)
	if err != nil {
		return nil, 0, mapError("listing tagged content", err)
	}
	defer rows.Close()

	items := []pkm.TaggedItem{}
	for rows.Next() {
		var it pkm.TaggedItem
		var persona string
		if err := rows.Scan(&it.Kind, &it.ID, &persona, &it.Title); err != nil {
			return nil, 0, mapError("scanning tagged content", err)
		}
		it.Persona = pkm.Persona(persona)
		items = append(items, it)
	}
	return items, total, mapError("listing tagged content", rows.Err())
}

func (s *SQLiteDatabase) RecountTagUsage(ctx context.Context, ownerID string, at time.Time) ([]pkm.TagDrift, error) {
	var drifts []pkm.TagDrift
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT t.id, t.name, t.usage_count,
				(SELECT COUNT(*) FROM bookmark_tags bt JOIN bookmarks b ON b.id = bt.bookmark_id
				 WHERE bt.tag_id = t.id AND b.deleted_at IS NULL)
				+ (SELECT COUNT(*) FROM satellite_tags st WHERE st.tag_id = t.id) AS actual
			FROM tags t
			WHERE t.owner_id = ?`, ownerID)
		if err != nil {
			return mapError("counting tag links", err)
		}
		for rows.Next() {
			var d pkm.TagDrift
			if err := rows.Scan(&d.TagID, &d.Name, &d.Stored, &d.Actual); err != nil {
				rows.Close()
				return mapError("scanning tag count", err)
			}
			if d.Stored != d.Actual {
				drifts = append(drifts, d)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return mapError("counting tag links", err)
		}

		for _, d := range drifts {
			if _, err := tx.ExecContext(ctx,
				`UPDATE tags SET usage_count = ?, updated_at = ? WHERE id = ?`, d.Actual, at, d.TagID); err != nil {
				return mapError("correcting tag usage", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drifts, nil
}
