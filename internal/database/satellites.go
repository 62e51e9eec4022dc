package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pkm/internal/pkm"
)

const satelliteColumns = `id, owner_id, persona, kind, title, status, due_at, created_at, updated_at`

func scanSatellite(row interface{ Scan(...any) error }) (*pkm.Satellite, error) {
	var (
		sat           pkm.Satellite
		persona, kind string
		due           sql.NullTime
	)
	if err := row.Scan(&sat.ID, &sat.OwnerID, &persona, &kind, &sat.Title, &sat.Status, &due, &sat.CreatedAt, &sat.UpdatedAt); err != nil {
		return nil, err
	}
	sat.Persona = pkm.Persona(persona)
	sat.Kind = pkm.SatelliteKind(kind)
	sat.DueAt = timePtr(due)
	sat.CreatedAt = sat.CreatedAt.UTC()
	sat.UpdatedAt = sat.UpdatedAt.UTC()
	sat.Tags = []pkm.TagRef{}
	sat.ResourceIDs = []string{}
	return &sat, nil
}

func (s *SQLiteDatabase) InsertSatellite(ctx context.Context, sat *pkm.Satellite, tagNames []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO satellites (`+satelliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sat.ID, sat.OwnerID, string(sat.Persona), string(sat.Kind), sat.Title, sat.Status,
			nullTime(sat.DueAt), sat.CreatedAt, sat.UpdatedAt)
		if err != nil {
			return mapError("inserting satellite", err)
		}

		refs, err := s.attachTagNames(ctx, tx, satelliteTagLink, sat.OwnerID, sat.Persona, sat.ID, tagNames, sat.CreatedAt)
		if err != nil {
			return err
		}
		sat.Tags = refs
		if sat.ResourceIDs == nil {
			sat.ResourceIDs = []string{}
		}
		return nil
	})
}

func (s *SQLiteDatabase) GetSatellite(ctx context.Context, ownerID, id string) (*pkm.Satellite, error) {
	sat, err := scanSatellite(s.db.QueryRowContext(ctx,
		`SELECT `+satelliteColumns+` FROM satellites WHERE id = ? AND owner_id = ?`, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("finding satellite", err)
	}
	if err := s.hydrateSatellites(ctx, []*pkm.Satellite{sat}); err != nil {
		return nil, err
	}
	return sat, nil
}

func (s *SQLiteDatabase) ListSatellites(ctx context.Context, ownerID string, persona pkm.Persona, kind pkm.SatelliteKind) ([]*pkm.Satellite, error) {
	query := `SELECT ` + satelliteColumns + ` FROM satellites WHERE owner_id = ? AND persona = ?`
	args := []any{ownerID, string(persona)}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("listing satellites", err)
	}
	defer rows.Close()

	sats := []*pkm.Satellite{}
	for rows.Next() {
		sat, err := scanSatellite(rows)
		if err != nil {
			return nil, mapError("scanning satellite", err)
		}
		sats = append(sats, sat)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("listing satellites", err)
	}
	rows.Close()

	if err := s.hydrateSatellites(ctx, sats); err != nil {
		return nil, err
	}
	return sats, nil
}

// hydrateSatellites loads tags and resource ids for sats.
func (s *SQLiteDatabase) hydrateSatellites(ctx context.Context, sats []*pkm.Satellite) error {
	if len(sats) == 0 {
		return nil
	}
	ids := make([]string, len(sats))
	for i, sat := range sats {
		ids[i] = sat.ID
	}

	tags, err := loadTagRefs(ctx, s.db, satelliteTagLink, ids)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT satellite_id, bookmark_id FROM satellite_resources
		WHERE satellite_id IN (`+placeholders(len(ids))+`)
		ORDER BY created_at, bookmark_id`, stringArgs(ids)...)
	if err != nil {
		return mapError("loading satellite resources", err)
	}
	defer rows.Close()

	resources := make(map[string][]string, len(ids))
	for rows.Next() {
		var satID, bookmarkID string
		if err := rows.Scan(&satID, &bookmarkID); err != nil {
			return mapError("scanning satellite resource", err)
		}
		resources[satID] = append(resources[satID], bookmarkID)
	}
	if err := rows.Err(); err != nil {
		return mapError("loading satellite resources", err)
	}

	for _, sat := range sats {
		if t, ok := tags[sat.ID]; ok {
			sat.Tags = t
		}
		if r, ok := resources[sat.ID]; ok {
			sat.ResourceIDs = r
		}
	}
	return nil
}

func (s *SQLiteDatabase) UpdateSatelliteStatus(ctx context.Context, ownerID, id, status string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE satellites SET status = ?, updated_at = ? WHERE id = ? AND owner_id = ?`, status, at, id, ownerID)
	if err != nil {
		return mapError("updating satellite status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &pkm.NotFoundError{Kind: "satellite", ID: id}
	}
	return nil
}

func (s *SQLiteDatabase) AttachResource(ctx context.Context, satelliteID, bookmarkID string, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO satellite_resources (satellite_id, bookmark_id, created_at)
			VALUES (?, ?, ?)`, satelliteID, bookmarkID, at)
		if err != nil {
			return mapError("attaching resource", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE satellites SET updated_at = ? WHERE id = ?`, at, satelliteID); err != nil {
			return mapError("touching satellite", err)
		}
		return nil
	})
}

func (s *SQLiteDatabase) DetachResource(ctx context.Context, satelliteID, bookmarkID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM satellite_resources WHERE satellite_id = ? AND bookmark_id = ?`, satelliteID, bookmarkID)
	if err != nil {
		return mapError("detaching resource", err)
	}
	return nil
}

func (s *SQLiteDatabase) SatelliteResources(ctx context.Context, satelliteID string) ([]pkm.ResourceRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.deleted_at IS NOT NULL, b.title, b.url
		FROM satellite_resources sr JOIN bookmarks b ON b.id = sr.bookmark_id
		WHERE sr.satellite_id = ?
		ORDER BY sr.created_at, b.id`, satelliteID)
	if err != nil {
		return nil, mapError("resolving satellite resources", err)
	}
	defer rows.Close()

	refs := []pkm.ResourceRef{}
	for rows.Next() {
		var ref pkm.ResourceRef
		if err := rows.Scan(&ref.ID, &ref.Deleted, &ref.Title, &ref.URL); err != nil {
			return nil, mapError("scanning resource", err)
		}
		if ref.Deleted {
			ref.Title, ref.URL = "", ""
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("resolving satellite resources", err)
	}
	return refs, nil
}

func (s *SQLiteDatabase) FindReferrers(ctx context.Context, ownerID, bookmarkID string) ([]pkm.Referrer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.kind, s.persona, s.title
		FROM satellite_resources sr JOIN satellites s ON s.id = sr.satellite_id
		WHERE sr.bookmark_id = ? AND s.owner_id = ?
		ORDER BY s.kind, s.created_at, s.id`, bookmarkID, ownerID)
	if err != nil {
		return nil, mapError("finding referrers", err)
	}
	defer rows.Close()

	referrers := []pkm.Referrer{}
	for rows.Next() {
		var (
			r             pkm.Referrer
			kind, persona string
		)
		if err := rows.Scan(&r.ID, &kind, &persona, &r.Title); err != nil {
			return nil, mapError("scanning referrer", err)
		}
		r.Kind = pkm.SatelliteKind(kind)
		r.Persona = pkm.Persona(persona)
		referrers = append(referrers, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("finding referrers", err)
	}
	return referrers, nil
}
