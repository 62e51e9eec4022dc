package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pkm/internal/pkm"
)

const plannerColumns = `id, owner_id, persona, type, title, scheduled_for, duration_minutes, status, recurrence, created_at, updated_at`

func scanPlannerEntry(row interface{ Scan(...any) error }) (*pkm.PlannerEntry, error) {
	var (
		e                                pkm.PlannerEntry
		persona, typ, status, recurrence string
	)
	err := row.Scan(&e.ID, &e.OwnerID, &persona, &typ, &e.Title, &e.ScheduledFor, &e.DurationMinutes,
		&status, &recurrence, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Persona = pkm.Persona(persona)
	e.Type = pkm.PlannerType(typ)
	e.Status = pkm.PlannerStatus(status)
	e.Recurrence = pkm.Recurrence(recurrence)
	e.ScheduledFor = e.ScheduledFor.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func (s *SQLiteDatabase) InsertPlannerEntry(ctx context.Context, e *pkm.PlannerEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO planner_entries (`+plannerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, string(e.Persona), string(e.Type), e.Title, e.ScheduledFor.UTC(), e.DurationMinutes,
		string(e.Status), string(e.Recurrence), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return mapError("inserting planner entry", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetPlannerEntry(ctx context.Context, ownerID, id string) (*pkm.PlannerEntry, error) {
	e, err := scanPlannerEntry(s.db.QueryRowContext(ctx,
		`SELECT `+plannerColumns+` FROM planner_entries WHERE id = ? AND owner_id = ?`, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("finding planner entry", err)
	}
	return e, nil
}

func (s *SQLiteDatabase) UpdatePlannerEntry(ctx context.Context, e *pkm.PlannerEntry) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE planner_entries SET
			title = ?, scheduled_for = ?, duration_minutes = ?, status = ?, recurrence = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		e.Title, e.ScheduledFor.UTC(), e.DurationMinutes, string(e.Status), string(e.Recurrence), e.UpdatedAt,
		e.ID, e.OwnerID)
	if err != nil {
		return mapError("updating planner entry", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &pkm.NotFoundError{Kind: "planner entry", ID: e.ID}
	}
	return nil
}

// ListPlannerEntries returns entries with from <= scheduled_for < to. A
// zero bound is open.
func (s *SQLiteDatabase) ListPlannerEntries(ctx context.Context, ownerID string, persona pkm.Persona, from, to time.Time) ([]*pkm.PlannerEntry, error) {
	query := `SELECT ` + plannerColumns + ` FROM planner_entries WHERE owner_id = ? AND persona = ?`
	args := []any{ownerID, string(persona)}
	if !from.IsZero() {
		query += ` AND scheduled_for >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND scheduled_for < ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY scheduled_for, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("listing planner entries", err)
	}
	defer rows.Close()

	entries := []*pkm.PlannerEntry{}
	for rows.Next() {
		e, err := scanPlannerEntry(rows)
		if err != nil {
			return nil, mapError("scanning planner entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("listing planner entries", err)
	}
	return entries, nil
}
