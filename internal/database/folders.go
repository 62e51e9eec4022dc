package database

import (
	"context"
	"database/sql"
	"errors"

	"pkm/internal/pkm"
)

const folderColumns = `id, owner_id, persona, name, created_at, updated_at`

func scanFolder(row interface{ Scan(...any) error }) (*pkm.Folder, error) {
	var (
		f       pkm.Folder
		persona string
	)
	if err := row.Scan(&f.ID, &f.OwnerID, &persona, &f.Name, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Persona = pkm.Persona(persona)
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	return &f, nil
}

func (s *SQLiteDatabase) InsertFolder(ctx context.Context, f *pkm.Folder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO folders (`+folderColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.OwnerID, string(f.Persona), f.Name, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) != "" {
			return &pkm.DuplicateError{Resource: "folder", Field: "name"}
		}
		return mapError("inserting folder", err)
	}
	return nil
}

func (s *SQLiteDatabase) findFolder(ctx context.Context, op, where string, args ...any) (*pkm.Folder, error) {
	f, err := scanFolder(s.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return f, nil
}

func (s *SQLiteDatabase) GetFolder(ctx context.Context, ownerID, id string) (*pkm.Folder, error) {
	return s.findFolder(ctx, "finding folder", "id = ? AND owner_id = ?", id, ownerID)
}

func (s *SQLiteDatabase) FindFolderByName(ctx context.Context, ownerID string, persona pkm.Persona, name string) (*pkm.Folder, error) {
	return s.findFolder(ctx, "finding folder by name",
		"owner_id = ? AND persona = ? AND name = ?", ownerID, string(persona), name)
}

func (s *SQLiteDatabase) ListFolders(ctx context.Context, ownerID string, persona pkm.Persona) ([]*pkm.Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+folderColumns+` FROM folders
		WHERE owner_id = ? AND persona = ?
		ORDER BY name COLLATE NOCASE, name`, ownerID, string(persona))
	if err != nil {
		return nil, mapError("listing folders", err)
	}
	defer rows.Close()

	folders := []*pkm.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, mapError("scanning folder", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("listing folders", err)
	}
	return folders, nil
}

// DeleteFolder relies on ON DELETE CASCADE to drop memberships.
func (s *SQLiteDatabase) DeleteFolder(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return mapError("deleting folder", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &pkm.NotFoundError{Kind: "folder", ID: id}
	}
	return nil
}
