package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"pkm/internal/database/migrations"
	"pkm/internal/pkm"
)

// driverName is go-sqlite3 with unicode_lower registered on every
// connection. SQLite's own LOWER() folds ASCII only.
const driverName = "sqlite3_pkm"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

// SQLiteDatabase implements pkm.Database on SQLite.
type SQLiteDatabase struct {
	db     *sql.DB
	path   string
	logger pkm.Logger
	idgen  pkm.IDGenerator
}

var _ pkm.Database = (*SQLiteDatabase)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteDatabase opens a database at path (":memory:" for an in-memory
// one). logger receives inconsistency warnings and idgen mints tag ids;
// nil selects the no-op logger and random UUIDs.
func NewSQLiteDatabase(path string, logger pkm.Logger, idgen pkm.IDGenerator) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	s := NewSQLiteDatabaseFromDB(db, logger, idgen)
	s.path = path
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an already configured connection.
func NewSQLiteDatabaseFromDB(db *sql.DB, logger pkm.Logger, idgen pkm.IDGenerator) *SQLiteDatabase {
	if logger == nil {
		logger = pkm.NewNopLogger()
	}
	if idgen == nil {
		idgen = pkm.UUIDGenerator{}
	}
	return &SQLiteDatabase{db: db, logger: logger, idgen: idgen}
}

// OpenConnection opens a SQLite connection pool configured for the engine.
// Connection options go in the DSN so every pooled connection gets them:
// foreign keys on, a 5s busy timeout and BEGIN IMMEDIATE transactions so
// concurrent writers queue instead of failing on lock upgrade.
func OpenConnection(path string) (*sql.DB, error) {
	const opts = "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

	memory := path == ":memory:"
	dsn := "file:" + path + "?" + opts + "&_journal_mode=WAL"
	if memory {
		dsn = "file::memory:?" + opts
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// DB exposes the underlying pool for migrations and tests.
func (s *SQLiteDatabase) DB() *sql.DB { return s.db }

// inTx runs fn in a transaction, committing only if fn succeeds.
func (s *SQLiteDatabase) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("starting transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError("committing transaction", err)
	}
	return nil
}

// mapError wraps err with op, turning context expiry into pkm.ErrTimeout.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pkm.ErrTimeout) || errors.Is(err, pkm.ErrNotFound) || errors.Is(err, pkm.ErrDuplicate) || errors.Is(err, pkm.ErrValidation) {
		return err
	}
	var se sqlite3.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(errors.As(err, &se) && se.Code == sqlite3.ErrInterrupt) {
		return fmt.Errorf("%s: %w: %w", op, pkm.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// uniqueViolation returns the column list of a UNIQUE constraint failure,
// e.g. "bookmarks.short_url", or "" for any other error.
func uniqueViolation(err error) string {
	var se sqlite3.Error
	if !errors.As(err, &se) || se.ExtendedCode != sqlite3.ErrConstraintUnique {
		return ""
	}
	msg := se.Error()
	if i := strings.Index(msg, "failed: "); i >= 0 {
		return msg[i+len("failed: "):]
	}
	return msg
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// BackupTo writes a consistent copy of the database to destPath using
// VACUUM INTO, which is safe while other connections are open.
func (s *SQLiteDatabase) BackupTo(ctx context.Context, destPath string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return mapError("backing up database", err)
	}
	return nil
}

// CheckMigrations reports whether the schema is at the latest version.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrationStatus reports the schema version against the embedded files.
func (s *SQLiteDatabase) MigrationStatus() (migrations.Status, error) {
	return migrations.CurrentStatus(s.db)
}

// Schema returns the CREATE statements of the migrated schema, tables
// first, excluding SQLite internals and the migration bookkeeping table.
func (s *SQLiteDatabase) Schema(ctx context.Context) (string, error) {
	const query = `
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index', 'trigger')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type WHEN 'table' THEN 1 WHEN 'index' THEN 2 ELSE 3 END,
		  name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return "", mapError("reading schema", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", mapError("scanning schema", err)
		}
		b.WriteString(stmt)
		b.WriteString("\n\n")
	}
	if err := rows.Err(); err != nil {
		return "", mapError("reading schema", err)
	}
	return b.String(), nil
}

// Migrate brings the schema up to date.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}
