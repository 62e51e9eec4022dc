package testutil

import (
	"path/filepath"
	"testing"

	"pkm/internal/database"
	"pkm/internal/pkm"
)

// NewTestDatabase creates a migrated in-memory SQLite database. The
// database is closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	return newDatabase(t, ":memory:", NewPrefixedIDGenerator("tag"))
}

// NewTestFileDatabase is NewTestDatabase backed by a file in a temp dir, for
// tests that need more than one connection.
func NewTestFileDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	return newDatabase(t, filepath.Join(t.TempDir(), "pkm.db"), NewPrefixedIDGenerator("tag"))
}

func newDatabase(t *testing.T, path string, idgen pkm.IDGenerator) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(path, nil, idgen)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// NewTestService wires a Service over a fresh in-memory database with a
// FixedClock and sequential ids. The clock is returned so tests can advance
// it between calls.
func NewTestService(t *testing.T) (*pkm.Service, *StubClock) {
	t.Helper()

	clock := FixedClock()
	svc := pkm.NewService(NewTestDatabase(t), nil, nil, clock, NewStubIDGenerator())
	return svc, clock
}
