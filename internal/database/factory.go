package database

import (
	"fmt"
	"os"
	"path/filepath"

	"pkm/internal/config"
	"pkm/internal/pkm"
)

// NewDatabaseFromConfig creates a database based on the database config
// type. Each owner gets its own SQLite file under data_dir.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, ownerID string, logger pkm.Logger) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return NewSQLiteDatabase(DatabasePath(cfg, ownerID), logger, nil)
	case "memory":
		db, err := NewSQLiteDatabase(":memory:", logger, nil)
		if err != nil {
			return nil, err
		}
		// Nothing persists, so there is no later moment to migrate.
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// DatabasePath is the SQLite file used for ownerID.
func DatabasePath(cfg config.DatabaseConfig, ownerID string) string {
	return filepath.Join(cfg.DataDir, ownerID+".db")
}
