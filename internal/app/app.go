// Package app wires configuration into a running pkm: database, text
// generation, cache, HTTP server, maintenance and snapshots.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"pkm/internal/cache"
	"pkm/internal/config"
	"pkm/internal/database"
	"pkm/internal/database/migrations"
	"pkm/internal/encryption"
	"pkm/internal/httpapi"
	"pkm/internal/importer"
	"pkm/internal/pkm"
	"pkm/internal/scheduler"
	"pkm/internal/textgen"
	"pkm/internal/vault"
)

// bulkConcurrency bounds parallel bulk items. SQLite serializes writers,
// so more workers only add lock waits.
const bulkConcurrency = 4

// PKMApp is the application layer between the CLI and pkm.Service.
// It constructs all dependencies from config and closes them on Close.
type PKMApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	cache     cache.Cache
	generator pkm.TextGenerator
	service   *pkm.Service
	logger    pkm.Logger
	zap       *zap.Logger
	logFile   *os.File
	clock     pkm.Clock
	op        *Operation

	snap      *pkm.Snapshotter
	encryptor pkm.Encryptor
}

// NewPKMApp creates a fully wired PKMApp from cfg. operation names the CLI
// command being run (e.g. "Serve", "Backup"). The database must already be
// migrated; see MigrateDatabase. The caller must call Close when done.
func NewPKMApp(ctx context.Context, cfg *config.Config, operation string) (*PKMApp, error) {
	clock := pkm.RealClock{}
	op := NewOperation(operation, clock)

	zl, logFile, err := newLogger(cfg.LogDir, cfg.LogLevel, op.ID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := newZapAdapter(zl)

	a := &PKMApp{cfg: cfg, logger: logger, zap: zl, logFile: logFile, clock: clock, op: op}
	if err := a.init(ctx); err != nil {
		a.closeLogger()
		return nil, err
	}
	return a, nil
}

func (a *PKMApp) init(ctx context.Context) (err error) {
	a.db, err = database.NewDatabaseFromConfig(a.cfg.Database, a.cfg.OwnerID, a.logger)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer func() {
		if err != nil {
			a.db.Close()
		}
	}()

	if err := a.db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date (run 'pkm db migrate'): %w", err)
	}

	a.cache, err = cache.NewFromConfig(ctx, a.cfg.Cache, a.logger, a.clock)
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}

	a.generator, err = textgen.NewFromConfig(ctx, a.cfg.TextGen, a.cache, a.cfg.Cache.TTL.Duration, a.logger, a.clock)
	if err != nil {
		a.closeCache()
		return fmt.Errorf("creating text generator: %w", err)
	}

	a.service = pkm.NewService(a.db, a.generator, a.logger, a.clock, pkm.UUIDGenerator{})
	a.service.SetBulkConcurrency(bulkConcurrency)
	return nil
}

// Service exposes the engine for commands that map one-to-one onto it.
func (a *PKMApp) Service() *pkm.Service { return a.service }

// OwnerID is the owner every CLI command acts for.
func (a *PKMApp) OwnerID() string { return a.cfg.OwnerID }

// Logger is the app-wide structured logger.
func (a *PKMApp) Logger() pkm.Logger { return a.logger }

// Persona parses raw, falling back to the configured default persona.
func (a *PKMApp) Persona(raw string) (pkm.Persona, error) {
	if strings.TrimSpace(raw) == "" {
		raw = a.cfg.DefaultPersona
	}
	return pkm.ParsePersona(strings.TrimSpace(raw))
}

// Fail marks the operation as failed; Close logs it.
func (a *PKMApp) Fail(err error) {
	a.op.Finish(a.logger, a.clock, err)
}

// Serve runs the HTTP API and the maintenance scheduler until ctx is
// canceled, then shuts the server down within the configured timeout.
func (a *PKMApp) Serve(ctx context.Context) error {
	srv := httpapi.New(a.cfg.Server, a.service, a.logger)

	recounter := scheduler.NewRecounter(a.service, a.cfg.OwnerID, a.logger, a.cfg.Maintenance.RecountInterval.Duration)
	recounter.Start(ctx)
	defer recounter.Stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := a.cfg.Server.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}

// Import loads a bookmark export file into persona.
func (a *PKMApp) Import(ctx context.Context, path string, persona pkm.Persona) (*importer.Result, error) {
	entries, err := importer.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return importer.New(a.service, a.logger).Import(ctx, a.cfg.OwnerID, persona, entries)
}

// Generate runs one request through the configured text generator.
func (a *PKMApp) Generate(ctx context.Context, req pkm.GenerateRequest) (*pkm.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return a.generator.Generate(ctx, req)
}

// RecountTags repairs tag usage counts once.
func (a *PKMApp) RecountTags(ctx context.Context) (int, error) {
	return scheduler.NewRecounter(a.service, a.cfg.OwnerID, a.logger, 0).RunOnce(ctx)
}

// snapshotter builds the vault and encryptor on first use, so commands
// that never touch snapshots never contact the vault.
func (a *PKMApp) snapshotter(ctx context.Context) (*pkm.Snapshotter, pkm.Encryptor, error) {
	if a.snap != nil {
		return a.snap, a.encryptor, nil
	}
	v, err := vault.NewVaultFromConfig(ctx, a.cfg.Vault)
	if err != nil {
		return nil, nil, fmt.Errorf("creating vault: %w", err)
	}
	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return nil, nil, fmt.Errorf("creating encryptor: %w", err)
	}
	a.snap = pkm.NewSnapshotter(a.db, v, enc, a.logger, a.clock)
	a.encryptor = enc
	return a.snap, a.encryptor, nil
}

// Backup snapshots the database into the vault and returns its key.
func (a *PKMApp) Backup(ctx context.Context) (string, error) {
	s, enc, err := a.snapshotter(ctx)
	if err != nil {
		return "", err
	}
	if !enc.IsConfigured() {
		return "", fmt.Errorf("encryption keys not found (run 'pkm backup keys init')")
	}
	return s.Create(ctx, a.cfg.OwnerID)
}

// ListSnapshots returns the owner's snapshot keys, newest first.
func (a *PKMApp) ListSnapshots(ctx context.Context) ([]string, error) {
	s, _, err := a.snapshotter(ctx)
	if err != nil {
		return nil, err
	}
	return s.List(ctx, a.cfg.OwnerID)
}

// RestoreSnapshot decrypts key into destPath with the private key
// unlocked by passphrase.
func (a *PKMApp) RestoreSnapshot(ctx context.Context, key, passphrase, destPath string) error {
	if destPath == database.DatabasePath(a.cfg.Database, a.cfg.OwnerID) {
		return fmt.Errorf("refusing to restore over the open database %s", destPath)
	}
	s, enc, err := a.snapshotter(ctx)
	if err != nil {
		return err
	}
	dec, err := enc.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}
	return s.Restore(ctx, key, dec, destPath)
}

// Close finishes the operation and releases every resource.
func (a *PKMApp) Close() error {
	a.op.Finish(a.logger, a.clock, nil)

	var errs []error
	a.closeCache()
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	a.closeLogger()
	return errors.Join(errs...)
}

func (a *PKMApp) closeCache() {
	if c, ok := a.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn("closing cache failed", "error", err)
		}
	}
}

func (a *PKMApp) closeLogger() {
	_ = a.zap.Sync()
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// InitKeys generates the snapshot key pair. It needs no database.
func InitKeys(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	return enc.Setup(passphrase)
}

// ValidateVault checks that the configured vault is reachable and writable.
func ValidateVault(ctx context.Context, cfg *config.Config) error {
	v, err := vault.NewVaultFromConfig(ctx, cfg.Vault)
	if err != nil {
		return fmt.Errorf("creating vault: %w", err)
	}
	return v.ValidateSetup(ctx)
}

// MigrateDatabase brings the owner's database schema up to date.
func MigrateDatabase(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.OwnerID, nil)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()
	return db.Migrate()
}

// DatabaseStatus reports the schema version of the owner's database.
func DatabaseStatus(cfg *config.Config) (migrations.Status, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.OwnerID, nil)
	if err != nil {
		return migrations.Status{}, fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()
	return db.MigrationStatus()
}

// DatabaseSchema returns the migrated schema as SQL.
func DatabaseSchema(ctx context.Context, cfg *config.Config) (string, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.OwnerID, nil)
	if err != nil {
		return "", fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()
	return db.Schema(ctx)
}
