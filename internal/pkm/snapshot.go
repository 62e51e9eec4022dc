package pkm

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Vault stores encrypted database snapshots. Keys are slash separated.
type Vault interface {
	// Put stores size bytes read from r under key, replacing any previous value.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get writes the object stored under key to w.
	Get(ctx context.Context, key string, w io.Writer) error

	// List returns the keys starting with prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// ValidateSetup verifies that the vault is reachable and writable.
	ValidateSetup(ctx context.Context) error
}

// Encryptor encrypts snapshots to a public key. Decryption needs the
// passphrase-protected private key, unlocked once per session.
type Encryptor interface {
	// Setup generates the key pair, protecting the private key with passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a session decryptor.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}

const snapshotSuffix = ".db.age"

// Snapshotter copies the database, encrypts it and ships it to a vault.
type Snapshotter struct {
	database  Database
	vault     Vault
	encryptor Encryptor
	logger    Logger
	clock     Clock
}

// NewSnapshotter wires a Snapshotter. A nil logger or clock gets the defaults.
func NewSnapshotter(database Database, vault Vault, encryptor Encryptor, logger Logger, clock Clock) *Snapshotter {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Snapshotter{database: database, vault: vault, encryptor: encryptor, logger: logger, clock: clock}
}

func snapshotPrefix(ownerID string) string {
	return path.Join("snapshots", ownerID) + "/"
}

// Create snapshots the database for ownerID and returns the vault key.
func (s *Snapshotter) Create(ctx context.Context, ownerID string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pkm-snapshot-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plainPath := filepath.Join(tmpDir, "snapshot.db")
	if err := s.database.BackupTo(ctx, plainPath); err != nil {
		return "", fmt.Errorf("copying database: %w", err)
	}

	encPath := plainPath + ".age"
	if err := s.encryptFile(plainPath, encPath); err != nil {
		return "", err
	}

	f, err := os.Open(encPath)
	if err != nil {
		return "", fmt.Errorf("opening encrypted snapshot: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat encrypted snapshot: %w", err)
	}

	key := snapshotPrefix(ownerID) + s.clock.Now().UTC().Format("20060102T150405Z") + snapshotSuffix
	if err := s.vault.Put(ctx, key, f, info.Size()); err != nil {
		return "", fmt.Errorf("uploading snapshot: %w", err)
	}

	s.logger.Info("snapshot stored", "key", key, "bytes", info.Size())
	return key, nil
}

func (s *Snapshotter) encryptFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	if err := s.encryptor.Encrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing encrypted snapshot: %w", err)
	}
	return nil
}

// List returns ownerID's snapshot keys, newest first.
func (s *Snapshotter) List(ctx context.Context, ownerID string) ([]string, error) {
	keys, err := s.vault.List(ctx, snapshotPrefix(ownerID))
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasSuffix(k, snapshotSuffix) {
			out = append(out, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

// Restore downloads key, decrypts it with dec and writes the database file
// to destPath. destPath is replaced atomically.
func (s *Snapshotter) Restore(ctx context.Context, key string, dec DecryptionContext, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating restore directory: %w", err)
	}

	enc, err := os.CreateTemp(filepath.Dir(destPath), ".snapshot-*.age")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(enc.Name())
	defer enc.Close()

	if err := s.vault.Get(ctx, key, enc); err != nil {
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	if _, err := enc.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding snapshot: %w", err)
	}

	plain, err := os.CreateTemp(filepath.Dir(destPath), ".snapshot-*.db")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	plainPath := plain.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(plainPath)
		}
	}()

	if err := dec.Decrypt(enc, plain); err != nil {
		plain.Close()
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := plain.Close(); err != nil {
		return fmt.Errorf("closing restored database: %w", err)
	}
	if err := os.Rename(plainPath, destPath); err != nil {
		return fmt.Errorf("moving restored database into place: %w", err)
	}

	success = true
	s.logger.Info("snapshot restored", "key", key, "dest", destPath)
	return nil
}
