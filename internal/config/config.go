package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for pkm.
type Config struct {
	OwnerID        string            `toml:"owner_id"`
	DefaultPersona string            `toml:"default_persona"`
	BaseDir        string            `toml:"base_dir"`
	LogDir         string            `toml:"log_dir"`
	LogLevel       string            `toml:"log_level"`
	Database       DatabaseConfig    `toml:"database"`
	Server         ServerConfig      `toml:"server"`
	TextGen        TextGenConfig     `toml:"textgen"`
	Cache          CacheConfig       `toml:"cache"`
	Maintenance    MaintenanceConfig `toml:"maintenance"`
	Vault          VaultConfig       `toml:"vault"`
	Encryption     EncryptionConfig  `toml:"encryption"`
}

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DatabaseConfig represents configuration for the resource database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr      string   `toml:"listen_addr"`
	RequestTimeout  Duration `toml:"request_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// TextGenConfig selects the text generation provider. The API key is read
// from the environment variable named by APIKeyEnv, never from the file.
type TextGenConfig struct {
	Provider  string   `toml:"provider"` // "genai" or "offline"
	APIKeyEnv string   `toml:"api_key_env"`
	Model     string   `toml:"model"`
	Timeout   Duration `toml:"timeout"`
}

// CacheConfig configures the generation cache.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CacheConfig struct {
	Type          string   `toml:"type"` // "none", "memory" or "redis"
	RedisAddr     string   `toml:"redis_addr,omitempty"`
	RedisUsername string   `toml:"redis_username,omitempty"`
	RedisPassword string   `toml:"redis_password,omitempty"`
	RedisDB       int      `toml:"redis_db,omitempty"`
	TTL           Duration `toml:"ttl"`
}

// MaintenanceConfig configures background jobs. A zero interval disables them.
type MaintenanceConfig struct {
	RecountInterval Duration `toml:"recount_interval"`
}

// VaultConfig represents configuration for the snapshot vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible stores, e.g. MinIO

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type,omitempty"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a new Config with the provided values and defaults for
// everything else.
func NewConfig(ownerID, baseDir string) *Config {
	return &Config{
		OwnerID:        ownerID,
		DefaultPersona: "professional",
		BaseDir:        baseDir,
		LogDir:         filepath.Join(baseDir, "log"),
		LogLevel:       "info",
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Server: ServerConfig{
			ListenAddr:      "127.0.0.1:8080",
			RequestTimeout:  Duration{5 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		TextGen: TextGenConfig{
			Provider:  "offline",
			APIKeyEnv: "GEMINI_API_KEY",
			Model:     "gemini-2.5-flash",
			Timeout:   Duration{30 * time.Second},
		},
		Cache: CacheConfig{
			Type: "none",
			TTL:  Duration{24 * time.Hour},
		},
		Maintenance: MaintenanceConfig{
			RecountInterval: Duration{time.Hour},
		},
		Vault: VaultConfig{
			Type:        "filesystem",
			FSVaultRoot: filepath.Join(baseDir, "vault"),
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "pkm.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "pkm.key"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may name a redis password.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path, refusing to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
