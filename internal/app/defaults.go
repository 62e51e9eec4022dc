package app

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	EnvConfigPath = "PKM_CONFIG_PATH"
	EnvHome       = "PKM_HOME"
)

// Paths are the default locations pkm reads and writes.
type Paths struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// DefaultPaths resolves Paths, letting PKM_CONFIG_PATH and PKM_HOME
// override the XDG style defaults ~/.config/pkm.toml and ~/.local/share/pkm.
func DefaultPaths() (Paths, error) {
	configPath := os.Getenv(EnvConfigPath)
	baseDir := os.Getenv(EnvHome)

	if configPath == "" || baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if configPath == "" {
			configPath = filepath.Join(home, ".config", "pkm.toml")
		}
		if baseDir == "" {
			baseDir = filepath.Join(home, ".local", "share", "pkm")
		}
	}

	return Paths{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}
