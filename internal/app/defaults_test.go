package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/custom/config.toml")
		t.Setenv(EnvHome, "/custom/pkm")

		got, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths() error = %v", err)
		}
		want := Paths{ConfigPath: "/custom/config.toml", BaseDir: "/custom/pkm", LogDir: "/custom/pkm/log"}
		if got != want {
			t.Errorf("DefaultPaths() = %+v, want %+v", got, want)
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		t.Setenv(EnvHome, "")

		got, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()
		base := filepath.Join(homeDir, ".local", "share", "pkm")
		want := Paths{
			ConfigPath: filepath.Join(homeDir, ".config", "pkm.toml"),
			BaseDir:    base,
			LogDir:     filepath.Join(base, "log"),
		}
		if got != want {
			t.Errorf("DefaultPaths() = %+v, want %+v", got, want)
		}
	})

	t.Run("mixes env and defaults", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		t.Setenv(EnvHome, "/srv/pkm")

		got, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths() error = %v", err)
		}
		if got.BaseDir != "/srv/pkm" {
			t.Errorf("BaseDir = %q, want /srv/pkm", got.BaseDir)
		}
		if filepath.Base(got.ConfigPath) != "pkm.toml" {
			t.Errorf("ConfigPath = %q, want default pkm.toml", got.ConfigPath)
		}
	})
}
