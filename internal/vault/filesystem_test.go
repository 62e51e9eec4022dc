package vault

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestFileSystemVault_Layout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	v, err := NewFileSystemVault(root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	if err := v.Put(ctx, "snapshots/o1/x.db.age", strings.NewReader("data"), 4); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "snapshots", "o1", "x.db.age"))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("stored file = %q, want data", got)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "snapshots", "o1"))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (no temp files left)", len(entries))
	}
}

func TestFileSystemVault_ListSkipsTempFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	v, err := NewFileSystemVault(root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	if err := v.Put(ctx, "snapshots/a", strings.NewReader("a"), 1); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "snapshots", ".tmp-123"), []byte("partial"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := v.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if want := []string{"snapshots/a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	v, err := NewFileSystemVault(root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	if err := v.ValidateSetup(context.Background()); err != nil {
		t.Fatalf("ValidateSetup() error = %v", err)
	}

	os.RemoveAll(root)
	if err := v.ValidateSetup(context.Background()); err == nil {
		t.Error("ValidateSetup() succeeded after root was removed")
	}
}
