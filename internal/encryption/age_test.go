package encryption

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkm/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "pkm.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "pkm.key"),
	})
}

func TestAgeEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if e.IsConfigured() {
		t.Fatal("IsConfigured() = true before Setup, want false")
	}
	if err := e.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup, want true")
	}

	info, err := os.Stat(e.privateKeyPath)
	if err != nil {
		t.Fatalf("stat private key: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("private key mode = %o, want 600", perm)
	}

	recipient, err := e.Recipient()
	if err != nil {
		t.Fatalf("Recipient() error = %v", err)
	}
	if !strings.HasPrefix(recipient, "age1") {
		t.Errorf("Recipient() = %q, want age1 prefix", recipient)
	}

	priv, _ := os.ReadFile(e.privateKeyPath)
	if bytes.Contains(priv, []byte("AGE-SECRET-KEY")) {
		t.Error("private key is stored in plaintext")
	}
}

func TestAgeEncryptor_SetupRefusesOverwrite(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if err := e.Setup("first"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	before, _ := os.ReadFile(e.publicKeyPath)

	if err := e.Setup("second"); !errors.Is(err, ErrKeysExist) {
		t.Errorf("second Setup() error = %v, want ErrKeysExist", err)
	}
	after, _ := os.ReadFile(e.publicKeyPath)
	if !bytes.Equal(before, after) {
		t.Error("public key changed after refused Setup")
	}
}

func TestAgeEncryptor_SetupEmptyPassphrase(t *testing.T) {
	t.Parallel()
	if err := newTestAgeEncryptor(t).Setup(""); err == nil {
		t.Error("Setup(\"\") succeeded, want error")
	}
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "sqlite header", input: []byte("SQLite format 3\x00")},
		{name: "empty", input: []byte{}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	passphrase := "test-passphrase"
	e := newTestAgeEncryptor(t)
	if err := e.Setup(passphrase); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	dec, err := e.Unlock(passphrase)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Contains(encrypted.Bytes(), tt.input) {
				t.Error("ciphertext contains the plaintext")
			}

			var decrypted bytes.Buffer
			if err := dec.Decrypt(bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_Errors(t *testing.T) {
	t.Parallel()

	t.Run("wrong passphrase", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if err := e.Setup("correct-passphrase"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if _, err := e.Unlock("wrong-passphrase"); err == nil {
			t.Error("Unlock() with wrong passphrase should return error")
		}
	})

	t.Run("encrypt before setup", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if err := e.Encrypt(strings.NewReader("data"), &bytes.Buffer{}); err == nil {
			t.Error("Encrypt() before Setup should return error")
		}
	})

	t.Run("unlock before setup", func(t *testing.T) {
		if _, err := newTestAgeEncryptor(t).Unlock("passphrase"); err == nil {
			t.Error("Unlock() before Setup should return error")
		}
	})

	t.Run("decrypt with another key", func(t *testing.T) {
		a, b := newTestAgeEncryptor(t), newTestAgeEncryptor(t)
		for _, e := range []*AgeEncryptor{a, b} {
			if err := e.Setup("p"); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}
		}
		var encrypted bytes.Buffer
		if err := a.Encrypt(strings.NewReader("secret"), &encrypted); err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		dec, err := b.Unlock("p")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		if err := dec.Decrypt(&encrypted, &bytes.Buffer{}); err == nil {
			t.Error("Decrypt() with a different identity should fail")
		}
	})
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Parallel()
	keys := func(typ, pub, priv string) config.EncryptionConfig {
		return config.EncryptionConfig{Type: typ, PublicKeyPath: pub, PrivateKeyPath: priv}
	}
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		want    string
		wantErr bool
	}{
		{"default", keys("", "/k/pkm.pub", "/k/pkm.key"), "*encryption.AgeEncryptor", false},
		{"age", keys("age", "/k/pkm.pub", "/k/pkm.key"), "*encryption.AgeEncryptor", false},
		{"test", keys("test", "", ""), "*encryption.TestEncryptor", false},
		{"unknown type", keys("rot13", "/k/pkm.pub", "/k/pkm.key"), "", true},
		{"missing public key path", keys("age", "", "/k/pkm.key"), "", true},
		{"blank private key path", keys("", "/k/pkm.pub", "  "), "", true},
		{"same path twice", keys("age", "/k/pkm.key", "/k/../k/pkm.key"), "", true},
	}
	for _, tt := range tests {
		got, err := NewEncryptorFromConfig(tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: NewEncryptorFromConfig() error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if !tt.wantErr {
			if name := typeName(got); name != tt.want {
				t.Errorf("%s: NewEncryptorFromConfig() = %s, want %s", tt.name, name, tt.want)
			}
		}
	}
}
