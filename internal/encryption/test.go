package encryption

import (
	"bytes"
	"fmt"
	"io"

	"pkm/internal/pkm"
)

// testHeader marks output of TestEncryptor so ciphertext differs from the
// plaintext while staying trivially reversible.
var testHeader = []byte("PKMTEST\x00")

// TestEncryptor is a deterministic, crypto-free Encryptor for tests. Unlock
// accepts only the passphrase given to Setup, or any passphrase when Setup
// was never called.
type TestEncryptor struct {
	passphrase string
}

var _ pkm.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (pkm.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, fmt.Errorf("decrypting private key: wrong passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ pkm.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
