package testutil

import (
	"pkm/internal/encryption"
	"pkm/internal/pkm"
)

// NewTestEncryptor returns the header-only encryptor used in tests.
func NewTestEncryptor() pkm.Encryptor {
	return encryption.NewTestEncryptor()
}
