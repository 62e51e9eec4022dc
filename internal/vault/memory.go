package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"pkm/internal/pkm"
)

// MemoryVault keeps objects in memory. Useful for tests and for running
// without any snapshot destination. Safe for concurrent use.
type MemoryVault struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryVault() *MemoryVault {
	return &MemoryVault{objects: make(map[string][]byte)}
}

func (m *MemoryVault) Put(_ context.Context, key string, r io.Reader, size int64) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemoryVault) Get(_ context.Context, key string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

func (m *MemoryVault) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// ValidateSetup always succeeds for the in-memory vault.
func (m *MemoryVault) ValidateSetup(context.Context) error {
	return nil
}

var _ pkm.Vault = (*MemoryVault)(nil)
