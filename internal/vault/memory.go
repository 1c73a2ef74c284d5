package vault

import (
	"fmt"
	"io"
	"sync"

	"mixshare/internal/mix"
)

type memoryItem struct {
	data    []byte
	version int64
}

// MemoryVault keeps items in process memory. Tests and the "memory" vault
// type use it. Safe for concurrent use.
type MemoryVault struct {
	name string

	mu    sync.RWMutex
	items map[[2]string]memoryItem // {hostID, name}
}

// NewMemoryVault creates an empty vault called name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{name: name, items: make(map[[2]string]memoryItem)}
}

// PutMetadata replaces the item name for hostID. r must yield exactly size
// bytes.
func (m *MemoryVault) PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error {
	if err := validateKey(hostID, name); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	m.items[[2]string{hostID, name}] = memoryItem{data: data, version: version}
	m.mu.Unlock()
	return nil
}

// GetMetadataVersion returns 0 for an item that was never stored.
func (m *MemoryVault) GetMetadataVersion(hostID string, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[[2]string{hostID, name}].version, nil
}

func (m *MemoryVault) GetMetadata(hostID string, name string, w io.Writer) error {
	m.mu.RLock()
	item, ok := m.items[[2]string{hostID, name}]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("metadata %q not found for host: %s", name, hostID)
	}
	if _, err := w.Write(item.data); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (m *MemoryVault) ValidateSetup() error { return nil }

var _ mix.Vault = (*MemoryVault)(nil)
