package adapters

import (
	"context"
	"sync"
)

// MemoryStorageAdapter keeps values in process memory.
// Useful for tests and for hosts where the session counter need not survive a restart.
type MemoryStorageAdapter struct {
	mu     sync.RWMutex
	values map[string]int
}

// Ensure MemoryStorageAdapter implements KeyValueStore interface
var _ KeyValueStore = (*MemoryStorageAdapter)(nil)

// NewMemoryStorageAdapter creates a new, empty MemoryStorageAdapter instance.
func NewMemoryStorageAdapter() *MemoryStorageAdapter {
	return &MemoryStorageAdapter{values: make(map[string]int)}
}

// GetInt returns the stored value, if any.
func (m *MemoryStorageAdapter) GetInt(_ context.Context, key string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// SetInt stores value under key.
func (m *MemoryStorageAdapter) SetInt(_ context.Context, key string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
