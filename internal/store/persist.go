// internal/store/persist.go
package store

import (
	"context"
	"encoding/json"
	"sync"
)

// SnapshotRepository persists the last reconciled state of a store so a
// later run can show it when the API is unreachable
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, key string, value any) error
	LoadSnapshot(ctx context.Context, key string, dest any) (bool, error)
}

// MemorySnapshots is a process-local SnapshotRepository
type MemorySnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemorySnapshots creates an empty in-memory repository
func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{data: make(map[string][]byte)}
}

// SaveSnapshot implements SnapshotRepository
func (m *MemorySnapshots) SaveSnapshot(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

// LoadSnapshot implements SnapshotRepository
func (m *MemorySnapshots) LoadSnapshot(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}
