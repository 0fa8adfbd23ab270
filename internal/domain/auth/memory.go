// internal/domain/auth/memory.go
package auth

import (
	"context"
	"sync"
)

// MemorySessions keeps the session for the lifetime of the process only
type MemorySessions struct {
	mu      sync.Mutex
	session *Session
}

// LoadSession implements SessionRepository
func (m *MemorySessions) LoadSession(_ context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

// SaveSession implements SessionRepository
func (m *MemorySessions) SaveSession(_ context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &session
	return nil
}

// ClearSession implements SessionRepository
func (m *MemorySessions) ClearSession(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
