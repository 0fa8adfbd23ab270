// internal/store/store.go
package store

import (
	"sync"
)

// Epoch identifies one fetch. Results are applied only while it is current.
type Epoch uint64

// Store is a state container for one domain. State values are treated as
// immutable snapshots: update functions return a new value instead of
// mutating the one they receive.
type Store[S any] struct {
	mu      sync.RWMutex
	state   S
	initial S
	epoch   Epoch
	nextSub int
	subs    map[int]func(S)
}

// New creates a store holding initial
func New[S any](initial S) *Store[S] {
	return &Store[S]{
		state:   initial,
		initial: initial,
		subs:    make(map[int]func(S)),
	}
}

// Snapshot returns the current state
func (s *Store[S]) Snapshot() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update replaces the state with fn(current) and notifies subscribers
func (s *Store[S]) Update(fn func(S) S) (prev, next S) {
	s.mu.Lock()
	prev = s.state
	next = fn(prev)
	s.state = next
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, next)
	return prev, next
}

// Begin starts a fetch and returns its epoch. Any earlier epoch becomes stale.
func (s *Store[S]) Begin() Epoch {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// Epoch returns the current epoch without starting a new fetch. Appending
// fetches use it so that a refresh or reset still invalidates them.
func (s *Store[S]) Epoch() Epoch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Current reports whether epoch is still the latest fetch
func (s *Store[S]) Current(epoch Epoch) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch == epoch
}

// Commit applies fn only if epoch is still current. It reports whether the
// update was applied.
func (s *Store[S]) Commit(epoch Epoch, fn func(S) S) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	next := fn(s.state)
	s.state = next
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, next)
	return true
}

// Reset restores the initial state and invalidates in-flight fetches
func (s *Store[S]) Reset() {
	s.mu.Lock()
	s.epoch++
	s.state = s.initial
	next := s.state
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, next)
}

// Subscribe registers fn to be called after every state change
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// subscribers must be called with the lock held
func (s *Store[S]) subscribers() []func(S) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify[S any](subs []func(S), state S) {
	for _, fn := range subs {
		fn(state)
	}
}
