// internal/interfaces/confirm/gate.go
package confirm

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrGateBusy is returned by Open while another confirmation is pending
	ErrGateBusy = errors.New("a confirmation is already pending")
	// ErrGateClosed is returned by Confirm when nothing is pending
	ErrGateClosed = errors.New("no confirmation is pending")
)

// Gate holds one destructive action until the user confirms or cancels it.
// A confirmed target is handed to the action exactly once; a cancelled one is
// discarded.
type Gate[T any] struct {
	mu      sync.Mutex
	pending *T
	action  func(ctx context.Context, target T) error
}

// NewGate creates a closed gate that runs action on confirmation
func NewGate[T any](action func(ctx context.Context, target T) error) *Gate[T] {
	return &Gate[T]{action: action}
}

// Open records target as pending
func (g *Gate[T]) Open(target T) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil {
		return ErrGateBusy
	}
	g.pending = &target
	return nil
}

// Pending returns the target awaiting confirmation
func (g *Gate[T]) Pending() (T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		var zero T
		return zero, false
	}
	return *g.pending, true
}

// IsOpen reports whether a target is pending
func (g *Gate[T]) IsOpen() bool {
	_, ok := g.Pending()
	return ok
}

// Confirm closes the gate and runs the action on the pending target. The
// gate is closed before the action runs, so a failed action is not retried
// by confirming again.
func (g *Gate[T]) Confirm(ctx context.Context) error {
	g.mu.Lock()
	if g.pending == nil {
		g.mu.Unlock()
		return ErrGateClosed
	}
	target := *g.pending
	g.pending = nil
	g.mu.Unlock()

	return g.action(ctx, target)
}

// Cancel closes the gate and discards the pending target. It reports whether
// anything was pending.
func (g *Gate[T]) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return false
	}
	g.pending = nil
	return true
}

// Ask opens the gate for target, asks the user and then confirms or cancels.
// It reports whether the action ran.
func Ask[T any](ctx context.Context, g *Gate[T], target T, p Prompter, question string) (bool, error) {
	if err := g.Open(target); err != nil {
		return false, err
	}

	ok, err := p.Confirm(question)
	if err != nil || !ok {
		g.Cancel()
		return false, err
	}
	return true, g.Confirm(ctx)
}
