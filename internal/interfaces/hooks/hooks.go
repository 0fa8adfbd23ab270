// internal/interfaces/hooks/hooks.go
package hooks

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/auth"
)

// Target is a domain store a page binds to
type Target interface {
	Load(ctx context.Context) error
	Reset()
}

// Session is what a binding watches: the current token and its changes
type Session interface {
	Token() string
	Subscribe(fn func(auth.State)) func()
}

// Binding ties a store's lifetime to the session for as long as a page is
// mounted. Nothing is fetched while the session has no token.
type Binding struct {
	session Session
	target  Target
	log     logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	token       string
	unsubscribe func()
	loads       sync.WaitGroup
}

// Mount loads target if a token is present and keeps it in step with the
// session afterwards: losing the token resets the target, a new token resets
// and reloads it. The initial load error is returned; later reload errors are
// reported by the store itself.
func Mount(ctx context.Context, session Session, target Target, logger logrus.FieldLogger) (*Binding, error) {
	ctx, cancel := context.WithCancel(ctx)
	b := &Binding{
		session: session,
		target:  target,
		log:     logger,
		ctx:     ctx,
		cancel:  cancel,
		token:   session.Token(),
	}

	b.mu.Lock()
	b.unsubscribe = session.Subscribe(b.onSession)
	b.mu.Unlock()

	if b.token == "" {
		return b, nil
	}
	return b, target.Load(ctx)
}

// Unmount stops following the session and cancels any reload in flight
func (b *Binding) Unmount() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.cancel()
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	b.loads.Wait()
}

// Wait blocks until reloads started by session changes have finished
func (b *Binding) Wait() {
	b.loads.Wait()
}

func (b *Binding) onSession(auth.State) {
	token := b.session.Token()

	b.mu.Lock()
	if b.ctx.Err() != nil {
		b.mu.Unlock()
		return
	}
	changed := token != b.token
	b.token = token
	if changed && token != "" {
		b.loads.Add(1)
	}
	b.mu.Unlock()

	if !changed {
		return
	}

	b.target.Reset()
	if token == "" {
		b.log.Debug("Session ended, store cleared")
		return
	}

	go func() {
		defer b.loads.Done()
		if err := b.target.Load(b.ctx); err != nil {
			b.log.WithError(err).Debug("Reload after sign-in failed")
		}
	}()
}
