// internal/domain/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	authtoken "github.com/your-org/storefront-client/internal/pkg/auth"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

// ErrInvalidCredentials is returned for empty login input
var ErrInvalidCredentials = errors.New("email and password are required")

// SessionRepository persists the session between runs
type SessionRepository interface {
	LoadSession(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, session Session) error
	ClearSession(ctx context.Context) error
}

// Store holds the signed-in session and is the token source for every other store
type Store struct {
	state    *store.Store[State]
	api      API
	sessions SessionRepository
	logger   logrus.FieldLogger
	notifier toast.Notifier
	now      func() time.Time

	mu     sync.Mutex
	expiry *time.Timer
}

// NewStore creates the auth store. sessions may be nil when nothing is persisted.
func NewStore(api API, sessions SessionRepository, logger logrus.FieldLogger, notifier toast.Notifier) *Store {
	return &Store{
		state:    store.New(State{}),
		api:      api,
		sessions: sessions,
		logger:   logger.WithField("store", "auth"),
		notifier: notifier,
		now:      time.Now,
	}
}

// Snapshot returns the current auth state
func (s *Store) Snapshot() State {
	return s.state.Snapshot()
}

// Subscribe registers fn for every auth state change
func (s *Store) Subscribe(fn func(State)) func() {
	return s.state.Subscribe(fn)
}

// Token returns the bearer token, or empty when signed out or expired
func (s *Store) Token() string {
	st := s.state.Snapshot()
	if st.Token == "" {
		return ""
	}
	if !st.ExpiresAt.IsZero() && !s.now().Before(st.ExpiresAt) {
		return ""
	}
	return st.Token
}

// User returns the signed-in user, if any
func (s *Store) User() *User {
	return s.state.Snapshot().User
}

// Role returns the signed-in user's role, empty when signed out
func (s *Store) Role() Role {
	if u := s.User(); u != nil {
		return u.Role
	}
	return ""
}

// Login authenticates against the API and stores the session
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	session, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.WithError(err).Warn("Login failed")
		toast.Error(s.notifier, "Login failed: %s", apiclient.Message(err))
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.SetSession(ctx, *session); err != nil {
		return nil, err
	}

	toast.Success(s.notifier, "Welcome back, %s", session.User.Name)
	return &session.User, nil
}

// SetSession installs a session, reading expiry and role from the token claims
func (s *Store) SetSession(ctx context.Context, session Session) error {
	claims, err := authtoken.ParseUnverified(session.Token)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if session.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	if session.User.Role == "" {
		session.User.Role = Role(claims.Role)
	}
	if session.User.ID == "" {
		session.User.ID = claims.UserID
	}

	user := session.User
	s.state.Update(func(State) State {
		return State{Token: session.Token, User: &user, ExpiresAt: session.ExpiresAt}
	})
	s.scheduleExpiry(session.Token, session.ExpiresAt)

	if s.sessions != nil {
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			// the in-memory session still works for this run
			s.logger.WithError(err).Warn("Failed to persist session")
		}
	}
	return nil
}

// Restore loads a persisted session. An expired or missing session leaves the
// store signed out.
func (s *Store) Restore(ctx context.Context) error {
	if s.sessions == nil {
		return nil
	}

	session, err := s.sessions.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if session == nil || session.Token == "" {
		return nil
	}

	claims, err := authtoken.ParseUnverified(session.Token)
	if err != nil || claims.Expired(s.now()) {
		s.logger.Info("Discarding expired session")
		return s.sessions.ClearSession(ctx)
	}

	user := session.User
	expires := session.ExpiresAt
	if expires.IsZero() && claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	s.state.Update(func(State) State {
		return State{Token: session.Token, User: &user, ExpiresAt: expires}
	})
	s.scheduleExpiry(session.Token, expires)
	return nil
}

// Logout tells the API, then drops the session regardless of the outcome
func (s *Store) Logout(ctx context.Context) error {
	if s.Token() != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.WithError(err).Debug("Server logout failed")
		}
	}
	s.Expire()

	if s.sessions != nil {
		if err := s.sessions.ClearSession(ctx); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	return nil
}

// Expire drops the in-memory session without calling the API
func (s *Store) Expire() {
	s.stopExpiry()
	if s.state.Snapshot().Token == "" {
		return
	}
	s.state.Reset()
	s.logger.Info("Session ended")
}

// scheduleExpiry ends the session when token runs out, so subscribers see the
// loss even if nothing asks for the token. A zero at never expires.
func (s *Store) scheduleExpiry(token string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	if at.IsZero() {
		return
	}
	s.expiry = time.AfterFunc(at.Sub(s.now()), func() {
		// a newer session owns its own timer
		if s.state.Snapshot().Token != token {
			return
		}
		s.logger.Info("Session token expired")
		s.Expire()
		toast.Info(s.notifier, "Your session has expired, please sign in again")
	})
}

func (s *Store) stopExpiry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}

// HandleUnauthorized is the 401 callback: it ends the session and forgets the
// persisted copy so the next run starts signed out
func (s *Store) HandleUnauthorized() {
	s.Expire()
	if s.sessions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.sessions.ClearSession(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to clear persisted session")
	}
	toast.Error(s.notifier, "Your session has expired, please sign in again")
}
