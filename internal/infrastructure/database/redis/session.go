// internal/infrastructure/database/redis/session.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/domain/auth"
)

// SessionRepository keeps the signed-in session and the per-user store
// snapshots in Redis. It implements auth.SessionRepository and
// store.SnapshotRepository.
type SessionRepository struct {
	kv          keyValue
	prefix      string
	profile     string
	sessionTTL  time.Duration
	snapshotTTL time.Duration
	userID      func() string
}

// NewSessionRepository creates a repository for one local profile
func NewSessionRepository(client *Client, cfg config.SessionConfig, profile string) *SessionRepository {
	return newSessionRepository(client, cfg, profile)
}

func newSessionRepository(kv keyValue, cfg config.SessionConfig, profile string) *SessionRepository {
	if profile == "" {
		profile = "default"
	}
	return &SessionRepository{
		kv:          kv,
		prefix:      cfg.KeyPrefix,
		profile:     profile,
		sessionTTL:  cfg.TTL,
		snapshotTTL: cfg.SnapshotTTL,
		userID:      func() string { return "" },
	}
}

// ScopeSnapshots makes snapshots belong to the user userID reports. Without
// a user snapshots are neither saved nor loaded.
func (r *SessionRepository) ScopeSnapshots(userID func() string) {
	r.userID = userID
}

// LoadSession implements auth.SessionRepository
func (r *SessionRepository) LoadSession(ctx context.Context) (*auth.Session, error) {
	var s auth.Session
	found, err := getJSON(ctx, r.kv, r.sessionKey(), &s)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &s, nil
}

// SaveSession implements auth.SessionRepository
func (r *SessionRepository) SaveSession(ctx context.Context, session auth.Session) error {
	ttl := r.sessionTTL
	if !session.ExpiresAt.IsZero() {
		if until := time.Until(session.ExpiresAt); until > 0 && (ttl == 0 || until < ttl) {
			ttl = until
		}
	}
	if err := setJSON(ctx, r.kv, r.sessionKey(), session, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ClearSession implements auth.SessionRepository
func (r *SessionRepository) ClearSession(ctx context.Context) error {
	return r.kv.Del(ctx, r.sessionKey())
}

// SaveSnapshot implements store.SnapshotRepository
func (r *SessionRepository) SaveSnapshot(ctx context.Context, key string, value any) error {
	k, ok := r.snapshotKey(key)
	if !ok {
		return nil
	}
	return setJSON(ctx, r.kv, k, value, r.snapshotTTL)
}

// LoadSnapshot implements store.SnapshotRepository
func (r *SessionRepository) LoadSnapshot(ctx context.Context, key string, dest any) (bool, error) {
	k, ok := r.snapshotKey(key)
	if !ok {
		return false, nil
	}
	return getJSON(ctx, r.kv, k, dest)
}

func (r *SessionRepository) sessionKey() string {
	return fmt.Sprintf("%s:session:%s", r.prefix, r.profile)
}

func (r *SessionRepository) snapshotKey(key string) (string, bool) {
	uid := r.userID()
	if uid == "" {
		return "", false
	}
	return fmt.Sprintf("%s:user:%s:snapshot:%s", r.prefix, uid, key), true
}
