package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/store"
)

type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

var (
	_ auth.SessionRepository   = (*SessionRepository)(nil)
	_ store.SnapshotRepository = (*SessionRepository)(nil)
)

func sessionCfg() config.SessionConfig {
	return config.SessionConfig{KeyPrefix: "storefront", TTL: 24 * time.Hour, SnapshotTTL: time.Hour}
}

func TestSession_RoundTripAndClear(t *testing.T) {
	kv := newMemoryKV()
	repo := newSessionRepository(kv, sessionCfg(), "")
	ctx := context.Background()

	s, err := repo.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, repo.SaveSession(ctx, auth.Session{
		Token:     "tok",
		User:      auth.User{ID: "u1", Email: "a@b.c", Role: auth.RoleCustomer},
		ExpiresAt: expires,
	}))
	assert.Contains(t, kv.data, "storefront:session:default")
	assert.LessOrEqual(t, kv.ttls["storefront:session:default"], time.Hour, "never outlives the token")

	s, err = repo.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, "u1", s.User.ID)

	require.NoError(t, repo.ClearSession(ctx))
	s, err = repo.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSnapshots_ScopedPerUser(t *testing.T) {
	kv := newMemoryKV()
	repo := newSessionRepository(kv, sessionCfg(), "work")
	ctx := context.Background()

	require.NoError(t, repo.SaveSnapshot(ctx, "cart", []string{"a"}))
	assert.Empty(t, kv.data, "nothing is written without a user")

	user := "u1"
	repo.ScopeSnapshots(func() string { return user })
	require.NoError(t, repo.SaveSnapshot(ctx, "cart", []string{"a", "b"}))
	assert.Equal(t, time.Hour, kv.ttls["storefront:user:u1:snapshot:cart"])

	var got []string
	found, err := repo.LoadSnapshot(ctx, "cart", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, got)

	user = "u2"
	found, err = repo.LoadSnapshot(ctx, "cart", &got)
	require.NoError(t, err)
	assert.False(t, found, "another user never sees u1's cart")
}

func TestSnapshots_CorruptValue(t *testing.T) {
	kv := newMemoryKV()
	repo := newSessionRepository(kv, sessionCfg(), "default")
	repo.ScopeSnapshots(func() string { return "u1" })
	kv.data["storefront:user:u1:snapshot:cart"] = "{not json"

	var got []string
	found, err := repo.LoadSnapshot(context.Background(), "cart", &got)
	assert.Error(t, err)
	assert.False(t, found)
}
