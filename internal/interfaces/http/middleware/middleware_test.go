package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

type fixedCounter struct {
	count int64
	err   error
}

func (f *fixedCounter) Hit(context.Context, string, time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.count++
	return f.count, nil
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func asUser(id string, role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != "" {
			c.Set(userIDKey, id)
			c.Set(roleKey, role)
		}
		c.Next()
	}
}

func TestIdempotency_ReplaysPerCallerAndKey(t *testing.T) {
	kv := &memoryKV{}
	calls := 0

	for _, user := range []string{"u1", "u2"} {
		r := gin.New()
		r.Use(asUser(user, auth.RoleCustomer), Idempotency(kv, time.Hour, logger.Discard()))
		r.DELETE("/notifications/:id", func(c *gin.Context) {
			calls++
			c.JSON(http.StatusOK, gin.H{"message": "deleted", "call": calls})
		})

		first := serve(r, http.MethodDelete, "/notifications/n1", map[string]string{IdempotencyHeader: "k1"})
		replay := serve(r, http.MethodDelete, "/notifications/n1", map[string]string{IdempotencyHeader: "k1"})

		assert.Equal(t, http.StatusOK, replay.Code)
		assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
		assert.Equal(t, first.Body.String(), replay.Body.String())
		assert.True(t, strings.HasPrefix(replay.Header().Get("Content-Type"), "application/json"))
	}
	assert.Equal(t, 2, calls, "each caller runs the handler once")
}

func TestIdempotency_ServerErrorsAreRetried(t *testing.T) {
	kv := &memoryKV{}
	calls := 0

	r := gin.New()
	r.Use(asUser("u1", auth.RoleCustomer), Idempotency(kv, time.Hour, logger.Discard()))
	r.PATCH("/cart/items/:id", func(c *gin.Context) {
		calls++
		if calls == 1 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "busy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"quantity": 2})
	})

	headers := map[string]string{IdempotencyHeader: "k1"}
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPatch, "/cart/items/v1", headers).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPatch, "/cart/items/v1", headers).Code)

	replay := serve(r, http.MethodPatch, "/cart/items/v1", headers)
	assert.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 2, calls)
}

func TestIdempotency_WithoutKeyOrStore(t *testing.T) {
	calls := 0
	handler := func(c *gin.Context) {
		calls++
		c.Status(http.StatusNoContent)
	}

	r := gin.New()
	r.Use(Idempotency(&memoryKV{}, time.Hour, logger.Discard()))
	r.DELETE("/cart", handler)
	serve(r, http.MethodDelete, "/cart", nil)
	serve(r, http.MethodDelete, "/cart", nil)

	bare := gin.New()
	bare.Use(Idempotency(nil, time.Hour, logger.Discard()))
	bare.DELETE("/cart", handler)
	serve(bare, http.MethodDelete, "/cart", map[string]string{IdempotencyHeader: "k"})
	serve(bare, http.MethodDelete, "/cart", map[string]string{IdempotencyHeader: "k"})

	assert.Equal(t, 4, calls)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(2, &fixedCounter{}, logger.Discard()))
	r.GET("/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := serve(r, http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/products", nil).Code)

	limited := serve(r, http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_FailingCounterLetsRequestsThrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(1, &fixedCounter{err: errors.New("redis down")}, logger.Discard()))
	r.GET("/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/products", nil).Code)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		user string
		role auth.Role
		want int
	}{
		{"anonymous", "", "", http.StatusUnauthorized},
		{"customer", "u1", auth.RoleCustomer, http.StatusForbidden},
		{"store owner", "u2", auth.RoleStoreOwner, http.StatusOK},
		{"admin", "u3", auth.RoleAdmin, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(asUser(tc.user, tc.role), RequireRole(auth.RoleStoreOwner, auth.RoleAdmin))
			r.PATCH("/orders/:id/status", func(c *gin.Context) { c.Status(http.StatusOK) })

			assert.Equal(t, tc.want, serve(r, http.MethodPatch, "/orders/o1/status", nil).Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/health", func(c *gin.Context) {
		seen = RequestIDFromContext(c)
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/health", map[string]string{RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-42", seen)

	w = serve(r, http.MethodGet, "/health", nil)
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}
