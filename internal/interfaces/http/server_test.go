package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/pkg/logger"
)

type fakeDB struct{ err error }

func (f fakeDB) Health() error { return f.err }

func testConfig() *config.Config {
	gin.SetMode(gin.TestMode)
	return &config.Config{
		App: config.AppConfig{Name: "Storefront", Version: "test", Environment: "development"},
		JWT: config.JWTConfig{Secret: strings.Repeat("s", 32), AccessTokenExpiry: time.Hour},
		Security: config.SecurityConfig{
			BcryptCost:         4,
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			CORSAllowedMethods: []string{"GET", "POST", "PATCH", "DELETE"},
			CORSAllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key"},
		},
	}
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	s := NewServer(testConfig(), nil, fakeDB{}, nil, logger.Discard())

	w := get(s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	down := NewServer(testConfig(), nil, fakeDB{err: errors.New("connection refused")}, nil, logger.Discard())
	w = get(down, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database ping failed")
}

func TestReadyAndIndex(t *testing.T) {
	s := NewServer(testConfig(), nil, nil, nil, logger.Discard())

	w := get(s, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uptime"`)

	w = get(s, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/notifications")
}

func TestRoutesMounted(t *testing.T) {
	s := NewServer(testConfig(), nil, nil, nil, logger.Discard())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(s, "/api/v1/cart")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
