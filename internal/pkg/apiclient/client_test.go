package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method         string
	path           string
	authorization  string
	idempotencyKey string
}

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) (*Client, *[]recorded) {
	t.Helper()

	var (
		mu    sync.Mutex
		calls []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, recorded{
			method:         r.Method,
			path:           r.URL.Path,
			authorization:  r.Header.Get("Authorization"),
			idempotencyKey: r.Header.Get("Idempotency-Key"),
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(Options{
		BaseURL:         srv.URL + "/api/v1/",
		Timeout:         2 * time.Second,
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Tokens:          TokenFunc(func() string { return token }),
	})
	return c, &calls
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestDo_NoTokenShortCircuits(t *testing.T) {
	c, calls := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
	})

	_, err := c.Get(context.Background(), "/orders", nil, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, *calls)
	assert.Equal(t, "Please sign in to continue", Message(err))
}

func TestDo_DecodesDataAndMeta(t *testing.T) {
	c, calls := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]string{{"id": "n1"}, {"id": "n2"}},
			"meta": map[string]int{"total": 12, "page": 2, "limit": 2, "totalPages": 6},
		})
	})

	var out []struct {
		ID string `json:"id"`
	}
	meta, err := c.Get(context.Background(), "/notifications", nil, &out)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "n2", out[1].ID)
	require.NotNil(t, meta)
	assert.Equal(t, Meta{Total: 12, Page: 2, Limit: 2, TotalPages: 6}, *meta)

	require.Len(t, *calls, 1)
	assert.Equal(t, "/api/v1/notifications", (*calls)[0].path)
	assert.Equal(t, "Bearer tok", (*calls)[0].authorization)
	assert.Empty(t, (*calls)[0].idempotencyKey)
}

func TestDo_RetriesServerErrorsWithOneIdempotencyKey(t *testing.T) {
	var hits int32
	c, calls := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]int{"quantity": 4}})
	})

	var out struct {
		Quantity int `json:"quantity"`
	}
	require.NoError(t, c.Patch(context.Background(), "/cart/items/v1", map[string]int{"quantity": 4}, &out))
	assert.Equal(t, 4, out.Quantity)

	require.Len(t, *calls, 3)
	key := (*calls)[0].idempotencyKey
	assert.NotEmpty(t, key)
	for _, call := range *calls {
		assert.Equal(t, key, call.idempotencyKey)
	}
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	c, calls := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream down"})
	})

	err := c.Delete(context.Background(), "/notifications/n1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServer)
	assert.Len(t, *calls, 3)
}

func TestDo_ClientErrorsAreNotRetried(t *testing.T) {
	cases := []struct {
		status int
		target error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusConflict, ErrValidation},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c, calls := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, map[string]any{"error": "Order cannot move to PAID", "details": "transition"})
			})

			err := c.Post(context.Background(), "/orders/o1/status", map[string]string{"status": "PAID"}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
			assert.Len(t, *calls, 1)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, "transition", apiErr.Details)
			assert.Equal(t, "Order cannot move to PAID", Message(err))
		})
	}
}

func TestDo_UnauthorizedCallback(t *testing.T) {
	t.Run("rejected token ends the session", func(t *testing.T) {
		c, _ := newTestClient(t, "expired", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		})
		var fired int
		c.SetUnauthorizedHandler(func() { fired++ })

		_, err := c.Get(context.Background(), "/cart", nil, nil)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, 1, fired)
	})

	t.Run("failed login does not", func(t *testing.T) {
		c, calls := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		})
		var fired int
		c.SetUnauthorizedHandler(func() { fired++ })

		_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login", Public: true}, nil)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, 0, fired)
		require.Len(t, *calls, 1)
		assert.Empty(t, (*calls)[0].authorization)
	})
}

func TestDo_TransportFailure(t *testing.T) {
	c := New(Options{
		BaseURL:         "http://127.0.0.1:1",
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		Tokens:          TokenFunc(func() string { return "tok" }),
	})

	_, err := c.Get(context.Background(), "/orders", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "Unable to reach the server", Message(err))
}

func TestDo_ConcurrentGetsShareOneRequest(t *testing.T) {
	release := make(chan struct{})
	var hits int32
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": "o1"}})
	})

	first := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background(), "/orders/o1", nil, nil)
		first <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, time.Millisecond)

	// the first call is parked in the handler, so this one joins it
	second := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background(), "/orders/o1", nil, nil)
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestDo_CancelledCallerDoesNotFailSharedGet(t *testing.T) {
	release := make(chan struct{})
	var hits int32
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": "o1"}})
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "/orders/o1", nil, nil)
		first <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, time.Millisecond)

	var out struct {
		ID string `json:"id"`
	}
	second := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background(), "/orders/o1", nil, &out)
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// the caller that started the request leaves before it completes
	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	require.NoError(t, <-second)
	assert.Equal(t, "o1", out.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
