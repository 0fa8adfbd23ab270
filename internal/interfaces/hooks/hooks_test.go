package hooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/domain/cart"
	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	authtoken "github.com/your-org/storefront-client/internal/pkg/auth"
	"github.com/your-org/storefront-client/internal/store"
)

type fakeSession struct {
	mu    sync.Mutex
	token string
	state *store.Store[auth.State]
}

func newFakeSession(token string) *fakeSession {
	return &fakeSession{token: token, state: store.New(auth.State{Token: token})}
}

func (f *fakeSession) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) Subscribe(fn func(auth.State)) func() { return f.state.Subscribe(fn) }

func (f *fakeSession) set(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
	f.state.Update(func(auth.State) auth.State { return auth.State{Token: token} })
}

type fakeTarget struct {
	loads  atomic.Int32
	resets atomic.Int32
}

func (f *fakeTarget) Load(context.Context) error { f.loads.Add(1); return nil }
func (f *fakeTarget) Reset()                     { f.resets.Add(1) }

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestMount_FollowsSession(t *testing.T) {
	session := newFakeSession("")
	target := &fakeTarget{}

	b, err := Mount(context.Background(), session, target, quiet())
	require.NoError(t, err)
	assert.EqualValues(t, 0, target.loads.Load(), "no load without a token")

	session.set("t1")
	b.Wait()
	assert.EqualValues(t, 1, target.loads.Load())
	assert.EqualValues(t, 1, target.resets.Load())

	session.set("t1")
	b.Wait()
	assert.EqualValues(t, 1, target.loads.Load(), "same token changes nothing")

	session.set("t2")
	b.Wait()
	assert.EqualValues(t, 2, target.loads.Load())

	session.set("")
	b.Wait()
	assert.EqualValues(t, 2, target.loads.Load())
	assert.EqualValues(t, 3, target.resets.Load())

	b.Unmount()
	session.set("t3")
	assert.EqualValues(t, 2, target.loads.Load(), "an unmounted binding ignores the session")
	b.Unmount()
}

func TestMount_LoadsImmediatelyWithToken(t *testing.T) {
	target := &fakeTarget{}
	b, err := Mount(context.Background(), newFakeSession("t"), target, quiet())
	require.NoError(t, err)
	defer b.Unmount()
	assert.EqualValues(t, 1, target.loads.Load())
	assert.EqualValues(t, 0, target.resets.Load())
}

// The whole chain: auth store as token source, real API client, real stores
// and a counting server. Without a token the server must see no request.
func TestUseStores_NoNetworkWithoutToken(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/cart":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"items": []any{}}})
		case "/notifications":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"id": "n1", "title": "Hi", "type": "SYSTEM", "isRead": false}},
				"meta": map[string]any{"page": 1, "limit": 20, "total": 1, "totalPages": 1},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	defer srv.Close()

	authStore := auth.NewStore(nil, &auth.MemorySessions{}, quiet(), nil)
	client := apiclient.New(apiclient.Options{BaseURL: srv.URL, Tokens: authStore, MaxAttempts: 1})
	deps := store.Deps{Tokens: authStore, Logger: quiet()}

	cartStore := cart.NewStore(cart.NewHTTPAPI(client), deps)
	notifications := notification.NewStore(notification.NewHTTPAPI(client), deps, 20)
	ctx := context.Background()

	cartHook, err := UseCart(ctx, authStore, cartStore, quiet())
	require.NoError(t, err)
	defer cartHook.Unmount()
	notifHook, err := UseNotifications(ctx, authStore, notifications, quiet())
	require.NoError(t, err)
	defer notifHook.Unmount()

	require.NoError(t, cartStore.Fetch(ctx))
	require.NoError(t, notifications.LoadMore(ctx))
	assert.EqualValues(t, 0, hits.Load(), "unauthenticated hooks and stores never reach the network")

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, authtoken.Claims{
		UserID:           "u1",
		Role:             "CUSTOMER",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	require.NoError(t, authStore.SetSession(ctx, auth.Session{Token: signed}))

	cartHook.Wait()
	notifHook.Wait()
	assert.EqualValues(t, 2, hits.Load())
	assert.True(t, cartStore.Snapshot().Loaded)
	assert.Equal(t, 1, notifications.UnreadCount())

	authStore.Expire()
	assert.Equal(t, 0, notifications.UnreadCount(), "signing out clears the stores")
	assert.False(t, cartStore.Snapshot().Loaded)
}

func signedToken(t *testing.T, uid string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, authtoken.Claims{
		UserID:           uid,
		Role:             "CUSTOMER",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return signed
}

func TestUseNotifications_ClockExpiryClearsStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": "n1", "title": "Hi", "type": "SYSTEM", "isRead": false}},
			"meta": map[string]any{"page": 1, "limit": 20, "total": 1, "totalPages": 1},
		})
	}))
	defer srv.Close()

	authStore := auth.NewStore(nil, nil, quiet(), nil)
	client := apiclient.New(apiclient.Options{BaseURL: srv.URL, Tokens: authStore, MaxAttempts: 1})
	notifications := notification.NewStore(notification.NewHTTPAPI(client), store.Deps{Tokens: authStore, Logger: quiet()}, 20)
	ctx := context.Background()

	hook, err := UseNotifications(ctx, authStore, notifications, quiet())
	require.NoError(t, err)
	defer hook.Unmount()

	require.NoError(t, authStore.SetSession(ctx, auth.Session{
		Token:     signedToken(t, "u1"),
		ExpiresAt: time.Now().Add(200 * time.Millisecond),
	}))
	hook.Wait()
	require.Equal(t, 1, notifications.UnreadCount())

	require.Eventually(t, func() bool {
		return notifications.UnreadCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, notifications.Snapshot().Items)
	assert.Empty(t, authStore.Token())
	assert.Nil(t, authStore.User())
}

// A 401 on an optimistic delete signs the user out mid-call. The rollback
// must not bring the previous user's item back.
func TestUseCart_UnauthorizedRemoveLeavesCartEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid or expired token"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"items": []map[string]any{
			{"id": "i1", "variantId": "v1", "quantity": 2, "variant": map[string]any{"id": "v1", "price": 500, "stock": 5}},
		}}})
	}))
	defer srv.Close()

	authStore := auth.NewStore(nil, nil, quiet(), nil)
	client := apiclient.New(apiclient.Options{BaseURL: srv.URL, Tokens: authStore, MaxAttempts: 1})
	client.SetUnauthorizedHandler(authStore.HandleUnauthorized)
	cartStore := cart.NewStore(cart.NewHTTPAPI(client), store.Deps{Tokens: authStore, Logger: quiet()})
	ctx := context.Background()

	hook, err := UseCart(ctx, authStore, cartStore, quiet())
	require.NoError(t, err)
	defer hook.Unmount()

	require.NoError(t, authStore.SetSession(ctx, auth.Session{Token: signedToken(t, "u1")}))
	hook.Wait()
	require.Len(t, cartStore.Snapshot().Items, 1)

	err = cartStore.Remove(ctx, "i1")
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.Empty(t, authStore.Token())
	assert.Empty(t, cartStore.Snapshot().Items)
	assert.False(t, cartStore.Snapshot().Loaded)
}
