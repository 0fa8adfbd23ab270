package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/domain/cart"
	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/domain/product"
	"github.com/your-org/storefront-client/internal/domain/promotion"
	"github.com/your-org/storefront-client/internal/domain/review"
	"github.com/your-org/storefront-client/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-client/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-client/internal/interfaces/http/routes"
	authtoken "github.com/your-org/storefront-client/internal/pkg/auth"
	"github.com/your-org/storefront-client/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	mu sync.Mutex

	users        map[string]*postgres.User
	cart         []cart.CartItem
	addCalls     int
	cartErr      error
	orders       map[string]order.Order
	statusErr    error
	lastScope    postgres.Scope
	productQuery product.Query
	products     []product.Product
	reviewErr    error
	notes        []notification.Notification
}

func newFakeRepo(t *testing.T) *fakeRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	users := map[string]*postgres.User{}
	for _, u := range []postgres.User{
		{Base: postgres.Base{ID: "u-customer"}, Name: "Casey", Email: "customer@example.com", Role: string(auth.RoleCustomer)},
		{Base: postgres.Base{ID: "u-owner"}, Name: "Olive", Email: "owner@example.com", Role: string(auth.RoleStoreOwner), StoreID: "s-1"},
	} {
		u := u
		u.PasswordHash = string(hash)
		users[u.Email] = &u
	}

	return &fakeRepo{
		users:  users,
		orders: map[string]order.Order{"o-1": {ID: "o-1", OrderNumber: "ORD-1001", Status: order.StatusPaid}},
		notes: []notification.Notification{
			{ID: "n-1", Title: "Shipped"},
			{ID: "n-2", Title: "Paid", IsRead: true},
		},
	}
}

func (f *fakeRepo) UserByEmail(_ context.Context, email string) (*postgres.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user not found: %w", postgres.ErrNotFound)
}

func (f *fakeRepo) UserByID(_ context.Context, id string) (*postgres.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", postgres.ErrNotFound)
}

func (f *fakeRepo) CartItems(context.Context, string) ([]cart.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cart.CartItem(nil), f.cart...), nil
}

func (f *fakeRepo) AddCartItem(_ context.Context, _ string, variantID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.cartErr != nil {
		return f.cartErr
	}
	f.cart = append(f.cart, cart.CartItem{ID: "ci-" + variantID, VariantID: variantID, Quantity: quantity})
	return nil
}

func (f *fakeRepo) SetCartQuantity(_ context.Context, _ string, variantID string, quantity int) (*cart.CartItem, error) {
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	return &cart.CartItem{ID: "ci-" + variantID, VariantID: variantID, Quantity: quantity}, nil
}

func (f *fakeRepo) RemoveCartItem(context.Context, string, string) error { return f.cartErr }
func (f *fakeRepo) ClearCart(context.Context, string) error             { return nil }

func (f *fakeRepo) Notifications(_ context.Context, _ string, page postgres.Page) ([]notification.Notification, int64, error) {
	return f.notes, 25, nil
}

func (f *fakeRepo) MarkNotificationRead(context.Context, string, string) error { return nil }
func (f *fakeRepo) MarkAllNotificationsRead(context.Context, string) (int64, error) {
	return 1, nil
}
func (f *fakeRepo) DeleteNotification(context.Context, string, string) error { return nil }

func (f *fakeRepo) Orders(_ context.Context, scope postgres.Scope, _ order.Status, _ postgres.Page) ([]order.Order, int64, error) {
	f.lastScope = scope
	out := make([]order.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) Order(_ context.Context, _ postgres.Scope, id string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order not found: %w", postgres.ErrNotFound)
	}
	return &o, nil
}

func (f *fakeRepo) ChangeOrderStatus(_ context.Context, scope postgres.Scope, id string, req order.StatusChangeRequest) (*order.Order, error) {
	f.lastScope = scope
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	o := f.orders[id]
	o.Status = req.Status
	f.orders[id] = o
	return &o, nil
}

func (f *fakeRepo) Products(_ context.Context, q product.Query) ([]product.Product, int64, error) {
	f.productQuery = q
	return f.products, int64(len(f.products)), nil
}

func (f *fakeRepo) Product(_ context.Context, id string) (*product.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product not found: %w", postgres.ErrNotFound)
}

func (f *fakeRepo) UpdateProduct(_ context.Context, _ postgres.Scope, id string, req product.UpdateRequest) (*product.Product, error) {
	p, err := f.Product(context.Background(), id)
	if err != nil {
		return nil, err
	}
	updated := req.ApplyTo(*p)
	return &updated, nil
}

func (f *fakeRepo) DeleteProduct(context.Context, postgres.Scope, string) error { return nil }

func (f *fakeRepo) Reviews(context.Context, postgres.Scope, review.Filter) ([]review.Review, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepo) EditReview(_ context.Context, _ postgres.Scope, id string, req review.EditRequest) (*review.Review, error) {
	if f.reviewErr != nil {
		return nil, f.reviewErr
	}
	return &review.Review{ID: id, Rating: req.Rating, Comment: req.Comment}, nil
}

func (f *fakeRepo) ReplyToReview(_ context.Context, _ postgres.Scope, id, text string) (*review.Review, error) {
	return &review.Review{ID: id, Reply: &review.Reply{Text: text}}, nil
}

func (f *fakeRepo) DeleteReview(context.Context, postgres.Scope, string) error { return nil }

func (f *fakeRepo) Vouchers(context.Context, promotion.Filter) ([]promotion.Voucher, int64, error) {
	return []promotion.Voucher{{ID: "v-1", Code: "WELCOME10"}}, 1, nil
}

func (f *fakeRepo) DeleteVoucher(context.Context, postgres.Scope, string) error { return nil }

type fakeInvoices struct{}

func (fakeInvoices) RenderHTML(o order.Order) (string, error) {
	return "<h1>" + o.OrderNumber + "</h1>", nil
}

func (fakeInvoices) GenerateInvoice(order.Order) (*bytes.Buffer, error) {
	return nil, errors.New("wkhtmltopdf not installed")
}

type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	case string:
		m.values[key] = v
	default:
		return fmt.Errorf("unsupported value %T", value)
	}
	return nil
}

type harness struct {
	router *gin.Engine
	repo   *fakeRepo
	tokens *authtoken.JWTManager
}

func newHarness(t *testing.T, kv middleware.KeyValue) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{Name: "storefront-test"},
		JWT: config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: time.Hour},
		Security: config.SecurityConfig{
			BcryptCost: bcrypt.MinCost,
		},
	}
	repo := newFakeRepo(t)
	tokens := authtoken.NewJWTManager(cfg)

	router := gin.New()
	routes.SetupRoutes(router.Group("/api/v1"), routes.Dependencies{
		Repo:           repo,
		Tokens:         tokens,
		Passwords:      authtoken.NewPasswordManager(cfg),
		Invoices:       fakeInvoices{},
		Idempotency:    kv,
		IdempotencyTTL: time.Hour,
		Logger:         logger.Discard(),
	})
	return &harness{router: router, repo: repo, tokens: tokens}
}

func (h *harness) token(t *testing.T, userID string, role auth.Role, storeID string) string {
	t.Helper()
	token, err := h.tokens.GenerateAccessToken(userID, userID+"@example.com", string(role), storeID)
	require.NoError(t, err)
	return token
}

func (h *harness) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Meta    map[string]int  `json:"meta"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestLogin(t *testing.T) {
	h := newHarness(t, nil)

	t.Run("valid credentials", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "owner@example.com", "password": "password123"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var session auth.Session
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &session))
		assert.NotEmpty(t, session.Token)
		assert.Equal(t, auth.RoleStoreOwner, session.User.Role)
		assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

		claims, err := h.tokens.ValidateToken(session.Token)
		require.NoError(t, err)
		assert.Equal(t, "s-1", claims.StoreID)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "owner@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid email or password", decode(t, w).Error)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ghost@example.com", "password": "password123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "owner@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMe(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodGet, "/api/v1/auth/me", h.token(t, "u-customer", auth.RoleCustomer, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var u auth.User
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &u))
	assert.Equal(t, "customer@example.com", u.Email)
}

func TestCart(t *testing.T) {
	h := newHarness(t, nil)
	token := h.token(t, "u-customer", auth.RoleCustomer, "")

	w := h.do(http.MethodPost, "/api/v1/cart/items", token, gin.H{"variantId": "var-1", "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c cart.Cart
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &c))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)

	w = h.do(http.MethodPost, "/api/v1/cart/items", token, gin.H{"variantId": "var-1", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPatch, "/api/v1/cart/items/var-1", token, gin.H{"quantity": 5})
	require.Equal(t, http.StatusOK, w.Code)
	var item cart.CartItem
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &item))
	assert.Equal(t, 5, item.Quantity)

	h.repo.cartErr = fmt.Errorf("%w: only 3 in stock", postgres.ErrInvalid)
	w = h.do(http.MethodPatch, "/api/v1/cart/items/var-1", token, gin.H{"quantity": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w).Error, "only 3 in stock")

	h.repo.cartErr = fmt.Errorf("cart item not found: %w", postgres.ErrNotFound)
	w = h.do(http.MethodDelete, "/api/v1/cart/items/var-9", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderStatus(t *testing.T) {
	h := newHarness(t, nil)
	body := gin.H{"status": "shipped"}

	w := h.do(http.MethodPatch, "/api/v1/orders/o-1/status", h.token(t, "u-customer", auth.RoleCustomer, ""), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPatch, "/api/v1/orders/o-1/status", h.token(t, "u-owner", auth.RoleStoreOwner, "s-1"), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var o order.Order
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &o))
	assert.Equal(t, order.StatusShipped, o.Status)
	assert.Equal(t, "s-1", h.repo.lastScope.StoreID)

	h.repo.statusErr = fmt.Errorf("%w: cannot move SHIPPED to PAID", postgres.ErrConflict)
	w = h.do(http.MethodPatch, "/api/v1/orders/o-1/status", h.token(t, "u-owner", auth.RoleStoreOwner, "s-1"), gin.H{"status": "PAID"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOrderList(t *testing.T) {
	h := newHarness(t, nil)
	token := h.token(t, "u-customer", auth.RoleCustomer, "")

	w := h.do(http.MethodGet, "/api/v1/orders?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/v1/orders?status=paid", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode(t, w).Meta["total"])
	assert.Equal(t, "u-customer", h.repo.lastScope.UserID)
}

func TestInvoice(t *testing.T) {
	h := newHarness(t, nil)
	token := h.token(t, "u-customer", auth.RoleCustomer, "")

	w := h.do(http.MethodGet, "/api/v1/orders/o-1/invoice/html", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ORD-1001")
	assert.Equal(t, middleware.DocumentPolicy, w.Header().Get("Content-Security-Policy"))

	w = h.do(http.MethodGet, "/api/v1/orders/o-1/invoice", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = h.do(http.MethodGet, "/api/v1/orders/missing/invoice/html", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotifications(t *testing.T) {
	h := newHarness(t, nil)
	token := h.token(t, "u-customer", auth.RoleCustomer, "")

	w := h.do(http.MethodGet, "/api/v1/notifications?page=2&limit=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, map[string]int{"total": 25, "page": 2, "limit": 10, "totalPages": 3}, env.Meta)

	var items []notification.Notification
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)

	w = h.do(http.MethodPost, "/api/v1/notifications/read-all", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProducts_Visibility(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/api/v1/products?status=draft", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, product.StatusActive, h.repo.productQuery.Status)

	owner := h.token(t, "u-owner", auth.RoleStoreOwner, "s-1")
	w = h.do(http.MethodGet, "/api/v1/products?status=draft&storeId=s-1", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, product.StatusDraft, h.repo.productQuery.Status)

	w = h.do(http.MethodGet, "/api/v1/products?status=draft&storeId=s-2", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, product.StatusActive, h.repo.productQuery.Status)

	w = h.do(http.MethodGet, "/api/v1/products?status=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProducts_DraftHiddenFromShoppers(t *testing.T) {
	h := newHarness(t, nil)
	h.repo.products = []product.Product{{ID: "p-1", StoreID: "s-1", Status: product.StatusDraft}}

	w := h.do(http.MethodGet, "/api/v1/products/p-1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/api/v1/products/p-1", h.token(t, "u-owner", auth.RoleStoreOwner, "s-1"), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodPatch, "/api/v1/products/p-1", h.token(t, "u-customer", auth.RoleCustomer, ""), gin.H{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReviews(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/api/v1/reviews?mine=true", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	customer := h.token(t, "u-customer", auth.RoleCustomer, "")
	h.repo.reviewErr = fmt.Errorf("%w: review was already edited 3 times", postgres.ErrConflict)
	w = h.do(http.MethodPatch, "/api/v1/reviews/r-1", customer, gin.H{"rating": 4, "comment": "ok"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/api/v1/reviews/r-1/reply", customer, gin.H{"reply": "thanks"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPost, "/api/v1/reviews/r-1/reply", h.token(t, "u-owner", auth.RoleStoreOwner, "s-1"), gin.H{"reply": "thanks"})
	require.Equal(t, http.StatusOK, w.Code)
	var r review.Review
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &r))
	require.NotNil(t, r.Reply)
	assert.Equal(t, "thanks", r.Reply.Text)
}

func TestVouchers(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/api/v1/vouchers?active=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode(t, w).Meta["total"])

	w = h.do(http.MethodDelete, "/api/v1/vouchers/v-1", h.token(t, "u-customer", auth.RoleCustomer, ""), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodDelete, "/api/v1/vouchers/v-1", h.token(t, "u-owner", auth.RoleStoreOwner, "s-1"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdempotentReplay(t *testing.T) {
	kv := &memoryKV{values: map[string]string{}}
	h := newHarness(t, kv)
	token := h.token(t, "u-customer", auth.RoleCustomer, "")
	body := gin.H{"variantId": "var-1", "quantity": 1}

	first := h.do(http.MethodPost, "/api/v1/cart/items", token, body, middleware.IdempotencyHeader, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := h.do(http.MethodPost, "/api/v1/cart/items", token, body, middleware.IdempotencyHeader, "key-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, h.repo.addCalls)

	third := h.do(http.MethodPost, "/api/v1/cart/items", token, body, middleware.IdempotencyHeader, "key-2")
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, 2, h.repo.addCalls)
}

func TestIdempotency_ServerErrorsRetry(t *testing.T) {
	kv := &memoryKV{values: map[string]string{}}
	h := newHarness(t, kv)
	token := h.token(t, "u-customer", auth.RoleCustomer, "")
	body := gin.H{"variantId": "var-1", "quantity": 1}

	h.repo.cartErr = errors.New("connection reset")
	w := h.do(http.MethodPost, "/api/v1/cart/items", token, body, middleware.IdempotencyHeader, "key-1")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w).Error)

	h.repo.cartErr = nil
	w = h.do(http.MethodPost, "/api/v1/cart/items", token, body, middleware.IdempotencyHeader, "key-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, h.repo.addCalls)
}
