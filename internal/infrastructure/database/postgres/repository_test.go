package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/domain/product"
)

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Limit: defaultLimit}, NewPage(0, 0))
	assert.Equal(t, Page{Number: 3, Limit: maxLimit}, NewPage(3, 1000))

	p := NewPage(3, 10)
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(10))
	assert.Equal(t, 3, p.TotalPages(21))
}

func TestProductOrder(t *testing.T) {
	assert.Equal(t, "price ASC, id ASC", productOrder(product.Query{SortBy: "price", SortOrder: "ASC"}))
	assert.Equal(t, "created_at DESC, id ASC", productOrder(product.Query{}))
	assert.Equal(t, "created_at DESC, id ASC", productOrder(product.Query{SortBy: "name; DROP TABLE products"}),
		"unknown columns fall back to the default")
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(order.StatusPending, order.StatusPaid))
	assert.True(t, CanTransition(order.StatusPaid, order.StatusShipped))
	assert.True(t, CanTransition(order.StatusDelivered, order.StatusCompleted))
	assert.False(t, CanTransition(order.StatusShipped, order.StatusPending))
	assert.False(t, CanTransition(order.StatusCompleted, order.StatusRefunded))
	assert.False(t, CanTransition(order.StatusCancelled, order.StatusPaid))
}

func TestScope(t *testing.T) {
	owner := Scope{UserID: "u1", StoreID: "s1", Role: auth.RoleStoreOwner}
	assert.True(t, owner.OwnsStore("s1"))
	assert.False(t, owner.OwnsStore("s2"))
	assert.False(t, owner.OwnsStore(""), "marketplace-wide records are admin only")

	customer := Scope{UserID: "u2", StoreID: "s1", Role: auth.RoleCustomer}
	assert.False(t, customer.OwnsStore("s1"))

	admin := Scope{UserID: "u3", Role: auth.RoleAdmin}
	assert.True(t, admin.Admin())
	assert.True(t, admin.OwnsStore(""))
	assert.True(t, Scope{Role: auth.RoleSuperAdmin}.OwnsStore("s9"))
}

func TestModelConversions(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	p := &Product{StoreID: "s1", Name: "Tee", Store: Store{Name: "Northwind"}}
	item := CartItem{
		Base:      Base{ID: "ci1"},
		VariantID: "v1",
		Quantity:  2,
		Variant: ProductVariant{
			Base: Base{ID: "v1"}, Size: "M", Color: "Black", Price: 2500, Stock: 4, Product: p,
		},
	}
	got := item.toDomain()
	assert.Equal(t, "v1", got.VariantID)
	assert.Equal(t, "Northwind", got.Variant.Product.StoreName)
	assert.Equal(t, int64(5000), got.LineTotal())

	assert.Equal(t, "M / Black", item.Variant.Title())
	assert.Equal(t, "Gift card", ProductVariant{Name: "Gift card"}.Title())

	r := Review{Base: Base{ID: "r1", CreatedAt: now}, UserID: "u1", Rating: 4, User: User{Name: "Casey"}}
	assert.Nil(t, r.toDomain().Reply)
	assert.True(t, r.toDomain().CanReply())

	r.ReplyText = "Thanks"
	r.RepliedAt = &now
	converted := r.toDomain()
	require.NotNil(t, converted.Reply)
	assert.Equal(t, "Thanks", converted.Reply.Text)
	assert.Equal(t, "Casey", converted.Author.Name)

	o := Order{
		OrderNumber: "ORD-1", Status: "PAID", TotalAmount: 1800,
		User: User{Name: "Casey"}, Store: Store{Name: "Northwind"},
		Items: []OrderItem{{Name: "Cap", Quantity: 1, Price: 1800}},
	}
	assert.Equal(t, order.StatusPaid, o.toDomain().Status)
	assert.Equal(t, "Casey", o.toDomain().CustomerName)
	assert.Len(t, o.toDomain().Items, 1)
}

func TestUserAccount(t *testing.T) {
	u := User{Base: Base{ID: "u1"}, Name: "Olive", Email: "owner@example.com", Role: "STORE_OWNER", StoreID: "s1"}
	acc := u.Account()
	assert.Equal(t, auth.RoleStoreOwner, acc.Role)
	assert.Equal(t, "s1", acc.StoreID)
}
