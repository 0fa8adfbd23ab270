// internal/domain/cart/api.go
package cart

import (
	"context"
	"net/url"

	"github.com/your-org/storefront-client/internal/pkg/apiclient"
)

// API is the remote side of the cart
type API interface {
	GetCart(ctx context.Context) (*Cart, error)
	AddItem(ctx context.Context, variantID string, quantity int) (*Cart, error)
	UpdateItem(ctx context.Context, variantID string, quantity int) (*CartItem, error)
	RemoveItem(ctx context.Context, variantID string) error
	Clear(ctx context.Context) error
}

// HTTPAPI calls the marketplace REST API
type HTTPAPI struct {
	client *apiclient.Client
}

// NewHTTPAPI creates the REST implementation of API
func NewHTTPAPI(client *apiclient.Client) *HTTPAPI {
	return &HTTPAPI{client: client}
}

// GetCart handles GET /cart
func (a *HTTPAPI) GetCart(ctx context.Context) (*Cart, error) {
	var c Cart
	if _, err := a.client.Get(ctx, "/cart", nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// AddItem handles POST /cart/items
func (a *HTTPAPI) AddItem(ctx context.Context, variantID string, quantity int) (*Cart, error) {
	var c Cart
	if err := a.client.Post(ctx, "/cart/items", AddItemRequest{VariantID: variantID, Quantity: quantity}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateItem handles PATCH /cart/items/:variantId
func (a *HTTPAPI) UpdateItem(ctx context.Context, variantID string, quantity int) (*CartItem, error) {
	var item CartItem
	if err := a.client.Patch(ctx, "/cart/items/"+url.PathEscape(variantID), UpdateItemRequest{Quantity: quantity}, &item); err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, nil
	}
	return &item, nil
}

// RemoveItem handles DELETE /cart/items/:variantId
func (a *HTTPAPI) RemoveItem(ctx context.Context, variantID string) error {
	return a.client.Delete(ctx, "/cart/items/"+url.PathEscape(variantID))
}

// Clear handles DELETE /cart
func (a *HTTPAPI) Clear(ctx context.Context) error {
	return a.client.Delete(ctx, "/cart")
}
