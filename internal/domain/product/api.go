// internal/domain/product/api.go
package product

import (
	"context"
	"net/url"

	"github.com/your-org/storefront-client/internal/pkg/apiclient"
)

// API is the remote side of the product dashboards
type API interface {
	List(ctx context.Context, q Query) (*ListResult, error)
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Product, error)
	Delete(ctx context.Context, id string) error
}

// HTTPAPI calls the marketplace REST API
type HTTPAPI struct {
	client *apiclient.Client
}

// NewHTTPAPI creates the REST implementation of API
func NewHTTPAPI(client *apiclient.Client) *HTTPAPI {
	return &HTTPAPI{client: client}
}

// List handles GET /products
func (a *HTTPAPI) List(ctx context.Context, q Query) (*ListResult, error) {
	var products []Product
	meta, err := a.client.Get(ctx, "/products", q.Values(), &products)
	if err != nil {
		return nil, err
	}

	res := &ListResult{Products: products, Page: q.Page, Limit: q.Limit}
	if meta != nil {
		res.Page = meta.Page
		res.Limit = meta.Limit
		res.Total = meta.Total
		res.TotalPages = meta.TotalPages
	}
	return res, nil
}

// Get handles GET /products/:id
func (a *HTTPAPI) Get(ctx context.Context, id string) (*Product, error) {
	var p Product
	if _, err := a.client.Get(ctx, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update handles PATCH /products/:id
func (a *HTTPAPI) Update(ctx context.Context, id string, req UpdateRequest) (*Product, error) {
	var p Product
	if err := a.client.Patch(ctx, "/products/"+url.PathEscape(id), req, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, nil
	}
	return &p, nil
}

// Delete handles DELETE /products/:id
func (a *HTTPAPI) Delete(ctx context.Context, id string) error {
	return a.client.Delete(ctx, "/products/"+url.PathEscape(id))
}
