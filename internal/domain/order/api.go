// internal/domain/order/api.go
package order

import (
	"context"
	"net/url"
	"strconv"

	"github.com/your-org/storefront-client/internal/pkg/apiclient"
)

// ListResult is a page of orders
type ListResult struct {
	Orders     []Order
	Page       int
	TotalPages int
	Total      int
}

// API is the remote side of orders
type API interface {
	List(ctx context.Context, filter Filter) (*ListResult, error)
	Get(ctx context.Context, id string) (*Order, error)
	ChangeStatus(ctx context.Context, id string, req StatusChangeRequest) (*Order, error)
}

// HTTPAPI calls the marketplace REST API
type HTTPAPI struct {
	client *apiclient.Client
}

// NewHTTPAPI creates the REST implementation of API
func NewHTTPAPI(client *apiclient.Client) *HTTPAPI {
	return &HTTPAPI{client: client}
}

// List handles GET /orders
func (a *HTTPAPI) List(ctx context.Context, filter Filter) (*ListResult, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var orders []Order
	meta, err := a.client.Get(ctx, "/orders", query, &orders)
	if err != nil {
		return nil, err
	}

	res := &ListResult{Orders: orders, Page: 1, TotalPages: 1, Total: len(orders)}
	if meta != nil {
		res.Page = meta.Page
		res.TotalPages = meta.TotalPages
		res.Total = meta.Total
	}
	return res, nil
}

// Get handles GET /orders/:id
func (a *HTTPAPI) Get(ctx context.Context, id string) (*Order, error) {
	var o Order
	if _, err := a.client.Get(ctx, "/orders/"+url.PathEscape(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ChangeStatus handles PATCH /orders/:id/status
func (a *HTTPAPI) ChangeStatus(ctx context.Context, id string, req StatusChangeRequest) (*Order, error) {
	var o Order
	if err := a.client.Patch(ctx, "/orders/"+url.PathEscape(id)+"/status", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
