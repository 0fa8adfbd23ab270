// internal/domain/promotion/api.go
package promotion

import (
	"context"
	"net/url"

	"github.com/your-org/storefront-client/internal/pkg/apiclient"
)

// API is the remote side of the promotions dashboard
type API interface {
	List(ctx context.Context, f Filter) (*ListResult, error)
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

// List handles GET /vouchers
func (a *HTTPAPI) List(ctx context.Context, f Filter) (*ListResult, error) {
	var vouchers []Voucher
	meta, err := a.client.Get(ctx, "/vouchers", f.Values(), &vouchers)
	if err != nil {
		return nil, err
	}

	res := &ListResult{Vouchers: vouchers, Page: f.Page, Limit: f.Limit}
	if meta != nil {
		res.Page = meta.Page
		res.Limit = meta.Limit
		res.Total = meta.Total
		res.TotalPages = meta.TotalPages
	}
	return res, nil
}

// Delete handles DELETE /vouchers/:id
func (a *HTTPAPI) Delete(ctx context.Context, id string) error {
	return a.client.Delete(ctx, "/vouchers/"+url.PathEscape(id))
}
