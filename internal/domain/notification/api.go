// internal/domain/notification/api.go
package notification

import (
	"context"
	"net/url"
	"strconv"

	"github.com/your-org/storefront-client/internal/pkg/apiclient"
)

// API is the remote side of notifications
type API interface {
	List(ctx context.Context, page, limit int) (*ListResult, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
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

// List handles GET /notifications?page&limit
func (a *HTTPAPI) List(ctx context.Context, page, limit int) (*ListResult, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var items []Notification
	meta, err := a.client.Get(ctx, "/notifications", query, &items)
	if err != nil {
		return nil, err
	}

	res := &ListResult{Items: items, Page: page, Limit: limit}
	if meta != nil {
		res.Page = meta.Page
		res.Limit = meta.Limit
		res.Total = meta.Total
		res.TotalPages = meta.TotalPages
	}
	return res, nil
}

// MarkRead handles PATCH /notifications/:id/read
func (a *HTTPAPI) MarkRead(ctx context.Context, id string) error {
	return a.client.Patch(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead handles POST /notifications/read-all
func (a *HTTPAPI) MarkAllRead(ctx context.Context) error {
	return a.client.Post(ctx, "/notifications/read-all", nil, nil)
}

// Delete handles DELETE /notifications/:id
func (a *HTTPAPI) Delete(ctx context.Context, id string) error {
	return a.client.Delete(ctx, "/notifications/"+url.PathEscape(id))
}
