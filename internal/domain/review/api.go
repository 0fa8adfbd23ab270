// internal/domain/review/api.go
package review

import (
	"context"
	"net/http"
	"net/url"

	"github.com/your-org/storefront-client/internal/pkg/apiclient"
)

// API is the remote side of reviews
type API interface {
	List(ctx context.Context, f Filter) (*ListResult, error)
	Edit(ctx context.Context, id string, req EditRequest) (*Review, error)
	Reply(ctx context.Context, id string, req ReplyRequest) (*Review, error)
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

// List handles GET /reviews
func (a *HTTPAPI) List(ctx context.Context, f Filter) (*ListResult, error) {
	var reviews []Review
	meta, err := a.client.Get(ctx, "/reviews", f.Values(), &reviews)
	if err != nil {
		return nil, err
	}

	res := &ListResult{Reviews: reviews, Page: f.Page, Limit: f.Limit}
	if meta != nil {
		res.Page = meta.Page
		res.Limit = meta.Limit
		res.Total = meta.Total
		res.TotalPages = meta.TotalPages
	}
	return res, nil
}

// Edit handles PATCH /reviews/:id
func (a *HTTPAPI) Edit(ctx context.Context, id string, req EditRequest) (*Review, error) {
	return a.write(ctx, http.MethodPatch, "/reviews/"+url.PathEscape(id), req)
}

// Reply handles POST /reviews/:id/reply
func (a *HTTPAPI) Reply(ctx context.Context, id string, req ReplyRequest) (*Review, error) {
	return a.write(ctx, http.MethodPost, "/reviews/"+url.PathEscape(id)+"/reply", req)
}

// Delete handles DELETE /reviews/:id
func (a *HTTPAPI) Delete(ctx context.Context, id string) error {
	return a.client.Delete(ctx, "/reviews/"+url.PathEscape(id))
}

func (a *HTTPAPI) write(ctx context.Context, method, path string, body any) (*Review, error) {
	var r Review
	if _, err := a.client.Do(ctx, apiclient.Request{Method: method, Path: path, Body: body}, &r); err != nil {
		return nil, err
	}
	if r.ID == "" {
		return nil, nil
	}
	return &r, nil
}
