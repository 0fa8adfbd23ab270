// internal/domain/auth/api.go
package auth

import (
	"context"
	"net/http"

	"github.com/your-org/storefront-client/internal/pkg/apiclient"
)

// API is the remote side of authentication
type API interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
}

// HTTPAPI calls the marketplace REST API
type HTTPAPI struct {
	client *apiclient.Client
}

// NewHTTPAPI creates the REST implementation of API
func NewHTTPAPI(client *apiclient.Client) *HTTPAPI {
	return &HTTPAPI{client: client}
}

// Login handles POST /auth/login
func (a *HTTPAPI) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	_, err := a.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   LoginRequest{Email: email, Password: password},
		Public: true,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout handles POST /auth/logout
func (a *HTTPAPI) Logout(ctx context.Context) error {
	return a.client.Post(ctx, "/auth/logout", nil, nil)
}

// Me handles GET /auth/me
func (a *HTTPAPI) Me(ctx context.Context) (*User, error) {
	var user User
	if _, err := a.client.Get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
