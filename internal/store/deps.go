// internal/store/deps.go
package store

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/pkg/toast"
)

// TokenSource reports the current bearer token; empty means signed out
type TokenSource interface {
	Token() string
}

// Deps are the collaborators every domain store shares
type Deps struct {
	Tokens    TokenSource
	Logger    logrus.FieldLogger
	Notifier  toast.Notifier
	Snapshots SnapshotRepository
}

// WithDefaults fills in no-op collaborators for anything left nil
func (d Deps) WithDefaults() Deps {
	if d.Tokens == nil {
		d.Tokens = staticToken("")
	}
	if d.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.Logger = l
	}
	if d.Notifier == nil {
		d.Notifier = toast.Multi(nil)
	}
	return d
}

// Authenticated reports whether a token is present
func (d Deps) Authenticated() bool {
	return d.Tokens != nil && d.Tokens.Token() != ""
}

type staticToken string

func (t staticToken) Token() string { return string(t) }

// StaticToken returns a TokenSource that always yields token
func StaticToken(token string) TokenSource {
	return staticToken(token)
}
