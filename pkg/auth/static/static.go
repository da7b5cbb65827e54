package static

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/adrianliechti/vectorgate/pkg/auth"
)

var _ auth.Provider = (*Provider)(nil)

// Provider accepts a single shared bearer token.
type Provider struct {
	user  string
	token string
}

type Option func(*Provider)

func WithUser(user string) Option {
	return func(p *Provider) {
		p.user = user
	}
}

func New(token string, options ...Option) (*Provider, error) {
	p := &Provider{
		user:  "static",
		token: token,
	}

	for _, option := range options {
		option(p)
	}

	if p.token == "" {
		return nil, errors.New("static authorizer requires a token")
	}

	return p, nil
}

func (p *Provider) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	token, err := auth.BearerToken(r)

	if err != nil {
		return ctx, err
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(p.token)) != 1 {
		return ctx, errors.New("invalid token")
	}

	return context.WithValue(ctx, auth.UserContextKey, p.user), nil
}
