package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserContextKey  contextKey = "auth.user"
	EmailContextKey contextKey = "auth.email"
)

var ErrUnauthorized = errors.New("unauthorized")

type Provider interface {
	Authenticate(ctx context.Context, r *http.Request) (context.Context, error)
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")

	if header == "" {
		return "", errors.New("missing authorization header")
	}

	scheme, token, ok := strings.Cut(header, " ")

	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header")
	}

	return strings.TrimSpace(token), nil
}

// Authenticate tries each provider in order and returns the context of the
// first one that accepts the request. Without providers every request passes.
func Authenticate(ctx context.Context, r *http.Request, providers ...Provider) (context.Context, error) {
	if len(providers) == 0 {
		return ctx, nil
	}

	var errs []error

	for _, p := range providers {
		result, err := p.Authenticate(ctx, r)

		if err == nil {
			return result, nil
		}

		errs = append(errs, err)
	}

	return ctx, errors.Join(append([]error{ErrUnauthorized}, errs...)...)
}
