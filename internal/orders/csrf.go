package orders

import (
	"context"
	"net/http"
	"strings"
)

const (
	DefaultCSRFHeader = "X-CSRFToken"
	DefaultCSRFCookie = "csrftoken"
)

// CSRFProvider supplies the opaque token the order endpoint expects.
type CSRFProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always returns itself.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// TokenFunc adapts a function to CSRFProvider.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// RequestToken reads the token a browser sent with r: the header first,
// then the cookie.
func RequestToken(r *http.Request, header, cookie string) StaticToken {
	if header == "" {
		header = DefaultCSRFHeader
	}
	if cookie == "" {
		cookie = DefaultCSRFCookie
	}
	if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
		return StaticToken(v)
	}
	if c, err := r.Cookie(cookie); err == nil {
		return StaticToken(strings.TrimSpace(c.Value))
	}
	return ""
}

type tokenCtxKey struct{}

// WithToken attaches a per-request token that takes precedence over the
// client's provider.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

func tokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenCtxKey{}).(string)
	return v, ok && v != ""
}
