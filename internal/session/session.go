// Package session resolves the caller's identity from the request's session cookie.
// Sessions are issued elsewhere; this package only reads them.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/DownstreamWealth/portal/internal/domain"
)

// Identity is the authenticated caller as recorded when the session was issued.
// Status is a cached copy and can lag behind the users table.
type Identity struct {
	UserID int64
	Status string
}

// Resolver returns the identity behind a request. A missing, invalid or unknown
// session yields an error wrapping domain.ErrUnauthorized; backend failures do not.
type Resolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) (Identity, error)

func (f ResolverFunc) Resolve(r *http.Request) (Identity, error) {
	return f(r)
}

// Store looks up opaque session ids. It returns nil and no error for unknown ids.
type Store interface {
	Lookup(ctx context.Context, sessionID string) (*Identity, error)
}

// StoreResolver reads an opaque session id from a cookie and looks it up in a Store.
type StoreResolver struct {
	cookie string
	store  Store
}

// NewStoreResolver creates a resolver for the named cookie.
func NewStoreResolver(cookie string, store Store) *StoreResolver {
	return &StoreResolver{cookie: cookie, store: store}
}

func (r *StoreResolver) Resolve(req *http.Request) (Identity, error) {
	id, err := cookieValue(req, r.cookie)
	if err != nil {
		return Identity{}, err
	}
	identity, err := r.store.Lookup(req.Context(), id)
	if err != nil {
		return Identity{}, fmt.Errorf("lookup session: %w", err)
	}
	if identity == nil || identity.UserID <= 0 {
		return Identity{}, fmt.Errorf("%w: unknown session", domain.ErrUnauthorized)
	}
	return *identity, nil
}

func cookieValue(req *http.Request, name string) (string, error) {
	c, err := req.Cookie(name)
	if err != nil {
		return "", fmt.Errorf("%w: missing session cookie", domain.ErrUnauthorized)
	}
	value := strings.TrimSpace(c.Value)
	if value == "" {
		return "", fmt.Errorf("%w: empty session cookie", domain.ErrUnauthorized)
	}
	return value, nil
}
