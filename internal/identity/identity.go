// Package identity carries the authenticated caller through a request.
//
// Handlers never look up the session themselves: they receive a Resolver
// and ask it for the current caller. Tests swap in a fixed Resolver.
package identity

import (
	"context"
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
)

const MessageUnauthenticated = "Non authentifié"

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the caller of an authenticated request.
type Identity struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Resolver returns the current caller, or false when the request carries no
// valid session.
type Resolver func(c *router.RequestContext) (*Identity, bool)

// Require resolves the caller and answers 401 when there is none.
func Require(c *router.RequestContext, resolve Resolver) (*Identity, *router.ServiceResult) {
	if resolve == nil {
		return nil, router.UnauthorizedResult(MessageUnauthenticated)
	}

	id, ok := resolve(c)
	if !ok || id == nil || id.UserID == "" {
		return nil, router.UnauthorizedResult(MessageUnauthenticated)
	}

	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
	return id, nil
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	return id, ok && id != nil
}

// Static always resolves to id. A nil id resolves to nobody.
func Static(id *Identity) Resolver {
	return func(*router.RequestContext) (*Identity, bool) {
		return id, id != nil
	}
}
