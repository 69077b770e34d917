package auth

import (
	"strings"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/identity"
	"github.com/akeren/waitlist-foundry/pkg/token"
)

// CallerResolver reads the session token from the Authorization header, then
// from the session cookie.
func CallerResolver(tokens *token.Issuer, cookieName string) identity.Resolver {
	return func(c *router.RequestContext) (*identity.Identity, bool) {
		raw := tokenFromRequest(c, cookieName)
		if raw == "" {
			return nil, false
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			router.GetLogger(c).Debug("Rejected session token", "error", err)
			return nil, false
		}

		id := &identity.Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
		}
		if claims.ExpiresAt != nil {
			id.ExpiresAt = claims.ExpiresAt.Time
		}
		return id, true
	}
}

func tokenFromRequest(c *router.RequestContext, cookieName string) string {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		return token.NormalizeToken(header)
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
