package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/psychotest/psychotest/internal/auth"
)

// SessionCookie is the cookie that carries the session token for browser clients.
const SessionCookie = "session"

const identityKey contextKey = "identity"

// SessionToken returns the session token of r, read from an
// "Authorization: Bearer" header or, failing that, the session cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the authorized Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}
