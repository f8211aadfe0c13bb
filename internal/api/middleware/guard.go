package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/psychotest/psychotest/internal/api/response"
	"github.com/psychotest/psychotest/internal/auth"
)

// Authorizer checks a session token against a required role.
type Authorizer interface {
	Authorize(ctx context.Context, token string, required auth.Role) (*auth.Identity, error)
}

// Redirects are where rejected requests are sent: Login when there is no
// valid session, Home when the session's role does not match.
type Redirects struct {
	Login string
	Home  string
}

// RequireRole returns middleware that lets a request through only if its
// session belongs to a user whose stored role is role. Rejected requests get
// a bodiless 303 and the wrapped handler never runs. An identity for the same
// role already placed in the context by an outer guard is reused.
func RequireRole(a Authorizer, role auth.Role, to Redirects) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := GetIdentity(r.Context()); id != nil && id.Role == role {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := a.Authorize(r.Context(), SessionToken(r), role)
			if err != nil {
				reject(w, r, err, role, to)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// Gate guards every path under prefix at the edge, independently of the
// guards mounted on individual routes. Other paths pass through untouched.
func Gate(prefix string, a Authorizer, role auth.Role, to Redirects) func(http.Handler) http.Handler {
	prefix = strings.TrimSuffix(prefix, "/")
	return func(next http.Handler) http.Handler {
		guarded := RequireRole(a, role, to)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				guarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, err error, role auth.Role, to Redirects) {
	if errors.Is(err, auth.ErrUnauthorized) {
		response.SeeOther(w, to.Login)
		return
	}
	if !errors.Is(err, auth.ErrForbidden) {
		slog.Error("authorization failed", "error", err, "requestId", GetRequestID(r.Context()))
	}
	slog.Info("role check rejected", "path", r.URL.Path, "required", role, "requestId", GetRequestID(r.Context()))
	response.SeeOther(w, to.Home)
}
