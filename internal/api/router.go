package api

import (
	_ "embed"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/psychotest/psychotest/internal/api/handler"
	"github.com/psychotest/psychotest/internal/api/middleware"
	"github.com/psychotest/psychotest/internal/assignment"
	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/catalog"
	"github.com/psychotest/psychotest/internal/screen"
)

// OpenAPISpec is the service's OpenAPI document.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger        handler.DBPinger
	Version         string
	AuthService     *auth.Service
	Loader          *screen.Loader
	Assignments     *assignment.Service
	Tests           catalog.Repository
	Redirects       middleware.Redirects
	RegisterLimiter *middleware.RateLimiter
	SecureCookie    bool
	OpenAPISpec     []byte

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxyHeaders bool

	// CORSOrigins are the browser origins allowed to call the API with
	// credentials. Empty disables CORS.
	CORSOrigins []string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
// Every path under /admin is gated at the edge before any route matches.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if deps.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Gate("/admin", deps.AuthService, auth.RoleAdmin, deps.Redirects))

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler, err := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		if err != nil {
			slog.Error("OpenAPI document not served", "error", err)
		} else {
			r.Get("/openapi.json", openapiHandler.ServeHTTP)
		}
	}

	authHandler := handler.NewAuthHandler(deps.AuthService, deps.SecureCookie)
	r.Route("/auth", func(r chi.Router) {
		if deps.RegisterLimiter != nil {
			r.With(deps.RegisterLimiter.Middleware).Post("/register", authHandler.Register)
		} else {
			r.Post("/register", authHandler.Register)
		}
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/session", authHandler.Session)
	})

	therapistHandler := handler.NewTherapistHandler(deps.Loader, deps.Assignments)
	r.Route("/therapist", func(r chi.Router) {
		r.Use(middleware.RequireRole(deps.AuthService, auth.RoleTherapist, deps.Redirects))
		r.Get("/stats", therapistHandler.Stats)
		r.Get("/assignments", therapistHandler.Assignments)
		r.Post("/assignments", therapistHandler.Assign)
		r.Patch("/assignments/{id}", therapistHandler.UpdateAssignmentStatus)
		r.Get("/clients", therapistHandler.Clients)
		r.Post("/clients", therapistHandler.AddClient)
		r.Get("/clients/assignments", therapistHandler.ClientAssignments)
	})

	adminHandler := handler.NewAdminHandler(deps.Loader, deps.Tests)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(deps.AuthService, auth.RoleAdmin, deps.Redirects))
		r.Get("/stats", adminHandler.Stats)
		r.Get("/tests", adminHandler.Tests)
		r.Post("/tests", adminHandler.CreateTest)
		r.Patch("/tests/{id}", adminHandler.UpdateTest)
		r.Delete("/tests/{id}", adminHandler.DeleteTest)
		r.Get("/users", adminHandler.Users)
	})

	return r
}
