package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/psychotest/psychotest/internal/api/middleware"
	"github.com/psychotest/psychotest/internal/api/response"
	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/screen"
)

// serveScreen mounts s for the guarded caller and writes its records. The
// request context is the screen's lifetime: if the client goes away first,
// nothing is written.
func serveScreen(w http.ResponseWriter, r *http.Request, loader *screen.Loader, s screen.Screen) {
	requestID := middleware.GetRequestID(r.Context())

	identity := identityOrFail(w, r)
	if identity == nil {
		return
	}

	view := screen.NewView()
	if err := <-view.Mount(r.Context(), loader, s, *identity); err != nil {
		switch {
		case errors.Is(err, screen.ErrStale):
			slog.Debug("screen result discarded", "screen", s.Name, "requestId", requestID)
		case errors.Is(err, auth.ErrForbidden):
			w.WriteHeader(http.StatusForbidden)
		default:
			slog.Error("screen load failed", "screen", s.Name, "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load "+s.Name, requestID)
		}
		return
	}

	res, _ := view.Snapshot()
	response.SuccessList(w, res.Records, len(res.Records), res.Notice, requestID)
}

// identityOrFail returns the guarded caller, writing a 500 if the route was
// mounted without a guard.
func identityOrFail(w http.ResponseWriter, r *http.Request) *auth.Identity {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		requestID := middleware.GetRequestID(r.Context())
		slog.Error("route served without a guard", "path", r.URL.Path, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
	}
	return identity
}
