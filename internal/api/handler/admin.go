package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/psychotest/psychotest/internal/api/middleware"
	"github.com/psychotest/psychotest/internal/api/response"
	"github.com/psychotest/psychotest/internal/api/validation"
	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/catalog"
	"github.com/psychotest/psychotest/internal/screen"
)

type createTestRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes"`
	IsActive        *bool  `json:"isActive"`
}

type updateTestRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"durationMinutes"`
	IsActive        *bool   `json:"isActive"`
}

type testResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes"`
	IsActive        bool   `json:"isActive"`
	CreatedAt       string `json:"createdAt"`
}

func toTestResponse(t *catalog.Test) testResponse {
	return testResponse{
		ID:              t.ID.String(),
		Title:           t.Title,
		Description:     t.Description,
		DurationMinutes: t.DurationMinutes,
		IsActive:        t.IsActive,
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// AdminHandler serves the admin dashboard, test catalog and user screens.
type AdminHandler struct {
	loader *screen.Loader
	tests  catalog.Repository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(loader *screen.Loader, tests catalog.Repository) *AdminHandler {
	return &AdminHandler{loader: loader, tests: tests}
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := identityOrFail(w, r)
	if identity == nil {
		return
	}

	stats, err := h.loader.AdminStats(r.Context(), *identity)
	if err != nil {
		if errors.Is(err, screen.ErrStale) {
			return
		}
		slog.Error("failed to load admin stats", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load stats", requestID)
		return
	}

	response.Success(w, http.StatusOK, stats, requestID)
}

// Tests handles GET /admin/tests. ?active=true|false narrows the list.
func (h *AdminHandler) Tests(w http.ResponseWriter, r *http.Request) {
	s := screen.AdminTests
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_QUERY", "active must be true or false", middleware.GetRequestID(r.Context()))
			return
		}
		s = s.Where("is_active", active)
	}
	serveScreen(w, r, h.loader, s)
}

// Users handles GET /admin/users. ?role= narrows the list.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	s := screen.AdminUsers
	if raw := r.URL.Query().Get("role"); raw != "" {
		if !auth.Role(raw).Valid() {
			response.Err(w, http.StatusBadRequest, "INVALID_QUERY", "role must be client, therapist or admin", middleware.GetRequestID(r.Context()))
			return
		}
		s = s.Where("role", raw)
	}
	serveScreen(w, r, h.loader, s)
}

// CreateTest handles POST /admin/tests.
func (h *AdminHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateTestRequest(validation.CreateTestRequest{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t := &catalog.Test{
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := h.tests.Create(r.Context(), t); err != nil {
		slog.Error("failed to create test", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create test", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTestResponse(t), requestID)
}

// UpdateTest handles PATCH /admin/tests/{id}.
func (h *AdminHandler) UpdateTest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateTestRequest(validation.UpdateTestRequest{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		IsActive:        req.IsActive,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}

	t, err := h.tests.Update(r.Context(), id, catalog.UpdateFields{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		IsActive:        req.IsActive,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrTestNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Test not found", requestID)
			return
		}
		slog.Error("failed to update test", "error", err, "id", id, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update test", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTestResponse(t), requestID)
}

// DeleteTest handles DELETE /admin/tests/{id}.
func (h *AdminHandler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	if err := h.tests.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, catalog.ErrTestNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Test not found", requestID)
		case errors.Is(err, catalog.ErrTestHasAssignments):
			response.Err(w, http.StatusConflict, "TEST_HAS_ASSIGNMENTS", "Cannot delete a test that has been assigned; deactivate it instead", requestID)
		default:
			slog.Error("failed to delete test", "error", err, "id", id, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete test", requestID)
		}
		return
	}

	response.NoContent(w)
}
