package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/psychotest/psychotest/internal/api/middleware"
	"github.com/psychotest/psychotest/internal/api/response"
	"github.com/psychotest/psychotest/internal/api/validation"
	"github.com/psychotest/psychotest/internal/assignment"
	"github.com/psychotest/psychotest/internal/screen"
)

type addClientRequest struct {
	Email string  `json:"email"`
	Notes *string `json:"notes"`
}

type assignTestRequest struct {
	ClientID string  `json:"clientId"`
	TestID   string  `json:"testId"`
	DueDate  *string `json:"dueDate"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type rosterEntryResponse struct {
	ID        string  `json:"id"`
	ClientID  string  `json:"clientId"`
	Notes     *string `json:"notes,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

type assignmentResponse struct {
	ID          string  `json:"id"`
	ClientID    string  `json:"clientId"`
	TestID      string  `json:"testId"`
	Status      string  `json:"status"`
	AssignedAt  string  `json:"assignedAt"`
	DueDate     *string `json:"dueDate,omitempty"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

func toAssignmentResponse(a *assignment.Assignment) assignmentResponse {
	resp := assignmentResponse{
		ID:         a.ID.String(),
		ClientID:   a.ClientID.String(),
		TestID:     a.TestID.String(),
		Status:     string(a.Status),
		AssignedAt: a.AssignedAt.UTC().Format(time.RFC3339),
	}
	if a.DueDate != nil {
		s := a.DueDate.Format(time.DateOnly)
		resp.DueDate = &s
	}
	if a.CompletedAt != nil {
		s := a.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

// TherapistHandler serves the therapist dashboard, roster and assignment screens.
type TherapistHandler struct {
	loader      *screen.Loader
	assignments *assignment.Service
	now         func() time.Time
}

// NewTherapistHandler creates a new TherapistHandler.
func NewTherapistHandler(loader *screen.Loader, assignments *assignment.Service) *TherapistHandler {
	return &TherapistHandler{loader: loader, assignments: assignments, now: time.Now}
}

// Stats handles GET /therapist/stats.
func (h *TherapistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := identityOrFail(w, r)
	if identity == nil {
		return
	}

	stats, err := h.loader.TherapistStats(r.Context(), *identity)
	if err != nil {
		if errors.Is(err, screen.ErrStale) {
			return
		}
		slog.Error("failed to load therapist stats", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load stats", requestID)
		return
	}

	response.Success(w, http.StatusOK, stats, requestID)
}

// Assignments handles GET /therapist/assignments. ?status= narrows the list.
func (h *TherapistHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	s := screen.TherapistAssignments
	if status := r.URL.Query().Get("status"); status != "" {
		if fieldErrors := validation.ValidateStatus(status); len(fieldErrors) > 0 {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, middleware.GetRequestID(r.Context()))
			return
		}
		s = s.Where("status", status)
	}
	serveScreen(w, r, h.loader, s)
}

// ClientAssignments handles GET /therapist/clients/assignments. ?clientId=
// narrows the list to one client.
func (h *TherapistHandler) ClientAssignments(w http.ResponseWriter, r *http.Request) {
	s := screen.TherapistClientAssignments
	if raw := r.URL.Query().Get("clientId"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "clientId must be a valid UUID", middleware.GetRequestID(r.Context()))
			return
		}
		s = s.Where("client_id", clientID)
	}
	serveScreen(w, r, h.loader, s)
}

// Clients handles GET /therapist/clients.
func (h *TherapistHandler) Clients(w http.ResponseWriter, r *http.Request) {
	serveScreen(w, r, h.loader, screen.TherapistRoster)
}

// AddClient handles POST /therapist/clients.
func (h *TherapistHandler) AddClient(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := identityOrFail(w, r)
	if identity == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req addClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateAddClientRequest(validation.AddClientRequest{Email: req.Email, Notes: req.Notes})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	e, err := h.assignments.AddClient(r.Context(), identity.UserID, strings.TrimSpace(req.Email), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, assignment.ErrClientNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "No client account with this email", requestID)
		case errors.Is(err, assignment.ErrAlreadyOnRoster):
			response.Err(w, http.StatusConflict, "ALREADY_ON_ROSTER", "Client is already on your roster", requestID)
		default:
			slog.Error("failed to add client", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add client", requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, rosterEntryResponse{
		ID:        e.ID.String(),
		ClientID:  e.ClientID.String(),
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}, requestID)
}

// Assign handles POST /therapist/assignments.
func (h *TherapistHandler) Assign(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := identityOrFail(w, r)
	if identity == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req assignTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateAssignTestRequest(validation.AssignTestRequest{
		ClientID: req.ClientID,
		TestID:   req.TestID,
		DueDate:  req.DueDate,
	}, h.now())
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	// already validated
	clientID, _ := uuid.Parse(req.ClientID)
	testID, _ := uuid.Parse(req.TestID)
	var due *time.Time
	if req.DueDate != nil {
		d, _ := time.Parse(time.DateOnly, *req.DueDate)
		due = &d
	}

	a, err := h.assignments.Assign(r.Context(), identity.UserID, clientID, testID, due)
	if err != nil {
		switch {
		case errors.Is(err, assignment.ErrClientNotOnRoster):
			response.Err(w, http.StatusUnprocessableEntity, "CLIENT_NOT_ON_ROSTER", "Client is not on your roster", requestID)
		case errors.Is(err, assignment.ErrTestUnavailable):
			response.Err(w, http.StatusUnprocessableEntity, "TEST_UNAVAILABLE", "Test is not available for assignment", requestID)
		default:
			slog.Error("failed to assign test", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to assign test", requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, toAssignmentResponse(a), requestID)
}

// UpdateAssignmentStatus handles PATCH /therapist/assignments/{id}.
func (h *TherapistHandler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := identityOrFail(w, r)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if fieldErrors := validation.ValidateStatus(req.Status); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	a, err := h.assignments.SetStatus(r.Context(), identity.UserID, id, assignment.Status(req.Status))
	if err != nil {
		if errors.Is(err, assignment.ErrAssignmentNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Assignment not found", requestID)
			return
		}
		slog.Error("failed to update assignment", "error", err, "id", id, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update assignment", requestID)
		return
	}

	response.Success(w, http.StatusOK, toAssignmentResponse(a), requestID)
}
