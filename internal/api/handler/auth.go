package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/psychotest/psychotest/internal/api/middleware"
	"github.com/psychotest/psychotest/internal/api/response"
	"github.com/psychotest/psychotest/internal/api/validation"
	"github.com/psychotest/psychotest/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type loginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expiresAt"`
}

type sessionResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// AuthHandler handles registration, sign-in and session endpoints.
type AuthHandler struct {
	svc          *auth.Service
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the session
// cookie Secure.
func NewAuthHandler(svc *auth.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookie: secureCookie}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateRegisterRequest(validation.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	profile := auth.SignUpProfile{Name: strings.TrimSpace(req.Name), Role: auth.Role(req.Role)}
	u, err := h.svc.SignUp(r.Context(), req.Email, req.Password, profile)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			response.Err(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists", requestID)
		case errors.Is(err, auth.ErrInvalidRole), errors.Is(err, auth.ErrPasswordTooLong):
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
		default:
			slog.Error("failed to register user", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register", requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, accountResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      profile.Name,
		Role:      string(profile.Role),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}, requestID)
}

// Login handles POST /auth/login. The token is returned in the body and set
// as the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{Email: req.Email, Password: req.Password})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	token, session, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", requestID)
			return
		}
		slog.Error("failed to sign in", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in", requestID)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	response.Success(w, http.StatusOK, loginResponse{
		Token:     token,
		UserID:    session.UserID.String(),
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	}, requestID)
}

// Logout handles POST /auth/logout by clearing the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.NoContent(w)
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	identity, err := h.svc.Identify(r.Context(), middleware.SessionToken(r))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "No active session", requestID)
			return
		}
		slog.Error("failed to resolve session", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve session", requestID)
		return
	}

	response.Success(w, http.StatusOK, sessionResponse{
		UserID: identity.UserID.String(),
		Email:  identity.Email,
		Role:   string(identity.Role),
	}, requestID)
}
