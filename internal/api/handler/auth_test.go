package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychotest/psychotest/internal/api/handler"
	"github.com/psychotest/psychotest/internal/api/middleware"
	"github.com/psychotest/psychotest/internal/auth"
)

func post(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegister_Created(t *testing.T) {
	svc, _ := newAuthService(t)
	h := handler.NewAuthHandler(svc, true)

	w := httptest.NewRecorder()
	h.Register(w, post("/auth/register", `{"email":"Ann@Example.com","password":"correct-horse","name":" Ann ","role":"client"}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "ann@example.com", data["email"])
	assert.Equal(t, "Ann", data["name"])
	assert.Equal(t, "client", data["role"])
	assert.NotEmpty(t, data["id"])
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"bad json", `{`, http.StatusBadRequest, "INVALID_JSON"},
		{"admin role", `{"email":"a@x.com","password":"correct-horse","name":"A","role":"admin"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"short password", `{"email":"a@x.com","password":"short","name":"A","role":"client"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newAuthService(t)
			w := httptest.NewRecorder()
			handler.NewAuthHandler(svc, true).Register(w, post("/auth/register", tt.body))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, errorCode(t, w))
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	h := handler.NewAuthHandler(svc, true)
	body := `{"email":"t@x.com","password":"correct-horse","name":"T","role":"therapist"}`

	h.Register(httptest.NewRecorder(), post("/auth/register", body))
	w := httptest.NewRecorder()
	h.Register(w, post("/auth/register", body))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, w))
}

func TestRegister_RepositoryFailure(t *testing.T) {
	svc, repo := newAuthService(t)
	repo.createFn = func(context.Context, *auth.User, *auth.Profile) error {
		return errors.New("connection refused")
	}

	w := httptest.NewRecorder()
	handler.NewAuthHandler(svc, true).Register(w, post("/auth/register", `{"email":"a@x.com","password":"correct-horse","name":"A","role":"client"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	svc, _ := newAuthService(t)
	h := handler.NewAuthHandler(svc, true)
	h.Register(httptest.NewRecorder(), post("/auth/register", `{"email":"t@x.com","password":"correct-horse","name":"T","role":"therapist"}`))

	w := httptest.NewRecorder()
	h.Login(w, post("/auth/login", `{"email":"t@x.com","password":"correct-horse"}`))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	token := data["token"].(string)
	assert.NotEmpty(t, token)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	w := httptest.NewRecorder()

	handler.NewAuthHandler(svc, true).Login(w, post("/auth/login", `{"email":"nobody@x.com","password":"whatever"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
	assert.Empty(t, w.Result().Cookies())
}

func TestLogout_ClearsCookie(t *testing.T) {
	svc, _ := newAuthService(t)
	w := httptest.NewRecorder()

	handler.NewAuthHandler(svc, false).Logout(w, post("/auth/logout", ""))

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestSession(t *testing.T) {
	svc, _ := newAuthService(t)
	h := handler.NewAuthHandler(svc, true)
	h.Register(httptest.NewRecorder(), post("/auth/register", `{"email":"c@x.com","password":"correct-horse","name":"C","role":"client"}`))
	login := httptest.NewRecorder()
	h.Login(login, post("/auth/login", `{"email":"c@x.com","password":"correct-horse"}`))
	token := decodeEnvelope(t, login)["data"].(map[string]any)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.Session(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "c@x.com", data["email"])
	assert.Equal(t, "client", data["role"])

	w = httptest.NewRecorder()
	h.Session(w, httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
