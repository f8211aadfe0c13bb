package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/psychotest/psychotest/internal/api/middleware"
	"github.com/psychotest/psychotest/internal/assignment"
	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/catalog"
	"github.com/psychotest/psychotest/internal/relation"
)

// --- Mock auth.UserRepository ---

type mockUserRepo struct {
	mu       sync.Mutex
	users    map[string]*auth.User
	roles    map[uuid.UUID]auth.Role
	createFn func(ctx context.Context, u *auth.User, p *auth.Profile) error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*auth.User{}, roles: map[uuid.UUID]auth.Role{}}
}

func (m *mockUserRepo) Create(ctx context.Context, u *auth.User, p *auth.Profile) error {
	if m.createFn != nil {
		return m.createFn(ctx, u, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return auth.ErrEmailTaken
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	p.UserID = u.ID
	m.users[u.Email] = u
	m.roles[u.ID] = p.Role
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) GetRole(_ context.Context, id uuid.UUID) (auth.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.roles[id]; ok {
		return r, nil
	}
	return "", auth.ErrProfileNotFound
}

func (m *mockUserRepo) CountAll(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func newAuthService(t *testing.T) (*auth.Service, *mockUserRepo) {
	t.Helper()
	tokens, err := auth.NewTokenService("handler-test-secret-0123", time.Hour)
	require.NoError(t, err)
	repo := newMockUserRepo()
	return auth.NewService(repo, tokens, bcrypt.MinCost), repo
}

// --- Mock relation.Fetcher ---

type mockFetcher struct {
	fetchFn func(ctx context.Context, spec relation.Spec, scope auth.Identity) ([]relation.RawRow, error)
	countFn func(ctx context.Context, spec relation.Spec, scope auth.Identity) (int, error)
	mu      sync.Mutex
	specs   []relation.Spec
}

func (m *mockFetcher) Fetch(ctx context.Context, spec relation.Spec, scope auth.Identity) ([]relation.RawRow, error) {
	m.mu.Lock()
	m.specs = append(m.specs, spec)
	m.mu.Unlock()
	return m.fetchFn(ctx, spec, scope)
}

func (m *mockFetcher) Count(ctx context.Context, spec relation.Spec, scope auth.Identity) (int, error) {
	return m.countFn(ctx, spec, scope)
}

// --- Mock assignment.Repository ---

type mockAssignmentRepo struct {
	findClientFn    func(ctx context.Context, email string) (uuid.UUID, error)
	addToRosterFn   func(ctx context.Context, e *assignment.RosterEntry) error
	onRosterFn      func(ctx context.Context, therapistID, clientID uuid.UUID) (bool, error)
	createFn        func(ctx context.Context, a *assignment.Assignment) error
	updateStatusFn  func(ctx context.Context, id, therapistID uuid.UUID, s assignment.Status) (*assignment.Assignment, error)
	expireOverdueFn func(ctx context.Context, day time.Time, limit int) ([]assignment.Assignment, error)
}

func (m *mockAssignmentRepo) FindClientByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	return m.findClientFn(ctx, email)
}

func (m *mockAssignmentRepo) AddToRoster(ctx context.Context, e *assignment.RosterEntry) error {
	return m.addToRosterFn(ctx, e)
}

func (m *mockAssignmentRepo) OnRoster(ctx context.Context, therapistID, clientID uuid.UUID) (bool, error) {
	return m.onRosterFn(ctx, therapistID, clientID)
}

func (m *mockAssignmentRepo) Create(ctx context.Context, a *assignment.Assignment) error {
	return m.createFn(ctx, a)
}

func (m *mockAssignmentRepo) UpdateStatus(ctx context.Context, id, therapistID uuid.UUID, s assignment.Status) (*assignment.Assignment, error) {
	return m.updateStatusFn(ctx, id, therapistID, s)
}

func (m *mockAssignmentRepo) ExpireOverdue(ctx context.Context, day time.Time, limit int) ([]assignment.Assignment, error) {
	return m.expireOverdueFn(ctx, day, limit)
}

// --- Mock catalog.Repository ---

type mockTestRepo struct {
	createFn  func(ctx context.Context, t *catalog.Test) error
	getByIDFn func(ctx context.Context, id uuid.UUID) (*catalog.Test, error)
	listFn    func(ctx context.Context, activeOnly bool) ([]catalog.Test, error)
	updateFn  func(ctx context.Context, id uuid.UUID, f catalog.UpdateFields) (*catalog.Test, error)
	deleteFn  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTestRepo) Create(ctx context.Context, t *catalog.Test) error {
	return m.createFn(ctx, t)
}

func (m *mockTestRepo) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Test, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockTestRepo) List(ctx context.Context, activeOnly bool) ([]catalog.Test, error) {
	return m.listFn(ctx, activeOnly)
}

func (m *mockTestRepo) Update(ctx context.Context, id uuid.UUID, f catalog.UpdateFields) (*catalog.Test, error) {
	return m.updateFn(ctx, id, f)
}

func (m *mockTestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

// --- helpers ---

func asUser(req *http.Request, role auth.Role) *http.Request {
	identity := &auth.Identity{UserID: uuid.New(), Email: string(role) + "@x.com", Role: role}
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	apiErr, ok := decodeEnvelope(t, w)["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	return apiErr["code"].(string)
}
