package auth_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/database/dbtest"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	db, err := dbtest.Open(context.Background(), "auth")
	switch {
	case errors.Is(err, dbtest.ErrUnavailable):
		log.Printf("Skipping auth repository tests: %v", err)
	case err != nil:
		log.Fatalf("Failed to prepare test schema: %v", err)
	default:
		testPool = db.Pool()
	}

	code := m.Run()
	if db != nil {
		db.Close()
	}
	os.Exit(code)
}

func newPostgresRepo(t *testing.T) auth.UserRepository {
	t.Helper()
	if testPool == nil {
		t.Skip("test database unavailable")
	}
	dbtest.Reset(t, testPool)
	return auth.NewRepository(testPool)
}

func TestPostgresRepository_CreateClient(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()

	u := &auth.User{Email: "Ann@Example.com", PasswordHash: "hash"}
	p := &auth.Profile{Name: "Ann", Role: auth.RoleClient}
	require.NoError(t, repo.Create(ctx, u, p))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, u.ID, p.UserID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "ANN@example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)

	role, err := repo.GetRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleClient, role)

	var name string
	require.NoError(t, testPool.QueryRow(ctx, `SELECT name FROM clients WHERE user_id = $1`, u.ID).Scan(&name))
	assert.Equal(t, "Ann", name)
}

func TestPostgresRepository_TherapistHasNoClientRow(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()

	u := &auth.User{Email: "dr@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u, &auth.Profile{Name: "Dr", Role: auth.RoleTherapist}))

	var n int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n))
	assert.Zero(t, n)
}

func TestPostgresRepository_DuplicateEmail(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx,
		&auth.User{Email: "dup@example.com", PasswordHash: "h"},
		&auth.Profile{Name: "First", Role: auth.RoleClient}))

	err := repo.Create(ctx,
		&auth.User{Email: "DUP@example.com", PasswordHash: "h"},
		&auth.Profile{Name: "Second", Role: auth.RoleTherapist})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	n, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPostgresRepository_NotFound(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = repo.GetRole(ctx, uuid.New())
	assert.ErrorIs(t, err, auth.ErrProfileNotFound)

	n, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
