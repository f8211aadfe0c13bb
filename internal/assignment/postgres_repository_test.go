package assignment_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychotest/psychotest/internal/assignment"
	"github.com/psychotest/psychotest/internal/database/dbtest"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	db, err := dbtest.Open(context.Background(), "assignment")
	switch {
	case errors.Is(err, dbtest.ErrUnavailable):
		log.Printf("Skipping assignment repository tests: %v", err)
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

type fixture struct {
	repo       assignment.Repository
	therapist  uuid.UUID
	other      uuid.UUID
	clientUser uuid.UUID
	client     uuid.UUID
	test       uuid.UUID
}

func setupPostgres(t *testing.T) fixture {
	t.Helper()
	if testPool == nil {
		t.Skip("test database unavailable")
	}
	dbtest.Reset(t, testPool)

	f := fixture{repo: assignment.NewRepository(testPool)}
	f.therapist = dbtest.User(t, testPool, "dr@clinic.test", "Dr", "therapist")
	f.other = dbtest.User(t, testPool, "other@clinic.test", "Other", "therapist")
	f.clientUser = dbtest.User(t, testPool, "ann@x.com", "Ann", "client")
	f.client = dbtest.ClientID(t, testPool, f.clientUser)
	f.test = dbtest.Test(t, testPool, "PHQ-9")
	return f
}

func date(s string) *time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &d
}

func status(t *testing.T, id uuid.UUID) string {
	t.Helper()
	var s string
	require.NoError(t, testPool.QueryRow(context.Background(),
		`SELECT status FROM test_assignments WHERE id = $1`, id).Scan(&s))
	return s
}

func TestPostgresRepository_FindClientByEmail(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	id, err := f.repo.FindClientByEmail(ctx, "  ANN@x.com ")
	require.NoError(t, err)
	assert.Equal(t, f.client, id)

	_, err = f.repo.FindClientByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, assignment.ErrClientNotFound)

	// Therapist accounts have no clients row.
	_, err = f.repo.FindClientByEmail(ctx, "dr@clinic.test")
	assert.ErrorIs(t, err, assignment.ErrClientNotFound)
}

func TestPostgresRepository_Roster(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	notes := "intake done"
	e := &assignment.RosterEntry{TherapistID: f.therapist, ClientID: f.client, Notes: &notes}
	require.NoError(t, f.repo.AddToRoster(ctx, e))
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.False(t, e.CreatedAt.IsZero())

	err := f.repo.AddToRoster(ctx, &assignment.RosterEntry{TherapistID: f.therapist, ClientID: f.client})
	assert.ErrorIs(t, err, assignment.ErrAlreadyOnRoster)

	err = f.repo.AddToRoster(ctx, &assignment.RosterEntry{TherapistID: f.therapist, ClientID: uuid.New()})
	assert.ErrorIs(t, err, assignment.ErrClientNotFound)

	on, err := f.repo.OnRoster(ctx, f.therapist, f.client)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = f.repo.OnRoster(ctx, f.other, f.client)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestPostgresRepository_CreateAndUpdateStatus(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	a := &assignment.Assignment{
		TherapistID: f.therapist,
		ClientID:    f.client,
		TestID:      f.test,
		Status:      assignment.StatusAssigned,
		DueDate:     date("2024-05-01"),
	}
	require.NoError(t, f.repo.Create(ctx, a))
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.False(t, a.AssignedAt.IsZero())

	done, err := f.repo.UpdateStatus(ctx, a.ID, f.therapist, assignment.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.DueDate)
	assert.Equal(t, "2024-05-01", done.DueDate.Format(time.DateOnly))

	reopened, err := f.repo.UpdateStatus(ctx, a.ID, f.therapist, assignment.StatusAssigned)
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)

	_, err = f.repo.UpdateStatus(ctx, a.ID, f.other, assignment.StatusExpired)
	assert.ErrorIs(t, err, assignment.ErrAssignmentNotFound)
	assert.Equal(t, "assigned", status(t, a.ID))

	err = f.repo.Create(ctx, &assignment.Assignment{
		TherapistID: f.therapist,
		ClientID:    f.client,
		TestID:      uuid.New(),
		Status:      assignment.StatusAssigned,
	})
	assert.ErrorIs(t, err, assignment.ErrTestUnavailable)
}

func TestPostgresRepository_ExpireOverdue(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()
	at := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	oldest := dbtest.Assignment(t, testPool, f.therapist, f.client, f.test, "assigned", at, date("2024-03-01"))
	older := dbtest.Assignment(t, testPool, f.other, f.client, f.test, "assigned", at, date("2024-03-05"))
	dueToday := dbtest.Assignment(t, testPool, f.therapist, f.client, f.test, "assigned", at, date("2024-03-10"))
	completed := dbtest.Assignment(t, testPool, f.therapist, f.client, f.test, "completed", at, date("2024-03-01"))
	undated := dbtest.Assignment(t, testPool, f.therapist, f.client, f.test, "assigned", at, nil)

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	expired, err := f.repo.ExpireOverdue(ctx, day, 1)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, oldest, expired[0].ID)
	assert.Equal(t, assignment.StatusExpired, expired[0].Status)
	assert.Nil(t, expired[0].CompletedAt)

	expired, err = f.repo.ExpireOverdue(ctx, day, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, older, expired[0].ID)
	assert.Equal(t, f.other, expired[0].TherapistID)

	expired, err = f.repo.ExpireOverdue(ctx, day, 10)
	require.NoError(t, err)
	assert.Empty(t, expired)

	assert.Equal(t, "expired", status(t, oldest))
	assert.Equal(t, "assigned", status(t, dueToday))
	assert.Equal(t, "completed", status(t, completed))
	assert.Equal(t, "assigned", status(t, undated))
}
