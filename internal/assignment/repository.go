package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrClientNotFound is returned when no client account matches.
var ErrClientNotFound = errors.New("client not found")

// ErrAlreadyOnRoster is returned when the client is already on the therapist's roster.
var ErrAlreadyOnRoster = errors.New("client already on roster")

// ErrClientNotOnRoster is returned when a therapist assigns a test to a client
// outside their roster.
var ErrClientNotOnRoster = errors.New("client is not on your roster")

// ErrTestUnavailable is returned when the test does not exist or is inactive.
var ErrTestUnavailable = errors.New("test is not available for assignment")

// ErrAssignmentNotFound is returned when an assignment record is not found
// for the calling therapist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// Repository provides access to the client_records and test_assignments tables.
type Repository interface {
	FindClientByEmail(ctx context.Context, email string) (uuid.UUID, error)
	AddToRoster(ctx context.Context, e *RosterEntry) error
	OnRoster(ctx context.Context, therapistID, clientID uuid.UUID) (bool, error)
	Create(ctx context.Context, a *Assignment) error
	UpdateStatus(ctx context.Context, id, therapistID uuid.UUID, status Status) (*Assignment, error)
	// ExpireOverdue moves up to limit open assignments due before day to
	// expired and returns them.
	ExpireOverdue(ctx context.Context, day time.Time, limit int) ([]Assignment, error)
}
