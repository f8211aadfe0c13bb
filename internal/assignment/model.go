package assignment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a test assignment.
type Status string

const (
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAssigned, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

// RosterEntry represents a row in the client_records table: a client on a
// therapist's roster.
type RosterEntry struct {
	ID          uuid.UUID
	TherapistID uuid.UUID
	ClientID    uuid.UUID
	Notes       *string
	CreatedAt   time.Time
}

// Assignment represents a row in the test_assignments table.
type Assignment struct {
	ID          uuid.UUID
	TherapistID uuid.UUID
	ClientID    uuid.UUID
	TestID      uuid.UUID
	Status      Status
	AssignedAt  time.Time
	DueDate     *time.Time
	CompletedAt *time.Time
}
