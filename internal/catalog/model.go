package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Test represents a row in the tests table: a psychological test therapists
// can assign to clients.
type Test struct {
	ID              uuid.UUID
	Title           string
	Description     string
	DurationMinutes int
	IsActive        bool
	CreatedAt       time.Time
}

// UpdateFields holds optional fields for a partial test update.
// Nil fields are not updated.
type UpdateFields struct {
	Title           *string
	Description     *string
	DurationMinutes *int
	IsActive        *bool
}
