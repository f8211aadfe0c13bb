package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTestNotFound is returned when a test record is not found.
var ErrTestNotFound = errors.New("test not found")

// ErrTestHasAssignments is returned when attempting to delete a test that has
// been assigned at least once.
var ErrTestHasAssignments = errors.New("test has assignments")

// Repository provides CRUD operations on the tests table.
type Repository interface {
	Create(ctx context.Context, t *Test) error
	GetByID(ctx context.Context, id uuid.UUID) (*Test, error)
	List(ctx context.Context, activeOnly bool) ([]Test, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Test, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
