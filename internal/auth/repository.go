package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrProfileNotFound is returned when a user has no profile row.
var ErrProfileNotFound = errors.New("profile not found")

// ErrEmailTaken is returned when a user with the same email already exists.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository provides operations on the users and profiles tables.
type UserRepository interface {
	// Create inserts the user and its profile, plus a clients row for
	// client accounts, in one transaction.
	Create(ctx context.Context, user *User, profile *Profile) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetRole(ctx context.Context, userID uuid.UUID) (Role, error)
	CountAll(ctx context.Context) (int, error)
}
