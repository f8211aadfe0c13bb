package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role is the stored role of a user.
type Role string

const (
	RoleClient    Role = "client"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTherapist, RoleAdmin:
		return true
	}
	return false
}

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile represents a row in the profiles table. It holds the user's role.
type Profile struct {
	UserID    uuid.UUID
	Name      string
	Role      Role
	CreatedAt time.Time
}

// Session is what a valid session token proves: who the caller is, not what
// they may do.
type Session struct {
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// Identity is stored in the request context after a successful role check.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}
