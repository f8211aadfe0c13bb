package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthorized is returned when the caller has no valid session.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when the caller's stored role does not match, or
// cannot be read.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials is returned when an email/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidRole is returned when sign-up requests a role that cannot self-register.
var ErrInvalidRole = errors.New("role must be client or therapist")

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("password must be 72 bytes or fewer")

// SignUpProfile carries the profile data collected at registration.
type SignUpProfile struct {
	Name string
	Role Role
}

// Service provides registration, sign-in and the role check every protected
// screen runs before it reads anything.
type Service struct {
	users      UserRepository
	tokens     *TokenService
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(users UserRepository, tokens *TokenService, bcryptCost int) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// SignUp registers a client or therapist account.
func (s *Service) SignUp(ctx context.Context, email, password string, profile SignUpProfile) (*User, error) {
	if profile.Role != RoleClient && profile.Role != RoleTherapist {
		return nil, ErrInvalidRole
	}
	return s.create(ctx, email, password, profile)
}

func (s *Service) create(ctx context.Context, email, password string, profile SignUpProfile) (*User, error) {
	if len(password) > 72 {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
	}
	p := &Profile{
		Name: strings.TrimSpace(profile.Name),
		Role: profile.Role,
	}

	if err := s.users.Create(ctx, u, p); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("user registered", "userId", u.ID, "role", p.Role)
	return u, nil
}

// SignIn checks the password and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("finding user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return "", nil, err
	}

	return token, &Session{UserID: u.ID, Email: u.Email, ExpiresAt: expires}, nil
}

// Session resolves a session token without consulting the stored role.
func (s *Service) Session(token string) (*Session, error) {
	return s.tokens.Verify(token)
}

// Authorize checks that token carries a live session and that the caller's
// stored role equals required. A role that cannot be read is treated as a
// mismatch.
func (s *Service) Authorize(ctx context.Context, token string, required Role) (*Identity, error) {
	session, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	role, err := s.users.GetRole(ctx, session.UserID)
	if err != nil {
		slog.Warn("role lookup failed", "userId", session.UserID, "error", err)
		return nil, ErrForbidden
	}
	if role != required {
		return nil, ErrForbidden
	}

	return &Identity{
		UserID: session.UserID,
		Email:  session.Email,
		Role:   role,
	}, nil
}

// Identify resolves token to the caller's identity with whatever role is
// stored for them. It backs session introspection, not access control.
func (s *Service) Identify(ctx context.Context, token string) (*Identity, error) {
	session, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	role, err := s.users.GetRole(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("reading role: %w", err)
	}

	return &Identity{UserID: session.UserID, Email: session.Email, Role: role}, nil
}

// BootstrapAdmin creates the initial admin if the users table is empty.
// Admins cannot self-register, so this is the only way the first one exists.
// Returns false if users already exist or no credentials were configured.
func (s *Service) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	count, err := s.users.CountAll(ctx)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.create(ctx, email, password, SignUpProfile{Name: "admin", Role: RoleAdmin}); err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}

	slog.Info("initial admin created", "email", email)
	return true, nil
}
