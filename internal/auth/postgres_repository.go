package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements UserRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new UserRepository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) UserRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a user, its profile and, for clients, the clients row that
// therapists attach to their rosters.
func (r *PostgresRepository) Create(ctx context.Context, u *User, p *Profile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		strings.ToLower(u.Email), u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	p.UserID = u.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO profiles (id, name, role)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		p.UserID, p.Name, string(p.Role),
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}

	if p.Role == RoleClient {
		if _, err := tx.Exec(ctx, `INSERT INTO clients (user_id, name) VALUES ($1, $2)`, u.ID, p.Name); err != nil {
			return fmt.Errorf("inserting client: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1`

	var u User
	err := r.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return &u, nil
}

// GetRole reads the stored role from the user's profile.
func (r *PostgresRepository) GetRole(ctx context.Context, userID uuid.UUID) (Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProfileNotFound
		}
		return "", fmt.Errorf("querying role: %w", err)
	}
	return Role(role), nil
}

// CountAll returns the total number of users.
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}
