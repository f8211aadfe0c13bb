package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// FindClientByEmail resolves a client account's clients.id from the user's email.
func (r *PostgresRepository) FindClientByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	query := `
		SELECT c.id
		FROM clients c
		JOIN users u ON u.id = c.user_id
		WHERE u.email = $1`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrClientNotFound
		}
		return uuid.Nil, fmt.Errorf("querying client: %w", err)
	}
	return id, nil
}

// AddToRoster inserts a client_records row.
func (r *PostgresRepository) AddToRoster(ctx context.Context, e *RosterEntry) error {
	query := `
		INSERT INTO client_records (therapist_id, client_id, notes)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, e.TherapistID, e.ClientID, e.Notes).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrAlreadyOnRoster
			case "23503":
				return ErrClientNotFound
			}
		}
		return fmt.Errorf("inserting roster entry: %w", err)
	}
	return nil
}

// OnRoster reports whether the client is on the therapist's roster.
func (r *PostgresRepository) OnRoster(ctx context.Context, therapistID, clientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM client_records WHERE therapist_id = $1 AND client_id = $2)`,
		therapistID, clientID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking roster: %w", err)
	}
	return exists, nil
}

// Create inserts a new test_assignments row.
func (r *PostgresRepository) Create(ctx context.Context, a *Assignment) error {
	query := `
		INSERT INTO test_assignments (therapist_id, client_id, test_id, status, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, assigned_at`

	err := r.pool.QueryRow(ctx, query,
		a.TherapistID, a.ClientID, a.TestID, string(a.Status), a.DueDate,
	).Scan(&a.ID, &a.AssignedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrTestUnavailable
		}
		return fmt.Errorf("inserting assignment: %w", err)
	}
	return nil
}

// UpdateStatus changes the status of one of the therapist's assignments.
// completed_at is stamped when the status becomes completed and cleared otherwise.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, therapistID uuid.UUID, status Status) (*Assignment, error) {
	query := `
		UPDATE test_assignments
		SET status = $1,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE NULL END
		WHERE id = $2 AND therapist_id = $3
		RETURNING id, therapist_id, client_id, test_id, status, assigned_at, due_date, completed_at`

	var a Assignment
	var st string
	err := r.pool.QueryRow(ctx, query, string(status), id, therapistID).Scan(
		&a.ID, &a.TherapistID, &a.ClientID, &a.TestID, &st, &a.AssignedAt, &a.DueDate, &a.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("updating assignment: %w", err)
	}
	a.Status = Status(st)
	return &a, nil
}

// ExpireOverdue moves up to limit open assignments due before day to expired
// and returns them. Rows another transaction holds are skipped.
func (r *PostgresRepository) ExpireOverdue(ctx context.Context, day time.Time, limit int) ([]Assignment, error) {
	query := `
		UPDATE test_assignments
		SET status = 'expired', completed_at = NULL
		WHERE id IN (
			SELECT id FROM test_assignments
			WHERE status = 'assigned' AND due_date < $1
			ORDER BY due_date
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		AND status = 'assigned'
		RETURNING id, therapist_id, client_id, test_id, status, assigned_at, due_date, completed_at`

	rows, err := r.pool.Query(ctx, query, day.Format(time.DateOnly), limit)
	if err != nil {
		return nil, fmt.Errorf("expiring assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		var st string
		if err := rows.Scan(&a.ID, &a.TherapistID, &a.ClientID, &a.TestID, &st, &a.AssignedAt, &a.DueDate, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		a.Status = Status(st)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignments: %w", err)
	}
	return out, nil
}
