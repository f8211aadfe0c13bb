package catalog

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

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const allColumns = `id, title, description, duration_minutes, is_active, created_at`

func scanTest(row pgx.Row) (*Test, error) {
	var t Test
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.DurationMinutes, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("scanning test row: %w", err)
	}
	return &t, nil
}

// Create inserts a new test record.
func (r *PostgresRepository) Create(ctx context.Context, t *Test) error {
	query := `
		INSERT INTO tests (title, description, duration_minutes, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		t.Title, t.Description, t.DurationMinutes, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting test: %w", err)
	}
	return nil
}

// GetByID retrieves a single test by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Test, error) {
	query := fmt.Sprintf(`SELECT %s FROM tests WHERE id = $1`, allColumns)
	return scanTest(r.pool.QueryRow(ctx, query, id))
}

// List retrieves tests, newest first.
func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]Test, error) {
	query := fmt.Sprintf(`SELECT %s FROM tests`, allColumns)
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing tests: %w", err)
	}
	defer rows.Close()

	tests := []Test{}
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating test rows: %w", err)
	}

	return tests, nil
}

// Update modifies non-nil fields on a test. Returns the updated test.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Test, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if fields.Title != nil {
		set("title", *fields.Title)
	}
	if fields.Description != nil {
		set("description", *fields.Description)
	}
	if fields.DurationMinutes != nil {
		set("duration_minutes", *fields.DurationMinutes)
	}
	if fields.IsActive != nil {
		set("is_active", *fields.IsActive)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE tests
		SET %s
		WHERE id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, allColumns)

	return scanTest(r.pool.QueryRow(ctx, query, args...))
}

// Delete removes a test by its UUID. Returns ErrTestHasAssignments if any
// assignment still references it.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrTestHasAssignments
		}
		return fmt.Errorf("deleting test: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTestNotFound
	}

	return nil
}
