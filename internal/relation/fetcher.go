package relation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/psychotest/psychotest/internal/auth"
)

// RawRow is one backend record: scalar columns plus, per edge, an object, a
// list of objects or nil.
type RawRow = map[string]any

// FetchError reports a failed backend read.
type FetchError struct {
	Table string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Table, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher issues scoped reads described by a Spec.
type Fetcher interface {
	Fetch(ctx context.Context, spec Spec, scope auth.Identity) ([]RawRow, error)
	Count(ctx context.Context, spec Spec, scope auth.Identity) (int, error)
}

// Querier is the subset of *pgxpool.Pool used by PostgresFetcher.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresFetcher implements Fetcher on a pgx pool. It never writes.
type PostgresFetcher struct {
	db Querier
}

// NewFetcher creates a Fetcher backed by the given pool.
func NewFetcher(db Querier) *PostgresFetcher {
	return &PostgresFetcher{db: db}
}

// Fetch returns the rows matching spec for the caller, in backend order.
// No matching rows yields an empty, non-nil slice.
func (f *PostgresFetcher) Fetch(ctx context.Context, spec Spec, scope auth.Identity) ([]RawRow, error) {
	query, args := buildSelect(spec, scope.UserID)

	rows, err := f.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &FetchError{Table: spec.Table, Err: err}
	}
	defer rows.Close()

	result := []RawRow{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, &FetchError{Table: spec.Table, Err: fmt.Errorf("scanning row: %w", err)}
		}
		row, err := decodeRow(raw)
		if err != nil {
			return nil, &FetchError{Table: spec.Table, Err: err}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &FetchError{Table: spec.Table, Err: fmt.Errorf("iterating rows: %w", err)}
	}

	return result, nil
}

// Count returns how many root rows match spec for the caller.
func (f *PostgresFetcher) Count(ctx context.Context, spec Spec, scope auth.Identity) (int, error) {
	query, args := buildCount(spec, scope.UserID)

	var count int
	if err := f.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, &FetchError{Table: spec.Table, Err: err}
	}
	return count, nil
}

func decodeRow(raw []byte) (RawRow, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var row RawRow
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("decoding row: %w", err)
	}
	if row == nil {
		row = RawRow{}
	}
	return row, nil
}
