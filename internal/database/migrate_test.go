package database_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychotest/psychotest/internal/database"
	"github.com/psychotest/psychotest/internal/database/dbtest"
)

func TestMigrations_SortedAndNonEmpty(t *testing.T) {
	migrations, err := database.Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
	for _, m := range migrations {
		assert.NotEmpty(t, strings.TrimSpace(m.SQL), m.Version)
	}
}

func TestMigrations_TherapistColumnIsCanonical(t *testing.T) {
	migrations, err := database.Migrations()
	require.NoError(t, err)

	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.SQL)
	}
	schema := all.String()

	assert.Contains(t, schema, "therapist_id UUID NOT NULL")
	assert.Contains(t, schema, "RENAME COLUMN psychologist_id TO therapist_id")
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, dbtest.URL(), database.Options{})
	if err != nil {
		t.Skipf("skipping migration test: %v", err)
	}
	defer db.Close()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx))

	var n int
	require.NoError(t, db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	migrations, err := database.Migrations()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), n)
}
