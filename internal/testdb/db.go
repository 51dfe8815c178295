package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/account-api/internal/platform/migrations"
	"github.com/phrazzld/account-api/internal/platform/sqlite"
)

// Timeout bounds connection checks and migrations.
const Timeout = 10 * time.Second

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenSQLite creates a migrated SQLite database in a temporary directory.
// The connection is closed when the test finishes.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "accounts.db"), DiscardLogger())
	require.NoError(t, err, "failed to open sqlite test database")
	t.Cleanup(func() { closeDB(t, db) })

	return db
}

// OpenPostgres connects to the configured PostgreSQL test database and
// applies the migrations. Without a URL the test is skipped, or failed when
// running in CI.
func OpenPostgres(t *testing.T) *sql.DB {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		if IsCI() {
			t.Fatalf("%s must be set in CI", EnvTestDatabaseURL)
		}
		t.Skipf("%s not set - skipping PostgreSQL test", EnvTestDatabaseURL)
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err, "failed to open postgres connection")
	t.Cleanup(func() { closeDB(t, db) })

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	require.NoError(t, db.PingContext(ctx), "postgres ping failed")
	require.NoError(t, migrations.Up(ctx, db, migrations.Postgres, DiscardLogger()),
		"failed to migrate postgres test database")

	return db
}

func closeDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if err := db.Close(); err != nil {
		t.Logf("failed to close test database: %v", err)
	}
}
