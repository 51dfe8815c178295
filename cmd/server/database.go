package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/account-api/internal/config"
	"github.com/phrazzld/account-api/internal/platform/postgres"
	"github.com/phrazzld/account-api/internal/platform/sqlite"
	"github.com/phrazzld/account-api/internal/service/auth"
	"github.com/phrazzld/account-api/internal/store"
)

// setupAppDatabase opens the configured database and verifies the connection.
// Migrations are applied separately.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Database.Driver {
	case "pgx":
		db, err = sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case "sqlite":
		db, err = sql.Open(sqlite.DriverName, sqlite.DSN(cfg.Database.URL))
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		// One writer at a time; concurrent writers only buy SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established", "driver", cfg.Database.Driver)
	return db, nil
}

// newAccountStore builds the credential store for driver.
func newAccountStore(
	driver string,
	db *sql.DB,
	hasher *auth.BcryptHasher,
	credentials *auth.CredentialChecker,
	logger *slog.Logger,
) (store.AccountStore, error) {
	switch driver {
	case "pgx":
		return postgres.NewPostgresAccountStore(db, hasher, credentials, logger), nil
	case "sqlite":
		return sqlite.NewSQLiteAccountStore(db, hasher, credentials, logger), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
