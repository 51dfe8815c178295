package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/account-api/internal/platform/migrations"
)

// runMigrations executes a goose command against db using the migration set
// that matches driver.
func runMigrations(ctx context.Context, db *sql.DB, driver, command string, logger *slog.Logger) error {
	dialect, err := migrations.DialectForDriver(driver)
	if err != nil {
		return err
	}

	logger.Info("executing migrations", "command", command, "dialect", string(dialect))
	if err := migrations.Run(ctx, db, dialect, command, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
