package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/account-api/internal/config"
	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/platform/postgres"
	"github.com/phrazzld/account-api/internal/platform/sqlite"
	"github.com/phrazzld/account-api/internal/service/auth"
	"github.com/phrazzld/account-api/internal/store"
)

// indefinitely is the lock end used when no duration is given.
var indefinitely = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// admin performs operator actions against the credential store.
type admin struct {
	accounts store.AccountStore
	logger   *slog.Logger
	now      func() time.Time
}

func newAdmin(accounts store.AccountStore, logger *slog.Logger) *admin {
	return &admin{
		accounts: accounts,
		logger:   logger.With("component", "accountctl"),
		now:      time.Now,
	}
}

// lock enables lockout on the account and locks it for minutes, or
// indefinitely when minutes is zero.
func (a *admin) lock(ctx context.Context, username string, minutes int) (time.Time, error) {
	if minutes < 0 {
		return time.Time{}, fmt.Errorf("minutes must not be negative, got %d", minutes)
	}

	now := a.now().UTC()
	until := indefinitely
	if minutes > 0 {
		until = now.Add(time.Duration(minutes) * time.Minute)
	}

	err := a.update(ctx, username, func(account *domain.Account) {
		account.LockoutEnabled = true
		account.Lock(until)
	})
	if err != nil {
		return time.Time{}, err
	}

	a.logger.Info("account locked", "username", username, "until", until)
	return until, nil
}

// unlock clears the lockout end and the failed attempt counter.
func (a *admin) unlock(ctx context.Context, username string) error {
	if err := a.update(ctx, username, (*domain.Account).Unlock); err != nil {
		return err
	}
	a.logger.Info("account unlocked", "username", username)
	return nil
}

func (a *admin) update(ctx context.Context, username string, mutate func(*domain.Account)) error {
	return a.accounts.InTransaction(ctx, func(ctx context.Context, accounts store.AccountStore) error {
		account, err := accounts.GetByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to find account %q: %w", username, err)
		}

		mutate(account)
		account.UpdatedAt = a.now().UTC()

		if err := accounts.Update(ctx, account); err != nil {
			return fmt.Errorf("failed to update account %q: %w", username, err)
		}
		return nil
	})
}

// withStore loads configuration, opens the configured database and runs fn
// against its credential store.
func withStore(ctx context.Context, fn func(context.Context, *admin) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	checker, err := auth.NewCredentialChecker(hasher, domain.LockoutPolicy{
		MaxFailedAttempts: cfg.Auth.Lockout.MaxFailedAttempts,
		Duration:          time.Duration(cfg.Auth.Lockout.DurationMinutes) * time.Minute,
	})
	if err != nil {
		return err
	}

	var accounts store.AccountStore
	var db *sql.DB
	switch cfg.Database.Driver {
	case "pgx":
		db, err = sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to open database connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		accounts = postgres.NewPostgresAccountStore(db, hasher, checker, log)
	case "sqlite":
		db, err = sqlite.Open(ctx, cfg.Database.URL, log)
		if err != nil {
			return err
		}
		accounts = sqlite.NewSQLiteAccountStore(db, hasher, checker, log)
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	defer func() { _ = db.Close() }()

	return fn(ctx, newAdmin(accounts, log))
}
