package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	apiMiddleware "github.com/phrazzld/account-api/internal/api/middleware"
	"github.com/phrazzld/account-api/internal/config"
	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/metrics"
	"github.com/phrazzld/account-api/internal/service"
	"github.com/phrazzld/account-api/internal/service/auth"
	"github.com/phrazzld/account-api/internal/store"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry *prometheus.Registry
	metrics  *metrics.Collector

	jwtService     auth.JWTService
	accounts       store.AccountStore
	accountService service.AccountService

	rateLimiter *apiMiddleware.RateLimiter
}

// newApplication wires the credential store, token issuer and account
// service around an open database.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("token issuer initialized",
		"issuer", cfg.Auth.Issuer,
		"audience", cfg.Auth.Audience,
		"token_lifetime_minutes", cfg.Auth.AccessTokenExpiryMinutes)

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	checker, err := auth.NewCredentialChecker(hasher, domain.LockoutPolicy{
		MaxFailedAttempts: cfg.Auth.Lockout.MaxFailedAttempts,
		Duration:          time.Duration(cfg.Auth.Lockout.DurationMinutes) * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential checker: %w", err)
	}

	app.accounts, err = newAccountStore(cfg.Database.Driver, db, hasher, checker, logger)
	if err != nil {
		return nil, err
	}

	app.accountService = service.NewAccountService(app.accounts, app.jwtService, logger)

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.NewCollector(app.registry)

	app.rateLimiter = apiMiddleware.NewRateLimiter(apiMiddleware.RateLimiterConfig{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	}, app.metrics)

	logger.Info("application initialized")
	return app, nil
}

// Run serves HTTP until ctx is canceled or the process is signaled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases everything newApplication acquired, plus the database.
func (app *application) cleanup() {
	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
