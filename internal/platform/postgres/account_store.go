package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/service/auth"
	"github.com/phrazzld/account-api/internal/store"
)

const accountColumns = `id, full_name, username, email, phone_number, email_confirmed,
	password_hash, security_stamp, lockout_enabled, lockout_end, access_failed_count,
	created_at, updated_at`

// PostgresAccountStore implements store.AccountStore on PostgreSQL.
type PostgresAccountStore struct {
	db          store.DBTX
	conn        *sql.DB // nil when bound to a transaction
	hasher      auth.PasswordHasher
	credentials *auth.CredentialChecker
	logger      *slog.Logger
}

var _ store.AccountStore = (*PostgresAccountStore)(nil)

// NewPostgresAccountStore creates a PostgreSQL account store. Passwords are
// hashed with hasher and sign-ins are decided by credentials.
func NewPostgresAccountStore(
	db *sql.DB,
	hasher auth.PasswordHasher,
	credentials *auth.CredentialChecker,
	logger *slog.Logger,
) *PostgresAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAccountStore{
		db:          db,
		conn:        db,
		hasher:      hasher,
		credentials: credentials,
		logger:      logger.With(slog.String("component", "account_store")),
	}
}

// WithTx returns a store that runs every statement on tx.
func (s *PostgresAccountStore) WithTx(tx *sql.Tx) *PostgresAccountStore {
	return &PostgresAccountStore{
		db:          tx,
		hasher:      s.hasher,
		credentials: s.credentials,
		logger:      s.logger,
	}
}

// InTransaction implements store.AccountStore. A store already bound to a
// transaction runs fn on that transaction.
func (s *PostgresAccountStore) InTransaction(
	ctx context.Context,
	fn func(ctx context.Context, accounts store.AccountStore) error,
) error {
	if s.conn == nil {
		return fn(ctx, s)
	}
	return store.RunInTransaction(ctx, s.conn, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.WithTx(tx))
	})
}

// GetByID implements store.AccountStore.
func (s *PostgresAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.getOne(ctx, "id", `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByEmail implements store.AccountStore.
func (s *PostgresAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.getOne(ctx, "email",
		`SELECT `+accountColumns+` FROM accounts WHERE normalized_email = $1`,
		domain.NormalizeEmail(email))
}

// GetByUsername implements store.AccountStore.
func (s *PostgresAccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.getOne(ctx, "username",
		`SELECT `+accountColumns+` FROM accounts WHERE normalized_username = $1`,
		domain.NormalizeUsername(username))
}

func (s *PostgresAccountStore) getOne(ctx context.Context, by, query string, arg any) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("account not found", slog.String("lookup", by))
			return nil, store.ErrAccountNotFound
		}
		log.Error("failed to query account",
			slog.String("lookup", by),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("account", "get", "query failed", MapError(err))
	}
	return account, nil
}

// CreateWithPassword implements store.AccountStore.
func (s *PostgresAccountStore) CreateWithPassword(
	ctx context.Context,
	account *domain.Account,
	password string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := account.Validate(); err != nil {
		log.Warn("account validation failed during create",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if len(password) < store.MinPasswordLength || len(password) > store.MaxPasswordLength {
		return store.ErrPasswordPolicy
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrPasswordPolicy, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, full_name, username, normalized_username, email, normalized_email,
			phone_number, email_confirmed, password_hash, security_stamp, lockout_enabled,
			lockout_end, access_failed_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		account.ID,
		account.FullName,
		account.Username,
		account.NormalizedUsername(),
		account.Email,
		account.NormalizedEmail(),
		account.PhoneNumber,
		account.EmailConfirmed,
		hash,
		account.SecurityStamp,
		account.LockoutEnabled,
		account.LockoutEnd,
		account.AccessFailedCount,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsDuplicateError(mapped) {
			log.Debug("duplicate account rejected by unique constraint",
				slog.String("account_id", account.ID.String()))
			return mapped
		}
		log.Error("failed to create account",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return store.NewStoreError("account", "create", "insert failed", mapped)
	}

	account.PasswordHash = hash
	log.Info("account created", slog.String("account_id", account.ID.String()))
	return nil
}

// SetLockoutEnabled implements store.AccountStore.
func (s *PostgresAccountStore) SetLockoutEnabled(ctx context.Context, account *domain.Account, enabled bool) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET lockout_enabled = $2, updated_at = $3 WHERE id = $1`,
		account.ID, enabled, now)
	if err != nil {
		return store.NewStoreError("account", "set lockout", "update failed", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrAccountNotFound); err != nil {
		return err
	}

	account.LockoutEnabled = enabled
	account.UpdatedAt = now
	return nil
}

// CheckCredentials implements store.AccountStore.
func (s *PostgresAccountStore) CheckCredentials(
	ctx context.Context,
	account *domain.Account,
	password string,
) (domain.SignInResult, error) {
	attempt := s.credentials.Verify(account, password)

	switch {
	case account.IsPlaceholder():
		return attempt.Result, nil
	case attempt.CountFailure:
		return s.countFailure(ctx, account, attempt)
	case attempt.ResetFailures:
		if _, err := s.db.ExecContext(ctx,
			`UPDATE accounts SET access_failed_count = 0 WHERE id = $1`, account.ID); err != nil {
			return domain.SignInResult{}, s.bookkeepingError(ctx, account, err)
		}
		account.AccessFailedCount = 0
	}
	return attempt.Result, nil
}

// countFailure increments the stored counter in a single statement, so
// concurrent failures are each counted. Reaching the threshold locks the
// account and starts the counter over.
func (s *PostgresAccountStore) countFailure(
	ctx context.Context,
	account *domain.Account,
	attempt auth.Attempt,
) (domain.SignInResult, error) {
	policy := s.credentials.Policy()

	var (
		count      int
		lockoutEnd sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		UPDATE accounts SET
			lockout_end = CASE WHEN access_failed_count + 1 >= $2 THEN $3 ELSE lockout_end END,
			access_failed_count = CASE WHEN access_failed_count + 1 >= $2 THEN 0 ELSE access_failed_count + 1 END
		WHERE id = $1 AND lockout_enabled AND (lockout_end IS NULL OR lockout_end <= $4)
		RETURNING access_failed_count, lockout_end`,
		account.ID, policy.MaxFailedAttempts, policy.LockoutEnd(attempt.At), attempt.At,
	).Scan(&count, &lockoutEnd)

	if errors.Is(err, sql.ErrNoRows) {
		// Locked, or lockout disabled, since the account was loaded.
		current, getErr := s.GetByID(ctx, account.ID)
		if getErr != nil {
			return domain.SignInResult{}, getErr
		}
		*account = *current
		return domain.SignInResult{LockedOut: account.IsLockedOut(attempt.At)}, nil
	}
	if err != nil {
		return domain.SignInResult{}, s.bookkeepingError(ctx, account, err)
	}

	account.AccessFailedCount = count
	account.LockoutEnd = nil
	if lockoutEnd.Valid {
		end := lockoutEnd.Time.UTC()
		account.LockoutEnd = &end
	}
	return domain.SignInResult{LockedOut: account.IsLockedOut(attempt.At)}, nil
}

func (s *PostgresAccountStore) bookkeepingError(ctx context.Context, account *domain.Account, err error) error {
	logger.FromContextOrDefault(ctx, s.logger).Error("failed to record sign-in outcome",
		slog.String("error", err.Error()),
		slog.String("account_id", account.ID.String()))
	return store.NewStoreError("account", "check credentials", "lockout update failed", MapError(err))
}

// Update implements store.AccountStore.
func (s *PostgresAccountStore) Update(ctx context.Context, account *domain.Account) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET full_name = $2, username = $3, normalized_username = $4, email = $5,
			normalized_email = $6, phone_number = $7, email_confirmed = $8, lockout_enabled = $9,
			lockout_end = $10, access_failed_count = $11, updated_at = $12
		WHERE id = $1`,
		account.ID,
		account.FullName,
		account.Username,
		account.NormalizedUsername(),
		account.Email,
		account.NormalizedEmail(),
		account.PhoneNumber,
		account.EmailConfirmed,
		account.LockoutEnabled,
		account.LockoutEnd,
		account.AccessFailedCount,
		account.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsDuplicateError(mapped) {
			return mapped
		}
		log.Error("failed to update account",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return store.NewStoreError("account", "update", "update failed",
			fmt.Errorf("%w: %w", store.ErrUpdateFailed, mapped))
	}

	return CheckRowsAffected(result, store.ErrAccountNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		account    domain.Account
		lockoutEnd sql.NullTime
	)
	err := row.Scan(
		&account.ID,
		&account.FullName,
		&account.Username,
		&account.Email,
		&account.PhoneNumber,
		&account.EmailConfirmed,
		&account.PasswordHash,
		&account.SecurityStamp,
		&account.LockoutEnabled,
		&lockoutEnd,
		&account.AccessFailedCount,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lockoutEnd.Valid {
		end := lockoutEnd.Time.UTC()
		account.LockoutEnd = &end
	}
	return &account, nil
}
