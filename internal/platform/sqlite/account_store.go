package sqlite

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

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullableMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

// SQLiteAccountStore implements store.AccountStore on SQLite.
type SQLiteAccountStore struct {
	db          store.DBTX
	conn        *sql.DB // nil when bound to a transaction
	hasher      auth.PasswordHasher
	credentials *auth.CredentialChecker
	logger      *slog.Logger
}

var _ store.AccountStore = (*SQLiteAccountStore)(nil)

// NewSQLiteAccountStore creates a SQLite account store on an already migrated database.
func NewSQLiteAccountStore(
	db *sql.DB,
	hasher auth.PasswordHasher,
	credentials *auth.CredentialChecker,
	logger *slog.Logger,
) *SQLiteAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteAccountStore{
		db:          db,
		conn:        db,
		hasher:      hasher,
		credentials: credentials,
		logger:      logger.With(slog.String("component", "account_store")),
	}
}

// WithTx returns a store that runs every statement on tx.
func (s *SQLiteAccountStore) WithTx(tx *sql.Tx) *SQLiteAccountStore {
	return &SQLiteAccountStore{
		db:          tx,
		hasher:      s.hasher,
		credentials: s.credentials,
		logger:      s.logger,
	}
}

// InTransaction implements store.AccountStore.
func (s *SQLiteAccountStore) InTransaction(
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
func (s *SQLiteAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.getOne(ctx, "id", `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id.String())
}

// GetByEmail implements store.AccountStore.
func (s *SQLiteAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.getOne(ctx, "email",
		`SELECT `+accountColumns+` FROM accounts WHERE normalized_email = ?`,
		domain.NormalizeEmail(email))
}

// GetByUsername implements store.AccountStore.
func (s *SQLiteAccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.getOne(ctx, "username",
		`SELECT `+accountColumns+` FROM accounts WHERE normalized_username = ?`,
		domain.NormalizeUsername(username))
}

func (s *SQLiteAccountStore) getOne(ctx context.Context, by, query string, arg any) (*domain.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query account",
			slog.String("lookup", by),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("account", "get", "query failed", MapError(err))
	}
	return account, nil
}

// CreateWithPassword implements store.AccountStore.
func (s *SQLiteAccountStore) CreateWithPassword(ctx context.Context, account *domain.Account, password string) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID.String(),
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
		nullableMillis(account.LockoutEnd),
		account.AccessFailedCount,
		toMillis(account.CreatedAt),
		toMillis(account.UpdatedAt),
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsDuplicateError(mapped) {
			log.Debug("duplicate account rejected by unique index",
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
func (s *SQLiteAccountStore) SetLockoutEnabled(ctx context.Context, account *domain.Account, enabled bool) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET lockout_enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, toMillis(now), account.ID.String())
	if err != nil {
		return store.NewStoreError("account", "set lockout", "update failed", MapError(err))
	}
	if err := checkRowsAffected(result); err != nil {
		return err
	}

	account.LockoutEnabled = enabled
	account.UpdatedAt = now
	return nil
}

// CheckCredentials implements store.AccountStore.
func (s *SQLiteAccountStore) CheckCredentials(
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
			`UPDATE accounts SET access_failed_count = 0 WHERE id = ?`, account.ID.String()); err != nil {
			return domain.SignInResult{}, s.bookkeepingError(ctx, account, err)
		}
		account.AccessFailedCount = 0
	}
	return attempt.Result, nil
}

// countFailure increments the stored counter in a single statement, so
// concurrent failures are each counted. Reaching the threshold locks the
// account and starts the counter over.
func (s *SQLiteAccountStore) countFailure(
	ctx context.Context,
	account *domain.Account,
	attempt auth.Attempt,
) (domain.SignInResult, error) {
	policy := s.credentials.Policy()

	var (
		count      int
		lockoutEnd sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		UPDATE accounts SET
			lockout_end = CASE WHEN access_failed_count + 1 >= ? THEN ? ELSE lockout_end END,
			access_failed_count = CASE WHEN access_failed_count + 1 >= ? THEN 0 ELSE access_failed_count + 1 END
		WHERE id = ? AND lockout_enabled = 1 AND (lockout_end IS NULL OR lockout_end <= ?)
		RETURNING access_failed_count, lockout_end`,
		policy.MaxFailedAttempts,
		toMillis(policy.LockoutEnd(attempt.At)),
		policy.MaxFailedAttempts,
		account.ID.String(),
		toMillis(attempt.At),
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
		end := fromMillis(lockoutEnd.Int64)
		account.LockoutEnd = &end
	}
	return domain.SignInResult{LockedOut: account.IsLockedOut(attempt.At)}, nil
}

func (s *SQLiteAccountStore) bookkeepingError(ctx context.Context, account *domain.Account, err error) error {
	logger.FromContextOrDefault(ctx, s.logger).Error("failed to record sign-in outcome",
		slog.String("error", err.Error()),
		slog.String("account_id", account.ID.String()))
	return store.NewStoreError("account", "check credentials", "lockout update failed", MapError(err))
}

// Update implements store.AccountStore.
func (s *SQLiteAccountStore) Update(ctx context.Context, account *domain.Account) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET full_name = ?, username = ?, normalized_username = ?, email = ?,
			normalized_email = ?, phone_number = ?, email_confirmed = ?, lockout_enabled = ?,
			lockout_end = ?, access_failed_count = ?, updated_at = ?
		WHERE id = ?`,
		account.FullName,
		account.Username,
		account.NormalizedUsername(),
		account.Email,
		account.NormalizedEmail(),
		account.PhoneNumber,
		account.EmailConfirmed,
		account.LockoutEnabled,
		nullableMillis(account.LockoutEnd),
		account.AccessFailedCount,
		toMillis(account.UpdatedAt),
		account.ID.String(),
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsDuplicateError(mapped) {
			return mapped
		}
		return store.NewStoreError("account", "update", "update failed",
			fmt.Errorf("%w: %w", store.ErrUpdateFailed, mapped))
	}
	return checkRowsAffected(result)
}

func checkRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrAccountNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		account    domain.Account
		id         string
		lockoutEnd sql.NullInt64
		createdAt  int64
		updatedAt  int64
	)
	err := row.Scan(
		&id,
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
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", id, err)
	}
	account.ID = parsed
	account.CreatedAt = fromMillis(createdAt)
	account.UpdatedAt = fromMillis(updatedAt)
	if lockoutEnd.Valid {
		end := fromMillis(lockoutEnd.Int64)
		account.LockoutEnd = &end
	}
	return &account, nil
}
