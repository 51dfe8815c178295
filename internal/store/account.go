package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/domain"
)

// MinPasswordLength and MaxPasswordLength bound the plaintext password the
// credential store accepts. The upper bound is bcrypt's input limit.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// AccountStore defines the credential store the account service depends on.
// Lookups by email and username use the normalized (lowercase) forms, so
// uniqueness is case-insensitive.
type AccountStore interface {
	// GetByID retrieves an account by its unique ID.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetByEmail retrieves an account by email.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// GetByUsername retrieves an account by username.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)

	// CreateWithPassword hashes password and persists the account.
	// Returns ErrEmailExists or ErrUsernameExists when a unique constraint
	// fires, and ErrInvalidEntity when the account or password is rejected.
	CreateWithPassword(ctx context.Context, account *domain.Account, password string) error

	// SetLockoutEnabled toggles failed-attempt lockout for the account.
	SetLockoutEnabled(ctx context.Context, account *domain.Account, enabled bool) error

	// CheckCredentials verifies password against the account. It performs a
	// full hash comparison even for placeholder accounts and persists lockout
	// bookkeeping for stored accounts.
	CheckCredentials(ctx context.Context, account *domain.Account, password string) (domain.SignInResult, error)

	// Update commits the mutable fields of an existing account.
	// Returns ErrAccountNotFound if the account does not exist.
	Update(ctx context.Context, account *domain.Account) error

	// InTransaction runs fn with a store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	InTransaction(ctx context.Context, fn func(ctx context.Context, accounts AccountStore) error) error
}
