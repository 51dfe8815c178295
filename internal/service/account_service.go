package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/service/auth"
	"github.com/phrazzld/account-api/internal/store"
)

// RegisterInput carries an already validated registration request.
type RegisterInput struct {
	FullName    string
	PhoneNumber string
	Email       string
	Username    string
	Password    string
}

// EditInput carries the editable profile fields.
type EditInput struct {
	FullName string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Profile     domain.Profile
	AccessToken *auth.AccessToken
}

// AccountService provides the account use cases.
type AccountService interface {
	// Register creates an account and returns it with a fresh access token.
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)

	// Login verifies credentials and returns a fresh access token.
	Login(ctx context.Context, username, password string) (*AuthResult, error)

	// GetByID returns the public profile of an account.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)

	// Edit changes the full name of targetID on behalf of requesterID.
	Edit(ctx context.Context, input EditInput, requesterID, targetID uuid.UUID) (*domain.Profile, error)
}

// AccountServiceImpl implements AccountService.
type AccountServiceImpl struct {
	accounts store.AccountStore
	tokens   auth.TokenIssuer
	logger   *slog.Logger
}

var _ AccountService = (*AccountServiceImpl)(nil)

// NewAccountService creates a new AccountService.
func NewAccountService(accounts store.AccountStore, tokens auth.TokenIssuer, logger *slog.Logger) *AccountServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountServiceImpl{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger.With("component", "account_service"),
	}
}

func (s *AccountServiceImpl) log(ctx context.Context) *slog.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l.With("component", "account_service")
	}
	return s.logger
}

// Register checks email then username for collisions, creates the account
// with lockout disabled in one transaction, and issues a token.
func (s *AccountServiceImpl) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	log := s.log(ctx)

	if err := s.ensureUnused(ctx, FieldEmail, input.Email, s.accounts.GetByEmail); err != nil {
		return nil, err
	}
	if err := s.ensureUnused(ctx, FieldUsername, input.Username, s.accounts.GetByUsername); err != nil {
		return nil, err
	}

	account, err := domain.NewAccount(input.FullName, input.PhoneNumber, input.Email, input.Username)
	if err != nil {
		log.Error("failed to build account", "error", err)
		return nil, internalError("build account")
	}

	err = s.accounts.InTransaction(ctx, func(ctx context.Context, accounts store.AccountStore) error {
		if err := accounts.CreateWithPassword(ctx, account, input.Password); err != nil {
			return err
		}
		return accounts.SetLockoutEnabled(ctx, account, false)
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			log.Debug("email claimed concurrently during registration")
			return nil, NewConflictError(FieldEmail)
		case errors.Is(err, store.ErrUsernameExists):
			log.Debug("username claimed concurrently during registration")
			return nil, NewConflictError(FieldUsername)
		default:
			log.Error("failed to create account", "error", err)
			return nil, internalError("create account")
		}
	}

	token, err := s.tokens.IssueToken(ctx, account.ID, account.FullName)
	if err != nil {
		log.Error("failed to issue access token", "error", err, "account_id", account.ID)
		return nil, internalError("issue token")
	}

	log.Info("account registered", "account_id", account.ID)

	return &AuthResult{Profile: account.Profile(), AccessToken: token}, nil
}

func (s *AccountServiceImpl) ensureUnused(
	ctx context.Context,
	field, value string,
	lookup func(context.Context, string) (*domain.Account, error),
) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		s.log(ctx).Debug("registration rejected: field already in use", "field", field)
		return NewConflictError(field)
	case errors.Is(err, store.ErrAccountNotFound):
		return nil
	default:
		s.log(ctx).Error("failed to look up account", "error", err, "field", field)
		return internalError("lookup by " + field)
	}
}

// Login always runs a credential check, against a placeholder identity when
// the username is unknown, so response timing does not reveal which
// usernames exist.
func (s *AccountServiceImpl) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	log := s.log(ctx)

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrAccountNotFound) {
			log.Error("failed to look up account for login", "error", err)
			return nil, internalError("lookup by username")
		}
		account = domain.NewPlaceholderAccount()
	}

	result, err := s.accounts.CheckCredentials(ctx, account, password)
	if err != nil {
		log.Error("credential check failed", "error", err)
		return nil, internalError("check credentials")
	}

	if result.LockedOut {
		log.Info("login rejected: account locked", "account_id", account.ID)
		return nil, ErrLocked
	}
	if !result.Succeeded || account.IsPlaceholder() {
		log.Debug("login rejected: invalid credentials")
		return nil, ErrUnauthorized
	}

	token, err := s.tokens.IssueToken(ctx, account.ID, account.FullName)
	if err != nil {
		log.Error("failed to issue access token", "error", err, "account_id", account.ID)
		return nil, internalError("issue token")
	}

	log.Debug("login succeeded", "account_id", account.ID)

	return &AuthResult{Profile: account.Profile(), AccessToken: token}, nil
}

// GetByID returns the public profile of the account.
func (s *AccountServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		s.log(ctx).Error("failed to retrieve account", "error", err, "account_id", id)
		return nil, internalError("get account")
	}

	profile := account.Profile()
	return &profile, nil
}

// Edit renames the target account. Ownership is checked before the account
// is looked up.
func (s *AccountServiceImpl) Edit(
	ctx context.Context,
	input EditInput,
	requesterID, targetID uuid.UUID,
) (*domain.Profile, error) {
	log := s.log(ctx)

	if requesterID != targetID {
		log.Warn("edit rejected: not the account owner",
			"requester_id", requesterID,
			"target_id", targetID)
		return nil, ErrForbidden
	}

	account, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		log.Error("failed to retrieve account for edit", "error", err, "account_id", targetID)
		return nil, internalError("get account")
	}

	if err := account.Rename(input.FullName); err != nil {
		log.Error("rename rejected by domain validation", "error", err, "account_id", targetID)
		return nil, internalError("rename account")
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		log.Error("failed to save account", "error", err, "account_id", targetID)
		return nil, internalError("update account")
	}

	profile := account.Profile()
	return &profile, nil
}
