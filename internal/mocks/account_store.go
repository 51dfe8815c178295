package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// AccountStore is a mock of store.AccountStore for use with testify/mock.
type AccountStore struct {
	mock.Mock
}

var _ store.AccountStore = (*AccountStore)(nil)

func accountOrNil(args mock.Arguments) (*domain.Account, error) {
	if account, ok := args.Get(0).(*domain.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetByID mocks store.AccountStore.GetByID.
func (m *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return accountOrNil(m.Called(ctx, id))
}

// GetByEmail mocks store.AccountStore.GetByEmail.
func (m *AccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return accountOrNil(m.Called(ctx, email))
}

// GetByUsername mocks store.AccountStore.GetByUsername.
func (m *AccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return accountOrNil(m.Called(ctx, username))
}

// CreateWithPassword mocks store.AccountStore.CreateWithPassword.
func (m *AccountStore) CreateWithPassword(ctx context.Context, account *domain.Account, password string) error {
	return m.Called(ctx, account, password).Error(0)
}

// SetLockoutEnabled mocks store.AccountStore.SetLockoutEnabled.
func (m *AccountStore) SetLockoutEnabled(ctx context.Context, account *domain.Account, enabled bool) error {
	return m.Called(ctx, account, enabled).Error(0)
}

// CheckCredentials mocks store.AccountStore.CheckCredentials.
func (m *AccountStore) CheckCredentials(
	ctx context.Context,
	account *domain.Account,
	password string,
) (domain.SignInResult, error) {
	args := m.Called(ctx, account, password)
	result, _ := args.Get(0).(domain.SignInResult)
	return result, args.Error(1)
}

// Update mocks store.AccountStore.Update.
func (m *AccountStore) Update(ctx context.Context, account *domain.Account) error {
	return m.Called(ctx, account).Error(0)
}

// InTransaction records the call and, unless the expectation returns an
// error, runs fn against the mock itself.
func (m *AccountStore) InTransaction(
	ctx context.Context,
	fn func(ctx context.Context, accounts store.AccountStore) error,
) error {
	if err := m.Called(ctx, mock.Anything).Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}
