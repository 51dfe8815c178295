package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/service"
)

// MockAccountService implements service.AccountService for handler tests.
type MockAccountService struct {
	RegisterFn func(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error)
	LoginFn    func(ctx context.Context, username, password string) (*service.AuthResult, error)
	GetByIDFn  func(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	EditFn     func(ctx context.Context, input service.EditInput, requesterID, targetID uuid.UUID) (*domain.Profile, error)
}

var _ service.AccountService = (*MockAccountService)(nil)

// Register implements service.AccountService.
func (m *MockAccountService) Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, input)
	}
	return nil, service.ErrInternal
}

// Login implements service.AccountService.
func (m *MockAccountService) Login(ctx context.Context, username, password string) (*service.AuthResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, username, password)
	}
	return nil, service.ErrUnauthorized
}

// GetByID implements service.AccountService.
func (m *MockAccountService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, service.ErrNotFound
}

// Edit implements service.AccountService.
func (m *MockAccountService) Edit(
	ctx context.Context,
	input service.EditInput,
	requesterID, targetID uuid.UUID,
) (*domain.Profile, error) {
	if m.EditFn != nil {
		return m.EditFn(ctx, input, requesterID, targetID)
	}
	return nil, service.ErrForbidden
}
