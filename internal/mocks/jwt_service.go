package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing.
type MockJWTService struct {
	IssueTokenFn    func(ctx context.Context, accountID uuid.UUID, displayName string) (*auth.AccessToken, error)
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Default values used when functions aren't explicitly defined
	Token       *auth.AccessToken
	Err         error
	Claims      *auth.Claims
	ValidateErr error
}

var _ auth.JWTService = (*MockJWTService)(nil)

// IssueToken implements auth.TokenIssuer.
func (m *MockJWTService) IssueToken(
	ctx context.Context,
	accountID uuid.UUID,
	displayName string,
) (*auth.AccessToken, error) {
	if m.IssueTokenFn != nil {
		return m.IssueTokenFn(ctx, accountID, displayName)
	}
	return m.Token, m.Err
}

// ValidateToken implements auth.TokenValidator.
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return m.Claims, m.ValidateErr
}
