package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/mocks"
	"github.com/phrazzld/account-api/internal/service"
	"github.com/phrazzld/account-api/internal/service/auth"
	"github.com/phrazzld/account-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errDatabase = errors.New("database unavailable")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedToken() *auth.AccessToken {
	return &auth.AccessToken{
		Token:     "signed-token",
		ID:        uuid.NewString(),
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func registerInput() service.RegisterInput {
	return service.RegisterInput{
		FullName:    "Ada Lovelace",
		PhoneNumber: "+15550100",
		Email:       "ada@example.com",
		Username:    "ada",
		Password:    "secret1",
	}
}

func existingAccount() *domain.Account {
	return &domain.Account{
		ID:           uuid.New(),
		FullName:     "Ada Lovelace",
		Username:     "ada",
		Email:        "ada@example.com",
		PhoneNumber:  "+15550100",
		PasswordHash: "$2a$04$hash",
	}
}

func TestAccountService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates account and issues token", func(t *testing.T) {
		t.Parallel()

		accounts := new(mocks.AccountStore)
		token := fixedToken()
		var issuedFor uuid.UUID
		tokens := &mocks.MockJWTService{
			IssueTokenFn: func(ctx context.Context, id uuid.UUID, name string) (*auth.AccessToken, error) {
				issuedFor = id
				assert.Equal(t, "Ada Lovelace", name)
				return token, nil
			},
		}

		accounts.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, store.ErrAccountNotFound)
		accounts.On("GetByUsername", mock.Anything, "ada").Return(nil, store.ErrAccountNotFound)
		accounts.On("InTransaction", mock.Anything, mock.Anything).Return(nil)
		accounts.On("CreateWithPassword", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
			return a.ID != uuid.Nil && !a.EmailConfirmed && a.Username == "ada" && a.SecurityStamp != ""
		}), "secret1").Return(nil)
		accounts.On("SetLockoutEnabled", mock.Anything, mock.AnythingOfType("*domain.Account"), false).Return(nil)

		svc := service.NewAccountService(accounts, tokens, testLogger())
		result, err := svc.Register(context.Background(), registerInput())

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", result.Profile.Email)
		assert.Equal(t, "ada", result.Profile.Username)
		assert.Equal(t, "Ada Lovelace", result.Profile.FullName)
		assert.Equal(t, issuedFor, result.Profile.ID)
		assert.Same(t, token, result.AccessToken)
		accounts.AssertExpectations(t)
	})

	t.Run("email conflict is reported before username is checked", func(t *testing.T) {
		t.Parallel()

		accounts := new(mocks.AccountStore)
		accounts.On("GetByEmail", mock.Anything, "ada@example.com").Return(existingAccount(), nil)

		svc := service.NewAccountService(accounts, &mocks.MockJWTService{}, testLogger())
		result, err := svc.Register(context.Background(), registerInput())

		assert.Nil(t, result)
		require.ErrorIs(t, err, service.ErrConflict)
		var conflict *service.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, service.FieldEmail, conflict.Field)
		accounts.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
		accounts.AssertNotCalled(t, "CreateWithPassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("username conflict", func(t *testing.T) {
		t.Parallel()

		accounts := new(mocks.AccountStore)
		accounts.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, store.ErrAccountNotFound)
		accounts.On("GetByUsername", mock.Anything, "ada").Return(existingAccount(), nil)

		svc := service.NewAccountService(accounts, &mocks.MockJWTService{}, testLogger())
		_, err := svc.Register(context.Background(), registerInput())

		var conflict *service.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, service.FieldUsername, conflict.Field)
		accounts.AssertNotCalled(t, "InTransaction", mock.Anything, mock.Anything)
	})

	tests := []struct {
		name      string
		setup     func(accounts *mocks.AccountStore)
		tokenErr  error
		wantErr   error
		wantField string
	}{
		{
			name: "email lookup failure",
			setup: func(accounts *mocks.AccountStore) {
				accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, errDatabase)
			},
			wantErr: service.ErrInternal,
		},
		{
			name: "create rejected by store",
			setup: func(accounts *mocks.AccountStore) {
				accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, store.ErrAccountNotFound)
				accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, store.ErrAccountNotFound)
				accounts.On("InTransaction", mock.Anything, mock.Anything).Return(nil)
				accounts.On("CreateWithPassword", mock.Anything, mock.Anything, mock.Anything).
					Return(store.ErrPasswordPolicy)
			},
			wantErr: service.ErrInternal,
		},
		{
			name: "lockout toggle failure",
			setup: func(accounts *mocks.AccountStore) {
				accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, store.ErrAccountNotFound)
				accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, store.ErrAccountNotFound)
				accounts.On("InTransaction", mock.Anything, mock.Anything).Return(nil)
				accounts.On("CreateWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				accounts.On("SetLockoutEnabled", mock.Anything, mock.Anything, false).Return(errDatabase)
			},
			wantErr: service.ErrInternal,
		},
		{
			name: "concurrent duplicate username caught by the store",
			setup: func(accounts *mocks.AccountStore) {
				accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, store.ErrAccountNotFound)
				accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, store.ErrAccountNotFound)
				accounts.On("InTransaction", mock.Anything, mock.Anything).Return(nil)
				accounts.On("CreateWithPassword", mock.Anything, mock.Anything, mock.Anything).
					Return(store.ErrUsernameExists)
			},
			wantErr:   service.ErrConflict,
			wantField: service.FieldUsername,
		},
		{
			name: "token issuance failure",
			setup: func(accounts *mocks.AccountStore) {
				accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, store.ErrAccountNotFound)
				accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, store.ErrAccountNotFound)
				accounts.On("InTransaction", mock.Anything, mock.Anything).Return(nil)
				accounts.On("CreateWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				accounts.On("SetLockoutEnabled", mock.Anything, mock.Anything, false).Return(nil)
			},
			tokenErr: errors.New("signing failed"),
			wantErr:  service.ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accounts := new(mocks.AccountStore)
			tt.setup(accounts)
			tokens := &mocks.MockJWTService{Token: fixedToken(), Err: tt.tokenErr}

			svc := service.NewAccountService(accounts, tokens, testLogger())
			result, err := svc.Register(context.Background(), registerInput())

			assert.Nil(t, result)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantField != "" {
				var conflict *service.ConflictError
				require.ErrorAs(t, err, &conflict)
				assert.Equal(t, tt.wantField, conflict.Field)
			}
			accounts.AssertExpectations(t)
		})
	}
}

func TestAccountService_Login(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		account := existingAccount()
		accounts := new(mocks.AccountStore)
		accounts.On("GetByUsername", mock.Anything, "ada").Return(account, nil)
		accounts.On("CheckCredentials", mock.Anything, account, "secret1").
			Return(domain.SignInResult{Succeeded: true}, nil)

		tokens := &mocks.MockJWTService{Token: fixedToken()}
		svc := service.NewAccountService(accounts, tokens, testLogger())

		result, err := svc.Login(context.Background(), "ada", "secret1")

		require.NoError(t, err)
		assert.Equal(t, account.ID, result.Profile.ID)
		assert.Equal(t, "signed-token", result.AccessToken.Token)
		accounts.AssertExpectations(t)
	})

	t.Run("unknown username still checks credentials against a placeholder", func(t *testing.T) {
		t.Parallel()

		accounts := new(mocks.AccountStore)
		accounts.On("GetByUsername", mock.Anything, "ghost").Return(nil, store.ErrAccountNotFound)
		accounts.On("CheckCredentials", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
			return a.IsPlaceholder() && a.SecurityStamp != "" && a.PasswordHash == ""
		}), "whatever").Return(domain.SignInResult{}, nil)

		svc := service.NewAccountService(accounts, &mocks.MockJWTService{}, testLogger())
		result, err := svc.Login(context.Background(), "ghost", "whatever")

		assert.Nil(t, result)
		assert.Same(t, service.ErrUnauthorized, err)
		accounts.AssertExpectations(t)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		t.Parallel()

		account := existingAccount()
		accounts := new(mocks.AccountStore)
		accounts.On("GetByUsername", mock.Anything, "ada").Return(account, nil)
		accounts.On("GetByUsername", mock.Anything, "ghost").Return(nil, store.ErrAccountNotFound)
		accounts.On("CheckCredentials", mock.Anything, mock.Anything, mock.Anything).
			Return(domain.SignInResult{}, nil)

		svc := service.NewAccountService(accounts, &mocks.MockJWTService{}, testLogger())

		_, wrongPassword := svc.Login(context.Background(), "ada", "wrong")
		_, unknownUser := svc.Login(context.Background(), "ghost", "wrong")

		require.Error(t, wrongPassword)
		assert.Equal(t, wrongPassword, unknownUser)
		assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
		accounts.AssertNumberOfCalls(t, "CheckCredentials", 2)
	})

	t.Run("placeholder can never succeed", func(t *testing.T) {
		t.Parallel()

		accounts := new(mocks.AccountStore)
		accounts.On("GetByUsername", mock.Anything, "ghost").Return(nil, store.ErrAccountNotFound)
		accounts.On("CheckCredentials", mock.Anything, mock.Anything, mock.Anything).
			Return(domain.SignInResult{Succeeded: true}, nil)

		tokens := &mocks.MockJWTService{Token: fixedToken()}
		svc := service.NewAccountService(accounts, tokens, testLogger())

		_, err := svc.Login(context.Background(), "ghost", "")
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	tests := []struct {
		name     string
		lookup   error
		result   domain.SignInResult
		checkErr error
		tokenErr error
		wantErr  error
	}{
		{name: "locked out", result: domain.SignInResult{LockedOut: true}, wantErr: service.ErrLocked},
		{name: "wrong password", result: domain.SignInResult{}, wantErr: service.ErrUnauthorized},
		{name: "lookup failure", lookup: errDatabase, wantErr: service.ErrInternal},
		{name: "credential check failure", checkErr: errDatabase, wantErr: service.ErrInternal},
		{
			name:     "token failure",
			result:   domain.SignInResult{Succeeded: true},
			tokenErr: errors.New("signing failed"),
			wantErr:  service.ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			account := existingAccount()
			accounts := new(mocks.AccountStore)
			if tt.lookup != nil {
				accounts.On("GetByUsername", mock.Anything, "ada").Return(nil, tt.lookup)
			} else {
				accounts.On("GetByUsername", mock.Anything, "ada").Return(account, nil)
				accounts.On("CheckCredentials", mock.Anything, account, "pw").Return(tt.result, tt.checkErr)
			}
			tokens := &mocks.MockJWTService{Token: fixedToken(), Err: tt.tokenErr}

			svc := service.NewAccountService(accounts, tokens, testLogger())
			result, err := svc.Login(context.Background(), "ada", "pw")

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			accounts.AssertExpectations(t)
		})
	}
}

func TestAccountService_GetByID(t *testing.T) {
	t.Parallel()

	account := existingAccount()

	tests := []struct {
		name    string
		account *domain.Account
		err     error
		wantErr error
	}{
		{name: "found", account: account},
		{name: "missing", err: store.ErrAccountNotFound, wantErr: service.ErrNotFound},
		{name: "store failure", err: errDatabase, wantErr: service.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accounts := new(mocks.AccountStore)
			accounts.On("GetByID", mock.Anything, account.ID).Return(tt.account, tt.err)

			svc := service.NewAccountService(accounts, &mocks.MockJWTService{}, testLogger())
			profile, err := svc.GetByID(context.Background(), account.ID)

			if tt.wantErr != nil {
				assert.Nil(t, profile)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, account.Profile(), *profile)
		})
	}
}

func TestAccountService_Edit(t *testing.T) {
	t.Parallel()

	t.Run("owner renames account", func(t *testing.T) {
		t.Parallel()

		account := existingAccount()
		accounts := new(mocks.AccountStore)
		accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)
		accounts.On("Update", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
			return a.ID == account.ID && a.FullName == "Ada King" && a.Email == "ada@example.com"
		})).Return(nil)

		svc := service.NewAccountService(accounts, &mocks.MockJWTService{}, testLogger())
		profile, err := svc.Edit(context.Background(), service.EditInput{FullName: "Ada King"}, account.ID, account.ID)

		require.NoError(t, err)
		assert.Equal(t, "Ada King", profile.FullName)
		assert.Equal(t, "ada", profile.Username)
		accounts.AssertExpectations(t)
	})

	t.Run("forbidden is decided before any lookup", func(t *testing.T) {
		t.Parallel()

		accounts := new(mocks.AccountStore)
		svc := service.NewAccountService(accounts, &mocks.MockJWTService{}, testLogger())

		profile, err := svc.Edit(context.Background(), service.EditInput{FullName: "X"}, uuid.New(), uuid.New())

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, service.ErrForbidden)
		accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("missing target", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		accounts := new(mocks.AccountStore)
		accounts.On("GetByID", mock.Anything, id).Return(nil, store.ErrAccountNotFound)

		svc := service.NewAccountService(accounts, &mocks.MockJWTService{}, testLogger())
		_, err := svc.Edit(context.Background(), service.EditInput{FullName: "X"}, id, id)

		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("commit failure", func(t *testing.T) {
		t.Parallel()

		account := existingAccount()
		accounts := new(mocks.AccountStore)
		accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)
		accounts.On("Update", mock.Anything, account).Return(errDatabase)

		svc := service.NewAccountService(accounts, &mocks.MockJWTService{}, testLogger())
		_, err := svc.Edit(context.Background(), service.EditInput{FullName: "Ada King"}, account.ID, account.ID)

		assert.ErrorIs(t, err, service.ErrInternal)
		assert.NotErrorIs(t, err, errDatabase, "store details stay out of the returned error")
	})
}
