// Package mocks provides shared test doubles for the account service.
//
// AccountStore is a testify/mock implementation of store.AccountStore.
// MockJWTService and MockAccountService use function fields, falling back to
// fixed return values when a function is not set:
//
//	issuer := &mocks.MockJWTService{
//	    IssueTokenFn: func(ctx context.Context, id uuid.UUID, name string) (*auth.AccessToken, error) {
//	        return &auth.AccessToken{Token: "mocked-token"}, nil
//	    },
//	}
package mocks
