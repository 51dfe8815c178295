package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/domain"
)

// CredentialChecker decides the outcome of a sign-in attempt. Store
// implementations call it and persist the lockout bookkeeping it asks for.
//
// An account without a password hash (the login placeholder) is compared
// against a dummy hash of the same cost, so an unknown username costs the
// same as a wrong password.
type CredentialChecker struct {
	verifier  PasswordVerifier
	dummyHash string
	policy    domain.LockoutPolicy
	now       func() time.Time
}

// NewCredentialChecker builds a checker around hasher. The dummy hash is
// derived once here.
func NewCredentialChecker(hasher *BcryptHasher, policy domain.LockoutPolicy) (*CredentialChecker, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to derive dummy password hash: %w", err)
	}
	return &CredentialChecker{
		verifier:  hasher,
		dummyHash: dummy,
		policy:    policy,
		now:       time.Now,
	}, nil
}

// WithClock returns a copy of c using now as its time source.
func (c *CredentialChecker) WithClock(now func() time.Time) *CredentialChecker {
	clone := *c
	clone.now = now
	return &clone
}

// Attempt is a judged sign-in attempt whose lockout bookkeeping has not been
// persisted yet.
type Attempt struct {
	Result domain.SignInResult

	// CountFailure asks the store to add one to the failed attempt counter
	// and lock the account once the counter reaches the policy threshold.
	// The increment must happen against the stored counter, not the one the
	// account was loaded with.
	CountFailure bool

	// ResetFailures asks the store to clear the failed attempt counter.
	ResetFailures bool

	// At is the time the attempt was judged against.
	At time.Time
}

// Policy returns the lockout policy the checker applies.
func (c *CredentialChecker) Policy() domain.LockoutPolicy {
	return c.policy
}

// Verify compares password against account and decides the outcome. It never
// mutates account; stores apply the returned bookkeeping.
func (c *CredentialChecker) Verify(account *domain.Account, password string) Attempt {
	hash := account.PasswordHash
	if hash == "" {
		hash = c.dummyHash
	}
	matched := c.verifier.Compare(hash, password) == nil && account.PasswordHash != ""

	if account.IsPlaceholder() {
		return Attempt{}
	}

	now := c.now()
	if account.IsLockedOut(now) {
		return Attempt{Result: domain.SignInResult{LockedOut: true}, At: now}
	}

	if !matched {
		return Attempt{CountFailure: c.policy.Counts(account), At: now}
	}

	return Attempt{
		Result:        domain.SignInResult{Succeeded: true},
		ResetFailures: account.AccessFailedCount > 0,
		At:            now,
	}
}
