package domain

import "time"

// SignInResult is the outcome of a credential check. It is never persisted.
type SignInResult struct {
	Succeeded bool
	LockedOut bool
}

// LockoutPolicy controls failed-attempt lockout for accounts that have it enabled.
// Once the failed attempt counter reaches MaxFailedAttempts the account is
// locked for Duration and the counter starts over.
type LockoutPolicy struct {
	MaxFailedAttempts int
	Duration          time.Duration
}

// Counts reports whether failed attempts are counted for account.
func (p LockoutPolicy) Counts(account *Account) bool {
	return account.LockoutEnabled && p.MaxFailedAttempts > 0
}

// LockoutEnd is when a lockout that starts at now ends.
func (p LockoutPolicy) LockoutEnd(now time.Time) time.Time {
	return now.Add(p.Duration).UTC()
}

// IsLockedOut reports whether the account is locked at now.
func (a *Account) IsLockedOut(now time.Time) bool {
	if !a.LockoutEnabled || a.LockoutEnd == nil {
		return false
	}
	return a.LockoutEnd.After(now)
}

// Lock sets the lockout end to until, overriding any current value.
func (a *Account) Lock(until time.Time) {
	end := until.UTC()
	a.LockoutEnd = &end
}

// Unlock clears the lockout end and the failed sign-in counter.
func (a *Account) Unlock() {
	a.LockoutEnd = nil
	a.AccessFailedCount = 0
}
