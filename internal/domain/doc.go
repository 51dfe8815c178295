// Package domain contains the core account entity, its public profile
// projection and the lockout rules applied during sign-in. It is
// independent of any storage or transport concerns.
package domain
