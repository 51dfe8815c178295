package auth

import (
	"context"

	"github.com/google/uuid"
)

type claimsContextKey struct{}

// WithClaims returns a copy of ctx carrying the validated claims of the caller.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Resolver turns the authenticated credential of a request into the
// account identity it speaks for.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveAccountID returns the subject of the authenticated caller.
// It fails with ErrMissingSubject when no credential was attached, the
// subject claim is absent, or it is not a usable account ID.
func (r *Resolver) ResolveAccountID(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrMissingSubject
	}
	return SubjectFromClaims(claims)
}

// SubjectFromClaims parses the subject claim as an account ID.
func SubjectFromClaims(claims *Claims) (uuid.UUID, error) {
	if claims == nil || claims.Subject == "" {
		return uuid.Nil, ErrMissingSubject
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrMissingSubject
	}
	return id, nil
}
