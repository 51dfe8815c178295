package auth

import "errors"

// Common authentication errors
var (
	// ErrInvalidToken indicates the token is malformed, its signature doesn't
	// match, or its issuer or audience is not ours.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf or iat in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrMissingSubject indicates the authenticated credential carries no
	// usable subject claim. Callers treat it as an authorization failure.
	ErrMissingSubject = errors.New("authenticated credential has no subject")
)
