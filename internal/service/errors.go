package service

import (
	"errors"
	"fmt"
)

// Account service errors. The API layer maps each of these to one HTTP status;
// callers branch with errors.Is and, for conflicts, errors.As.
var (
	// ErrConflict is wrapped by every *ConflictError.
	ErrConflict = errors.New("account already exists")

	// ErrUnauthorized is returned for a failed login. Unknown usernames and
	// wrong passwords produce this same value.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrLocked is returned when the credential store reports the account locked out.
	ErrLocked = errors.New("account is locked")

	// ErrForbidden is returned when a caller tries to change an account other than their own.
	ErrForbidden = errors.New("cannot modify another account")

	// ErrNotFound is returned when the target account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrInternal covers store and token failures. Details are logged, not returned.
	ErrInternal = errors.New("internal error")
)

// Fields a ConflictError can name.
const (
	FieldEmail    = "email"
	FieldUsername = "username"
)

// ConflictError reports which unique field collided during registration.
type ConflictError struct {
	Field string
}

// NewConflictError creates a ConflictError for field.
func NewConflictError(field string) *ConflictError {
	return &ConflictError{Field: field}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("an account with this %s already exists", e.Field)
}

// Unwrap lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

func internalError(op string) error {
	return fmt.Errorf("%w: %s", ErrInternal, op)
}
