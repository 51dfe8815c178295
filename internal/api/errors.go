package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/service"
	"github.com/phrazzld/account-api/internal/service/auth"
)

// MapErrorToStatusCode maps service and auth errors to HTTP status codes.
// Anything unrecognized is a 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingSubject):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrLocked):
		return http.StatusLocked

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidPathParam):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the client-facing message for err. It never
// includes the error text itself.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		switch conflict.Field {
		case service.FieldEmail:
			return "Email is already in use"
		case service.FieldUsername:
			return "Username is already taken"
		default:
			return "Account already exists"
		}

	case errors.Is(err, service.ErrUnauthorized):
		return "Invalid credentials"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization header required"

	case errors.Is(err, auth.ErrMissingSubject):
		return "Authenticated user could not be identified"

	case errors.Is(err, service.ErrLocked):
		return "Account is locked. Try again later"

	case errors.Is(err, service.ErrForbidden):
		return "You can only edit your own account"

	case errors.Is(err, service.ErrNotFound):
		return "User not found"

	case errors.Is(err, ErrInvalidPathParam):
		return "Invalid user ID"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the response for err: status from
// MapErrorToStatusCode, message from GetSafeErrorMessage and, for
// conflicts, the offending field.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)

	var opts []shared.ResponseOption
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		opts = append(opts, shared.WithField(conflict.Field))
	}
	if status == http.StatusForbidden || status == http.StatusLocked {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}

// SanitizeValidationError turns a validator error into a client message that
// names the first failing JSON field.
func SanitizeValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "Validation error"
	}

	first := validationErrors[0]
	return fmt.Sprintf("Invalid %s: %s", jsonFieldName(first.Field()), getValidationTagMessage(first))
}

// ValidationField returns the JSON name of the first field rejected by the
// validator, or "".
func ValidationField(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return ""
	}
	return jsonFieldName(validationErrors[0].Field())
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func getValidationTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "alphanum":
		return "letters and digits only"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "minbytes":
		return "must be at least " + fe.Param() + " bytes long"
	case "maxbytes":
		return "must be at most " + fe.Param() + " bytes long"
	case "eqfield":
		return "must match " + jsonFieldName(fe.Param())
	default:
		return "validation failed"
	}
}
