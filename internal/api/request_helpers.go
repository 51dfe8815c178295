package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ErrInvalidPathParam is returned when a path parameter is missing or malformed.
var ErrInvalidPathParam = errors.New("invalid path parameter")

// getPathUUID parses the chi path parameter paramName as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	value := chi.URLParam(r, paramName)
	if value == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrInvalidPathParam, paramName)
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", ErrInvalidPathParam, paramName)
	}
	return id, nil
}
