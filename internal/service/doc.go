// Package service contains the account use cases: registration, login,
// profile lookup and self-service profile edits.
//
// AccountService orchestrates the credential store (internal/store) and the
// token issuer (internal/service/auth). It never talks to HTTP or SQL
// directly; every outcome is either a typed result or one of the sentinel
// errors in errors.go, which the API layer maps to status codes.
package service
