// Package middleware holds the HTTP middleware of the account API.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/redact"
	"github.com/phrazzld/account-api/internal/service/auth"
)

// AuthMiddleware authenticates bearer tokens.
type AuthMiddleware struct {
	validator auth.TokenValidator
}

// NewAuthMiddleware creates an AuthMiddleware that validates tokens with validator.
func NewAuthMiddleware(validator auth.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate rejects requests without a valid bearer token and stores the
// token's claims in the request context for auth.Resolver.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			message := "Invalid authorization format"
			if errors.Is(err, auth.ErrMissingToken) {
				message = "Authorization header required"
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, message, err)
			return
		}

		claims, err := m.validator.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Token expired", err)
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err)
			default:
				logger.FromContextOrDefault(r.Context(), slog.Default()).
					Error("failed to validate token", slog.String("error", redact.Error(err)))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := auth.WithClaims(r.Context(), claims)
		if log := logger.FromContext(ctx); log != nil {
			ctx = logger.WithLogger(ctx, log.With(slog.String("account_id", claims.Subject)))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}
