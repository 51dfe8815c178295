package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenIssuer mints signed access tokens for authenticated accounts.
type TokenIssuer interface {
	// IssueToken creates a signed access token whose subject is accountID and
	// whose name claim is displayName. Every call gets a fresh token ID.
	IssueToken(ctx context.Context, accountID uuid.UUID, displayName string) (*AccessToken, error)
}

// TokenValidator verifies access tokens presented by callers.
type TokenValidator interface {
	// ValidateToken checks signature, issuer, audience and lifetime and
	// returns the token's claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// JWTService issues and validates access tokens with the same key material.
type JWTService interface {
	TokenIssuer
	TokenValidator
}

// AccessToken is a signed token together with its identifying metadata.
type AccessToken struct {
	Token     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the validated content of an access token.
type Claims struct {
	ID        string    `json:"jti,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	Name      string    `json:"name,omitempty"`
	Issuer    string    `json:"iss,omitempty"`
	Audience  []string  `json:"aud,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}
