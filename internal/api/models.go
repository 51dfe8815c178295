package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/service"
)

// RegisterRequest is the body of POST /api/users/register.
type RegisterRequest struct {
	FullName        string `json:"fullName"        validate:"required,max=100"`
	PhoneNumber     string `json:"phoneNumber"     validate:"required,max=20"`
	Email           string `json:"email"           validate:"required,email"`
	Username        string `json:"username"        validate:"required,alphanum,min=3,max=32"`
	Password        string `json:"password"        validate:"required,minbytes=6,maxbytes=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// EditRequest is the body of PUT /api/users/{userId}.
type EditRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   string    `json:"expiresAt"`
}

// ProfileResponse is the public view of an account.
type ProfileResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func authResultToResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		ID:          result.Profile.ID,
		FullName:    result.Profile.FullName,
		Email:       result.Profile.Email,
		Username:    result.Profile.Username,
		AccessToken: result.AccessToken.Token,
		ExpiresAt:   result.AccessToken.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func profileToResponse(profile *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:       profile.ID,
		FullName: profile.FullName,
		Username: profile.Username,
		Email:    profile.Email,
	}
}
