package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFullNameLength bounds the display name.
const MaxFullNameLength = 100

// Account validation errors
var (
	ErrEmptyAccountID   = errors.New("account ID cannot be empty")
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmptyUsername    = errors.New("username cannot be empty")
	ErrEmptyFullName    = errors.New("full name cannot be empty")
	ErrFullNameTooLong  = fmt.Errorf("full name must be at most %d characters long", MaxFullNameLength)
	ErrEmptyPhoneNumber = errors.New("phone number cannot be empty")
)

// Account is a registered identity. The password credential is write-only:
// only its hash is ever held here and it is never serialized.
type Account struct {
	ID                uuid.UUID  `json:"id"`
	FullName          string     `json:"full_name"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	PhoneNumber       string     `json:"phone_number"`
	EmailConfirmed    bool       `json:"email_confirmed"`
	PasswordHash      string     `json:"-"`
	SecurityStamp     string     `json:"-"`
	LockoutEnabled    bool       `json:"-"`
	LockoutEnd        *time.Time `json:"-"`
	AccessFailedCount int        `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewAccount creates an unconfirmed account with a fresh ID and security stamp.
// Lockout starts enabled, matching what a credential store does by default;
// registration turns it off explicitly.
func NewAccount(fullName, phoneNumber, email, username string) (*Account, error) {
	now := time.Now().UTC()
	account := &Account{
		ID:             uuid.New(),
		FullName:       fullName,
		Username:       username,
		Email:          email,
		PhoneNumber:    phoneNumber,
		EmailConfirmed: false,
		SecurityStamp:  NewSecurityStamp(),
		LockoutEnabled: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

// NewPlaceholderAccount returns the synthetic identity used when a login names
// an unknown username. It has no ID and no password hash, so it can never
// authenticate, but it drives the same credential check as a real account.
func NewPlaceholderAccount() *Account {
	return &Account{SecurityStamp: NewSecurityStamp()}
}

// NewSecurityStamp returns a random opaque stamp.
func NewSecurityStamp() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// IsPlaceholder reports whether a is a synthetic identity rather than a stored account.
func (a *Account) IsPlaceholder() bool {
	return a.ID == uuid.Nil
}

// Validate checks if the Account has valid data.
func (a *Account) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAccountID
	}
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(a.Username) == "" {
		return ErrEmptyUsername
	}
	if strings.TrimSpace(a.PhoneNumber) == "" {
		return ErrEmptyPhoneNumber
	}
	return validateFullName(a.FullName)
}

// Rename replaces the display name.
func (a *Account) Rename(fullName string) error {
	if err := validateFullName(fullName); err != nil {
		return err
	}
	a.FullName = fullName
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// NormalizedEmail is the form email uniqueness is enforced on.
func (a *Account) NormalizedEmail() string {
	return NormalizeEmail(a.Email)
}

// NormalizedUsername is the form username uniqueness is enforced on.
func (a *Account) NormalizedUsername() string {
	return NormalizeUsername(a.Username)
}

// NormalizeEmail lowercases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername lowercases and trims a username for lookups.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Profile returns the public projection of the account.
func (a *Account) Profile() Profile {
	return Profile{
		ID:       a.ID,
		FullName: a.FullName,
		Username: a.Username,
		Email:    a.Email,
	}
}

func validateFullName(fullName string) error {
	if strings.TrimSpace(fullName) == "" {
		return ErrEmptyFullName
	}
	if len([]rune(fullName)) > MaxFullNameLength {
		return ErrFullNameTooLong
	}
	return nil
}

// Profile is the public view of an account.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}
