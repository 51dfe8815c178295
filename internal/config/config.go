package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects the credential store backend.
// Driver "pgx" expects a PostgreSQL URL, driver "sqlite" a file path or DSN.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=pgx sqlite"`
	URL    string `mapstructure:"url"    validate:"required"`
}

// AuthConfig contains the token issuing and credential checking settings.
// It is read once at startup and injected into the token issuer and stores;
// nothing mutates it afterwards.
type AuthConfig struct {
	SecretKey                string        `mapstructure:"secret_key"                  validate:"required,min=32"`
	Issuer                   string        `mapstructure:"issuer"                      validate:"required"`
	Audience                 string        `mapstructure:"audience"                    validate:"required"`
	AccessTokenExpiryMinutes int           `mapstructure:"access_token_expiry_minutes" validate:"required,gt=0,lt=10081"`
	BcryptCost               int           `mapstructure:"bcrypt_cost"                 validate:"required,min=4,max=31"`
	Lockout                  LockoutConfig `mapstructure:"lockout"`
}

// LockoutConfig controls how many consecutive failed sign-ins an account
// with lockout enabled may accumulate before it is locked, and for how long.
type LockoutConfig struct {
	MaxFailedAttempts int `mapstructure:"max_failed_attempts" validate:"gt=0"`
	DurationMinutes   int `mapstructure:"duration_minutes"    validate:"gt=0"`
}

// CORSConfig lists the browser origins allowed to call the API with credentials.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig bounds the per-client request rate of the register and login routes.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"gt=0"`
	Burst             int `mapstructure:"burst"               validate:"gt=0"`
}
