// Package config loads, parses, and validates the account service settings
// from environment variables (ACCOUNTS_ prefix) and an optional config.yaml.
// The resulting Config is treated as immutable once Load returns.
package config
