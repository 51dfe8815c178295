package testdb

import "os"

// Environment variables consulted for the PostgreSQL test database, in order.
const (
	EnvTestDatabaseURL = "ACCOUNTS_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// DatabaseURL returns the PostgreSQL URL for integration tests, or "" when
// none is configured.
func DatabaseURL() string {
	if url := os.Getenv(EnvTestDatabaseURL); url != "" {
		return url
	}
	return os.Getenv(EnvDatabaseURL)
}

// IsCI reports whether the tests are running under a CI provider.
func IsCI() bool {
	for _, name := range ciVariables {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}
