// Package sqlite implements store.AccountStore on SQLite using the pure-Go
// modernc.org/sqlite driver. It backs local development and the end-to-end
// tests, and shares its schema versioning with the PostgreSQL store through
// internal/platform/migrations.
package sqlite
