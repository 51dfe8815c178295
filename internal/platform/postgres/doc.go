// Package postgres implements store.AccountStore on PostgreSQL through
// database/sql and the pgx stdlib driver, and maps PostgreSQL error codes to
// the store package's errors.
package postgres
