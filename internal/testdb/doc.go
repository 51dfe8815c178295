// Package testdb provides database helpers shared by the test suites.
//
// SQLite databases are created per test in t.TempDir() with the embedded
// migrations applied, so store, service and HTTP tests run against the same
// schema the server uses. PostgreSQL tests are opt-in: OpenPostgres skips the
// test unless a database URL is configured, and fails instead of skipping when
// running in CI.
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.OpenPostgres(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        accounts := postgres.NewPostgresAccountStore(db, hasher, checker, logger).WithTx(tx)
//	        ...
//	    })
//	}
package testdb
