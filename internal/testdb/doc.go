//go:build integration

// Package testdb provides PostgreSQL helpers for integration tests.
//
// Tests run against the database named by DATABASE_URL (or SCRY_TEST_DB_URL)
// and are skipped when neither is set. The schema is migrated once per test
// binary with the embedded goose migrations. Most tests run inside WithTx, a
// transaction that is rolled back when the test function returns, so tests
// can use t.Parallel() without seeing each other's rows. Tests that need
// several connections (for example concurrency tests) use the *sql.DB
// directly and remove their rows with DeleteLearnerRows.
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresSessionStore(tx, nil)
//	        ...
//	    })
//	}
package testdb
