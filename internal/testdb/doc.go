// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database: connection setup, schema migration, per-test
// transactions and row fixtures.
//
// Tests using it are guarded by the integration build tag and skip when
// DATABASE_URL (or TASKTRACKER_TEST_DB_URL) is not set:
//
//	go test -tags=integration ./...
package testdb
