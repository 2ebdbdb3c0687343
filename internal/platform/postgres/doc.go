// Package postgres provides the PostgreSQL implementation of the reminder
// store, the embedded schema migrations and the mapping from driver errors
// to the store package's sentinel errors.
package postgres
