// Package store defines the persistence vocabulary shared by the worker's
// storage implementations: the DBTX abstraction over *sql.DB and *sql.Tx and
// the sentinel errors stores return. It keeps reminder logic independent of
// any particular database technology.
package store
