// Package sqlerr classifies database driver errors (pgx and SQLite) and
// turns them, together with the persistence core's StorageErrors, into
// client-facing HTTP errors.
package sqlerr
