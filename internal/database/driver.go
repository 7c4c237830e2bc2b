package database

import (
	"context"
	"errors"
	"io"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Result reports the outcome of a write.
//
// It is the subset of sql.Result the core needs. Drivers that cannot report
// an affected-row count return an error from RowsAffected instead of guessing.
type Result interface {
	RowsAffected() (int64, error)
}

// Driver is the storage contract consumed by the persistence core.
//
// A Driver is bound to exactly one connection, so LastInsertID and the
// transaction calls always see the statements issued before them.
// At most one transaction may be open at a time.
type Driver interface {
	Select(ctx context.Context, query string, args ...any) ([]Row, error)
	Update(ctx context.Context, query string, args ...any) (Result, error)
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	LastInsertID(ctx context.Context) (int64, error)
	// BulkLoad streams a CSV document with a header row into table.
	BulkLoad(ctx context.Context, table string, columns []string, src io.Reader) (Result, error)
}

// Session is a Driver that holds a pooled connection until Release.
type Session interface {
	Driver
	Release()
}

// SessionSource hands out one Session per request.
type SessionSource interface {
	Session(ctx context.Context) (Session, error)
}

var (
	// ErrTxOpen is returned by Begin when a transaction is already open.
	ErrTxOpen = errors.New("transaction already open")

	// ErrNoTx is returned by Commit/Rollback without an open transaction.
	ErrNoTx = errors.New("no open transaction")
)

// rowsAffected is a Result backed by a plain count.
type rowsAffected int64

func (r rowsAffected) RowsAffected() (int64, error) {
	return int64(r), nil
}
