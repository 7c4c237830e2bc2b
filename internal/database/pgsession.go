package database

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgQuerier is implemented by both *pgxpool.Conn and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgSession is a Driver bound to one connection acquired from the pool.
//
// Statements run inside the open transaction when there is one, otherwise
// directly on the connection. Because the connection never changes during
// the session, lastval() is reliable after an INSERT on a serial column.
type PgSession struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
}

// NewPgSession acquires a connection from pool.
func NewPgSession(ctx context.Context, pool *pgxpool.Pool) (*PgSession, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &PgSession{conn: conn}, nil
}

func (s *PgSession) querier() pgQuerier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

func (s *PgSession) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.querier().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		m, err := pgx.RowToMap(row)
		return Row(m), err
	})
}

func (s *PgSession) Update(ctx context.Context, query string, args ...any) (Result, error) {
	tag, err := s.querier().Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return commandTag{tag}, nil
}

func (s *PgSession) Begin(ctx context.Context) error {
	if s.tx != nil {
		return ErrTxOpen
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

func (s *PgSession) Commit(ctx context.Context) error {
	if s.tx == nil {
		return ErrNoTx
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit(ctx)
}

func (s *PgSession) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return ErrNoTx
	}
	tx := s.tx
	s.tx = nil
	return tx.Rollback(ctx)
}

// LastInsertID returns the value most recently produced by a sequence on
// this connection.
func (s *PgSession) LastInsertID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.querier().QueryRow(ctx, "SELECT lastval()").Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// BulkLoad runs COPY ... FROM STDIN with the CSV document as input.
func (s *PgSession) BulkLoad(ctx context.Context, table string, columns []string, src io.Reader) (Result, error) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pgx.Identifier{col}.Sanitize()
	}
	copySQL := fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv, HEADER true)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
	)

	tag, err := s.conn.Conn().PgConn().CopyFrom(ctx, src, copySQL)
	if err != nil {
		return nil, err
	}
	return commandTag{tag}, nil
}

// Release rolls back a dangling transaction and returns the connection.
func (s *PgSession) Release() {
	if s.tx != nil {
		_ = s.tx.Rollback(context.Background())
		s.tx = nil
	}
	s.conn.Release()
}

type commandTag struct {
	tag pgconn.CommandTag
}

func (c commandTag) RowsAffected() (int64, error) {
	return c.tag.RowsAffected(), nil
}
