package database

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Dialect holds the SQL that differs between database/sql backends.
type Dialect struct {
	Name string

	// LastInsertID is the statement returning the last generated key on the
	// current connection.
	LastInsertID string

	// Rebind rewrites the repository's $N placeholders for the backend.
	Rebind func(query string) string
}

var dollarPlaceholder = regexp.MustCompile(`\$\d+`)

// SQLiteDialect targets modernc.org/sqlite.
//
// Repository statements number their placeholders in order of appearance and
// use each one once, so they can be rewritten to plain positional '?'.
var SQLiteDialect = Dialect{
	Name:         "sqlite",
	LastInsertID: "SELECT last_insert_rowid()",
	Rebind: func(query string) string {
		return dollarPlaceholder.ReplaceAllString(query, "?")
	},
}

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// SQLSession is a Driver bound to one database/sql connection.
type SQLSession struct {
	conn    *sql.Conn
	tx      *sql.Tx
	dialect Dialect
}

// NewSQLSession pins a single connection from db for the session.
func NewSQLSession(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLSession, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &SQLSession{conn: conn, dialect: dialect}, nil
}

func (s *SQLSession) querier() sqlQuerier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

func (s *SQLSession) rebind(query string) string {
	if s.dialect.Rebind == nil {
		return query
	}
	return s.dialect.Rebind(query)
}

func (s *SQLSession) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.querier().QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLSession) Update(ctx context.Context, query string, args ...any) (Result, error) {
	return s.querier().ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLSession) Begin(ctx context.Context) error {
	if s.tx != nil {
		return ErrTxOpen
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

func (s *SQLSession) Commit(_ context.Context) error {
	if s.tx == nil {
		return ErrNoTx
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

func (s *SQLSession) Rollback(_ context.Context) error {
	if s.tx == nil {
		return ErrNoTx
	}
	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}

func (s *SQLSession) LastInsertID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.querier().QueryRowContext(ctx, s.dialect.LastInsertID).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// BulkLoad reads the CSV header, checks it names exactly the expected
// columns, then inserts each record with one prepared statement.
//
// The load is all or nothing, like COPY: it runs in its own transaction, or
// under a savepoint when the session already has one open, and any read or
// insert error rolls back every record loaded so far. Empty CSV fields are
// stored as NULL, matching COPY's csv format.
func (s *SQLSession) BulkLoad(ctx context.Context, table string, columns []string, src io.Reader) (Result, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = len(columns)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return rowsAffected(0), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	order, err := headerOrder(header, columns)
	if err != nil {
		return nil, err
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
		marks[i] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	if s.tx != nil {
		return s.loadUnderSavepoint(ctx, insert, reader, order)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin load: %w", err)
	}
	n, err := loadRecords(ctx, tx, insert, reader, order)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit load: %w", err)
	}
	return rowsAffected(n), nil
}

// loadUnderSavepoint undoes a failed load without aborting the caller's
// transaction.
func (s *SQLSession) loadUnderSavepoint(ctx context.Context, insert string, reader *csv.Reader, order []int) (Result, error) {
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+bulkLoadSavepoint); err != nil {
		return nil, fmt.Errorf("open savepoint: %w", err)
	}
	n, err := loadRecords(ctx, s.tx, insert, reader, order)
	if err != nil {
		_, _ = s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+bulkLoadSavepoint)
		_, _ = s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+bulkLoadSavepoint)
		return nil, err
	}
	if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+bulkLoadSavepoint); err != nil {
		return nil, fmt.Errorf("release savepoint: %w", err)
	}
	return rowsAffected(n), nil
}

const bulkLoadSavepoint = "bulk_load"

func loadRecords(ctx context.Context, q sqlQuerier, insert string, reader *csv.Reader, order []int) (int64, error) {
	stmt, err := q.PrepareContext(ctx, insert)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	var n int64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("read record %d: %w", n+1, err)
		}
		args := make([]any, len(order))
		for i, idx := range order {
			if record[idx] == "" {
				args[i] = nil
				continue
			}
			args[i] = record[idx]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", n+1, err)
		}
		n++
	}
}

// Release rolls back a dangling transaction and returns the connection.
func (s *SQLSession) Release() {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	_ = s.conn.Close()
}

// headerOrder maps each expected column to its position in the CSV header.
func headerOrder(header, columns []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	order := make([]int, len(columns))
	for i, col := range columns {
		idx, ok := pos[strings.ToLower(col)]
		if !ok {
			return nil, fmt.Errorf("csv header is missing column %q", col)
		}
		order[i] = idx
	}
	return order, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
