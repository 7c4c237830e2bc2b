package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSession(t *testing.T) (*SQLSession, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewSQLSession(context.Background(), db, SQLiteDialect)
	require.NoError(t, err)
	return s, mock
}

func TestSQLSessionRebindsPlaceholders(t *testing.T) {
	s, mock := newMockSession(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM operator WHERE semester = ? AND operator_id = ?`).
		WithArgs("2024A", "OP1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	res, err := s.Update(ctx, `DELETE FROM operator WHERE semester = $1 AND operator_id = $2`, "2024A", "OP1")
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSessionSelectDecodesBytes(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectQuery(`SELECT id, pi_name FROM feedback WHERE id = ?`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "pi_name"}).AddRow(int64(4), []byte("Ada")))

	rows, err := s.Select(context.Background(), `SELECT id, pi_name FROM feedback WHERE id = $1`, int64(4))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(4), rows[0]["id"])
	assert.Equal(t, "Ada", rows[0]["pi_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSessionTransactions(t *testing.T) {
	s, mock := newMockSession(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Commit(ctx), ErrNoTx)
	assert.ErrorIs(t, s.Rollback(ctx), ErrNoTx)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO feedback_operator (feedback_id, operator_id) VALUES (?, ?)`).
		WithArgs(int64(1), "OP1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT last_insert_rowid()`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	require.NoError(t, s.Begin(ctx))
	assert.ErrorIs(t, s.Begin(ctx), ErrTxOpen)

	_, err := s.Update(ctx, `INSERT INTO feedback_operator (feedback_id, operator_id) VALUES ($1, $2)`, int64(1), "OP1")
	require.NoError(t, err)

	id, err := s.LastInsertID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.NoError(t, s.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSessionReleaseRollsBackOpenTx(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.NoError(t, s.Begin(context.Background()))
	s.Release()
	assert.NoError(t, mock.ExpectationsWereMet())
}

const operatorInsert = `INSERT INTO "operator" ("semester", "night_date", "operator_id") VALUES (?, ?, ?)`

var operatorColumns = []string{"semester", "night_date", "operator_id"}

func TestSQLSessionBulkLoad(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(operatorInsert)
	// Header columns arrive in a different order than the table's.
	prep.ExpectExec().WithArgs("2024A", "2024-03-01", "OP1").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("2024A", nil, "OP2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc := "operator_id,Semester,night_date\nOP1,2024A,2024-03-01\nOP2,2024A,\n"
	res, err := s.BulkLoad(context.Background(), "operator",
		[]string{"semester", "night_date", "operator_id"}, strings.NewReader(doc))
	require.NoError(t, err)

	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSessionBulkLoadRollsBackPartialLoad(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(operatorInsert)
	prep.ExpectExec().WithArgs("2024A", "2024-03-01", "OP1").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("2024A", "2024-03-02", nil).
		WillReturnError(errors.New("NOT NULL constraint failed: operator.operator_id"))
	mock.ExpectRollback()

	doc := "semester,night_date,operator_id\n2024A,2024-03-01,OP1\n2024A,2024-03-02,\n"
	_, err := s.BulkLoad(context.Background(), "operator", operatorColumns, strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert record 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSessionBulkLoadMalformedRecordRollsBack(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(operatorInsert)
	prep.ExpectExec().WithArgs("2024A", "2024-03-01", "OP1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	doc := "semester,night_date,operator_id\n2024A,2024-03-01,OP1\n2024A,2024-03-02\n"
	_, err := s.BulkLoad(context.Background(), "operator", operatorColumns, strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read record 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSessionBulkLoadInsideTransactionUsesSavepoint(t *testing.T) {
	s, mock := newMockSession(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT bulk_load").WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(operatorInsert)
	prep.ExpectExec().WithArgs("2024A", "2024-03-01", nil).
		WillReturnError(errors.New("NOT NULL constraint failed: operator.operator_id"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT bulk_load").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RELEASE SAVEPOINT bulk_load").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, s.Begin(ctx))
	_, err := s.BulkLoad(ctx, "operator", operatorColumns,
		strings.NewReader("semester,night_date,operator_id\n2024A,2024-03-01,\n"))
	require.Error(t, err)

	// The outer transaction is still usable.
	require.NoError(t, s.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSessionBulkLoadRejectsHeader(t *testing.T) {
	s, _ := newMockSession(t)

	_, err := s.BulkLoad(context.Background(), "operator",
		[]string{"semester", "night_date", "operator_id"},
		strings.NewReader("semester,night,operator_id\n2024A,2024-03-01,OP1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "night_date"`)
}

func TestSQLSessionBulkLoadEmptyDocument(t *testing.T) {
	s, mock := newMockSession(t)

	res, err := s.BulkLoad(context.Background(), "operator", []string{"semester"}, strings.NewReader(""))
	require.NoError(t, err)
	n, _ := res.RowsAffected()
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
