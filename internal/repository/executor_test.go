package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/database/dbtest"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(driver database.Driver) *Executor {
	logger := zerolog.Nop()
	return NewExecutor(driver, &logger)
}

func TestExecutorModifyRows(t *testing.T) {
	ctx := context.Background()

	t.Run("binds parameters before the driver", func(t *testing.T) {
		fake := dbtest.New()
		exec := newTestExecutor(fake)

		count, err := exec.ModifyRows(ctx, Query{
			SQL:    "UPDATE t SET n = $1 WHERE id = $2",
			Params: []any{"7", "3"},
			Types:  []ParamType{TypeInt, TypeInt},
		})
		require.NoError(t, err)
		n, ok := count.Value()
		assert.True(t, ok)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, []any{int64(7), int64(3)}, fake.Calls[0].Args)
	})

	t.Run("driver fault becomes a storage error", func(t *testing.T) {
		fake := dbtest.New()
		fake.Fail = func(dbtest.Call) error { return dbtest.ErrDriver }
		exec := newTestExecutor(fake)

		_, err := exec.ModifyRows(ctx, Query{SQL: "DELETE FROM t", ErrorMessage: "Delete failed."})
		require.Error(t, err)

		var storageErr *errs.StorageError
		require.True(t, errors.As(err, &storageErr))
		assert.Equal(t, "Delete failed.", storageErr.Message)
		assert.ErrorIs(t, err, dbtest.ErrDriver)
	})

	t.Run("unavailable row count is an anomaly, not an error", func(t *testing.T) {
		fake := dbtest.New()
		fake.Affected = func(dbtest.Call) database.Result {
			return dbtest.Result{Err: errors.New("not supported")}
		}
		exec := newTestExecutor(fake)

		count, err := exec.ModifyRows(ctx, Query{SQL: "DELETE FROM t", ExpectRows: ExpectRows(1)})
		require.NoError(t, err)
		assert.True(t, count.IsAnomaly())
		assert.Equal(t, int64(-1), count.Int())
	})

	t.Run("negative row count is an anomaly", func(t *testing.T) {
		fake := dbtest.New()
		fake.Affected = func(dbtest.Call) database.Result { return dbtest.Result{N: -3} }
		exec := newTestExecutor(fake)

		count, err := exec.ModifyRows(ctx, Query{SQL: "DELETE FROM t"})
		require.NoError(t, err)
		assert.True(t, count.IsAnomaly())
		assert.Equal(t, int64(-3), count.Raw())
	})

	t.Run("unexpected row count fails", func(t *testing.T) {
		fake := dbtest.New()
		fake.Affected = func(dbtest.Call) database.Result { return dbtest.Result{N: 0} }
		exec := newTestExecutor(fake)

		_, err := exec.ModifyRows(ctx, Query{
			SQL:          "INSERT INTO t (a) VALUES ($1)",
			Params:       []any{"x"},
			Types:        []ParamType{TypeString},
			ExpectRows:   ExpectRows(1),
			ErrorMessage: "Thing insert failed.",
		})
		require.Error(t, err)
		assert.Equal(t, "Thing insert failed.", err.Error())
	})

	t.Run("unbindable parameter never reaches the driver", func(t *testing.T) {
		fake := dbtest.New()
		exec := newTestExecutor(fake)

		_, err := exec.ModifyRows(ctx, Query{
			SQL:    "UPDATE t SET n = $1",
			Params: []any{"many"},
			Types:  []ParamType{TypeInt},
		})
		require.ErrorIs(t, err, errs.ErrStorage)
		assert.Equal(t, defaultErrorMessage, err.Error())
		assert.Empty(t, fake.Calls)
	})
}

func TestExecutorFetchRows(t *testing.T) {
	ctx := context.Background()

	t.Run("empty result allowed without message", func(t *testing.T) {
		exec := newTestExecutor(dbtest.New())
		rows, err := exec.FetchRows(ctx, Query{SQL: "SELECT 1"})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("empty result with message is not found", func(t *testing.T) {
		exec := newTestExecutor(dbtest.New())
		_, err := exec.FetchRows(ctx, Query{SQL: "SELECT 1", EmptyMessage: "Nothing here."})
		require.Error(t, err)
		assert.Equal(t, "Nothing here.", err.Error())
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("returns driver rows", func(t *testing.T) {
		fake := dbtest.New()
		fake.Rows = func(dbtest.Call) []database.Row {
			return []database.Row{{"id": int64(1)}, {"id": int64(2)}}
		}
		exec := newTestExecutor(fake)

		row, err := exec.FetchOne(ctx, Query{SQL: "SELECT id FROM t"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), row["id"])
	})

	t.Run("driver fault", func(t *testing.T) {
		fake := dbtest.New()
		fake.Fail = func(dbtest.Call) error { return dbtest.ErrDriver }
		exec := newTestExecutor(fake)

		_, err := exec.FetchRows(ctx, Query{SQL: "SELECT 1"})
		require.ErrorIs(t, err, dbtest.ErrDriver)
		assert.False(t, errs.IsNotFound(err))
	})
}

func TestExecutorBulkLoadAndLastInsertID(t *testing.T) {
	ctx := context.Background()
	fake := dbtest.New()
	exec := newTestExecutor(fake)

	count, err := exec.BulkLoad(ctx, BulkSource{
		Table:   "program",
		Columns: []string{"semester", "program_id"},
		Reader:  strings.NewReader("semester,program_id\n2024A,P1\n2024A,P2\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2", count.String())
	assert.Equal(t, "program", fake.Calls[0].Table)

	id, err := exec.LastInsertID(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	fake.Fail = func(dbtest.Call) error { return dbtest.ErrDriver }
	_, err = exec.LastInsertID(ctx, "No id.")
	require.Error(t, err)
	assert.Equal(t, "No id.", err.Error())
}

func TestSortDirection(t *testing.T) {
	exec := newTestExecutor(dbtest.New())
	assert.Equal(t, "ASC", exec.SortDirection(true))
	assert.Equal(t, "DESC", exec.SortDirection(false))
}
