package repository

import (
	"context"
	"io"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/rs/zerolog"
)

// Executor runs Query descriptors against a database.Driver and normalizes
// every driver fault into an errs.StorageError.
type Executor struct {
	driver database.Driver
	logger *zerolog.Logger
}

// NewExecutor binds an executor to one driver (usually a request's session).
func NewExecutor(driver database.Driver, logger *zerolog.Logger) *Executor {
	return &Executor{
		driver: driver,
		logger: logger,
	}
}

// Driver exposes the bound driver, e.g. for a TxManager on the same session.
func (e *Executor) Driver() database.Driver {
	return e.driver
}

// FetchRows runs a SELECT.
//
// A zero-row result is an error only when q.EmptyMessage is set; that error
// wraps errs.ErrNotFound.
func (e *Executor) FetchRows(ctx context.Context, q Query) ([]database.Row, error) {
	args, err := q.bind()
	if err != nil {
		e.logger.Error().Err(err).Str("sql", q.SQL).Msg("failed to bind query parameters")
		return nil, errs.NewStorageError(q.errorMessage(), err)
	}

	rows, err := e.driver.Select(ctx, q.SQL, args...)
	if err != nil {
		e.logger.Error().Err(err).Str("sql", q.SQL).Msg("select failed")
		return nil, errs.NewStorageError(q.errorMessage(), err)
	}

	if len(rows) == 0 && q.EmptyMessage != "" {
		return nil, errs.NewStorageError(q.EmptyMessage, errs.ErrNotFound)
	}
	return rows, nil
}

// FetchOne returns the first row of FetchRows, or nil when there is none.
func (e *Executor) FetchOne(ctx context.Context, q Query) (database.Row, error) {
	rows, err := e.FetchRows(ctx, q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// ModifyRows runs an INSERT, UPDATE or DELETE.
//
// An affected-row count the driver cannot report as a non-negative integer
// is logged and returned as an Anomaly rather than failing the call.
// When q.ExpectRows is set, a valid count that differs from it fails with
// q.ErrorMessage.
func (e *Executor) ModifyRows(ctx context.Context, q Query) (RowCount, error) {
	args, err := q.bind()
	if err != nil {
		e.logger.Error().Err(err).Str("sql", q.SQL).Msg("failed to bind query parameters")
		return Anomaly(nil), errs.NewStorageError(q.errorMessage(), err)
	}

	res, err := e.driver.Update(ctx, q.SQL, args...)
	if err != nil {
		e.logger.Error().Err(err).Str("sql", q.SQL).Msg("update failed")
		return Anomaly(nil), errs.NewStorageError(q.errorMessage(), err)
	}

	count := e.normalize(res, q.SQL)
	if q.ExpectRows != nil {
		if n, ok := count.Value(); ok && n != *q.ExpectRows {
			e.logger.Error().
				Str("sql", q.SQL).
				Int64("expected", *q.ExpectRows).
				Int64("affected", n).
				Msg("unexpected affected row count")
			return count, errs.NewStorageError(q.errorMessage(), nil)
		}
	}
	return count, nil
}

// BulkSource is a CSV document (with header) destined for one table.
type BulkSource struct {
	Table        string
	Columns      []string
	Reader       io.Reader
	ErrorMessage string
}

// BulkLoad streams src into its table with the driver's bulk path.
func (e *Executor) BulkLoad(ctx context.Context, src BulkSource) (RowCount, error) {
	msg := src.ErrorMessage
	if msg == "" {
		msg = defaultErrorMessage
	}

	res, err := e.driver.BulkLoad(ctx, src.Table, src.Columns, src.Reader)
	if err != nil {
		e.logger.Error().Err(err).Str("table", src.Table).Msg("bulk load failed")
		return Anomaly(nil), errs.NewStorageError(msg, err)
	}
	return e.normalize(res, "bulk load "+src.Table), nil
}

// LastInsertID returns the key generated by the previous INSERT on the
// driver's connection.
func (e *Executor) LastInsertID(ctx context.Context, errorMessage string) (int64, error) {
	id, err := e.driver.LastInsertID(ctx)
	if err != nil {
		if errorMessage == "" {
			errorMessage = "Failed to retrieve generated id."
		}
		e.logger.Error().Err(err).Msg("last insert id failed")
		return 0, errs.NewStorageError(errorMessage, err)
	}
	return id, nil
}

// SortDirection maps a flag to a fixed ORDER BY keyword. Caller text never
// reaches the SQL.
func (e *Executor) SortDirection(ascending bool) string {
	if ascending {
		return "ASC"
	}
	return "DESC"
}

func (e *Executor) normalize(res database.Result, statement string) RowCount {
	if res == nil {
		e.logger.Warn().Str("sql", statement).Msg("driver returned no result; row count set to -1")
		return Anomaly(nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		e.logger.Warn().Err(err).Str("sql", statement).Msg("row count unavailable; row count set to -1")
		return Anomaly(err)
	}
	if n < 0 {
		e.logger.Warn().Int64("raw", n).Str("sql", statement).Msg("negative row count; row count set to -1")
		return Anomaly(n)
	}
	return Rows(n)
}
