package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/deppfellow/obsrecords/internal/lib/files"
	"github.com/deppfellow/obsrecords/internal/metrics"
	"github.com/deppfellow/obsrecords/internal/model"
	"github.com/deppfellow/obsrecords/internal/repository"
	"github.com/rs/zerolog"
)

// IngestOptions selects what a schedule ingestion run deletes and loads.
type IngestOptions struct {
	// Semester selects the rows each table's delete removes.
	Semester string

	// FileLoad bulk-loads each table from its source file. Otherwise the
	// rows in Rows are inserted one statement at a time.
	FileLoad bool

	// Sources overrides a table's source file path. Tables without an
	// entry use "<table>.csv" resolved against the file source root.
	Sources map[model.ScheduleTable]string

	// Rows holds the explicit rows per table, keyed by column name.
	Rows map[model.ScheduleTable][]map[string]any
}

const (
	phaseDelete = "delete"
	phaseInsert = "insert"
)

// ScheduleOrchestrator reloads the five schedule tables.
//
// There is no shared transaction: every table's delete and insert runs on
// its own, and a failure is reported in that table's message while the
// remaining tables are still processed. Running it twice without a
// matching delete loads the rows twice.
type ScheduleOrchestrator struct {
	exec    *repository.Executor
	writers []*repository.ScheduleWriter
	files   *files.Source
	metrics *metrics.Metrics
	logger  *zerolog.Logger
}

// NewScheduleOrchestrator processes writers in slice order. A nil m skips
// the per-table metrics.
func NewScheduleOrchestrator(
	exec *repository.Executor,
	writers []*repository.ScheduleWriter,
	source *files.Source,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *ScheduleOrchestrator {
	return &ScheduleOrchestrator{
		exec:    exec,
		writers: writers,
		files:   source,
		metrics: m,
		logger:  logger,
	}
}

// IngestSchedule deletes then reloads every table and returns each table's
// delete message followed by its insert message, in table order.
//
// Per-table faults never surface as an error; only a malformed request or
// a missing writer does.
func (o *ScheduleOrchestrator) IngestSchedule(ctx context.Context, opts IngestOptions) (model.IngestResult, error) {
	if err := o.validate(opts); err != nil {
		return nil, err
	}

	deletes := make([]string, len(o.writers))
	for i, w := range o.writers {
		deletes[i] = o.deleteTable(ctx, w, opts.Semester)
	}

	inserts := make([]string, len(o.writers))
	for i, w := range o.writers {
		if opts.FileLoad {
			inserts[i] = o.loadFile(ctx, w, o.sourcePath(w, opts))
		} else {
			inserts[i] = o.insertRows(ctx, w, opts.Rows[w.ScheduleTable()])
		}
	}

	result := make(model.IngestResult, 0, 2*len(o.writers))
	for i := range o.writers {
		result = append(result, deletes[i], inserts[i])
	}
	return result, nil
}

func (o *ScheduleOrchestrator) validate(opts IngestOptions) error {
	if o.exec == nil || len(o.writers) == 0 {
		return errs.NewStorageError("Schedule writers are required for ingestion.", nil)
	}
	for _, w := range o.writers {
		if w == nil {
			return errs.NewStorageError("Schedule writers are required for ingestion.", nil)
		}
	}
	if opts.Semester == "" {
		return errs.NewStorageError("Semester is required for ingestion.", nil)
	}
	if opts.FileLoad && o.files == nil {
		return errs.NewStorageError("A file source is required for file loads.", nil)
	}
	for table := range opts.Sources {
		if !table.Valid() {
			return errs.NewStorageError(fmt.Sprintf("Unknown schedule table %q.", table), nil)
		}
	}
	for table := range opts.Rows {
		if !table.Valid() {
			return errs.NewStorageError(fmt.Sprintf("Unknown schedule table %q.", table), nil)
		}
	}
	return nil
}

func (o *ScheduleOrchestrator) deleteTable(ctx context.Context, w *repository.ScheduleWriter, semester string) string {
	table := w.Table()
	count, err := w.Delete(ctx, o.exec, semester)
	if err != nil {
		o.logger.Error().Err(err).Str("table", table).Msg("schedule delete failed")
		o.metrics.IngestStep(table, phaseDelete, metrics.OutcomeFailure)
		return fmt.Sprintf("%s: delete failed (-1): %s", table, storageMessage(err))
	}
	if count.IsAnomaly() {
		o.metrics.IngestStep(table, phaseDelete, metrics.OutcomeAnomaly)
		return fmt.Sprintf("%s: deleted %d rows (row count unavailable)", table, count.Int())
	}
	o.metrics.IngestStep(table, phaseDelete, metrics.OutcomeSuccess)
	return fmt.Sprintf("%s: deleted %d rows", table, count.Int())
}

func (o *ScheduleOrchestrator) sourcePath(w *repository.ScheduleWriter, opts IngestOptions) string {
	name := opts.Sources[w.ScheduleTable()]
	if name == "" {
		name = w.Table() + ".csv"
	}
	return o.files.Resolve(name)
}

// loadFile checks, stats and bulk-loads one table's source file. The file
// is closed on every path.
func (o *ScheduleOrchestrator) loadFile(ctx context.Context, w *repository.ScheduleWriter, path string) string {
	table := w.Table()

	exists, err := o.files.Exists(path)
	if err != nil {
		o.logger.Error().Err(err).Str("table", table).Str("path", path).Msg("schedule source check failed")
		o.metrics.IngestStep(table, phaseInsert, metrics.OutcomeFailure)
		return fmt.Sprintf("%s: insert failed (-1): %s", table, storageMessage(err))
	}
	if !exists {
		o.logger.Warn().Str("table", table).Str("path", path).Msg("schedule source file not found")
		o.metrics.IngestStep(table, phaseInsert, metrics.OutcomeMissing)
		return fmt.Sprintf("%s: File not found: %s", table, path)
	}

	count, err := o.loadOpened(ctx, w, path)
	if err != nil {
		o.logger.Error().Err(err).Str("table", table).Str("path", path).Msg("schedule file load failed")
		o.metrics.IngestStep(table, phaseInsert, metrics.OutcomeFailure)
		return fmt.Sprintf("%s: insert failed (-1): %s", table, storageMessage(err))
	}
	return o.insertMessage(table, count)
}

func (o *ScheduleOrchestrator) loadOpened(ctx context.Context, w *repository.ScheduleWriter, path string) (repository.RowCount, error) {
	st, err := o.files.Stat(path)
	if err != nil {
		return repository.Anomaly(nil), err
	}
	o.logger.Info().
		Str("table", w.Table()).
		Str("path", st.Path).
		Int64("size", st.Size).
		Time("mtime", st.ModTime).
		Time("ctime", st.ChangeTime).
		Str("owner", st.Owner).
		Str("group", st.Group).
		Str("mode", st.Mode.String()).
		Msg("loading schedule source")

	f, err := o.files.Open(path)
	if err != nil {
		return repository.Anomaly(nil), err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			o.logger.Warn().Err(cerr).Str("path", path).Msg("failed to close schedule source")
		}
	}()

	return w.Load(ctx, o.exec, f)
}

// insertRows writes explicit rows one at a time. The first failing row
// stops the table; rows before it stay written.
func (o *ScheduleOrchestrator) insertRows(ctx context.Context, w *repository.ScheduleWriter, rows []map[string]any) string {
	table := w.Table()
	if len(rows) == 0 {
		o.metrics.IngestStep(table, phaseInsert, metrics.OutcomeMissing)
		return fmt.Sprintf("%s: no rows supplied", table)
	}

	var inserted int64
	anomaly := false
	for i, row := range rows {
		count, err := repository.Insert[map[string]any](ctx, o.exec, w, row)
		if err != nil {
			o.logger.Error().Err(err).Str("table", table).Int("row", i+1).Msg("schedule row insert failed")
			o.metrics.IngestStep(table, phaseInsert, metrics.OutcomeFailure)
			return fmt.Sprintf("%s: insert failed (-1) at row %d after %d rows: %s",
				table, i+1, inserted, storageMessage(err))
		}
		if n, ok := count.Value(); ok {
			inserted += n
		} else {
			anomaly = true
		}
	}
	if anomaly {
		return o.insertMessage(table, repository.Anomaly(inserted))
	}
	return o.insertMessage(table, repository.Rows(inserted))
}

func (o *ScheduleOrchestrator) insertMessage(table string, count repository.RowCount) string {
	if count.IsAnomaly() {
		o.metrics.IngestStep(table, phaseInsert, metrics.OutcomeAnomaly)
		return fmt.Sprintf("%s: inserted %d rows (row count unavailable)", table, count.Int())
	}
	o.metrics.IngestStep(table, phaseInsert, metrics.OutcomeSuccess)
	return fmt.Sprintf("%s: inserted %d rows", table, count.Int())
}

// storageMessage is the client-facing text for a failed step. Driver and
// filesystem causes are only logged.
func storageMessage(err error) string {
	var storageErr *errs.StorageError
	if errors.As(err, &storageErr) {
		return storageErr.Message
	}
	return "Source file could not be read."
}
