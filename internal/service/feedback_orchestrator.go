package service

import (
	"context"
	"errors"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/deppfellow/obsrecords/internal/model"
	"github.com/deppfellow/obsrecords/internal/repository"
	"github.com/rs/zerolog"
)

const transactionFailedPrefix = "Transaction failed: "

// FeedbackOrchestrator writes a feedback form and all of its dependent rows
// in one transaction. Either everything commits or nothing does.
type FeedbackOrchestrator struct {
	exec    *repository.Executor
	tx      *repository.TxManager
	writers repository.FeedbackWriters
	logger  *zerolog.Logger
}

// NewFeedbackOrchestrator binds the writers to exec and tx, which must
// share one session so the writes fall inside the transaction.
func NewFeedbackOrchestrator(
	exec *repository.Executor,
	tx *repository.TxManager,
	writers repository.FeedbackWriters,
	logger *zerolog.Logger,
) *FeedbackOrchestrator {
	return &FeedbackOrchestrator{
		exec:    exec,
		tx:      tx,
		writers: writers,
		logger:  logger,
	}
}

// NewDefaultFeedbackOrchestrator builds an orchestrator with the standard
// writers and its own executor and transaction manager on driver.
func NewDefaultFeedbackOrchestrator(driver database.Driver, logger *zerolog.Logger) *FeedbackOrchestrator {
	return NewFeedbackOrchestrator(
		repository.NewExecutor(driver, logger),
		repository.NewTxManager(driver, logger),
		repository.DefaultFeedbackWriters(),
		logger,
	)
}

// InsertFeedbackWithDependencies inserts fb, reads back its generated id and
// inserts the instrument, operator and support rows in that order.
//
// On success the transaction is committed, fb.ID is set and true is
// returned. On any failure the transaction is rolled back once and a
// StorageError reading "Transaction failed: <cause>" is returned with false.
func (o *FeedbackOrchestrator) InsertFeedbackWithDependencies(
	ctx context.Context,
	fb *model.Feedback,
	instrumentIDs, operatorIDs, supportIDs []string,
) (bool, error) {
	if err := o.tx.Begin(ctx); err != nil {
		return false, o.fail(ctx, err)
	}

	id, err := o.writeAll(ctx, fb, instrumentIDs, operatorIDs, supportIDs)
	if err != nil {
		return false, o.fail(ctx, err)
	}

	if err := o.tx.Commit(ctx); err != nil {
		return false, o.fail(ctx, err)
	}

	fb.ID = id
	o.logger.Info().
		Int64("feedback_id", id).
		Int("instruments", len(instrumentIDs)).
		Int("operators", len(operatorIDs)).
		Int("supports", len(supportIDs)).
		Msg("feedback committed")
	return true, nil
}

func (o *FeedbackOrchestrator) writeAll(
	ctx context.Context,
	fb *model.Feedback,
	instrumentIDs, operatorIDs, supportIDs []string,
) (int64, error) {
	if o.writers.Feedback == nil {
		return 0, o.missingWriter("Feedback")
	}
	if fb == nil {
		return 0, errs.NewStorageError("Feedback record is required.", nil)
	}

	if _, err := repository.Insert(ctx, o.exec, o.writers.Feedback, fb); err != nil {
		return 0, err
	}
	id, err := o.exec.LastInsertID(ctx, "Failed to retrieve feedback id.")
	if err != nil {
		return 0, err
	}

	children := []struct {
		name   string
		writer repository.RecordWriter[model.ChildRow]
		ids    []string
	}{
		{"InstrumentUsage", o.writers.Instruments, instrumentIDs},
		{"OperatorAssignment", o.writers.Operators, operatorIDs},
		{"SupportAssignment", o.writers.Supports, supportIDs},
	}
	for _, c := range children {
		if len(c.ids) == 0 {
			continue
		}
		if c.writer == nil {
			return 0, o.missingWriter(c.name)
		}
		for _, entityID := range c.ids {
			row := model.ChildRow{ParentID: id, EntityID: entityID}
			if _, err := repository.Insert(ctx, o.exec, c.writer, row); err != nil {
				return 0, err
			}
		}
	}
	return id, nil
}

func (o *FeedbackOrchestrator) missingWriter(entity string) error {
	msg := entity + "Write is required for insert operations."
	o.logger.Error().Str("entity", entity).Msg(msg)
	return errs.NewStorageError(msg, nil)
}

// fail logs the cause and its wrapped form, rolls back an open transaction
// and returns the wrapped StorageError.
func (o *FeedbackOrchestrator) fail(ctx context.Context, cause error) error {
	msg := cause.Error()
	var storageErr *errs.StorageError
	if errors.As(cause, &storageErr) {
		msg = storageErr.Message
	}

	o.logger.Error().Err(errors.Unwrap(cause)).Msg(msg)
	wrapped := transactionFailedPrefix + msg
	o.logger.Error().Msg(wrapped)

	if o.tx.State() == repository.TxOpen {
		if err := o.tx.Rollback(ctx); err != nil {
			o.logger.Error().Err(err).Msg("rollback after failed feedback write")
		}
	}
	return errs.NewStorageError(wrapped, cause)
}
