package repository

import (
	"context"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/rs/zerolog"
)

// TxState is the lifecycle position of a TxManager.
type TxState int

const (
	TxClosed TxState = iota
	TxOpen
	TxCommitted
	TxRolledBack
)

func (s TxState) String() string {
	switch s {
	case TxOpen:
		return "open"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled back"
	default:
		return "closed"
	}
}

// TxManager tracks one transaction at a time on a driver.
//
// Committed and RolledBack behave like Closed for the next Begin. The
// manager never decides between commit and rollback; its caller does.
type TxManager struct {
	driver database.Driver
	logger *zerolog.Logger
	state  TxState
}

func NewTxManager(driver database.Driver, logger *zerolog.Logger) *TxManager {
	return &TxManager{
		driver: driver,
		logger: logger,
	}
}

// State reports whether a transaction is open. The orchestrator only rolls
// back an open one.
func (m *TxManager) State() TxState {
	return m.state
}

// Begin opens a transaction. Nesting is not supported.
func (m *TxManager) Begin(ctx context.Context) error {
	if m.state == TxOpen {
		return errs.NewStorageError("A transaction is already open.", database.ErrTxOpen)
	}
	if err := m.driver.Begin(ctx); err != nil {
		m.logger.Error().Err(err).Msg("failed to begin transaction")
		return errs.NewStorageError("Failed to begin transaction.", err)
	}
	m.state = TxOpen
	return nil
}

// Commit finalizes every write since Begin.
//
// A failed commit leaves nothing applied, so the manager moves to RolledBack.
func (m *TxManager) Commit(ctx context.Context) error {
	if m.state != TxOpen {
		return errs.NewStorageError("No open transaction to commit.", database.ErrNoTx)
	}
	if err := m.driver.Commit(ctx); err != nil {
		m.state = TxRolledBack
		m.logger.Error().Err(err).Msg("failed to commit transaction")
		return errs.NewStorageError("Failed to commit transaction.", err)
	}
	m.state = TxCommitted
	return nil
}

// Rollback reverts every write since Begin.
func (m *TxManager) Rollback(ctx context.Context) error {
	if m.state != TxOpen {
		return errs.NewStorageError("No open transaction to roll back.", database.ErrNoTx)
	}
	m.state = TxRolledBack
	if err := m.driver.Rollback(ctx); err != nil {
		m.logger.Error().Err(err).Msg("failed to roll back transaction")
		return errs.NewStorageError("Failed to roll back transaction.", err)
	}
	return nil
}
