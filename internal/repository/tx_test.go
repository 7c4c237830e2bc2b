package repository

import (
	"context"
	"testing"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/database/dbtest"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTx(fake *dbtest.FakeDriver) *TxManager {
	logger := zerolog.Nop()
	return NewTxManager(fake, &logger)
}

func TestTxManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := dbtest.New()
	tx := newTestTx(fake)

	assert.Equal(t, TxClosed, tx.State())

	require.NoError(t, tx.Begin(ctx))
	assert.Equal(t, TxOpen, tx.State())

	err := tx.Begin(ctx)
	require.ErrorIs(t, err, errs.ErrStorage)
	assert.ErrorIs(t, err, database.ErrTxOpen)

	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, TxCommitted, tx.State())

	require.NoError(t, tx.Begin(ctx))
	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, TxRolledBack, tx.State())

	assert.Equal(t, []string{
		dbtest.OpBegin, dbtest.OpCommit, dbtest.OpBegin, dbtest.OpRollback,
	}, fake.Ops())
}

func TestTxManagerRequiresOpenTransaction(t *testing.T) {
	ctx := context.Background()
	fake := dbtest.New()
	tx := newTestTx(fake)

	err := tx.Commit(ctx)
	require.ErrorIs(t, err, database.ErrNoTx)
	err = tx.Rollback(ctx)
	require.ErrorIs(t, err, database.ErrNoTx)
	assert.Empty(t, fake.Calls)
}

func TestTxManagerFailedCommit(t *testing.T) {
	ctx := context.Background()
	fake := dbtest.New()
	fake.Fail = func(c dbtest.Call) error {
		if c.Op == dbtest.OpCommit {
			return dbtest.ErrDriver
		}
		return nil
	}
	tx := newTestTx(fake)

	require.NoError(t, tx.Begin(ctx))
	err := tx.Commit(ctx)
	require.Error(t, err)
	assert.Equal(t, "Failed to commit transaction.", err.Error())
	assert.Equal(t, TxRolledBack, tx.State())
}
