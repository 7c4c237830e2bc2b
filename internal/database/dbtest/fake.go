// Package dbtest provides a recording fake Driver for persistence tests.
package dbtest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/deppfellow/obsrecords/internal/database"
)

// Operation names recorded in Call.Op.
const (
	OpSelect       = "select"
	OpUpdate       = "update"
	OpBegin        = "begin"
	OpCommit       = "commit"
	OpRollback     = "rollback"
	OpLastInsertID = "last_insert_id"
	OpBulkLoad     = "bulk_load"
)

// Call is one recorded driver call.
type Call struct {
	Op    string
	Query string
	Args  []any
	Table string
}

// Result is a configurable database.Result.
type Result struct {
	N   int64
	Err error
}

func (r Result) RowsAffected() (int64, error) { return r.N, r.Err }

// FakeDriver records every call and answers from hooks.
//
// Without hooks, updates affect one row, selects return nothing, bulk loads
// report the number of non-header lines read and LastInsertID counts up
// from NextID.
type FakeDriver struct {
	Calls []Call

	// Fail makes the call fail when it returns a non-nil error.
	Fail func(c Call) error

	// Rows answers Select calls.
	Rows func(c Call) []database.Row

	// Affected overrides the Result of Update and BulkLoad calls.
	Affected func(c Call) database.Result

	NextID int64

	Released bool
	txOpen   bool
}

var _ database.Session = (*FakeDriver)(nil)

// New returns a FakeDriver whose first generated id is 1.
func New() *FakeDriver {
	return &FakeDriver{NextID: 1}
}

func (f *FakeDriver) record(c Call) error {
	f.Calls = append(f.Calls, c)
	if f.Fail != nil {
		return f.Fail(c)
	}
	return nil
}

func (f *FakeDriver) Select(_ context.Context, query string, args ...any) ([]database.Row, error) {
	c := Call{Op: OpSelect, Query: query, Args: args}
	if err := f.record(c); err != nil {
		return nil, err
	}
	if f.Rows == nil {
		return nil, nil
	}
	return f.Rows(c), nil
}

func (f *FakeDriver) Update(_ context.Context, query string, args ...any) (database.Result, error) {
	c := Call{Op: OpUpdate, Query: query, Args: args}
	if err := f.record(c); err != nil {
		return nil, err
	}
	if f.Affected != nil {
		return f.Affected(c), nil
	}
	return Result{N: 1}, nil
}

func (f *FakeDriver) Begin(context.Context) error {
	if f.txOpen {
		return database.ErrTxOpen
	}
	if err := f.record(Call{Op: OpBegin}); err != nil {
		return err
	}
	f.txOpen = true
	return nil
}

func (f *FakeDriver) Commit(context.Context) error {
	if !f.txOpen {
		return database.ErrNoTx
	}
	f.txOpen = false
	return f.record(Call{Op: OpCommit})
}

func (f *FakeDriver) Rollback(context.Context) error {
	if !f.txOpen {
		return database.ErrNoTx
	}
	f.txOpen = false
	return f.record(Call{Op: OpRollback})
}

func (f *FakeDriver) LastInsertID(context.Context) (int64, error) {
	if err := f.record(Call{Op: OpLastInsertID}); err != nil {
		return 0, err
	}
	id := f.NextID
	f.NextID++
	return id, nil
}

func (f *FakeDriver) BulkLoad(_ context.Context, table string, columns []string, src io.Reader) (database.Result, error) {
	c := Call{Op: OpBulkLoad, Table: table, Query: strings.Join(columns, ",")}
	if err := f.record(c); err != nil {
		return nil, err
	}
	var lines int64
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			lines++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if f.Affected != nil {
		return f.Affected(c), nil
	}
	return Result{N: max(lines-1, 0)}, nil
}

func (f *FakeDriver) Release() {
	f.Released = true
	f.txOpen = false
}

// Ops lists the recorded operation names in call order.
func (f *FakeDriver) Ops() []string {
	ops := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many calls of op were recorded.
func (f *FakeDriver) Count(op string) int {
	n := 0
	for _, c := range f.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Updates returns the recorded Update calls whose SQL contains substr.
func (f *FakeDriver) Updates(substr string) []Call {
	var out []Call
	for _, c := range f.Calls {
		if c.Op == OpUpdate && strings.Contains(c.Query, substr) {
			out = append(out, c)
		}
	}
	return out
}

// FailNth builds a Fail hook that fails the nth (1-based) Update whose SQL
// contains substr.
func FailNth(substr string, n int, err error) func(Call) error {
	seen := 0
	return func(c Call) error {
		if c.Op != OpUpdate || !strings.Contains(c.Query, substr) {
			return nil
		}
		seen++
		if seen == n {
			return err
		}
		return nil
	}
}

// ErrDriver is a generic driver fault for tests.
var ErrDriver = errors.New("driver fault")
