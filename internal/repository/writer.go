package repository

import (
	"context"
	"fmt"
	"strings"
)

// RecordWriter builds the insert for exactly one table.
type RecordWriter[T any] interface {
	// Entity names the record in messages, e.g. "Feedback".
	Entity() string
	InsertQuery() string
	InsertParams(v T) []any
	InsertTypes() []ParamType
	// InsertFailure is the StorageError message of a failed insert.
	InsertFailure() string
}

// Insert writes v through w, expecting exactly one affected row.
func Insert[T any](ctx context.Context, exec *Executor, w RecordWriter[T], v T) (RowCount, error) {
	return exec.ModifyRows(ctx, Query{
		SQL:          w.InsertQuery(),
		Params:       w.InsertParams(v),
		Types:        w.InsertTypes(),
		ExpectRows:   ExpectRows(1),
		ErrorMessage: w.InsertFailure(),
	})
}

// tableShape carries the parts of a writer that only depend on the table.
type tableShape struct {
	entity  string
	table   string
	columns []string
	types   []ParamType
	failure string
}

func (t tableShape) Entity() string           { return t.entity }
func (t tableShape) Table() string            { return t.table }
func (t tableShape) Columns() []string        { return t.columns }
func (t tableShape) InsertTypes() []ParamType { return t.types }

func (t tableShape) InsertFailure() string {
	if t.failure != "" {
		return t.failure
	}
	return t.entity + " insert failed."
}

func (t tableShape) InsertQuery() string {
	marks := make([]string, len(t.columns))
	for i := range t.columns {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.table, strings.Join(t.columns, ", "), strings.Join(marks, ", "))
}
