package repository

import (
	"context"
	"fmt"
	"io"

	"github.com/deppfellow/obsrecords/internal/model"
)

// ScheduleWriter deletes and (re)loads one schedule table by semester.
type ScheduleWriter struct {
	tableShape
	deleteFailure string
	loadFailure   string
}

func newScheduleWriter(table model.ScheduleTable, entity string, columns []string, types []ParamType) *ScheduleWriter {
	return &ScheduleWriter{
		tableShape: tableShape{
			entity:  entity,
			table:   string(table),
			columns: columns,
			types:   types,
		},
		deleteFailure: entity + " delete failed.",
		loadFailure:   entity + " file load failed.",
	}
}

// ScheduleWriters returns one writer per schedule table in processing order.
func ScheduleWriters() []*ScheduleWriter {
	return []*ScheduleWriter{
		newScheduleWriter(model.TableSchedule, "Schedule",
			[]string{"semester", "night_date", "program_id", "block", "notes"},
			[]ParamType{TypeString, TypeDate, TypeString, TypeString, TypeString}),
		newScheduleWriter(model.TableInstrument, "Instrument schedule",
			[]string{"semester", "night_date", "instrument_id"},
			[]ParamType{TypeString, TypeDate, TypeString}),
		newScheduleWriter(model.TableOperator, "Operator schedule",
			[]string{"semester", "night_date", "operator_id"},
			[]ParamType{TypeString, TypeDate, TypeString}),
		newScheduleWriter(model.TableProgram, "Program",
			[]string{"semester", "program_id", "pi_name", "pi_email", "title"},
			[]ParamType{TypeString, TypeString, TypeString, TypeString, TypeString}),
		newScheduleWriter(model.TableEngProgram, "Engineering program",
			[]string{"semester", "program_id", "title"},
			[]ParamType{TypeString, TypeString, TypeString}),
	}
}

func (w *ScheduleWriter) ScheduleTable() model.ScheduleTable {
	return model.ScheduleTable(w.table)
}

func (w *ScheduleWriter) DeleteQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE semester = $1", w.table)
}

// InsertParams orders a row's values by the table's columns. Absent
// columns bind as NULL.
func (w *ScheduleWriter) InsertParams(row map[string]any) []any {
	params := make([]any, len(w.columns))
	for i, col := range w.columns {
		params[i] = row[col]
	}
	return params
}

// Delete removes every row of semester. Zero affected rows is not an error.
func (w *ScheduleWriter) Delete(ctx context.Context, exec *Executor, semester string) (RowCount, error) {
	return exec.ModifyRows(ctx, Query{
		SQL:          w.DeleteQuery(),
		Params:       []any{semester},
		Types:        []ParamType{TypeString},
		ErrorMessage: w.deleteFailure,
	})
}

// Load bulk-loads a CSV document whose header names the table's columns.
func (w *ScheduleWriter) Load(ctx context.Context, exec *Executor, src io.Reader) (RowCount, error) {
	return exec.BulkLoad(ctx, BulkSource{
		Table:        w.table,
		Columns:      w.columns,
		Reader:       src,
		ErrorMessage: w.loadFailure,
	})
}
