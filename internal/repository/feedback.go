package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/deppfellow/obsrecords/internal/model"
)

var feedbackColumns = []string{
	"semester",
	"program_id",
	"pi_name",
	"pi_email",
	"start_date",
	"end_date",
	"technical_rating",
	"scientific_rating",
	"overall_rating",
	"technical_comments",
	"scientific_comments",
	"suggestions",
	"created_at",
}

// FeedbackWriter inserts the parent feedback row.
type FeedbackWriter struct {
	tableShape
}

func NewFeedbackWriter() *FeedbackWriter {
	return &FeedbackWriter{tableShape{
		entity:  "Feedback",
		table:   "feedback",
		columns: feedbackColumns,
		types: []ParamType{
			TypeString, TypeString, TypeString, TypeString,
			TypeDate, TypeDate,
			TypeInt, TypeInt, TypeInt,
			TypeString, TypeString, TypeString,
			TypeTimestamp,
		},
	}}
}

// InsertParams binds f in feedbackColumns order. A zero CreatedAt is
// stamped with the current UTC time; f itself is not modified.
func (w *FeedbackWriter) InsertParams(f *model.Feedback) []any {
	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return []any{
		f.Semester,
		f.ProgramID,
		f.PIName,
		f.PIEmail,
		f.StartDate,
		f.EndDate,
		f.TechnicalRating,
		f.ScientificRating,
		f.OverallRating,
		f.TechnicalComments,
		f.ScientificComments,
		f.Suggestions,
		createdAt,
	}
}

// ChildWriter inserts one {feedback_id, entity_id} link row. Inserting the
// same pair twice violates the table's primary key.
type ChildWriter struct {
	tableShape
}

func newChildWriter(entity, table, idColumn, failure string) *ChildWriter {
	return &ChildWriter{tableShape{
		entity:  entity,
		table:   table,
		columns: []string{"feedback_id", idColumn},
		types:   []ParamType{TypeInt, TypeString},
		failure: failure,
	}}
}

// NewInstrumentUsageWriter writes feedback_instrument rows.
func NewInstrumentUsageWriter() *ChildWriter {
	return newChildWriter("Instrument usage", "feedback_instrument", "instrument_id",
		"Instrument usage insert failed.")
}

func NewOperatorAssignmentWriter() *ChildWriter {
	return newChildWriter("Telescope operator", "feedback_operator", "operator_id",
		"Telescope operator insert failed.")
}

func NewSupportAssignmentWriter() *ChildWriter {
	return newChildWriter("Support astronomer", "feedback_support", "support_id",
		"Support astronomer insert failed.")
}

func (w *ChildWriter) InsertParams(r model.ChildRow) []any {
	return []any{r.ParentID, r.EntityID}
}

// FeedbackWriters groups the four writers a feedback submission needs.
// Feedback may be nil; the orchestrator refuses to write without it.
type FeedbackWriters struct {
	Feedback    RecordWriter[*model.Feedback]
	Instruments RecordWriter[model.ChildRow]
	Operators   RecordWriter[model.ChildRow]
	Supports    RecordWriter[model.ChildRow]
}

// DefaultFeedbackWriters returns the writers for the standard tables.
func DefaultFeedbackWriters() FeedbackWriters {
	return FeedbackWriters{
		Feedback:    NewFeedbackWriter(),
		Instruments: NewInstrumentUsageWriter(),
		Operators:   NewOperatorAssignmentWriter(),
		Supports:    NewSupportAssignmentWriter(),
	}
}

// FeedbackReader serves the read side of feedback records.
type FeedbackReader struct {
	exec *Executor
}

func NewFeedbackReader(exec *Executor) *FeedbackReader {
	return &FeedbackReader{exec: exec}
}

var feedbackSelect = "SELECT id, " + strings.Join(feedbackColumns, ", ") + " FROM feedback"

// FindByID loads one feedback record with its child id lists. A missing
// record is a StorageError wrapping errs.ErrNotFound.
//
// Child ids are sets (each table's key is feedback_id plus the entity id),
// so no submission order is stored; every list comes back sorted by id.
func (r *FeedbackReader) FindByID(ctx context.Context, id int64) (*model.FeedbackDetail, error) {
	row, err := r.exec.FetchOne(ctx, Query{
		SQL:          feedbackSelect + " WHERE id = $1",
		Params:       []any{id},
		Types:        []ParamType{TypeInt},
		EmptyMessage: fmt.Sprintf("Feedback %d not found.", id),
		ErrorMessage: "Failed to load feedback.",
	})
	if err != nil {
		return nil, err
	}

	f, err := decodeFeedback(row)
	if err != nil {
		return nil, errs.NewStorageError("Failed to load feedback.", err)
	}
	detail := &model.FeedbackDetail{Feedback: *f}

	children := []struct {
		table, column string
		dst           *[]string
	}{
		{"feedback_instrument", "instrument_id", &detail.InstrumentIDs},
		{"feedback_operator", "operator_id", &detail.OperatorIDs},
		{"feedback_support", "support_id", &detail.SupportIDs},
	}
	for _, c := range children {
		rows, err := r.exec.FetchRows(ctx, Query{
			SQL: fmt.Sprintf("SELECT %s FROM %s WHERE feedback_id = $1 ORDER BY %s",
				c.column, c.table, c.column),
			Params:       []any{id},
			Types:        []ParamType{TypeInt},
			ErrorMessage: "Failed to load feedback.",
		})
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, rowString(row, c.column))
		}
		*c.dst = ids
	}
	return detail, nil
}

// List returns the feedback of a semester (all semesters when empty),
// ordered by creation time.
func (r *FeedbackReader) List(ctx context.Context, semester string, ascending bool) ([]model.Feedback, error) {
	q := Query{ErrorMessage: "Failed to list feedback."}
	dir := r.exec.SortDirection(ascending)
	if semester == "" {
		q.SQL = fmt.Sprintf("%s ORDER BY created_at %s, id %s", feedbackSelect, dir, dir)
	} else {
		q.SQL = fmt.Sprintf("%s WHERE semester = $1 ORDER BY created_at %s, id %s", feedbackSelect, dir, dir)
		q.Params = []any{semester}
		q.Types = []ParamType{TypeString}
	}

	rows, err := r.exec.FetchRows(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]model.Feedback, 0, len(rows))
	for _, row := range rows {
		f, err := decodeFeedback(row)
		if err != nil {
			return nil, errs.NewStorageError("Failed to list feedback.", err)
		}
		out = append(out, *f)
	}
	return out, nil
}

func decodeFeedback(row database.Row) (*model.Feedback, error) {
	f := &model.Feedback{
		Semester:           rowString(row, "semester"),
		ProgramID:          rowString(row, "program_id"),
		PIName:             rowString(row, "pi_name"),
		PIEmail:            rowString(row, "pi_email"),
		TechnicalComments:  rowString(row, "technical_comments"),
		ScientificComments: rowString(row, "scientific_comments"),
		Suggestions:        rowString(row, "suggestions"),
	}

	var err error
	if f.ID, err = rowInt64(row, "id"); err != nil {
		return nil, err
	}
	ratings := []struct {
		col string
		dst *int
	}{
		{"technical_rating", &f.TechnicalRating},
		{"scientific_rating", &f.ScientificRating},
		{"overall_rating", &f.OverallRating},
	}
	for _, rt := range ratings {
		n, err := rowInt64(row, rt.col)
		if err != nil {
			return nil, err
		}
		*rt.dst = int(n)
	}
	if f.StartDate, err = rowTime(row, "start_date"); err != nil {
		return nil, err
	}
	if f.EndDate, err = rowTime(row, "end_date"); err != nil {
		return nil, err
	}
	if f.CreatedAt, err = rowTime(row, "created_at"); err != nil {
		return nil, err
	}
	return f, nil
}
