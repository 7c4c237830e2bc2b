package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/database/dbtest"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/deppfellow/obsrecords/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackWriterShape(t *testing.T) {
	w := NewFeedbackWriter()

	assert.Equal(t, "Feedback", w.Entity())
	assert.Equal(t, "Feedback insert failed.", w.InsertFailure())
	assert.True(t, strings.HasPrefix(w.InsertQuery(), "INSERT INTO feedback (semester, program_id,"))
	assert.True(t, strings.HasSuffix(w.InsertQuery(), "$12, $13)"))

	params := w.InsertParams(&model.Feedback{Semester: "2024A"})
	assert.Len(t, params, len(w.InsertTypes()))
	assert.Equal(t, "2024A", params[0])
	assert.False(t, params[12].(time.Time).IsZero(), "created_at defaults to now")
}

func TestChildWriters(t *testing.T) {
	tests := []struct {
		writer  *ChildWriter
		query   string
		failure string
	}{
		{
			writer:  NewInstrumentUsageWriter(),
			query:   "INSERT INTO feedback_instrument (feedback_id, instrument_id) VALUES ($1, $2)",
			failure: "Instrument usage insert failed.",
		},
		{
			writer:  NewOperatorAssignmentWriter(),
			query:   "INSERT INTO feedback_operator (feedback_id, operator_id) VALUES ($1, $2)",
			failure: "Telescope operator insert failed.",
		},
		{
			writer:  NewSupportAssignmentWriter(),
			query:   "INSERT INTO feedback_support (feedback_id, support_id) VALUES ($1, $2)",
			failure: "Support astronomer insert failed.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.writer.Table(), func(t *testing.T) {
			assert.Equal(t, tt.query, tt.writer.InsertQuery())
			assert.Equal(t, tt.failure, tt.writer.InsertFailure())
			assert.Equal(t, []any{int64(9), "X"}, tt.writer.InsertParams(model.ChildRow{ParentID: 9, EntityID: "X"}))
		})
	}
}

func TestFeedbackReaderFindByID(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	fake := dbtest.New()
	fake.Rows = func(c dbtest.Call) []database.Row {
		switch {
		case strings.Contains(c.Query, "FROM feedback WHERE"):
			return []database.Row{{
				"id":                int64(42),
				"semester":          "2024A",
				"program_id":        "P-7",
				"pi_name":           "Ada",
				"pi_email":          "ada@example.org",
				"start_date":        start,
				"end_date":          "2024-03-04",
				"technical_rating":  int16(4),
				"scientific_rating": int64(5),
				"overall_rating":    int32(3),
				"created_at":        start,
			}}
		case strings.Contains(c.Query, "feedback_operator"):
			return []database.Row{{"operator_id": "OP1"}, {"operator_id": "OP2"}}
		default:
			return nil
		}
	}
	reader := NewFeedbackReader(newTestExecutor(fake))

	detail, err := reader.FindByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), detail.ID)
	assert.Equal(t, 4, detail.TechnicalRating)
	assert.Equal(t, 3, detail.OverallRating)
	assert.Equal(t, "2024-03-04", detail.EndDate.Format(time.DateOnly))
	assert.Equal(t, []string{"OP1", "OP2"}, detail.OperatorIDs)
	assert.Empty(t, detail.InstrumentIDs)
	assert.Equal(t, 4, fake.Count(dbtest.OpSelect))
}

func TestFeedbackReaderNotFound(t *testing.T) {
	reader := NewFeedbackReader(newTestExecutor(dbtest.New()))

	_, err := reader.FindByID(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, "Feedback 7 not found.", err.Error())
}

func TestFeedbackReaderListOrder(t *testing.T) {
	fake := dbtest.New()
	reader := NewFeedbackReader(newTestExecutor(fake))

	_, err := reader.List(context.Background(), "2024A", false)
	require.NoError(t, err)
	_, err = reader.List(context.Background(), "", true)
	require.NoError(t, err)

	require.Len(t, fake.Calls, 2)
	assert.Contains(t, fake.Calls[0].Query, "WHERE semester = $1 ORDER BY created_at DESC, id DESC")
	assert.Equal(t, []any{"2024A"}, fake.Calls[0].Args)
	assert.Contains(t, fake.Calls[1].Query, "ORDER BY created_at ASC, id ASC")
	assert.NotContains(t, fake.Calls[1].Query, "WHERE")
}
