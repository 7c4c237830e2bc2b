package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSession(t *testing.T) *database.SQLSession {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	session, err := database.NewSQLSession(ctx, db, database.SQLiteDialect)
	require.NoError(t, err)
	t.Cleanup(session.Release)
	return session
}

func TestSQLiteFeedbackRoundTrip(t *testing.T) {
	ctx := context.Background()
	session := openTestSession(t)
	exec := newTestExecutor(session)
	tx := NewTxManager(session, exec.logger)
	writers := DefaultFeedbackWriters()

	fb := &model.Feedback{
		Semester:           "2024A",
		ProgramID:          "P-7",
		PIName:             "Ada",
		PIEmail:            "ada@example.org",
		StartDate:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		TechnicalRating:    4,
		ScientificRating:   5,
		OverallRating:      4,
		TechnicalComments:  "Guider lost lock twice.",
		ScientificComments: "Got the spectra we needed.",
		Suggestions:        "More coffee.",
		CreatedAt:          time.Date(2024, 3, 5, 9, 30, 15, 0, time.UTC),
	}

	require.NoError(t, tx.Begin(ctx))
	_, err := Insert(ctx, exec, writers.Feedback, fb)
	require.NoError(t, err)
	id, err := exec.LastInsertID(ctx, "")
	require.NoError(t, err)
	for _, instrument := range []string{"NIRSPEC", "HIRES"} {
		_, err = Insert(ctx, exec, writers.Instruments, model.ChildRow{ParentID: id, EntityID: instrument})
		require.NoError(t, err)
	}
	_, err = Insert(ctx, exec, writers.Supports, model.ChildRow{ParentID: id, EntityID: "SA1"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	detail, err := NewFeedbackReader(exec).FindByID(ctx, id)
	require.NoError(t, err)

	want := *fb
	want.ID = id
	assertSameFeedback(t, want, detail.Feedback)

	// Child ids come back sorted, not in insertion order.
	assert.Equal(t, []string{"HIRES", "NIRSPEC"}, detail.InstrumentIDs)
	assert.Empty(t, detail.OperatorIDs)
	assert.Equal(t, []string{"SA1"}, detail.SupportIDs)
}

// assertSameFeedback compares every field, the time fields by instant since
// the store may hand them back in another location.
func assertSameFeedback(t *testing.T, want, got model.Feedback) {
	t.Helper()
	times := []struct {
		name      string
		want, got *time.Time
	}{
		{"start_date", &want.StartDate, &got.StartDate},
		{"end_date", &want.EndDate, &got.EndDate},
		{"created_at", &want.CreatedAt, &got.CreatedAt},
	}
	for _, tm := range times {
		assert.True(t, tm.want.Equal(*tm.got), "%s: want %s, got %s", tm.name, *tm.want, *tm.got)
		*tm.want, *tm.got = time.Time{}, time.Time{}
	}
	assert.Equal(t, want, got)
}

func TestSQLiteRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	session := openTestSession(t)
	exec := newTestExecutor(session)
	tx := NewTxManager(session, exec.logger)

	require.NoError(t, tx.Begin(ctx))
	_, err := Insert[*model.Feedback](ctx, exec, NewFeedbackWriter(), &model.Feedback{
		Semester: "2024A", ProgramID: "P", PIName: "n", PIEmail: "e",
		StartDate: time.Now(), EndDate: time.Now(),
		TechnicalRating: 1, ScientificRating: 1, OverallRating: 1,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	list, err := NewFeedbackReader(exec).List(ctx, "2024A", true)
	require.NoError(t, err)
	assert.Empty(t, list)
}
