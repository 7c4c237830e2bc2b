package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/deppfellow/obsrecords/internal/database/dbtest"
	"github.com/deppfellow/obsrecords/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleWritersOrder(t *testing.T) {
	writers := ScheduleWriters()
	require.Len(t, writers, len(model.ScheduleTables))
	for i, w := range writers {
		assert.Equal(t, model.ScheduleTables[i], w.ScheduleTable())
		assert.Equal(t, "DELETE FROM "+w.Table()+" WHERE semester = $1", w.DeleteQuery())
		assert.Equal(t, "semester", w.Columns()[0])
	}
}

func TestScheduleWriterInsertParams(t *testing.T) {
	w := NewRepositories().ScheduleWriter(model.TableProgram)
	require.NotNil(t, w)

	params := w.InsertParams(map[string]any{
		"semester":   "2024A",
		"program_id": "P1",
		"title":      "Dark skies",
		"ignored":    "x",
	})
	assert.Equal(t, []any{"2024A", "P1", nil, nil, "Dark skies"}, params)
}

func TestScheduleWriterDeleteAndLoad(t *testing.T) {
	ctx := context.Background()
	fake := dbtest.New()
	exec := newTestExecutor(fake)
	w := NewRepositories().ScheduleWriter(model.TableEngProgram)

	_, err := w.Delete(ctx, exec, "2024A")
	require.NoError(t, err)

	count, err := w.Load(ctx, exec, strings.NewReader("semester,program_id,title\n2024A,E1,Focus\n"))
	require.NoError(t, err)
	n, ok := count.Value()
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, []string{dbtest.OpUpdate, dbtest.OpBulkLoad}, fake.Ops())
	assert.Equal(t, "semester,program_id,title", fake.Calls[1].Query)
}

func TestRepositoriesUnknownScheduleTable(t *testing.T) {
	assert.Nil(t, NewRepositories().ScheduleWriter("nightlog"))
}
