package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/deppfellow/obsrecords/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []email.FeedbackReceived
	err  error
}

func (m *recordingMailer) SendFeedbackReceivedEmail(msg email.FeedbackReceived) error {
	m.sent = append(m.sent, msg)
	return m.err
}

func newTestJobService(m Mailer) *JobService {
	logger := zerolog.Nop()
	return &JobService{logger: &logger, mailer: m}
}

func TestNewFeedbackReceivedTask(t *testing.T) {
	task, err := NewFeedbackReceivedTask(FeedbackReceivedPayload{
		To: "pi@example.org", FeedbackID: 7, ProgramID: "U1", Semester: "2024A", PIName: "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, TaskFeedbackReceived, task.Type())

	var p FeedbackReceivedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, int64(7), p.FeedbackID)
	assert.Empty(t, p.Bcc)
}

func TestHandleFeedbackReceivedTask(t *testing.T) {
	mailer := &recordingMailer{}
	j := newTestJobService(mailer)

	task, err := NewFeedbackReceivedTask(FeedbackReceivedPayload{
		To: "pi@example.org", Bcc: "ops@example.org", FeedbackID: 3, ProgramID: "U1",
	})
	require.NoError(t, err)

	require.NoError(t, j.handleFeedbackReceivedTask(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ops@example.org", mailer.sent[0].Bcc)
	assert.Equal(t, int64(3), mailer.sent[0].FeedbackID)
}

func TestHandleFeedbackReceivedTaskErrors(t *testing.T) {
	ctx := context.Background()

	bad := asynq.NewTask(TaskFeedbackReceived, []byte("{"))
	assert.Error(t, newTestJobService(&recordingMailer{}).handleFeedbackReceivedTask(ctx, bad))

	task, err := NewFeedbackReceivedTask(FeedbackReceivedPayload{To: "pi@example.org"})
	require.NoError(t, err)

	sendErr := errors.New("resend down")
	assert.ErrorIs(t, newTestJobService(&recordingMailer{err: sendErr}).handleFeedbackReceivedTask(ctx, task), sendErr)
	assert.Error(t, newTestJobService(nil).handleFeedbackReceivedTask(ctx, task))
}
