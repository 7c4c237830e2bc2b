package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/obsrecords/internal/lib/email"
	"github.com/hibiken/asynq"
)

// handleFeedbackReceivedTask sends the acknowledgement for one feedback form.
// A returned error makes Asynq schedule a retry.
func (j *JobService) handleFeedbackReceivedTask(ctx context.Context, t *asynq.Task) error {
	var p FeedbackReceivedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal feedback received payload: %w", err)
	}

	if j.mailer == nil {
		return fmt.Errorf("job handlers not initialized")
	}

	j.logger.Info().
		Str("type", "feedback_received").
		Int64("feedback_id", p.FeedbackID).
		Msg("Processing feedback received email task")

	err := j.mailer.SendFeedbackReceivedEmail(email.FeedbackReceived{
		To:         p.To,
		Bcc:        p.Bcc,
		FeedbackID: p.FeedbackID,
		ProgramID:  p.ProgramID,
		Semester:   p.Semester,
		PIName:     p.PIName,
	})
	if err != nil {
		j.logger.Error().
			Str("type", "feedback_received").
			Int64("feedback_id", p.FeedbackID).
			Err(err).
			Msg("Failed to send feedback received email")
		return err
	}

	j.logger.Info().
		Str("type", "feedback_received").
		Int64("feedback_id", p.FeedbackID).
		Msg("Successfully sent feedback received email")

	return nil
}
