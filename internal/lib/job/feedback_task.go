package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskFeedbackReceived is the task type stored in Redis.
	TaskFeedbackReceived = "email:feedback_received"
)

// FeedbackReceivedPayload is the JSON payload of a feedback acknowledgement.
type FeedbackReceivedPayload struct {
	To         string `json:"to"`
	Bcc        string `json:"bcc,omitempty"`
	FeedbackID int64  `json:"feedback_id"`
	ProgramID  string `json:"program_id"`
	Semester   string `json:"semester"`
	PIName     string `json:"pi_name"`
}

// NewFeedbackReceivedTask builds the acknowledgement task: up to 3 retries
// on the default queue, 30 seconds per attempt.
func NewFeedbackReceivedTask(p FeedbackReceivedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskFeedbackReceived,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
