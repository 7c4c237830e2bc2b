// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue: the API enqueues tasks with
// asynq.Client and the worker side (asynq.Server) runs their handlers.
package job

import (
	"context"

	"github.com/deppfellow/obsrecords/internal/config"
	"github.com/deppfellow/obsrecords/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Mailer sends the emails produced by job handlers.
type Mailer interface {
	SendFeedbackReceivedEmail(msg email.FeedbackReceived) error
}

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger
	mailer Mailer
}

// NewJobService creates a JobService configured to use Redis from cfg.
//
// Queue weights give "critical" tasks the largest worker share.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisAddr := cfg.Redis.Address

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
	}
}

// InitHandlers wires the dependencies used by task handlers.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.mailer = email.NewClient(cfg, logger)
}

// Enqueue pushes a task. It satisfies the services' notification queue.
func (j *JobService) Enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}
	j.logger.Debug().Str("task_id", info.ID).Str("type", task.Type()).Msg("task enqueued")
	return nil
}

// Mux routes task types to their handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFeedbackReceived, j.handleFeedbackReceivedTask)
	return mux
}

// Start starts the background worker server. It does not block.
func (j *JobService) Start() error {
	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(j.Mux()); err != nil {
		return err
	}

	return nil
}

// Stop waits for running tasks, then closes the enqueue client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}
