// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives validated
// data from the handler, acquires a database session per request and runs
// the write orchestrators over the repository writers.
package service

import (
	"context"

	"github.com/deppfellow/obsrecords/internal/lib/files"
	"github.com/deppfellow/obsrecords/internal/lib/job"
	"github.com/deppfellow/obsrecords/internal/repository"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/rs/zerolog"
)

// Services is the service container handed to the handlers.
type Services struct {
	Auth     *AuthService
	Job      *job.JobService
	Feedback *FeedbackService
	Schedule *ScheduleService
}

// NewService builds every service from the server container.
// Acknowledgement emails are only queued when both Redis and Resend are
// configured.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	authService := NewAuthService(s)

	// Acknowledgements need both the queue and an email provider.
	var queue Enqueuer
	if s.Job != nil && s.Config.Integration.ResendAPIKey != "" {
		queue = s.Job
	}

	feedbackService := NewFeedbackService(
		s.DB,
		repos,
		queue,
		s.Config.Integration.NotifyAddress,
		s.Metrics,
		s.Logger,
	)

	scheduleService := NewScheduleService(
		s.DB,
		repos,
		files.NewOSSource(s.Config.Ingest.SourceDir),
		s.Config.Ingest,
		s.Metrics,
		s.Logger,
	)

	return &Services{
		Job:      s.Job,
		Auth:     authService,
		Feedback: feedbackService,
		Schedule: scheduleService,
	}, nil
}

// requestLogger prefers the request-scoped logger stored on ctx by the HTTP
// middleware over the service's own.
func requestLogger(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return fallback
}
