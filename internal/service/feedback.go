package service

import (
	"context"
	"time"

	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/deppfellow/obsrecords/internal/lib/job"
	"github.com/deppfellow/obsrecords/internal/metrics"
	"github.com/deppfellow/obsrecords/internal/model"
	"github.com/deppfellow/obsrecords/internal/repository"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Enqueuer pushes background tasks. *job.JobService implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task) error
}

// FeedbackSubmission is a validated feedback form with its dependent ids.
type FeedbackSubmission struct {
	Feedback      model.Feedback
	InstrumentIDs []string
	OperatorIDs   []string
	SupportIDs    []string
}

// FeedbackService runs feedback reads and writes on a per-request session.
type FeedbackService struct {
	sessions      database.SessionSource
	repos         *repository.Repositories
	queue         Enqueuer
	notifyAddress string
	metrics       *metrics.Metrics
	logger        *zerolog.Logger
}

// NewFeedbackService wires the service. queue may be nil to disable
// acknowledgement emails.
func NewFeedbackService(
	sessions database.SessionSource,
	repos *repository.Repositories,
	queue Enqueuer,
	notifyAddress string,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *FeedbackService {
	return &FeedbackService{
		sessions:      sessions,
		repos:         repos,
		queue:         queue,
		notifyAddress: notifyAddress,
		metrics:       m,
		logger:        logger,
	}
}

func (s *FeedbackService) session(ctx context.Context) (database.Session, error) {
	session, err := s.sessions.Session(ctx)
	if err != nil {
		requestLogger(ctx, s.logger).Error().Err(err).Msg("failed to acquire database session")
		return nil, errs.NewStorageError("Failed to acquire database session.", err)
	}
	return session, nil
}

// Submit stores the form and its dependents atomically, then queues the
// acknowledgement email. A queueing failure is logged and does not undo
// the committed feedback.
func (s *FeedbackService) Submit(ctx context.Context, sub FeedbackSubmission) (*model.Feedback, error) {
	session, err := s.session(ctx)
	if err != nil {
		s.metrics.FeedbackSubmitted(metrics.OutcomeFailure)
		return nil, err
	}
	defer session.Release()

	fb := sub.Feedback
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	logger := requestLogger(ctx, s.logger)
	orchestrator := NewFeedbackOrchestrator(
		repository.NewExecutor(session, logger),
		repository.NewTxManager(session, logger),
		s.repos.Feedback,
		logger,
	)
	if _, err := orchestrator.InsertFeedbackWithDependencies(ctx, &fb,
		sub.InstrumentIDs, sub.OperatorIDs, sub.SupportIDs); err != nil {
		s.metrics.FeedbackSubmitted(metrics.OutcomeFailure)
		return nil, err
	}
	s.metrics.FeedbackSubmitted(metrics.OutcomeSuccess)

	s.notify(ctx, &fb)
	return &fb, nil
}

func (s *FeedbackService) notify(ctx context.Context, fb *model.Feedback) {
	if s.queue == nil || fb.PIEmail == "" {
		return
	}

	task, err := job.NewFeedbackReceivedTask(job.FeedbackReceivedPayload{
		To:         fb.PIEmail,
		Bcc:        s.notifyAddress,
		FeedbackID: fb.ID,
		ProgramID:  fb.ProgramID,
		Semester:   fb.Semester,
		PIName:     fb.PIName,
	})
	if err == nil {
		err = s.queue.Enqueue(ctx, task)
	}
	if err != nil {
		requestLogger(ctx, s.logger).Error().Err(err).Int64("feedback_id", fb.ID).Msg("failed to enqueue feedback received email")
	}
}

// Get loads one feedback form with its dependent ids.
func (s *FeedbackService) Get(ctx context.Context, id int64) (*model.FeedbackDetail, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	return repository.NewFeedbackReader(repository.NewExecutor(session, requestLogger(ctx, s.logger))).FindByID(ctx, id)
}

// List returns the feedback of a semester ordered by submission time.
func (s *FeedbackService) List(ctx context.Context, semester string, ascending bool) ([]model.Feedback, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	return repository.NewFeedbackReader(repository.NewExecutor(session, requestLogger(ctx, s.logger))).List(ctx, semester, ascending)
}
