package service

import (
	"context"

	"github.com/deppfellow/obsrecords/internal/config"
	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/deppfellow/obsrecords/internal/lib/files"
	"github.com/deppfellow/obsrecords/internal/metrics"
	"github.com/deppfellow/obsrecords/internal/model"
	"github.com/deppfellow/obsrecords/internal/repository"
	"github.com/rs/zerolog"
)

// ScheduleService runs schedule ingestion on a per-request session.
type ScheduleService struct {
	sessions database.SessionSource
	repos    *repository.Repositories
	files    *files.Source
	defaults map[model.ScheduleTable]string
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
}

func NewScheduleService(
	sessions database.SessionSource,
	repos *repository.Repositories,
	source *files.Source,
	ingest config.IngestConfig,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *ScheduleService {
	defaults := make(map[model.ScheduleTable]string)
	for table, name := range ingest.Files() {
		if name != "" {
			defaults[model.ScheduleTable(table)] = name
		}
	}
	return &ScheduleService{
		sessions: sessions,
		repos:    repos,
		files:    source,
		defaults: defaults,
		metrics:  m,
		logger:   logger,
	}
}

// Ingest deletes and reloads the schedule tables for opts.Semester.
// Source files not named in opts fall back to the configured ones.
func (s *ScheduleService) Ingest(ctx context.Context, opts IngestOptions) (model.IngestResult, error) {
	sources := make(map[model.ScheduleTable]string, len(s.defaults)+len(opts.Sources))
	for table, name := range s.defaults {
		sources[table] = name
	}
	for table, name := range opts.Sources {
		sources[table] = name
	}
	opts.Sources = sources

	logger := requestLogger(ctx, s.logger)

	session, err := s.sessions.Session(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to acquire database session")
		return nil, errs.NewStorageError("Failed to acquire database session.", err)
	}
	defer session.Release()

	orchestrator := NewScheduleOrchestrator(
		repository.NewExecutor(session, logger),
		s.repos.Schedule,
		s.files,
		s.metrics,
		logger,
	)

	result, err := orchestrator.IngestSchedule(ctx, opts)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("semester", opts.Semester).
		Bool("file_load", opts.FileLoad).
		Strs("messages", result).
		Msg("schedule ingestion finished")
	return result, nil
}
