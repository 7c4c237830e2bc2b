// Package server holds the application container: configuration, loggers,
// the records database, Redis, the notification worker, Prometheus metrics
// and the HTTP server, along with their start and shutdown logic.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/obsrecords/internal/config"
	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/deppfellow/obsrecords/internal/lib/job"
	"github.com/deppfellow/obsrecords/internal/metrics"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/obsrecords/internal/logger"
)

// Server is the dependency container shared by services, handlers and
// middleware. It is not the http.Server itself.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database
	Redis         *redis.Client
	Job           *job.JobService
	Metrics       *metrics.Metrics
	httpServer    *http.Server
}

// New opens the database, connects Redis and starts the notification
// worker. An unreachable Redis is logged but does not stop startup; feedback
// is still recorded, only the acknowledgement email is lost.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})
	if loggerService != nil && loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without Redis")
	}

	jobService := job.NewJobService(logger, cfg)
	jobService.InitHandlers(cfg, logger)
	if err := jobService.Start(); err != nil {
		return nil, err
	}

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Job:           jobService,
		Metrics:       metrics.New(),
	}, nil
}

// SetupHTTPServer binds handler to the configured port and timeouts.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("database", s.Config.Database.Driver).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then stops the worker and closes
// Redis and the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}

	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}
