package main

import (
	"github.com/deppfellow/obsrecords/internal/config"
	"github.com/deppfellow/obsrecords/internal/logger"
	"github.com/rs/zerolog"
)

// runtime is what every command needs before touching the database.
type runtime struct {
	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	return &runtime{
		cfg:           cfg,
		log:           logger.NewLoggerWithService(cfg.Observability, loggerService),
		loggerService: loggerService,
	}, nil
}

func (rt *runtime) close() {
	rt.loggerService.Shutdown()
}
