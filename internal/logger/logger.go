// Package logger configures the application's logging,
// monitoring, and observability.
//
// It uses zerolog for logging and integrates with New Relic to
// forward logs and attach trace ids to request loggers.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/deppfellow/obsrecords/internal/config"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const timeFormat = "2006-01-02 15:04:05"

// LoggerService owns the New Relic application, if one is configured.
type LoggerService struct {
	nrApp *newrelic.Application
}

// NewLoggerService starts the New Relic agent. Without a license key the
// returned service holds no application and everything still works.
func NewLoggerService(cfg *config.ObservabilityConfig) *LoggerService {
	service := &LoggerService{}

	if cfg.NewRelic.LicenseKey == "" {
		fmt.Println("New Relic license key not provided, skipping initialization")
		return service
	}

	configOptions := []newrelic.ConfigOption{
		newrelic.ConfigAppName(cfg.ServiceName),
		newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(cfg.NewRelic.AppLogForwardingEnabled),
		newrelic.ConfigDistributedTracerEnabled(cfg.NewRelic.DistributedTracingEnabled),
	}
	if cfg.NewRelic.DebugLogging {
		configOptions = append(configOptions, newrelic.ConfigDebugLogger(os.Stdout))
	}

	app, err := newrelic.NewApplication(configOptions...)
	if err != nil {
		fmt.Printf("Failed to initialize New Relic: %v\n", err)
		return service
	}

	service.nrApp = app
	fmt.Printf("New Relic initialized for app: %s\n", cfg.ServiceName)
	return service
}

// Shutdown flushes pending New Relic data.
func (ls *LoggerService) Shutdown() {
	if ls.nrApp != nil {
		ls.nrApp.Shutdown(10 * time.Second)
	}
}

// GetApplication returns the New Relic application, or nil.
func (ls *LoggerService) GetApplication() *newrelic.Application {
	if ls == nil {
		return nil
	}
	return ls.nrApp
}

// NewLogger builds a logger without New Relic forwarding.
func NewLogger(level string, isProd bool) zerolog.Logger {
	cfg := &config.ObservabilityConfig{
		ServiceName: config.ServiceName,
		Environment: "development",
		Logging:     config.LoggingConfig{Level: level, Format: "console"},
	}
	if isProd {
		cfg.Environment = "production"
		cfg.Logging.Format = "json"
	}
	return NewLoggerWithService(cfg, nil)
}

// NewLoggerWithService builds the application logger.
//
// Production with the json format writes JSON to stdout, through the New
// Relic log forwarder when the agent is running. Everything else gets a
// console writer with stack traces enabled.
func NewLoggerWithService(cfg *config.ObservabilityConfig, loggerService *LoggerService) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = timeFormat
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	var writer io.Writer
	if cfg.IsProduction() && cfg.Logging.Format == "json" {
		writer = os.Stdout
		if app := loggerService.GetApplication(); app != nil {
			writer = zerologWriter.New(os.Stdout, app)
		}
	} else {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat}
	}

	logger := zerolog.New(writer).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger()

	if !cfg.IsProduction() {
		logger = logger.With().Stack().Logger()
	}

	return logger
}

// WithTraceContext adds the transaction's trace and span ids to logger.
func WithTraceContext(logger zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return logger
	}

	metadata := txn.GetTraceMetadata()
	return logger.With().
		Str("trace.id", metadata.TraceID).
		Str("span.id", metadata.SpanID).
		Logger()
}

// NewPgxLogger builds the console logger used for pgx statement tracing.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: timeFormat,
		FormatFieldValue: func(i any) string {
			switch v := i.(type) {
			case string:
				if len(v) > 200 {
					return v[:200] + "..."
				}
				return v
			case []byte:
				return string(v)
			default:
				return fmt.Sprintf("%v", v)
			}
		},
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("database", "postgres").
		Logger()
}

// GetPgxTraceLogLevel maps a zerolog level to the pgx tracelog level.
func GetPgxTraceLogLevel(level zerolog.Level) int {
	switch level {
	case zerolog.TraceLevel:
		return int(tracelog.LogLevelTrace)
	case zerolog.DebugLevel:
		return int(tracelog.LogLevelDebug)
	case zerolog.InfoLevel:
		return int(tracelog.LogLevelInfo)
	case zerolog.WarnLevel:
		return int(tracelog.LogLevelWarn)
	case zerolog.ErrorLevel:
		return int(tracelog.LogLevelError)
	default:
		return int(tracelog.LogLevelNone)
	}
}
