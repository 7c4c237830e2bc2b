package logger

import (
	"testing"

	"github.com/deppfellow/obsrecords/internal/config"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGetPgxTraceLogLevel(t *testing.T) {
	tests := []struct {
		level zerolog.Level
		want  tracelog.LogLevel
	}{
		{zerolog.DebugLevel, tracelog.LogLevelDebug},
		{zerolog.InfoLevel, tracelog.LogLevelInfo},
		{zerolog.WarnLevel, tracelog.LogLevelWarn},
		{zerolog.ErrorLevel, tracelog.LogLevelError},
		{zerolog.Disabled, tracelog.LogLevelNone},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, int(tt.want), GetPgxTraceLogLevel(tt.level))
		})
	}
}

func TestNewLoggerWithServiceLevels(t *testing.T) {
	cfg := config.DefaultObservabilityConfig()
	cfg.Logging.Level = "warn"

	logger := NewLoggerWithService(cfg, NewLoggerService(cfg))
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	assert.Equal(t, zerolog.DebugLevel, NewLogger("debug", false).GetLevel())
}

func TestWithTraceContextWithoutTransaction(t *testing.T) {
	logger := zerolog.Nop()
	assert.Equal(t, logger, WithTraceContext(logger, nil))
}
