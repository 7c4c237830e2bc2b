package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/obsrecords/internal/middleware"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/labstack/echo/v4"
)

const defaultHealthCheckTimeout = 5 * time.Second

type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type check struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
}

// CheckHealth pings the records database and Redis. The service is
// unhealthy (503) only when the database is down; Redis merely delays
// acknowledgement emails.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := []check{{
		name:     "database",
		required: true,
		ping:     h.server.DB.Ping,
	}}
	if h.server.Redis != nil {
		checks = append(checks, check{
			name: "redis",
			ping: func(ctx context.Context) error { return h.server.Redis.Ping(ctx).Err() },
		})
	}

	timeout := defaultHealthCheckTimeout
	if obs := h.server.Config.Observability; obs != nil && obs.HealthChecks.Timeout > 0 {
		timeout = obs.HealthChecks.Timeout
	}

	results := make(map[string]any, len(checks))
	healthy := true
	for _, chk := range checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		checkStart := time.Now()
		err := chk.ping(ctx)
		cancel()

		result := map[string]any{
			"status":        "healthy",
			"response_time": time.Since(checkStart).String(),
		}
		if err != nil {
			result["status"] = "unhealthy"
			result["error"] = err.Error()
			if chk.required {
				healthy = false
			}
			logger.Error().Err(err).Str("check", chk.name).Dur("response_time", time.Since(checkStart)).Msg("health check failed")
			h.recordFailure(chk.name, time.Since(checkStart), err)
		}
		results[chk.name] = result
	}

	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"database":    h.server.Config.Database.Driver,
		"checks":      results,
	}

	if !healthy {
		response["status"] = "unhealthy"
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}
	return nil
}

func (h *HealthHandler) recordFailure(check string, took time.Duration, err error) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}
	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", map[string]any{
		"check_type":       check,
		"operation":        "health_check",
		"error_type":       check + "_unhealthy",
		"response_time_ms": took.Milliseconds(),
		"error_message":    err.Error(),
	})
}
