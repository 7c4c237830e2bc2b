package middleware

import (
	"github.com/deppfellow/obsrecords/internal/logger"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// Echo context keys shared by the middleware and handlers.
const (
	// UserIDKey holds the Clerk subject of an authenticated request.
	UserIDKey = "user_id"
	// UserRoleKey holds the active organization role, which may be empty.
	UserRoleKey = "user_role"
	// LoggerKey holds the *zerolog.Logger built by EnhanceContext.
	LoggerKey = "logger"
)

// ContextEnhancer attaches a request-scoped logger to every request. The
// feedback and schedule services log through it, so storage failures carry
// the request id.
type ContextEnhancer struct {
	server *server.Server
}

// NewContextEnhancer derives request loggers from s.Logger.
func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext derives a logger carrying the request id, route, client ip,
// New Relic trace ids and, once authenticated, the user. The logger is
// stored on the Echo context and, for zerolog.Ctx, on the request context.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contextLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			if userID := GetUserID(c); userID != "" {
				contextLogger = contextLogger.With().Str("user_id", userID).Logger()
			}
			if role, ok := c.Get(UserRoleKey).(string); ok && role != "" {
				contextLogger = contextLogger.With().Str("user_role", role).Logger()
			}

			c.Set(LoggerKey, &contextLogger)
			c.SetRequest(c.Request().WithContext(contextLogger.WithContext(c.Request().Context())))

			return next(c)
		}
	}
}

// GetUserID returns the authenticated Clerk subject, or "" on public
// routes.
func GetUserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetLogger returns the request logger, or a no-op logger when
// EnhanceContext did not run.
func GetLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}
