package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// RequestIDHeader carries the correlation id in both directions.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the Echo context key holding the id for this request.
	RequestIDKey = "request_id"
)

// RequestID returns a middleware that gives every request a correlation id.
//
// Behavior:
//   - An X-Request-ID sent by the client or a proxy is kept as is.
//   - Otherwise a random UUID is generated.
//   - The id is stored under RequestIDKey and written back on the response
//     header, so a failed feedback submission can be matched to its
//     "Transaction failed" log lines.
//
// It must run before EnhanceContext, which copies the id into the request
// logger.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			c.Set(RequestIDKey, requestID)
			c.Response().Header().Set(RequestIDHeader, requestID)

			return next(c)
		}
	}
}

// GetRequestID returns the id set by RequestID, or "" outside that
// middleware (CLI runs and jobs have none).
func GetRequestID(c echo.Context) string {
	if requestID, ok := c.Get(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
