package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/obsrecords/internal/server"
)

// TracingMiddleware wires New Relic into Echo. Everything degrades to a
// pass-through when nrApp is nil.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

// NewTracingMiddleware returns a TracingMiddleware for nrApp, which may be
// nil when New Relic is disabled.
func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware starts one transaction per request through nrecho and
// stores it on the request context. The handlers open their feedback.* and
// schedule.* segments inside it.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing tags the transaction once the request is done.
//
// Before the handler it adds the client ip, user agent and request id.
// After it, the user id (set by RequireAuth on staff routes) and the final
// status are added, and a returned error is noticed with its pkg/errors
// stack. A "Transaction failed" StorageError therefore shows up in New
// Relic with the status the error handler chose.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			txn.AddAttribute("http.real_ip", c.RealIP())
			txn.AddAttribute("http.user_agent", c.Request().UserAgent())
			if requestID := GetRequestID(c); requestID != "" {
				txn.AddAttribute("request.id", requestID)
			}

			err := next(c)

			if userID := GetUserID(c); userID != "" {
				txn.AddAttribute("user.id", userID)
			}

			status := c.Response().Status
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
				status = statusOf(err)
			}
			txn.AddAttribute("http.status_code", status)
			return err
		}
	}
}
