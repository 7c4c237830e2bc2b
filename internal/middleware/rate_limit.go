package middleware

import (
	"net/http"

	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware throttles expensive endpoints per client IP. Schedule
// ingest is the only such endpoint: every call deletes and reloads a whole
// semester.
type RateLimitMiddleware struct {
	server *server.Server
}

// NewRateLimitMiddleware returns a RateLimitMiddleware reporting hits to the
// New Relic application of s, if any.
func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Limit allows perSecond requests per second and client IP with a burst of
// one. A non-positive perSecond means one per second.
//
// Denied requests never reach the handler. They get a 429 in the usual
// errs.HTTPError shape, a warn line on the request logger and a New Relic
// RateLimitHit event tagged with endpoint. Limiter state lives in memory,
// so each replica counts separately.
func (r *RateLimitMiddleware) Limit(endpoint string, perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 1
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(perSecond), Burst: 1},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(endpoint)
			GetLogger(c).Warn().
				Str("endpoint", endpoint).
				Str("client", identifier).
				Msg("rate limit exceeded")
			return &errs.HTTPError{
				Code:     errs.MakeUpperCaseWithUnderscores(http.StatusText(http.StatusTooManyRequests)),
				Message:  "Too many requests, slow down.",
				Status:   http.StatusTooManyRequests,
				Override: true,
			}
		},
	})
}

// RecordRateLimitHit records a RateLimitHit custom event. It is a no-op
// without New Relic.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}
