// Package middleware holds the Echo middleware shared by all routes:
// request ids, request-scoped loggers, Clerk authentication, New Relic
// tracing, rate limiting and the global error handler.
package middleware

import (
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares groups the middleware components the router installs. It is
// built once per server and handed to router.NewRouter.
type Middlewares struct {
	// Global is installed on every route: CORS, secure headers, panic
	// recovery, the "API" request log line and the error handler that turns
	// storage errors into JSON responses.
	Global *GlobalMiddlewares

	// Auth guards the feedback list and export routes and the schedule
	// ingest route with a Clerk session token.
	Auth *AuthMiddleware

	// ContextEnhancer puts a request-scoped logger on the Echo context and
	// the request context. The services pick it up through zerolog.Ctx.
	ContextEnhancer *ContextEnhancer

	// Tracing opens a New Relic transaction per request and tags it.
	Tracing *TracingMiddleware

	// RateLimit throttles schedule ingest per client IP.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares builds every component from the server container.
//
// The New Relic application comes from the server's LoggerService. When New
// Relic is disabled it is nil, and Tracing and RateLimit skip their New Relic
// calls.
func NewMiddlewares(s *server.Server) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
