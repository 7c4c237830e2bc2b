package middleware

import (
	"net/http"

	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/deppfellow/obsrecords/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// GlobalMiddlewares are installed on every route.
type GlobalMiddlewares struct {
	server *server.Server
}

// NewGlobalMiddlewares reads CORS origins from s.Config.Server.
func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS allows the configured origins only. An empty list rejects every
// cross-origin request.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
	})
}

// RequestLogger emits one "API" line per request, at error level for 5xx
// and warn for 4xx.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			// The error handler has not written the response yet when a
			// handler fails, so v.Status may still read 200.
			// https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			statusCode := v.Status
			if v.Error != nil {
				statusCode = statusOf(v.Error)
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if requestID := GetRequestID(c); requestID != "" {
				e = e.Str("request_id", requestID)
			}
			if userID := GetUserID(c); userID != "" {
				e = e.Str("user_id", userID)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// statusOf predicts the status GlobalErrorHandler will write for err.
func statusOf(err error) int {
	return toHTTPError(err).Status
}

// Recover turns a handler panic into a 500 through GlobalErrorHandler.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// toHTTPError normalises any handler error into the response shape.
// Storage and driver errors go through sqlerr.HandleError; unknown routes
// become a 404 and other echo errors keep their status.
func toHTTPError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code == http.StatusNotFound {
			return errs.NewNotFoundError("Route not found", false, nil)
		}
		message, ok := echoErr.Message.(string)
		if !ok {
			message = http.StatusText(echoErr.Code)
		}
		return &errs.HTTPError{
			Code:    errs.MakeUpperCaseWithUnderscores(http.StatusText(echoErr.Code)),
			Message: message,
			Status:  echoErr.Code,
		}
	}

	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr
	}
	return errs.NewInternalServerError()
}

// GlobalErrorHandler writes every returned error as errs.HTTPError JSON and
// logs the original error with its stack.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	httpErr := toHTTPError(err)

	logger := *GetLogger(c)
	logger.Error().Stack().
		Err(err).
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	if !c.Response().Committed {
		_ = c.JSON(httpErr.Status, httpErr)
	}
}
