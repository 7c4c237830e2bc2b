package handler

import (
	"reflect"
	"time"

	"github.com/deppfellow/obsrecords/internal/middleware"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/deppfellow/obsrecords/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Handler carries the server container into every endpoint.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint. Req is a pointer to a request struct;
// it arrives bound and validated.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// File is a downloadable response body.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type responder interface {
	respond(c echo.Context, result any) error
	operation() string
	annotate(txn *newrelic.Transaction, result any)
}

type jsonResponder struct {
	status int
}

func (r jsonResponder) respond(c echo.Context, result any) error {
	return c.JSON(r.status, result)
}

func (jsonResponder) operation() string { return "handler" }

func (jsonResponder) annotate(*newrelic.Transaction, any) {}

type fileResponder struct {
	status int
}

func (r fileResponder) respond(c echo.Context, result any) error {
	f := result.(File)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+f.Name)
	return c.Blob(r.status, f.ContentType, f.Data)
}

func (fileResponder) operation() string { return "handler_file" }

func (fileResponder) annotate(txn *newrelic.Transaction, result any) {
	if f, ok := result.(File); ok {
		txn.AddAttribute("file.name", f.Name)
		txn.AddAttribute("file.content_type", f.ContentType)
		txn.AddAttribute("file.size_bytes", len(f.Data))
	}
}

// freshRequest returns a new zero request of the same type as proto so
// concurrent requests never bind into a shared value.
func freshRequest[Req validation.Validatable](proto Req) Req {
	t := reflect.TypeOf(proto)
	if t != nil && t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(Req)
	}
	return proto
}

// handleRequest binds and validates the request, runs the endpoint and
// writes its result, timing each phase in the log and on the New Relic
// transaction.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	proto Req,
	run func(c echo.Context, req Req) (any, error),
	out responder,
) error {
	start := time.Now()
	route := c.Path()
	logger := middleware.GetLogger(c).With().
		Str("operation", out.operation()).
		Str("route", route).
		Logger()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	req := freshRequest(proto)

	validationStart := time.Now()
	if err := validation.BindAndValidate(c, req); err != nil {
		logger.Warn().
			Err(err).
			Dur("validation_duration", time.Since(validationStart)).
			Msg("request validation failed")
		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("validation.status", "failed")
		}
		return err
	}
	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", time.Since(validationStart).Milliseconds())
	}

	handlerStart := time.Now()
	result, err := run(c, req)
	handlerDuration := time.Since(handlerStart)
	if err != nil {
		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler failed")
		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		}
		return err
	}

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", time.Since(start).Milliseconds())
		out.annotate(txn, result)
	}

	logger.Info().
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request completed")

	return out.respond(c, result)
}

// Handle registers a typed JSON endpoint:
//
//	g.POST("/feedback", Handle(h.Handler, h.Create, http.StatusCreated, &CreateFeedbackRequest{}))
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, req, func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, jsonResponder{status: status})
	}
}

// HandleFile registers a typed endpoint whose result is sent as an
// attachment.
func HandleFile[Req validation.Validatable](
	h Handler,
	handler HandlerFunc[Req, File],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, req, func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, fileResponder{status: status})
	}
}
