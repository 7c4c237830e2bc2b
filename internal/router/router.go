// Package router builds the Echo instance: global middleware, the
// versioned API routes and the system routes.
package router

import (
	"net/http"

	"github.com/deppfellow/obsrecords/internal/handler"
	"github.com/deppfellow/obsrecords/internal/middleware"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter wires every route. Submitting and reading single feedback
// forms is public; listing, exporting and schedule ingestion require a
// staff session.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	mw := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	// Order matters: the tracer must exist before the context enhancer
	// reads its trace ids.
	router.Use(
		mw.Global.Recover(),
		middleware.RequestID(),
		mw.Tracing.NewRelicMiddleware(),
		mw.Tracing.EnhanceTracing(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Global.RequestLogger(),
		mw.Global.CORS(),
		mw.Global.Secure(),
	)

	registerSystemRoutes(router, s, h)

	v1 := router.Group("/api/v1")

	feedback := v1.Group("/feedback")
	feedback.POST("", handler.Handle(h.Feedback.Handler, h.Feedback.Create, http.StatusCreated, &handler.CreateFeedbackRequest{}))
	feedback.GET("/:id", handler.Handle(h.Feedback.Handler, h.Feedback.Get, http.StatusOK, &handler.GetFeedbackRequest{}))
	feedback.GET("", handler.Handle(h.Feedback.Handler, h.Feedback.List, http.StatusOK, &handler.ListFeedbackRequest{}), mw.Auth.RequireAuth)
	feedback.GET("/export", handler.HandleFile(h.Feedback.Handler, h.Feedback.Export, http.StatusOK, &handler.ListFeedbackRequest{}), mw.Auth.RequireAuth)

	schedule := v1.Group("/schedule", mw.Auth.RequireAuth)
	schedule.POST("/ingest",
		handler.Handle(h.Schedule.Handler, h.Schedule.Ingest, http.StatusOK, &handler.IngestScheduleRequest{}),
		mw.RateLimit.Limit("schedule_ingest", s.Config.Server.IngestRateLimit),
	)

	return router
}
