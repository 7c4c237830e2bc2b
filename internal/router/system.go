package router

import (
	"github.com/deppfellow/obsrecords/internal/handler"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes adds the routes that sit outside the versioned API.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	r.Static("/static", "static")
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
