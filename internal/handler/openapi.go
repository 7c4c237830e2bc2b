package handler

import (
	"fmt"
	"net/http"
	"os"

	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/labstack/echo/v4"
)

// OpenAPIHandler serves the API reference page backed by
// static/openapi.json.
type OpenAPIHandler struct {
	Handler
	page string
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
		page:    "static/openapi.html",
	}
}

func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")

	page, err := os.ReadFile(h.page)
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI UI template: %w", err)
	}

	if err := c.HTMLBlob(http.StatusOK, page); err != nil {
		return fmt.Errorf("failed to write HTML response: %w", err)
	}
	return nil
}
