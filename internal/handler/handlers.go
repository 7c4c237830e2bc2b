// Package handler is the HTTP layer. Each endpoint binds and validates its
// request type, calls one service method and returns JSON (or a file).
package handler

import (
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/deppfellow/obsrecords/internal/service"
)

// Handlers holds one handler per route group.
type Handlers struct {
	Health   *HealthHandler
	OpenAPI  *OpenAPIHandler
	Feedback *FeedbackHandler
	Schedule *ScheduleHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(s),
		OpenAPI:  NewOpenAPIHandler(s),
		Feedback: NewFeedbackHandler(s, services.Feedback),
		Schedule: NewScheduleHandler(s, services.Schedule),
	}
}
