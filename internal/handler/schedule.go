package handler

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/deppfellow/obsrecords/internal/model"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/deppfellow/obsrecords/internal/service"
	"github.com/deppfellow/obsrecords/internal/validation"
	"github.com/labstack/echo/v4"
)

// ScheduleHandler serves /api/v1/schedule.
type ScheduleHandler struct {
	Handler
	schedule *service.ScheduleService
}

func NewScheduleHandler(s *server.Server, schedule *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		Handler:  NewHandler(s),
		schedule: schedule,
	}
}

// IngestScheduleRequest reloads the schedule tables for one semester.
//
// FileLoad defaults to true. Sources may only name files below the
// configured ingest directory. Rows are used when FileLoad is false.
type IngestScheduleRequest struct {
	Semester string                      `json:"semester" validate:"required,semester"`
	FileLoad *bool                       `json:"file_load"`
	Sources  map[string]string           `json:"sources"`
	Rows     map[string][]map[string]any `json:"rows"`
}

func (r *IngestScheduleRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}

	var problems validation.CustomValidationErrors
	for table, src := range r.Sources {
		field := "sources." + table
		switch {
		case !model.ScheduleTable(table).Valid():
			problems = append(problems, validation.CustomValidationError{Field: field, Message: "is not a schedule table"})
		case !safeRelativePath(src):
			problems = append(problems, validation.CustomValidationError{Field: field, Message: "must be a relative path inside the ingest directory"})
		}
	}
	for table := range r.Rows {
		if !model.ScheduleTable(table).Valid() {
			problems = append(problems, validation.CustomValidationError{Field: "rows." + table, Message: "is not a schedule table"})
		}
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func safeRelativePath(p string) bool {
	if strings.TrimSpace(p) == "" || filepath.IsAbs(p) || path.IsAbs(p) {
		return false
	}
	for _, part := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return false
		}
	}
	return true
}

func (r *IngestScheduleRequest) options() service.IngestOptions {
	opts := service.IngestOptions{
		Semester: r.Semester,
		FileLoad: r.FileLoad == nil || *r.FileLoad,
	}
	if len(r.Sources) > 0 {
		opts.Sources = make(map[model.ScheduleTable]string, len(r.Sources))
		for table, src := range r.Sources {
			opts.Sources[model.ScheduleTable(table)] = src
		}
	}
	if len(r.Rows) > 0 {
		opts.Rows = make(map[model.ScheduleTable][]map[string]any, len(r.Rows))
		for table, rows := range r.Rows {
			opts.Rows[model.ScheduleTable(table)] = rows
		}
	}
	return opts
}

// IngestScheduleResponse lists each table's delete and insert message in
// table order.
type IngestScheduleResponse struct {
	Semester string   `json:"semester"`
	Messages []string `json:"messages"`
}

// Ingest runs a best-effort reload. Table failures are reported in
// Messages with a 200. Only a session that cannot be opened or options the
// orchestrator rejects are errors.
func (h *ScheduleHandler) Ingest(c echo.Context, req *IngestScheduleRequest) (*IngestScheduleResponse, error) {
	result, err := h.schedule.Ingest(c.Request().Context(), req.options())
	if err != nil {
		return nil, fmt.Errorf("ingest schedule %s: %w", req.Semester, err)
	}
	return &IngestScheduleResponse{Semester: req.Semester, Messages: result}, nil
}
