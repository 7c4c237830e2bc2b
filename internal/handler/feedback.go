package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/deppfellow/obsrecords/internal/model"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/deppfellow/obsrecords/internal/service"
	"github.com/deppfellow/obsrecords/internal/validation"
	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

// FeedbackHandler serves /api/v1/feedback.
type FeedbackHandler struct {
	Handler
	feedback *service.FeedbackService
}

func NewFeedbackHandler(s *server.Server, feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		Handler:  NewHandler(s),
		feedback: feedback,
	}
}

// CreateFeedbackRequest is the feedback form posted at the end of an
// observing run.
type CreateFeedbackRequest struct {
	Semester           string   `json:"semester" validate:"required,semester"`
	ProgramID          string   `json:"program_id" validate:"required,max=64"`
	PIName             string   `json:"pi_name" validate:"required,max=255"`
	PIEmail            string   `json:"pi_email" validate:"omitempty,email"`
	StartDate          string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate            string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	TechnicalRating    int      `json:"technical_rating" validate:"min=1,max=5"`
	ScientificRating   int      `json:"scientific_rating" validate:"min=1,max=5"`
	OverallRating      int      `json:"overall_rating" validate:"min=1,max=5"`
	TechnicalComments  string   `json:"technical_comments" validate:"max=4000"`
	ScientificComments string   `json:"scientific_comments" validate:"max=4000"`
	Suggestions        string   `json:"suggestions" validate:"max=4000"`
	InstrumentIDs      []string `json:"instrument_ids" validate:"dive,required,max=64"`
	OperatorIDs        []string `json:"operator_ids" validate:"dive,required,max=64"`
	SupportIDs         []string `json:"support_ids" validate:"dive,required,max=64"`
}

func (r *CreateFeedbackRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	start, _ := time.Parse(dateLayout, r.StartDate)
	end, _ := time.Parse(dateLayout, r.EndDate)
	if end.Before(start) {
		return validation.CustomValidationErrors{
			{Field: "end_date", Message: "must not be before start_date"},
		}
	}
	return nil
}

func (r *CreateFeedbackRequest) submission() service.FeedbackSubmission {
	start, _ := time.Parse(dateLayout, r.StartDate)
	end, _ := time.Parse(dateLayout, r.EndDate)
	return service.FeedbackSubmission{
		Feedback: model.Feedback{
			Semester:           r.Semester,
			ProgramID:          r.ProgramID,
			PIName:             r.PIName,
			PIEmail:            r.PIEmail,
			StartDate:          start,
			EndDate:            end,
			TechnicalRating:    r.TechnicalRating,
			ScientificRating:   r.ScientificRating,
			OverallRating:      r.OverallRating,
			TechnicalComments:  r.TechnicalComments,
			ScientificComments: r.ScientificComments,
			Suggestions:        r.Suggestions,
		},
		InstrumentIDs: r.InstrumentIDs,
		OperatorIDs:   r.OperatorIDs,
		SupportIDs:    r.SupportIDs,
	}
}

type CreateFeedbackResponse struct {
	ID      int64 `json:"id"`
	Success bool  `json:"success"`
}

// Create stores the form and its dependents in one transaction. A
// failed write comes back as a "Transaction failed: ..." StorageError and
// nothing from the form is left in the database.
func (h *FeedbackHandler) Create(c echo.Context, req *CreateFeedbackRequest) (*CreateFeedbackResponse, error) {
	fb, err := h.feedback.Submit(c.Request().Context(), req.submission())
	if err != nil {
		return nil, err
	}
	return &CreateFeedbackResponse{ID: fb.ID, Success: true}, nil
}

type GetFeedbackRequest struct {
	ID int64 `param:"id" validate:"required,min=1"`
}

func (r *GetFeedbackRequest) Validate() error {
	return validation.Struct(r)
}

// Get returns one form with its instrument, operator and support ids, each
// sorted by id. An unknown id is a 404.
func (h *FeedbackHandler) Get(c echo.Context, req *GetFeedbackRequest) (*model.FeedbackDetail, error) {
	return h.feedback.Get(c.Request().Context(), req.ID)
}

type ListFeedbackRequest struct {
	Semester string `query:"semester" validate:"required,semester"`
	Order    string `query:"order" validate:"omitempty,oneof=asc desc"`
}

func (r *ListFeedbackRequest) Validate() error {
	return validation.Struct(r)
}

// ascending defaults to true.
func (r *ListFeedbackRequest) ascending() bool {
	return r.Order != "desc"
}

type ListFeedbackResponse struct {
	Semester string           `json:"semester"`
	Feedback []model.Feedback `json:"feedback"`
}

// List returns a semester's forms ordered by id. An empty semester yields
// an empty array, not null.
func (h *FeedbackHandler) List(c echo.Context, req *ListFeedbackRequest) (*ListFeedbackResponse, error) {
	list, err := h.feedback.List(c.Request().Context(), req.Semester, req.ascending())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Feedback{}
	}
	return &ListFeedbackResponse{Semester: req.Semester, Feedback: list}, nil
}

var exportHeader = []string{
	"id", "semester", "program_id", "pi_name", "pi_email", "start_date", "end_date",
	"technical_rating", "scientific_rating", "overall_rating",
	"technical_comments", "scientific_comments", "suggestions", "created_at",
}

// Export sends a semester's feedback as CSV.
func (h *FeedbackHandler) Export(c echo.Context, req *ListFeedbackRequest) (File, error) {
	list, err := h.feedback.List(c.Request().Context(), req.Semester, req.ascending())
	if err != nil {
		return File{}, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(exportHeader)
	for _, fb := range list {
		_ = w.Write([]string{
			strconv.FormatInt(fb.ID, 10),
			fb.Semester,
			fb.ProgramID,
			fb.PIName,
			fb.PIEmail,
			fb.StartDate.Format(dateLayout),
			fb.EndDate.Format(dateLayout),
			strconv.Itoa(fb.TechnicalRating),
			strconv.Itoa(fb.ScientificRating),
			strconv.Itoa(fb.OverallRating),
			fb.TechnicalComments,
			fb.ScientificComments,
			fb.Suggestions,
			fb.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return File{}, fmt.Errorf("write feedback csv: %w", err)
	}

	return File{
		Name:        fmt.Sprintf("feedback-%s.csv", req.Semester),
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}
