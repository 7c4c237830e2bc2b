package model

import "time"

// Feedback is one observing-run feedback form.
//
// ID is zero until the record and all of its dependent rows have been
// committed.
type Feedback struct {
	ID                 int64     `json:"id"`
	Semester           string    `json:"semester"`
	ProgramID          string    `json:"program_id"`
	PIName             string    `json:"pi_name"`
	PIEmail            string    `json:"pi_email"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	TechnicalRating    int       `json:"technical_rating"`
	ScientificRating   int       `json:"scientific_rating"`
	OverallRating      int       `json:"overall_rating"`
	TechnicalComments  string    `json:"technical_comments"`
	ScientificComments string    `json:"scientific_comments"`
	Suggestions        string    `json:"suggestions"`
	CreatedAt          time.Time `json:"created_at"`
}

// ChildRow links a dependent entity (instrument, operator, support
// astronomer) to its parent feedback record.
type ChildRow struct {
	ParentID int64
	EntityID string
}

// FeedbackDetail is a feedback record with its dependent id lists, each
// sorted by id.
type FeedbackDetail struct {
	Feedback
	InstrumentIDs []string `json:"instrument_ids"`
	OperatorIDs   []string `json:"operator_ids"`
	SupportIDs    []string `json:"support_ids"`
}
