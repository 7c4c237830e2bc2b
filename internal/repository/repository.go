// Package repository handles all interactions with the database.
//
// It contains the raw SQL for every table, the QueryExecutor that runs it
// through a database.Driver, the transaction state machine and the per-table
// RecordWriters used by the service layer's orchestrators.
package repository

import "github.com/deppfellow/obsrecords/internal/model"

// Repositories is a container for the stateless per-table writers.
//
// Writers hold no connection; the executor bound to a request's session is
// passed to them on every call.
type Repositories struct {
	Feedback FeedbackWriters
	Schedule []*ScheduleWriter
}

// NewRepositories constructs the repository container with the default
// writer for every table.
func NewRepositories() *Repositories {
	return &Repositories{
		Feedback: DefaultFeedbackWriters(),
		Schedule: ScheduleWriters(),
	}
}

// ScheduleWriter returns the writer for table, or nil.
func (r *Repositories) ScheduleWriter(table model.ScheduleTable) *ScheduleWriter {
	for _, w := range r.Schedule {
		if w.ScheduleTable() == table {
			return w
		}
	}
	return nil
}
