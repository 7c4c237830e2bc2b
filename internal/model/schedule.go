package model

// ScheduleTable names one of the five schedule tables.
type ScheduleTable string

const (
	TableSchedule   ScheduleTable = "schedule"
	TableInstrument ScheduleTable = "instrument"
	TableOperator   ScheduleTable = "operator"
	TableProgram    ScheduleTable = "program"
	TableEngProgram ScheduleTable = "engprogram"
)

// ScheduleTables is the fixed processing order for schedule ingestion.
var ScheduleTables = []ScheduleTable{
	TableSchedule,
	TableInstrument,
	TableOperator,
	TableProgram,
	TableEngProgram,
}

// Valid reports whether t is one of ScheduleTables.
func (t ScheduleTable) Valid() bool {
	for _, known := range ScheduleTables {
		if t == known {
			return true
		}
	}
	return false
}

// IngestResult is the ordered per-table report of an ingestion run:
// each table's delete message followed by its insert message.
type IngestResult []string
