package sqlerr

import "fmt"

// Code is a driver-independent classification of a database error.
type Code string

const (
	Other                     Code = "other"
	NotNullViolation          Code = "not_null_violation"
	ForeignKeyViolation       Code = "foreign_key_violation"
	UniqueViolation           Code = "unique_violation"
	CheckViolation            Code = "check_violation"
	ExclusionViolation        Code = "exclusion_violation"
	SerializationFailure      Code = "serialization_failure"
	DeadlockDetected          Code = "deadlock_detected"
	UndefinedTable            Code = "undefined_table"
	UndefinedColumn           Code = "undefined_column"
	InvalidTextRepresentation Code = "invalid_text_representation"
)

// Severity mirrors the Postgres message severity levels.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// Error is the structured form of a driver error.
//
// It keeps the fields that matter for building user-facing messages
// (table, column, constraint) plus the original driver error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Severity, e.DatabaseCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// sqlstates maps SQLSTATE codes to Code values.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
var sqlstates = map[string]Code{
	"23502": NotNullViolation,
	"23503": ForeignKeyViolation,
	"23505": UniqueViolation,
	"23514": CheckViolation,
	"23P01": ExclusionViolation,
	"40001": SerializationFailure,
	"40P01": DeadlockDetected,
	"42P01": UndefinedTable,
	"42703": UndefinedColumn,
	"22P02": InvalidTextRepresentation,
}

// MapCode converts a SQLSTATE into a Code. Unknown states map to Other.
func MapCode(sqlstate string) Code {
	if code, ok := sqlstates[sqlstate]; ok {
		return code
	}
	return Other
}

// MapSeverity converts the driver's severity string into a Severity.
func MapSeverity(severity string) Severity {
	switch Severity(severity) {
	case SeverityError, SeverityFatal, SeverityPanic, SeverityWarning,
		SeverityNotice, SeverityDebug, SeverityInfo, SeverityLog:
		return Severity(severity)
	default:
		return SeverityError
	}
}
