package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/obsrecords/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrCode returns the Code of the first *Error in err's chain, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}

// ConvertPgError keeps the Postgres fields used to phrase client messages.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// generateErrorCode builds "<TABLE>_<ACTION>" codes such as
// FEEDBACK_ALREADY_EXISTS. A trailing S is dropped from the table name.
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		// "identifier" is swapped for the column name when the constraint
		// name reveals it.
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName prefers an "<entity>_id" column, then the table name.
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText turns "pi_name" into "Pi Name".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

var uniqueKeySuffix = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// extractColumnForUniqueViolation reads the column out of constraint names
// shaped "unique_<table>_<column>" or "<table>_<column>_key".
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if matches := uniqueKeySuffix.FindStringSubmatch(constraintName); len(matches) > 1 {
		return matches[1]
	}

	return ""
}

// ConvertSQLiteError converts a modernc sqlite error into a sqlerr.Error.
//
// SQLite reports extended result codes instead of SQLSTATEs and does not
// name the table or column in a structured way, so only Code is mapped.
func ConvertSQLiteError(src *sqlite.Error) *Error {
	code := Other
	switch src.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		code = UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		code = ForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		code = NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		code = CheckViolation
	}
	return &Error{
		Code:         code,
		Severity:     SeverityError,
		DatabaseCode: fmt.Sprintf("SQLITE_%d", src.Code()),
		Message:      src.Error(),
		driverErr:    src,
	}
}

// HandleError maps storage and driver errors onto HTTP errors.
//
//   - HTTPErrors pass through untouched.
//   - A StorageError wrapping ErrNotFound (a failed mandatory read) is a 404.
//   - Constraint violations are 400s. Bare driver errors get a generic
//     message built from the table and column; a wrapping StorageError
//     keeps its own message.
//   - Any other StorageError is a 500 carrying its message.
//   - Everything else is an opaque 500.
//
// Storage messages are written by the persistence core itself
// ("Transaction failed: Telescope operator insert failed."), never raw driver
// text, so they are safe to show.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var storageErr *errs.StorageError
	isStorage := errors.As(err, &storageErr)
	if isStorage && errs.IsNotFound(err) {
		return errs.NewNotFoundError(storageErr.Message, true, nil)
	}

	var sqlErr *Error
	var pgerr *pgconn.PgError
	var liteErr *sqlite.Error
	switch {
	case errors.As(err, &pgerr):
		sqlErr = ConvertPgError(pgerr)
	case errors.As(err, &liteErr):
		sqlErr = ConvertSQLiteError(liteErr)
	}

	if sqlErr != nil && sqlErr.Code != Other {
		errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
		userMessage := formatUserFriendlyMessage(sqlErr)
		if sqlErr.Code == UniqueViolation {
			if columnName := extractColumnForUniqueViolation(sqlErr.ConstraintName); columnName != "" {
				userMessage = strings.ReplaceAll(userMessage, "identifier", humanizeText(columnName))
			}
		}

		// A wrapping StorageError supplies the message; status and code
		// still come from the constraint.
		override := sqlErr.Code != ForeignKeyViolation
		if isStorage {
			userMessage = storageErr.Message
			override = true
		}

		var fieldErrors []errs.FieldError
		if sqlErr.Code == NotNullViolation {
			fieldErrors = []errs.FieldError{
				{
					Field: strings.ToLower(sqlErr.ColumnName),
					Error: "is required",
				},
			}
		}
		return errs.NewBadRequestError(userMessage, override, &errorCode, fieldErrors, nil)
	}

	if isStorage {
		internal := errs.NewInternalServerError().WithMessage(storageErr.Message)
		internal.Override = true
		return internal
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}
