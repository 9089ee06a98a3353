package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/demo-backend/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrCode classifies err, Other when it is not a driver error.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	if sqlErr = Convert(err); sqlErr != nil {
		return sqlErr.Code
	}
	return Other
}

// ConvertPgError converts a raw PostgreSQL error into *Error.
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

// ConvertSQLiteError converts a modernc SQLite error into *Error. SQLite
// reports neither table nor column in structured form, so those stay empty.
func ConvertSQLiteError(src *sqlite.Error) *Error {
	code := Other
	switch src.Code() {
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		code = NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		code = ForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		code = UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		code = CheckViolation
	case sqlite3.SQLITE_INTERRUPT:
		code = QueryCanceled
	case sqlite3.SQLITE_CANTOPEN:
		code = ConnectionFailure
	}

	return &Error{
		Code:         code,
		Severity:     SeverityError,
		DatabaseCode: fmt.Sprintf("%d", src.Code()),
		Message:      src.Error(),
		driverErr:    src,
	}
}

// Convert normalizes any supported driver error, nil otherwise.
func Convert(err error) *Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr)
	}

	return nil
}

// violation describes how a constraint Code is reported to clients.
type violation struct {
	action   string
	override bool
}

var violations = map[Code]violation{
	ForeignKeyViolation: {action: "NOT_FOUND"},
	UniqueViolation:     {action: "ALREADY_EXISTS", override: true},
	NotNullViolation:    {action: "REQUIRED", override: true},
	CheckViolation:      {action: "INVALID", override: true},
}

// singular drops one trailing "s": data_items becomes data_item.
func singular(name string) string {
	if len(name) > 1 {
		return strings.TrimSuffix(strings.TrimSuffix(name, "s"), "S")
	}
	return name
}

// errorCode builds "<TABLE>_<ACTION>", e.g. DATA_ITEM_ALREADY_EXISTS.
func errorCode(tableName, action string) string {
	if tableName == "" {
		tableName = "record"
	}
	return strings.ToUpper(singular(tableName)) + "_" + action
}

// entityName prefers a "<x>_id" column, then the singular table name.
func entityName(tableName, columnName string) string {
	column := strings.ToLower(columnName)
	if entity, ok := strings.CutSuffix(column, "_id"); ok {
		return humanizeText(entity)
	}
	if tableName != "" {
		return humanizeText(singular(tableName))
	}
	return "record"
}

func fieldName(columnName string) string {
	if name := humanizeText(columnName); name != "" {
		return name
	}
	return "field"
}

// userMessage is the end-user text for a constraint violation.
func userMessage(sqlErr *Error) string {
	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName(sqlErr.TableName, sqlErr.ColumnName))
	case UniqueViolation:
		what := "identifier"
		if column := extractColumnForUniqueViolation(sqlErr.ConstraintName); column != "" {
			what = humanizeText(column)
		}
		return fmt.Sprintf("A %s with this %s already exists", entityName(sqlErr.TableName, sqlErr.ColumnName), what)
	case NotNullViolation:
		return fmt.Sprintf("The %s is required", fieldName(sqlErr.ColumnName))
	case CheckViolation:
		if sqlErr.ColumnName == "" {
			return "One or more values do not meet required conditions"
		}
		return fmt.Sprintf("The %s value does not meet required conditions", fieldName(sqlErr.ColumnName))
	}
	return "An error occurred while processing your request"
}

// humanizeText turns snake_case into Title Case: "data_item" -> "Data Item".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

var uniqueKeyPattern = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// extractColumnForUniqueViolation reads the column out of constraints named
// "unique_<table>_<column>" or "<table>_<column>_key".
func extractColumnForUniqueViolation(constraintName string) string {
	if rest, ok := strings.CutPrefix(constraintName, "unique_"); ok {
		if i := strings.LastIndex(rest, "_"); i >= 0 {
			return rest[i+1:]
		}
	}

	if matches := uniqueKeyPattern.FindStringSubmatch(constraintName); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// HandleError converts a low-level database error into an application error.
//
//   - *errs.HTTPError: returned unchanged
//   - constraint violations: 400 with a readable message and a table code
//   - pgx.ErrNoRows / sql.ErrNoRows: 404
//   - anything else: 500 that carries the underlying message
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	sqlErr := Convert(err)
	if sqlErr == nil {
		return errs.NewDatabaseError(err)
	}

	v, ok := violations[sqlErr.Code]
	if !ok {
		return errs.NewDatabaseError(err)
	}

	var fields []errs.FieldError
	if sqlErr.Code == NotNullViolation {
		fields = []errs.FieldError{{Field: strings.ToLower(sqlErr.ColumnName), Error: "is required"}}
	}

	code := errorCode(sqlErr.TableName, v.action)
	return errs.NewBadRequestError(userMessage(sqlErr), v.override, &code, fields)
}
