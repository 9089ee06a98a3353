package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/demo-backend/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	return httpErr
}

func TestHandleErrorPassesHTTPErrorThrough(t *testing.T) {
	original := errs.NewNotFoundError("Item not found", false, nil)
	assert.Same(t, original, HandleError(original))
}

func TestHandleErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Severity:       "ERROR",
		Message:        "duplicate key value violates unique constraint",
		TableName:      "data_items",
		ConstraintName: "data_items_name_key",
	}

	httpErr := asHTTPError(t, HandleError(fmt.Errorf("insert: %w", pgErr)))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "DATA_ITEM_ALREADY_EXISTS", httpErr.Code)
	assert.Equal(t, "A Data Item with this Name already exists", httpErr.Message)
	assert.True(t, httpErr.Override)
}

func TestHandleErrorNotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23502", TableName: "data_items", ColumnName: "description"}

	httpErr := asHTTPError(t, HandleError(pgErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "description", httpErr.Errors[0].Field)
}

func TestHandleErrorUnknownPgErrorSurfacesMessage(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Severity: "ERROR", Message: `relation "data_items" does not exist`}

	httpErr := asHTTPError(t, HandleError(pgErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, errs.DatabaseErrorCode, httpErr.Code)
	assert.Contains(t, httpErr.Message, `relation "data_items" does not exist`)
}

func TestHandleErrorNoRows(t *testing.T) {
	for _, err := range []error{pgx.ErrNoRows, sql.ErrNoRows} {
		httpErr := asHTTPError(t, HandleError(err))
		assert.Equal(t, http.StatusNotFound, httpErr.Status)
	}
}

func TestHandleErrorPlainError(t *testing.T) {
	httpErr := asHTTPError(t, HandleError(errors.New("dial tcp: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "Database error: dial tcp: connection refused", httpErr.Message)
}

func TestErrCode(t *testing.T) {
	sqlErr := ConvertPgError(&pgconn.PgError{Code: "23503", Severity: "ERROR"})
	assert.Equal(t, ForeignKeyViolation, ErrCode(fmt.Errorf("wrapped: %w", sqlErr)))
	assert.Equal(t, Other, ErrCode(errors.New("nope")))
	assert.Equal(t, UniqueViolation, ErrCode(&pgconn.PgError{Code: "23505"}))
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityError, MapSeverity("garbage"))
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "name", extractColumnForUniqueViolation("unique_data_items_name"))
	assert.Equal(t, "name", extractColumnForUniqueViolation("items_name_key"))
	assert.Equal(t, "", extractColumnForUniqueViolation("pk"))
}
