package sqlgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// SchemaError is returned when a plan refers to a table or column the
// database does not have, usually because the model and the database
// schema drifted apart.
type SchemaError struct {
	// Path is the step path of the failed query. Empty for root levels.
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("sqlgraph: schema mismatch: %v", e.Err)
	}
	return fmt.Sprintf("sqlgraph: schema mismatch at %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying database error.
func (e *SchemaError) Unwrap() error { return e.Err }

// IsSchemaError returns true if the error resulted from a missing table or column.
func IsSchemaError(err error) bool {
	var e *SchemaError
	return errors.As(err, &e) ||
		IsUndefinedTableError(err) ||
		IsUndefinedColumnError(err)
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pgx, and some MySQL drivers.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for undefined objects (Class 42).
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// MySQL error numbers for undefined objects.
const (
	mysqlNoSuchTable = 1146
	mysqlBadField    = 1054 // Unknown column
)

// IsUndefinedTableError reports if the error resulted from a query on a table
// that does not exist.
func IsUndefinedTableError(err error) bool {
	return matches(err, pgUndefinedTable, mysqlNoSuchTable,
		"Error 1146",    // MySQL (string fallback)
		"no such table", // SQLite
	)
}

// IsUndefinedColumnError reports if the error resulted from a query on a
// column that does not exist.
func IsUndefinedColumnError(err error) bool {
	return matches(err, pgUndefinedColumn, mysqlBadField,
		"Error 1054",     // MySQL (string fallback)
		"Unknown column", // MySQL
		"no such column", // SQLite
	)
}

// matches checks the error chain for the Postgres state or the MySQL error
// number, then falls back to matching the message.
func matches(err error, state string, number uint16, messages ...string) bool {
	if err == nil {
		return false
	}

	// Check for PostgreSQL pq.Error code
	if e, ok := asError[*pq.Error](err); ok {
		return string(e.Code) == state
	}

	// Check for SQLSTATE code (pgx and others)
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == state {
		return true
	}

	// Check for MySQL error number
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return e.Number == number
	}

	// Fallback to string matching for drivers without typed errors (SQLite)
	return containsAny(err.Error(), messages...)
}

// schemaError wraps err in a SchemaError if it resulted from a missing
// table or column.
func schemaError(path string, err error) error {
	var e *SchemaError
	if errors.As(err, &e) || !(IsUndefinedTableError(err) || IsUndefinedColumnError(err)) {
		return err
	}
	return &SchemaError{Path: path, Err: err}
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
