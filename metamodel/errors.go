package metamodel

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrNotFound is returned when a type or attribute is unknown to the model.
	ErrNotFound = errors.New("metamodel: not found")
	// ErrInvalidSchema indicates a type or attribute declaration error.
	ErrInvalidSchema = errors.New("metamodel: invalid schema")
)

// NotFoundError is returned by model lookups.
type NotFoundError struct {
	Type      string
	Attribute string // empty when the type itself is missing
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("metamodel: attribute %q not found on type %q", e.Attribute, e.Type)
	}
	return fmt.Sprintf("metamodel: type %q not found", e.Type)
}

// Is reports whether the target matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// SchemaError represents a declaration error found while building a model.
type SchemaError struct {
	Type      string // Type name
	Attribute string // Attribute name (if applicable)
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("metamodel: schema error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Attribute != "" {
		b.WriteString(" attribute ")
		b.WriteString(e.Attribute)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrInvalidSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

func schemaErrorf(typ, attr, format string, args ...any) *SchemaError {
	return &SchemaError{Type: typ, Attribute: attr, Message: fmt.Sprintf(format, args...)}
}

// IsSchemaError returns true if the error is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var e *SchemaError
	return errors.As(err, &e)
}
