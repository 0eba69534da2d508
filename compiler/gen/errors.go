package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates a model that cannot be generated.
	ErrInvalidSchema = errors.New("gen: invalid schema")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("gen: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("gen: code generation failed")
)

// SchemaError represents a model that cannot be turned into Go code, e.g.
// two types sharing a package name.
type SchemaError struct {
	Type      string // Type name
	Attribute string // Attribute name (if applicable)
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("gen: schema error")
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

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(typeName, attrName, message string, cause error) *SchemaError {
	return &SchemaError{
		Type:      typeName,
		Attribute: attrName,
		Message:   message,
		Cause:     cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("gen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("gen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "type", "graphs", "template" or "cleanup"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("gen: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
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
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
