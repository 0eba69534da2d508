package entitygraph

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for graph operations.
var (
	// ErrInvalidAttribute is returned when an attribute does not belong to the
	// type being extended, or when a subgraph is requested for an attribute
	// whose target is not a managed type.
	ErrInvalidAttribute = errors.New("entitygraph: invalid attribute")

	// ErrFrozenGraph is returned when a mutating operation is invoked on a
	// frozen graph.
	ErrFrozenGraph = errors.New("entitygraph: graph is frozen")

	// ErrInvalidDefinition is returned when a named graph declaration cannot
	// be turned into a graph.
	ErrInvalidDefinition = errors.New("entitygraph: invalid graph definition")

	// ErrInvalidType is returned when a graph is created for a type that is
	// not an entity of the registry.
	ErrInvalidType = errors.New("entitygraph: invalid root type")
)

// InvalidAttributeError represents an attribute or subtype rejected by a
// builder operation.
type InvalidAttributeError struct {
	Type      string // Type being extended
	Attribute string // Attribute name, empty for subclass subgraphs
	Subtype   string // Requested subtype, if any
	Reason    string
	Cause     error // Registry error, if any
}

// Error returns the error string.
func (e *InvalidAttributeError) Error() string {
	var b strings.Builder
	b.WriteString("entitygraph: ")
	switch {
	case e.Attribute != "":
		fmt.Fprintf(&b, "invalid attribute %q of type %q", e.Attribute, e.Type)
	case e.Subtype != "":
		fmt.Fprintf(&b, "invalid subclass %q of type %q", e.Subtype, e.Type)
	default:
		fmt.Fprintf(&b, "invalid attribute of type %q", e.Type)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Is reports whether the target error matches ErrInvalidAttribute.
// This allows errors.Is(err, ErrInvalidAttribute) to return true.
func (e *InvalidAttributeError) Is(err error) bool {
	return err == ErrInvalidAttribute
}

// Unwrap returns the underlying registry error.
func (e *InvalidAttributeError) Unwrap() error {
	return e.Cause
}

// IsInvalidAttribute returns true if the error is an InvalidAttributeError.
func IsInvalidAttribute(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidAttributeError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidAttribute)
}

// FrozenGraphError represents a mutation attempt on a frozen graph.
type FrozenGraphError struct {
	Graph string // Graph name, empty for anonymous graphs
	Op    string // Rejected operation
}

// Error returns the error string.
func (e *FrozenGraphError) Error() string {
	if e.Graph != "" {
		return fmt.Sprintf("entitygraph: %s: graph %q is frozen", e.Op, e.Graph)
	}
	return fmt.Sprintf("entitygraph: %s: graph is frozen", e.Op)
}

// Is reports whether the target error matches ErrFrozenGraph.
func (e *FrozenGraphError) Is(err error) bool {
	return err == ErrFrozenGraph
}

// IsFrozen returns true if the error is a FrozenGraphError.
func IsFrozen(err error) bool {
	if err == nil {
		return false
	}
	var e *FrozenGraphError
	return errors.As(err, &e) || errors.Is(err, ErrFrozenGraph)
}

// DefinitionError wraps an error found while building a graph from a
// declaration.
type DefinitionError struct {
	Graph string // Declared graph name
	Path  string // Location within the declaration, e.g. "subgraphs[dept]"
	Err   error
}

// Error returns the error string.
func (e *DefinitionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entitygraph: definition of graph %q", e.Graph)
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether the target error matches ErrInvalidDefinition.
func (e *DefinitionError) Is(err error) bool {
	return err == ErrInvalidDefinition
}

// Unwrap returns the underlying error.
func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// IsDefinitionError returns true if the error is a DefinitionError.
func IsDefinitionError(err error) bool {
	if err == nil {
		return false
	}
	var e *DefinitionError
	return errors.As(err, &e)
}
