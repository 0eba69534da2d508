package entitygraph_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/entitygraph"
)

func TestInvalidAttributeError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &entitygraph.InvalidAttributeError{Type: "Employee", Attribute: "nope", Reason: "no such attribute"}
		assert.Equal(t, `entitygraph: invalid attribute "nope" of type "Employee": no such attribute`, err.Error())

		err = &entitygraph.InvalidAttributeError{Type: "Employee", Subtype: "Project"}
		assert.Equal(t, `entitygraph: invalid subclass "Project" of type "Employee"`, err.Error())

		err = &entitygraph.InvalidAttributeError{Type: "Employee", Reason: "nil attribute"}
		assert.Equal(t, `entitygraph: invalid attribute of type "Employee": nil attribute`, err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("lookup failed")
		err := &entitygraph.InvalidAttributeError{Type: "Employee", Attribute: "x", Cause: underlying}
		assert.True(t, errors.Is(err, underlying))
		assert.True(t, errors.Is(err, entitygraph.ErrInvalidAttribute))
	})

	t.Run("IsInvalidAttribute", func(t *testing.T) {
		err := &entitygraph.InvalidAttributeError{Type: "Employee"}
		assert.True(t, entitygraph.IsInvalidAttribute(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, entitygraph.IsInvalidAttribute(wrapped))

		// Sentinel error
		assert.True(t, entitygraph.IsInvalidAttribute(entitygraph.ErrInvalidAttribute))

		// Non-matching error
		assert.False(t, entitygraph.IsInvalidAttribute(errors.New("other error")))
		assert.False(t, entitygraph.IsInvalidAttribute(nil))
	})
}

func TestFrozenGraphError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &entitygraph.FrozenGraphError{Graph: "Employee.department", Op: "add subgraph"}
		assert.Equal(t, `entitygraph: add subgraph: graph "Employee.department" is frozen`, err.Error())

		err = &entitygraph.FrozenGraphError{Op: "add attribute nodes"}
		assert.Equal(t, "entitygraph: add attribute nodes: graph is frozen", err.Error())
	})

	t.Run("IsFrozen", func(t *testing.T) {
		err := &entitygraph.FrozenGraphError{Op: "add subgraph"}
		assert.True(t, entitygraph.IsFrozen(err))
		assert.True(t, entitygraph.IsFrozen(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, entitygraph.IsFrozen(entitygraph.ErrFrozenGraph))
		assert.False(t, entitygraph.IsFrozen(errors.New("other error")))
		assert.False(t, entitygraph.IsFrozen(nil))
	})
}

func TestDefinitionError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &entitygraph.DefinitionError{Graph: "g", Path: "attributeNodes[0]", Err: errors.New("boom")}
		assert.Equal(t, `entitygraph: definition of graph "g" at attributeNodes[0]: boom`, err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := &entitygraph.InvalidAttributeError{Type: "Employee", Attribute: "x"}
		err := &entitygraph.DefinitionError{Graph: "g", Err: cause}
		assert.True(t, errors.Is(err, entitygraph.ErrInvalidDefinition))
		assert.True(t, errors.Is(err, entitygraph.ErrInvalidAttribute))
		assert.True(t, entitygraph.IsDefinitionError(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, entitygraph.IsDefinitionError(cause))
		assert.False(t, entitygraph.IsDefinitionError(nil))
	})
}

func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{
		entitygraph.ErrInvalidAttribute,
		entitygraph.ErrFrozenGraph,
		entitygraph.ErrInvalidDefinition,
		entitygraph.ErrInvalidType,
	} {
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "entitygraph: ")
	}
}

// BenchmarkErrors benchmarks error checking.
func BenchmarkErrors(b *testing.B) {
	b.Run("IsInvalidAttribute", func(b *testing.B) {
		err := fmt.Errorf("wrap: %w", &entitygraph.InvalidAttributeError{Type: "Employee"})
		for i := 0; i < b.N; i++ {
			_ = entitygraph.IsInvalidAttribute(err)
		}
	})

	b.Run("IsFrozen", func(b *testing.B) {
		err := &entitygraph.FrozenGraphError{Op: "add subgraph"}
		for i := 0; i < b.N; i++ {
			_ = entitygraph.IsFrozen(err)
		}
	})
}
