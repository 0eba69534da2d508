package entitygraph

import "github.com/syssam/entitygraph/metamodel"

// Registry is the managed-type registry consulted by graph builders.
// It resolves type and attribute names to metadata, so graphs never inspect
// Go types at runtime. *metamodel.Model implements Registry.
type Registry interface {
	// Type returns the type with the given name.
	Type(name string) (*metamodel.Type, bool)
	// Attribute returns the attribute of the given type, declared or
	// inherited, or an error if it does not exist.
	Attribute(typ, name string) (*metamodel.Attribute, error)
	// IsSubtype reports whether sub equals super or inherits from it.
	IsSubtype(sub, super string) bool
}

var _ Registry = (*metamodel.Model)(nil)
