package metamodel

import (
	"fmt"

	"github.com/syssam/entitygraph/dialect/sqlschema"
	"github.com/syssam/entitygraph/schema"
)

// Kind classifies a type known to the model.
type Kind uint8

// Type kinds.
const (
	KindBasic Kind = iota
	KindEntity
	KindEmbeddable
	KindMappedSuperclass
)

var kindNames = [...]string{
	KindBasic:            "basic",
	KindEntity:           "entity",
	KindEmbeddable:       "embeddable",
	KindMappedSuperclass: "mapped_superclass",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Managed reports whether types of this kind have their own attributes.
func (k Kind) Managed() bool {
	return k == KindEntity || k == KindEmbeddable || k == KindMappedSuperclass
}

// ParseKind parses a kind name as returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("metamodel: unknown type kind %q", s)
}

// BasicTypes lists the names accepted as basic (scalar) attribute types.
var BasicTypes = map[string]struct{}{
	"string": {}, "text": {}, "bool": {}, "bytes": {},
	"int": {}, "int8": {}, "int16": {}, "int32": {}, "int64": {},
	"uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {},
	"float32": {}, "float64": {}, "decimal": {},
	"time": {}, "date": {}, "uuid": {}, "json": {}, "enum": {},
}

// IsBasic reports whether name is a basic type name.
func IsBasic(name string) bool {
	_, ok := BasicTypes[name]
	return ok
}

// Type represents one managed type of the model.
type Type struct {
	// Name identifies the type within the model.
	Name string
	// Kind of the type. Never KindBasic for registered types.
	Kind Kind
	// Super holds the name of the direct supertype, if any.
	Super string
	// Comment documents the type.
	Comment string
	// Annotations attached to the type, keyed by Annotation.Name().
	Annotations map[string]any

	attrs []*Attribute
	index map[string]*Attribute
	model *Model
}

// Managed reports whether the type is managed.
func (t *Type) Managed() bool { return t.Kind.Managed() }

// IsEntity reports whether the type is an entity.
func (t *Type) IsEntity() bool { return t.Kind == KindEntity }

// IsEmbeddable reports whether the type is an embeddable.
func (t *Type) IsEmbeddable() bool { return t.Kind == KindEmbeddable }

// String implements fmt.Stringer.
func (t *Type) String() string { return t.Name }

// DeclaredAttributes returns the attributes declared directly on the type,
// in declaration order.
func (t *Type) DeclaredAttributes() []*Attribute {
	attrs := make([]*Attribute, len(t.attrs))
	copy(attrs, t.attrs)
	return attrs
}

// DeclaredAttribute returns the attribute declared on the type with the given name.
func (t *Type) DeclaredAttribute(name string) (*Attribute, bool) {
	a, ok := t.index[name]
	return a, ok
}

// Attributes returns all attributes of the type, inherited ones first.
func (t *Type) Attributes() []*Attribute {
	var chain []*Type
	for c := t; c != nil; c = c.Supertype() {
		chain = append(chain, c)
	}
	var attrs []*Attribute
	for i := len(chain) - 1; i >= 0; i-- {
		attrs = append(attrs, chain[i].attrs...)
	}
	return attrs
}

// Attribute returns the attribute with the given name, searching supertypes.
func (t *Type) Attribute(name string) (*Attribute, bool) {
	for c := t; c != nil; c = c.Supertype() {
		if a, ok := c.index[name]; ok {
			return a, true
		}
	}
	return nil, false
}

// Supertype returns the direct supertype, or nil.
func (t *Type) Supertype() *Type {
	if t.Super == "" || t.model == nil {
		return nil
	}
	return t.model.index[t.Super]
}

// ID returns the identifier attribute of the type, which may be inherited.
func (t *Type) ID() *Attribute {
	for _, a := range t.Attributes() {
		if a.ID {
			return a
		}
	}
	return nil
}

// Root returns the topmost entity of the type's inheritance hierarchy.
// Mapped superclasses are skipped as they own no table.
func (t *Type) Root() *Type {
	root := t
	for c := t.Supertype(); c != nil; c = c.Supertype() {
		if c.Kind == KindEntity {
			root = c
		}
	}
	return root
}

// SQL returns the SQL mapping annotation of the type, if any.
func (t *Type) SQL() *sqlschema.Annotation {
	return sqlschema.From(t.Annotations)
}

// Table returns the SQL table name of the type. Subtypes share the table of
// the root entity; the default name is the snake_case plural of the root name.
func (t *Type) Table() string {
	root := t.Root()
	if ant := root.SQL(); ant != nil && ant.Table != "" {
		return ant.Table
	}
	return Snake(rules.Pluralize(root.Name))
}

// Discriminator returns the discriminator column of the type hierarchy.
func (t *Type) Discriminator() string {
	if ant := t.Root().SQL(); ant != nil {
		return ant.Discriminator
	}
	return ""
}

// DiscriminatorValue returns the discriminator value of rows of this type.
func (t *Type) DiscriminatorValue() string {
	if ant := t.SQL(); ant != nil && ant.DiscriminatorValue != "" {
		return ant.DiscriminatorValue
	}
	return t.Name
}

// addAnnotation stores an annotation, merging it with an existing one of the same name.
func (t *Type) addAnnotation(an schema.Annotation) {
	if t.Annotations == nil {
		t.Annotations = make(map[string]any)
	}
	addAnnotation(t.Annotations, an)
}
