package metamodel

import (
	"errors"

	"github.com/syssam/entitygraph/schema"
)

// Builder collects type declarations and builds a validated Model.
// A Builder is not safe for concurrent use.
type Builder struct {
	types []*TypeBuilder
}

// NewBuilder returns a new model builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// TypeBuilder is the builder for one managed type declaration.
type TypeBuilder struct {
	desc  *Type
	attrs []*Attribute
}

// Entity declares an entity type.
func (b *Builder) Entity(name string) *TypeBuilder {
	return b.add(name, KindEntity)
}

// Embeddable declares an embeddable type.
func (b *Builder) Embeddable(name string) *TypeBuilder {
	return b.add(name, KindEmbeddable)
}

// MappedSuperclass declares a mapped superclass.
func (b *Builder) MappedSuperclass(name string) *TypeBuilder {
	return b.add(name, KindMappedSuperclass)
}

// Type declares a type of the given kind.
func (b *Builder) Type(name string, kind Kind) *TypeBuilder {
	return b.add(name, kind)
}

func (b *Builder) add(name string, kind Kind) *TypeBuilder {
	tb := &TypeBuilder{desc: &Type{Name: name, Kind: kind}}
	b.types = append(b.types, tb)
	return tb
}

// Extends sets the direct supertype.
func (tb *TypeBuilder) Extends(super string) *TypeBuilder {
	tb.desc.Super = super
	return tb
}

// Comment sets the type comment.
func (tb *TypeBuilder) Comment(c string) *TypeBuilder {
	tb.desc.Comment = c
	return tb
}

// Attributes appends attribute declarations to the type.
func (tb *TypeBuilder) Attributes(attrs ...AttributeDescriptor) *TypeBuilder {
	for _, a := range attrs {
		tb.attrs = append(tb.attrs, a.Descriptor())
	}
	return tb
}

// Mixin is a reusable set of attribute declarations shared by several
// types, such as audit timestamps.
type Mixin interface {
	Attributes() []AttributeDescriptor
}

// Mixin appends the attributes of the mixins to the type, in order.
// Attributes declared with Attributes before or after keep their position
// relative to the call.
func (tb *TypeBuilder) Mixin(mixins ...Mixin) *TypeBuilder {
	for _, m := range mixins {
		tb.Attributes(m.Attributes()...)
	}
	return tb
}

// Annotations adds a list of annotations to the type. Annotations of the
// same name are merged when they implement schema.Merger.
func (tb *TypeBuilder) Annotations(annotations ...schema.Annotation) *TypeBuilder {
	for _, an := range annotations {
		tb.desc.addAnnotation(an)
	}
	return tb
}

// Build validates all declarations and returns the model. All declaration
// errors are reported together, each one a *SchemaError.
func (b *Builder) Build() (*Model, error) {
	m := &Model{index: make(map[string]*Type, len(b.types))}
	var errs []error
	for _, tb := range b.types {
		t := tb.desc
		switch {
		case !ValidName(t.Name):
			errs = append(errs, schemaErrorf(t.Name, "", "invalid type name"))
			continue
		case IsBasic(t.Name):
			errs = append(errs, schemaErrorf(t.Name, "", "type name collides with a basic type"))
			continue
		case !t.Kind.Managed():
			errs = append(errs, schemaErrorf(t.Name, "", "kind %s cannot be declared", t.Kind))
			continue
		}
		if _, ok := m.index[t.Name]; ok {
			errs = append(errs, schemaErrorf(t.Name, "", "duplicate type"))
			continue
		}
		t.model = m
		t.index = make(map[string]*Attribute, len(tb.attrs))
		for _, a := range tb.attrs {
			if _, ok := t.index[a.Name]; ok {
				errs = append(errs, schemaErrorf(t.Name, a.Name, "duplicate attribute"))
				continue
			}
			a.Owner = t.Name
			t.attrs = append(t.attrs, a)
			t.index[a.Name] = a
		}
		m.types = append(m.types, t)
		m.index[t.Name] = t
	}
	errs = append(errs, m.checkHierarchy()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	for _, t := range m.types {
		errs = append(errs, m.checkType(t)...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

// MustBuild is like Build but panics on error. It simplifies declaring
// models in tests and package-level variables.
func (b *Builder) MustBuild() *Model {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// checkHierarchy reports unknown supertypes, kind mismatches and cycles.
// Types with a broken hierarchy are unlinked so later checks terminate.
func (m *Model) checkHierarchy() []error {
	var errs []error
	for _, t := range m.types {
		if t.Super == "" {
			continue
		}
		super, ok := m.index[t.Super]
		if !ok {
			errs = append(errs, schemaErrorf(t.Name, "", "unknown supertype %q", t.Super))
			t.Super = ""
			continue
		}
		if !inheritable(t.Kind, super.Kind) {
			errs = append(errs, schemaErrorf(t.Name, "", "%s cannot extend %s %q", t.Kind, super.Kind, super.Name))
		}
	}
	for _, t := range m.types {
		seen := map[string]bool{t.Name: true}
		for c := m.index[t.Super]; c != nil && t.Super != ""; c = m.index[c.Super] {
			if seen[c.Name] {
				errs = append(errs, schemaErrorf(t.Name, "", "inheritance cycle through %q", c.Name))
				t.Super = ""
				break
			}
			seen[c.Name] = true
			if c.Super == "" {
				break
			}
		}
	}
	return errs
}

func inheritable(sub, super Kind) bool {
	switch sub {
	case KindEntity:
		return super == KindEntity || super == KindMappedSuperclass
	case KindMappedSuperclass:
		return super == KindMappedSuperclass || super == KindEntity
	case KindEmbeddable:
		return super == KindEmbeddable
	}
	return false
}

func (m *Model) checkType(t *Type) []error {
	var (
		errs  []error
		ids   int
		super = t.Supertype()
	)
	for _, a := range t.attrs {
		if !ValidName(a.Name) {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "invalid attribute name"))
		}
		if super != nil {
			if inherited, ok := super.Attribute(a.Name); ok {
				errs = append(errs, schemaErrorf(t.Name, a.Name, "shadows attribute declared on %q", inherited.Owner))
			}
		}
		if a.ID {
			ids++
		}
		errs = append(errs, m.checkAttribute(t, a)...)
	}
	switch {
	case t.IsEmbeddable() && ids > 0:
		errs = append(errs, schemaErrorf(t.Name, "", "embeddable types cannot declare an identifier"))
	case ids > 1:
		errs = append(errs, schemaErrorf(t.Name, "", "multiple identifier attributes"))
	case t.IsEntity() && t.ID() == nil:
		errs = append(errs, schemaErrorf(t.Name, "", "entity has no identifier attribute"))
	case ids == 1 && super != nil && super.ID() != nil:
		errs = append(errs, schemaErrorf(t.Name, "", "identifier already inherited from %q", super.ID().Owner))
	}
	return errs
}

func (m *Model) checkAttribute(t *Type, a *Attribute) []error {
	var errs []error
	target, known := m.index[a.Target]
	switch a.Persistent {
	case PersistentBasic:
		if !IsBasic(a.Target) {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "basic attribute of non-basic type %q", a.Target))
		}
		if a.IsPlural() {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "basic attribute cannot be a collection"))
		}
	case PersistentEmbedded:
		if !known || !target.IsEmbeddable() {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "embedded attribute must reference an embeddable, got %q", a.Target))
		}
		if a.IsPlural() {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "embedded attribute cannot be a collection, use an element collection"))
		}
	case PersistentElementCollection:
		if !IsBasic(a.Target) && (!known || !target.IsEmbeddable()) {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "element collection of %q, expected a basic or embeddable type", a.Target))
		}
		if !a.IsPlural() {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "element collection must be plural"))
		}
	default:
		if !known || target.Kind != KindEntity {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "%s association must reference an entity, got %q", a.Persistent, a.Target))
			break
		}
		plural := a.Persistent == PersistentOneToMany || a.Persistent == PersistentManyToMany
		if plural != a.IsPlural() {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "%s association with collection type %q", a.Persistent, a.Collection))
		}
		if a.MappedBy != "" {
			if _, ok := target.Attribute(a.MappedBy); !ok {
				errs = append(errs, schemaErrorf(t.Name, a.Name, "mappedBy %q is not an attribute of %q", a.MappedBy, target.Name))
			}
		}
	}
	if a.IsMap() {
		if a.Key == "" {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "map attribute without key type"))
		} else if !IsBasic(a.Key) && !m.Managed(a.Key) {
			errs = append(errs, schemaErrorf(t.Name, a.Name, "unknown map key type %q", a.Key))
		}
	} else if a.Key != "" {
		errs = append(errs, schemaErrorf(t.Name, a.Name, "key type set on a non-map attribute"))
	}
	if a.ID && (a.Persistent != PersistentBasic || a.Optional) {
		errs = append(errs, schemaErrorf(t.Name, a.Name, "identifier must be a required basic attribute"))
	}
	return errs
}
