package metamodel

import (
	"fmt"

	"github.com/syssam/entitygraph/schema"
)

// PersistentType classifies how an attribute is persisted.
type PersistentType uint8

// Persistent attribute types.
const (
	PersistentBasic PersistentType = iota
	PersistentEmbedded
	PersistentElementCollection
	PersistentOneToOne
	PersistentManyToOne
	PersistentOneToMany
	PersistentManyToMany
)

var persistentNames = [...]string{
	PersistentBasic:             "basic",
	PersistentEmbedded:          "embedded",
	PersistentElementCollection: "element_collection",
	PersistentOneToOne:          "one_to_one",
	PersistentManyToOne:         "many_to_one",
	PersistentOneToMany:         "one_to_many",
	PersistentManyToMany:        "many_to_many",
}

// String returns the persistent type name.
func (p PersistentType) String() string {
	if int(p) < len(persistentNames) {
		return persistentNames[p]
	}
	return fmt.Sprintf("PersistentType(%d)", p)
}

// ParsePersistentType parses a name as returned by PersistentType.String.
func ParsePersistentType(s string) (PersistentType, error) {
	for p, name := range persistentNames {
		if name == s {
			return PersistentType(p), nil
		}
	}
	return 0, fmt.Errorf("metamodel: unknown persistent type %q", s)
}

// IsAssociation reports whether the attribute references an entity.
func (p PersistentType) IsAssociation() bool {
	return p >= PersistentOneToOne
}

// CollectionType classifies the Go-side container of an attribute.
type CollectionType uint8

// Collection types. CollectionNone marks singular attributes.
const (
	CollectionNone CollectionType = iota
	CollectionBag
	CollectionList
	CollectionSet
	CollectionMap
)

var collectionNames = [...]string{
	CollectionNone: "",
	CollectionBag:  "collection",
	CollectionList: "list",
	CollectionSet:  "set",
	CollectionMap:  "map",
}

// String returns the collection type name.
func (c CollectionType) String() string {
	if int(c) < len(collectionNames) {
		return collectionNames[c]
	}
	return fmt.Sprintf("CollectionType(%d)", c)
}

// ParseCollectionType parses a name as returned by CollectionType.String.
func ParseCollectionType(s string) (CollectionType, error) {
	for c, name := range collectionNames {
		if name == s {
			return CollectionType(c), nil
		}
	}
	return 0, fmt.Errorf("metamodel: unknown collection type %q", s)
}

// FetchType is the declared fetch strategy of an attribute.
type FetchType uint8

// Fetch types. FetchDefault resolves to eager for basic, embedded and
// to-one attributes, and to lazy for plural attributes.
const (
	FetchDefault FetchType = iota
	FetchEager
	FetchLazy
)

// JoinTable describes the link table of an association.
type JoinTable struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	// JoinColumn references the owning side.
	JoinColumn string `json:"joinColumn" yaml:"joinColumn" toml:"joinColumn"`
	// InverseJoinColumn references the target side.
	InverseJoinColumn string `json:"inverseJoinColumn" yaml:"inverseJoinColumn" toml:"inverseJoinColumn"`
}

// Attribute describes one attribute of a managed type.
type Attribute struct {
	// Name of the attribute, unique within its type hierarchy.
	Name string
	// Owner is the name of the declaring type.
	Owner string
	// Persistent is the persistent attribute type.
	Persistent PersistentType
	// Collection is the container type of plural attributes.
	Collection CollectionType
	// Target is the value type: a basic type name for basic attributes, the
	// element type of plural attributes and the value type of maps.
	Target string
	// Key is the key type of map attributes.
	Key string
	// ID marks the identifier attribute.
	ID bool
	// Fetch is the declared fetch type.
	Fetch FetchType
	// Optional reports whether the attribute may be absent.
	Optional bool
	// Sensitive attributes are candidates for privacy rules.
	Sensitive bool
	// Column overrides the storage column. For owning to-one associations
	// it is the foreign-key column on the owner table.
	Column string
	// MappedBy names the attribute of the target type owning the relation.
	MappedBy string
	// JoinTable describes the link table, if any.
	JoinTable *JoinTable
	// KeyColumn is the column holding map keys.
	KeyColumn string
	// Comment documents the attribute.
	Comment string
	// Annotations attached to the attribute, keyed by Annotation.Name().
	Annotations map[string]any
}

// IsAssociation reports whether the attribute references an entity.
func (a *Attribute) IsAssociation() bool { return a.Persistent.IsAssociation() }

// IsPlural reports whether the attribute holds a collection or map.
func (a *Attribute) IsPlural() bool { return a.Collection != CollectionNone }

// IsMap reports whether the attribute is a map.
func (a *Attribute) IsMap() bool { return a.Collection == CollectionMap }

// Eager reports whether the attribute is fetched eagerly by default.
func (a *Attribute) Eager() bool {
	switch a.Fetch {
	case FetchEager:
		return true
	case FetchLazy:
		return false
	}
	return !a.IsPlural()
}

// ColumnName returns the storage column of basic and owning to-one attributes.
func (a *Attribute) ColumnName() string {
	switch {
	case a.Column != "":
		return a.Column
	case a.Persistent == PersistentManyToOne || a.Persistent == PersistentOneToOne:
		return Snake(a.Name) + "_id"
	}
	return Snake(a.Name)
}

// Owning reports whether a to-one association holds the foreign key.
func (a *Attribute) Owning() bool {
	return (a.Persistent == PersistentManyToOne || a.Persistent == PersistentOneToOne) &&
		a.MappedBy == "" && a.JoinTable == nil
}

// String returns the qualified attribute name, e.g. "Employee.name".
func (a *Attribute) String() string { return a.Owner + "." + a.Name }

// AttributeBuilder is the builder for attribute declarations.
type AttributeBuilder struct {
	desc *Attribute
}

func newAttribute(name string, p PersistentType, target string) *AttributeBuilder {
	return &AttributeBuilder{desc: &Attribute{Name: name, Persistent: p, Target: target}}
}

// ID returns a new builder for the identifier attribute.
func ID(name, typ string) *AttributeBuilder {
	b := newAttribute(name, PersistentBasic, typ)
	b.desc.ID = true
	return b
}

// Basic returns a new builder for a basic attribute of the given basic type.
func Basic(name, typ string) *AttributeBuilder {
	return newAttribute(name, PersistentBasic, typ)
}

// Embedded returns a new builder for an embedded attribute.
func Embedded(name, typ string) *AttributeBuilder {
	return newAttribute(name, PersistentEmbedded, typ)
}

// OneToOne returns a new builder for a one-to-one association.
func OneToOne(name, target string) *AttributeBuilder {
	return newAttribute(name, PersistentOneToOne, target)
}

// ManyToOne returns a new builder for a many-to-one association.
func ManyToOne(name, target string) *AttributeBuilder {
	return newAttribute(name, PersistentManyToOne, target)
}

// OneToMany returns a new builder for a one-to-many association.
func OneToMany(name, target string) *AttributeBuilder {
	b := newAttribute(name, PersistentOneToMany, target)
	b.desc.Collection = CollectionBag
	return b
}

// ManyToMany returns a new builder for a many-to-many association.
func ManyToMany(name, target string) *AttributeBuilder {
	b := newAttribute(name, PersistentManyToMany, target)
	b.desc.Collection = CollectionBag
	return b
}

// ElementCollection returns a new builder for a collection of basic or
// embeddable values.
func ElementCollection(name, elem string) *AttributeBuilder {
	b := newAttribute(name, PersistentElementCollection, elem)
	b.desc.Collection = CollectionBag
	return b
}

// Map returns a new builder for a one-to-many map association keyed by key.
// Use Elements to declare a map of basic or embeddable values instead.
func Map(name, key, value string) *AttributeBuilder {
	b := newAttribute(name, PersistentOneToMany, value)
	b.desc.Collection = CollectionMap
	b.desc.Key = key
	return b
}

// List sets the collection type to list.
func (b *AttributeBuilder) List() *AttributeBuilder {
	b.desc.Collection = CollectionList
	return b
}

// Set sets the collection type to set.
func (b *AttributeBuilder) Set() *AttributeBuilder {
	b.desc.Collection = CollectionSet
	return b
}

// Elements turns a map association into a map of element values.
func (b *AttributeBuilder) Elements() *AttributeBuilder {
	b.desc.Persistent = PersistentElementCollection
	return b
}

// ManyToMany turns a map association into a many-to-many map.
func (b *AttributeBuilder) ManyToMany() *AttributeBuilder {
	b.desc.Persistent = PersistentManyToMany
	return b
}

// Column sets the storage column.
func (b *AttributeBuilder) Column(c string) *AttributeBuilder {
	b.desc.Column = c
	return b
}

// MappedBy sets the owning attribute on the target side.
func (b *AttributeBuilder) MappedBy(attr string) *AttributeBuilder {
	b.desc.MappedBy = attr
	return b
}

// JoinTable sets the link table of the association.
func (b *AttributeBuilder) JoinTable(name, joinColumn, inverseJoinColumn string) *AttributeBuilder {
	b.desc.JoinTable = &JoinTable{Name: name, JoinColumn: joinColumn, InverseJoinColumn: inverseJoinColumn}
	return b
}

// KeyColumn sets the map key column.
func (b *AttributeBuilder) KeyColumn(c string) *AttributeBuilder {
	b.desc.KeyColumn = c
	return b
}

// Optional marks the attribute as optional.
func (b *AttributeBuilder) Optional() *AttributeBuilder {
	b.desc.Optional = true
	return b
}

// Sensitive marks the attribute as sensitive.
func (b *AttributeBuilder) Sensitive() *AttributeBuilder {
	b.desc.Sensitive = true
	return b
}

// Eager declares the attribute as eagerly fetched.
func (b *AttributeBuilder) Eager() *AttributeBuilder {
	b.desc.Fetch = FetchEager
	return b
}

// Lazy declares the attribute as lazily fetched.
func (b *AttributeBuilder) Lazy() *AttributeBuilder {
	b.desc.Fetch = FetchLazy
	return b
}

// Comment sets the attribute comment.
func (b *AttributeBuilder) Comment(c string) *AttributeBuilder {
	b.desc.Comment = c
	return b
}

// Annotations adds a list of annotations to the attribute.
func (b *AttributeBuilder) Annotations(annotations ...schema.Annotation) *AttributeBuilder {
	if b.desc.Annotations == nil {
		b.desc.Annotations = make(map[string]any, len(annotations))
	}
	for _, an := range annotations {
		addAnnotation(b.desc.Annotations, an)
	}
	return b
}

// Descriptor implements the AttributeDescriptor interface by returning the
// attribute declaration.
func (b *AttributeBuilder) Descriptor() *Attribute {
	return b.desc
}

// AttributeDescriptor is implemented by attribute declarations accepted by
// TypeBuilder.Attributes.
type AttributeDescriptor interface {
	Descriptor() *Attribute
}

// Descriptor implements AttributeDescriptor, allowing attributes decoded from
// descriptor files to be declared directly.
func (a *Attribute) Descriptor() *Attribute { return a }

func addAnnotation(annotations map[string]any, an schema.Annotation) {
	curr, ok := annotations[an.Name()]
	if !ok {
		annotations[an.Name()] = an
		return
	}
	if m, ok := curr.(schema.Merger); ok {
		annotations[an.Name()] = m.Merge(an)
	}
}
