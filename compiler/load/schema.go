package load

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/entitygraph/dialect/sqlschema"
	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/schema"
)

// Document is the content of one model descriptor file.
//
//	types:
//	  - name: Employee
//	    sql: {table: employees, discriminator: kind}
//	    attributes:
//	      - {name: id, kind: id, type: int64}
//	      - {name: department, kind: many_to_one, type: Department}
//	graphs:
//	  - name: Employee.department
//	    type: Employee
//	    attributeNodes: [department]
type Document struct {
	Types []*Schema `json:"types,omitempty" yaml:"types,omitempty" toml:"types,omitempty"`
	// Graphs are attached to the type they are rooted at.
	Graphs []schema.NamedEntityGraph `json:"graphs,omitempty" yaml:"graphs,omitempty" toml:"graphs,omitempty"`
}

// Schema describes one managed type of a descriptor file.
type Schema struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	// Kind is one of entity (default), embeddable or mapped_superclass.
	Kind       string                    `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Extends    string                    `json:"extends,omitempty" yaml:"extends,omitempty" toml:"extends,omitempty"`
	Comment    string                    `json:"comment,omitempty" yaml:"comment,omitempty" toml:"comment,omitempty"`
	SQL        *sqlschema.Annotation     `json:"sql,omitempty" yaml:"sql,omitempty" toml:"sql,omitempty"`
	Attributes []*Attribute              `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty"`
	Graphs     []schema.NamedEntityGraph `json:"graphs,omitempty" yaml:"graphs,omitempty" toml:"graphs,omitempty"`
}

// Attribute describes one attribute of a managed type.
type Attribute struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	// Kind is a persistent attribute type (basic, embedded, one_to_one,
	// many_to_one, one_to_many, many_to_many, element_collection) or id for
	// the identifier. Default is basic.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	// Type is the basic type, embeddable, target entity, element type or
	// map value type, depending on Kind.
	Type string `json:"type" yaml:"type" toml:"type"`
	// Collection is one of collection, list, set or map. Plural kinds
	// default to collection.
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty" toml:"collection,omitempty"`
	// Key is the key type of maps.
	Key string `json:"key,omitempty" yaml:"key,omitempty" toml:"key,omitempty"`
	// Fetch is eager or lazy. Empty keeps the default of the kind.
	Fetch     string               `json:"fetch,omitempty" yaml:"fetch,omitempty" toml:"fetch,omitempty"`
	Optional  bool                 `json:"optional,omitempty" yaml:"optional,omitempty" toml:"optional,omitempty"`
	Sensitive bool                 `json:"sensitive,omitempty" yaml:"sensitive,omitempty" toml:"sensitive,omitempty"`
	Column    string               `json:"column,omitempty" yaml:"column,omitempty" toml:"column,omitempty"`
	MappedBy  string               `json:"mappedBy,omitempty" yaml:"mappedBy,omitempty" toml:"mappedBy,omitempty"`
	JoinTable *metamodel.JoinTable `json:"joinTable,omitempty" yaml:"joinTable,omitempty" toml:"joinTable,omitempty"`
	KeyColumn string               `json:"keyColumn,omitempty" yaml:"keyColumn,omitempty" toml:"keyColumn,omitempty"`
	Comment   string               `json:"comment,omitempty" yaml:"comment,omitempty" toml:"comment,omitempty"`
}

// kindID is the pseudo kind of identifier attributes.
const kindID = "id"

var fetchTypes = map[string]metamodel.FetchType{
	"":      metamodel.FetchDefault,
	"eager": metamodel.FetchEager,
	"lazy":  metamodel.FetchLazy,
}

// NewAttribute creates a loaded attribute from an attribute of the model.
func NewAttribute(a *metamodel.Attribute) *Attribute {
	la := &Attribute{
		Name:       a.Name,
		Kind:       a.Persistent.String(),
		Type:       a.Target,
		Collection: a.Collection.String(),
		Key:        a.Key,
		Optional:   a.Optional,
		Sensitive:  a.Sensitive,
		Column:     a.Column,
		MappedBy:   a.MappedBy,
		JoinTable:  a.JoinTable,
		KeyColumn:  a.KeyColumn,
		Comment:    a.Comment,
	}
	switch {
	case a.ID:
		la.Kind = kindID
	case a.Persistent == metamodel.PersistentBasic:
		la.Kind = ""
	}
	// Plural kinds default to a bag.
	if a.Collection == metamodel.CollectionBag {
		la.Collection = ""
	}
	switch a.Fetch {
	case metamodel.FetchEager:
		la.Fetch = "eager"
	case metamodel.FetchLazy:
		la.Fetch = "lazy"
	}
	return la
}

// NewSchema creates a loaded schema from a type of the model, including
// its SQL mapping and graph declarations.
func NewSchema(t *metamodel.Type) *Schema {
	s := &Schema{
		Name:    t.Name,
		Extends: t.Super,
		Comment: t.Comment,
		SQL:     t.SQL(),
	}
	if t.Kind != metamodel.KindEntity {
		s.Kind = t.Kind.String()
	}
	for _, a := range t.DeclaredAttributes() {
		s.Attributes = append(s.Attributes, NewAttribute(a))
	}
	switch v := t.Annotations[schema.NamedEntityGraphs(nil).Name()].(type) {
	case schema.NamedEntityGraphs:
		s.Graphs = slices.Clone(v)
	case *schema.NamedEntityGraphs:
		if v != nil {
			s.Graphs = slices.Clone(*v)
		}
	}
	return s
}

// Describe returns the document describing all types of m.
func Describe(m *metamodel.Model) *Document {
	doc := &Document{}
	for _, t := range m.Types() {
		doc.Types = append(doc.Types, NewSchema(t))
	}
	return doc
}

// Descriptor converts the loaded attribute to a model attribute.
func (a *Attribute) Descriptor() (*metamodel.Attribute, error) {
	var b *metamodel.AttributeBuilder
	switch a.Kind {
	case kindID:
		b = metamodel.ID(a.Name, a.Type)
	case "":
		b = metamodel.Basic(a.Name, a.Type)
	default:
		p, err := metamodel.ParsePersistentType(a.Kind)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		switch p {
		case metamodel.PersistentBasic:
			b = metamodel.Basic(a.Name, a.Type)
		case metamodel.PersistentEmbedded:
			b = metamodel.Embedded(a.Name, a.Type)
		case metamodel.PersistentOneToOne:
			b = metamodel.OneToOne(a.Name, a.Type)
		case metamodel.PersistentManyToOne:
			b = metamodel.ManyToOne(a.Name, a.Type)
		case metamodel.PersistentOneToMany:
			b = metamodel.OneToMany(a.Name, a.Type)
		case metamodel.PersistentManyToMany:
			b = metamodel.ManyToMany(a.Name, a.Type)
		case metamodel.PersistentElementCollection:
			b = metamodel.ElementCollection(a.Name, a.Type)
		}
	}
	if err := a.collection(b.Descriptor()); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	fetch, ok := fetchTypes[a.Fetch]
	if !ok {
		return nil, fmt.Errorf("attribute %q: unknown fetch type %q", a.Name, a.Fetch)
	}
	if a.Optional {
		b.Optional()
	}
	if a.Sensitive {
		b.Sensitive()
	}
	if a.JoinTable != nil {
		b.JoinTable(a.JoinTable.Name, a.JoinTable.JoinColumn, a.JoinTable.InverseJoinColumn)
	}
	desc := b.Column(a.Column).
		MappedBy(a.MappedBy).
		KeyColumn(a.KeyColumn).
		Comment(a.Comment).
		Descriptor()
	desc.Fetch = fetch
	return desc, nil
}

func (a *Attribute) collection(desc *metamodel.Attribute) error {
	if a.Collection == "" {
		if a.Key != "" {
			return fmt.Errorf("key type %q on a non-map attribute", a.Key)
		}
		return nil
	}
	c, err := metamodel.ParseCollectionType(a.Collection)
	if err != nil {
		return err
	}
	if c == metamodel.CollectionMap && a.Key == "" {
		return errors.New("map without key type")
	}
	if c != metamodel.CollectionMap && a.Key != "" {
		return fmt.Errorf("key type %q on a %s", a.Key, c)
	}
	desc.Collection = c
	desc.Key = a.Key
	return nil
}

// declare adds the type described by s to the builder, along with the
// graphs declared for it elsewhere in the document.
func (s *Schema) declare(b *metamodel.Builder, graphs []schema.NamedEntityGraph) error {
	kind := metamodel.KindEntity
	if s.Kind != "" {
		k, err := metamodel.ParseKind(s.Kind)
		if err != nil {
			return err
		}
		kind = k
	}
	tb := b.Type(s.Name, kind).Extends(s.Extends).Comment(s.Comment)
	if s.SQL != nil {
		tb.Annotations(*s.SQL)
	}
	if graphs = append(slices.Clone(s.Graphs), graphs...); len(graphs) > 0 {
		tb.Annotations(schema.Graphs(graphs...))
	}
	for _, la := range s.Attributes {
		a, err := la.Descriptor()
		if err != nil {
			return err
		}
		tb.Attributes(a)
	}
	return nil
}

// Build builds the model described by the document. Graphs declared at the
// document level are attached to their root type.
func (d *Document) Build() (*metamodel.Model, error) {
	graphs := make(map[string][]schema.NamedEntityGraph)
	for _, s := range d.Types {
		graphs[s.Name] = nil
	}
	for i, g := range d.Graphs {
		if _, ok := graphs[g.Type]; !ok {
			return nil, fmt.Errorf("load: graphs[%d]: unknown root type %q", i, g.Type)
		}
		graphs[g.Type] = append(graphs[g.Type], g)
	}
	b := metamodel.NewBuilder()
	for _, s := range d.Types {
		if err := s.declare(b, graphs[s.Name]); err != nil {
			return nil, fmt.Errorf("load: type %q: %w", cmp.Or(s.Name, "<unnamed>"), err)
		}
	}
	m, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return m, nil
}

// merge appends the content of other to d.
func (d *Document) merge(other *Document) {
	d.Types = append(d.Types, other.Types...)
	d.Graphs = append(d.Graphs, other.Graphs...)
}
