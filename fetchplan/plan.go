package fetchplan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Mode selects which attributes outside the graph are loaded.
type Mode uint8

const (
	// ModeFetch loads the graph attributes and identifiers only.
	ModeFetch Mode = iota
	// ModeLoad loads the graph attributes and every attribute whose
	// declared fetch type is eager.
	ModeLoad
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFetch:
		return "fetch"
	case ModeLoad:
		return "load"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode parses a mode name as returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "fetch", "":
		return ModeFetch, nil
	case "load":
		return ModeLoad, nil
	}
	return 0, fmt.Errorf("fetchplan: unknown mode %q", s)
}

// MarshalJSON implements json.Marshaler.
func (m Mode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Mode) MarshalYAML() (any, error) { return m.String(), nil }

// LinkKind tells how the rows of a step relate to the rows of its parent level.
type LinkKind uint8

const (
	// LinkOwnerFK follows a foreign key stored on the parent table.
	LinkOwnerFK LinkKind = iota
	// LinkInverseFK follows a foreign key stored on the target table.
	LinkInverseFK
	// LinkJoinTable follows a link table.
	LinkJoinTable
	// LinkElementTable reads values from a collection table.
	LinkElementTable
)

var linkNames = [...]string{
	LinkOwnerFK:      "owner_fk",
	LinkInverseFK:    "inverse_fk",
	LinkJoinTable:    "join_table",
	LinkElementTable: "element_table",
}

// String returns the link name.
func (k LinkKind) String() string {
	if int(k) < len(linkNames) {
		return linkNames[k]
	}
	return fmt.Sprintf("LinkKind(%d)", k)
}

// MarshalJSON implements json.Marshaler.
func (k LinkKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

// UnmarshalJSON implements json.Unmarshaler.
func (k *LinkKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for i, name := range linkNames {
		if name == s {
			*k = LinkKind(i)
			return nil
		}
	}
	return fmt.Errorf("fetchplan: unknown link kind %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (k LinkKind) MarshalYAML() (any, error) { return k.String(), nil }

// Plan is a compiled entity graph: the tables, columns and links to read
// for loading a root entity and everything its graph reaches.
// Plans are read-only once built.
type Plan struct {
	// Graph is the name of the compiled graph.
	Graph string `json:"graph,omitempty" yaml:"graph,omitempty"`
	// Mode the plan was compiled with.
	Mode     Mode `json:"mode" yaml:"mode"`
	MaxDepth int  `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty"`
	// Root is the level of the root entity type.
	Root *Level `json:"root" yaml:"root"`
	// Denied lists the paths left out by privacy rules.
	Denied []string `json:"denied,omitempty" yaml:"denied,omitempty"`
	// Truncated lists the paths left out by the depth limit.
	Truncated []string `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Level describes the rows of one entity type.
type Level struct {
	Type     string `json:"type" yaml:"type"`
	Table    string `json:"table" yaml:"table"`
	Schema   string `json:"schema,omitempty" yaml:"schema,omitempty"`
	ID       string `json:"id" yaml:"id"`
	IDColumn string `json:"idColumn" yaml:"idColumn"`
	// Discriminator is the column holding the concrete type of a row.
	Discriminator string `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
	// DiscriminatorValues restricts the level to rows of the type and its
	// subtypes. Empty for roots of inheritance hierarchies.
	DiscriminatorValues []string `json:"discriminatorValues,omitempty" yaml:"discriminatorValues,omitempty"`
	Columns             []Column `json:"columns,omitempty" yaml:"columns,omitempty"`
	Steps               []*Step  `json:"steps,omitempty" yaml:"steps,omitempty"`
	// Subtypes hold the additional columns and steps read for rows of
	// subtypes of the level type.
	Subtypes []*Level `json:"subtypes,omitempty" yaml:"subtypes,omitempty"`
}

// Column maps an attribute path to a storage column. Embedded attributes
// use dotted attribute paths, e.g. "address.city".
type Column struct {
	Attribute string `json:"attribute" yaml:"attribute"`
	Name      string `json:"name" yaml:"name"`
}

// JoinTable describes a link or collection table.
type JoinTable struct {
	Name string `json:"name" yaml:"name"`
	// JoinColumn references the parent row.
	JoinColumn string `json:"joinColumn" yaml:"joinColumn"`
	// InverseJoinColumn references the target row. Empty for collection tables.
	InverseJoinColumn string `json:"inverseJoinColumn,omitempty" yaml:"inverseJoinColumn,omitempty"`
}

// Step describes the load of one plural or association attribute.
type Step struct {
	Attribute string   `json:"attribute" yaml:"attribute"`
	Path      string   `json:"path" yaml:"path"`
	Link      LinkKind `json:"link" yaml:"link"`
	Plural    bool     `json:"plural,omitempty" yaml:"plural,omitempty"`
	Map       bool     `json:"map,omitempty" yaml:"map,omitempty"`
	// Column is the foreign-key column: on the parent table for LinkOwnerFK,
	// on the target table for LinkInverseFK.
	Column    string     `json:"column,omitempty" yaml:"column,omitempty"`
	JoinTable *JoinTable `json:"joinTable,omitempty" yaml:"joinTable,omitempty"`
	// KeyColumn holds map keys. It lives on the target table for
	// LinkInverseFK and on the link table otherwise.
	KeyColumn string `json:"keyColumn,omitempty" yaml:"keyColumn,omitempty"`
	// KeyColumns hold embeddable map keys.
	KeyColumns []Column `json:"keyColumns,omitempty" yaml:"keyColumns,omitempty"`
	// Elements are the value columns of collection tables.
	Elements []Column `json:"elements,omitempty" yaml:"elements,omitempty"`
	// Target is the level of associated entities.
	Target *Level `json:"target,omitempty" yaml:"target,omitempty"`
	// Key is the level of entity map keys.
	Key *Level `json:"key,omitempty" yaml:"key,omitempty"`
}

// Walk calls fn for every step of the plan, depth-first.
func (p *Plan) Walk(fn func(*Step) error) error {
	if p.Root == nil {
		return nil
	}
	return p.Root.walk(fn)
}

// Paths returns the paths of all steps in walk order.
func (p *Plan) Paths() []string {
	var paths []string
	_ = p.Walk(func(s *Step) error {
		paths = append(paths, s.Path)
		return nil
	})
	return paths
}

func (l *Level) walk(fn func(*Step) error) error {
	for _, s := range l.Steps {
		if err := fn(s); err != nil {
			return err
		}
		for _, next := range []*Level{s.Key, s.Target} {
			if next == nil {
				continue
			}
			if err := next.walk(fn); err != nil {
				return err
			}
		}
	}
	for _, sub := range l.Subtypes {
		if err := sub.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Column returns the column of the given attribute path.
func (l *Level) Column(attr string) (Column, bool) {
	for _, c := range l.Columns {
		if c.Attribute == attr {
			return c, true
		}
	}
	return Column{}, false
}

// Step returns the step of the given attribute.
func (l *Level) Step(attr string) (*Step, bool) {
	for _, s := range l.Steps {
		if s.Attribute == attr {
			return s, true
		}
	}
	return nil, false
}

// Subtype returns the subtype level of the given type.
func (l *Level) Subtype(typ string) (*Level, bool) {
	for _, s := range l.Subtypes {
		if s.Type == typ {
			return s, true
		}
	}
	return nil, false
}

// Encode serializes the plan with msgpack.
func Encode(p *Plan) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("fetchplan: encode plan: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a plan encoded with Encode.
func Decode(b []byte) (*Plan, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	p := &Plan{}
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("fetchplan: decode plan: %w", err)
	}
	return p, nil
}
