package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// NamedEntityGraph declares an entity graph statically. Graphs built from a
// declaration are immutable. The zero Name defaults to the name of the entity
// type the declaration is attached to.
//
//	schema.NamedEntityGraph{
//		Name: "Employee.department",
//		AttributeNodes: []schema.NamedAttributeNode{
//			{Value: "name"},
//			{Value: "department", Subgraph: "dept"},
//		},
//		Subgraphs: []schema.NamedSubgraph{
//			{Name: "dept", AttributeNodes: schema.Nodes("deptName")},
//		},
//	}
type NamedEntityGraph struct {
	// Name of the graph. Must be unique within a registry.
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	// Type is the root entity type. It is filled in when the declaration is
	// attached to a managed type through the NamedEntityGraphs annotation.
	Type string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	// AttributeNodes lists the attributes of the root type to include.
	AttributeNodes []NamedAttributeNode `json:"attributeNodes,omitempty" yaml:"attributeNodes,omitempty" toml:"attributeNodes,omitempty"`
	// IncludeAllAttributes includes every attribute of the root type,
	// declared and inherited, as attribute nodes.
	IncludeAllAttributes bool `json:"includeAllAttributes,omitempty" yaml:"includeAllAttributes,omitempty" toml:"includeAllAttributes,omitempty"`
	// Subgraphs are referenced by name from attribute nodes.
	Subgraphs []NamedSubgraph `json:"subgraphs,omitempty" yaml:"subgraphs,omitempty" toml:"subgraphs,omitempty"`
	// SubclassSubgraphs add attributes of subtypes of the root type.
	SubclassSubgraphs []NamedSubgraph `json:"subclassSubgraphs,omitempty" yaml:"subclassSubgraphs,omitempty" toml:"subclassSubgraphs,omitempty"`
}

// NamedAttributeNode declares one attribute node. Subgraph and KeySubgraph
// reference NamedSubgraph entries of the enclosing NamedEntityGraph by name.
type NamedAttributeNode struct {
	Value       string `json:"value" yaml:"value" toml:"value"`
	Subgraph    string `json:"subgraph,omitempty" yaml:"subgraph,omitempty" toml:"subgraph,omitempty"`
	KeySubgraph string `json:"keySubgraph,omitempty" yaml:"keySubgraph,omitempty" toml:"keySubgraph,omitempty"`
}

// NamedSubgraph declares a subgraph. Several subgraphs may share a name when
// they differ in Type, one per subtype of the attribute's target.
type NamedSubgraph struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	// Type narrows the subgraph to a subtype. Empty means the declared
	// target type of the referencing attribute.
	Type           string               `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	AttributeNodes []NamedAttributeNode `json:"attributeNodes,omitempty" yaml:"attributeNodes,omitempty" toml:"attributeNodes,omitempty"`
}

// Nodes is a shorthand for declaring plain attribute nodes.
func Nodes(names ...string) []NamedAttributeNode {
	nodes := make([]NamedAttributeNode, len(names))
	for i, n := range names {
		nodes[i] = NamedAttributeNode{Value: n}
	}
	return nodes
}

// UnmarshalYAML accepts both the mapping form and a bare attribute name.
func (n *NamedAttributeNode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*n = NamedAttributeNode{Value: node.Value}
		return nil
	}
	type plain NamedAttributeNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = NamedAttributeNode(p)
	return nil
}

// UnmarshalJSON accepts both the object form and a bare attribute name.
func (n *NamedAttributeNode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = NamedAttributeNode{Value: s}
		return nil
	}
	type plain NamedAttributeNode
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("schema: attribute node: %w", err)
	}
	*n = NamedAttributeNode(p)
	return nil
}

// UnmarshalTOML accepts both the table form and a bare attribute name.
func (n *NamedAttributeNode) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*n = NamedAttributeNode{Value: v}
	case map[string]any:
		*n = NamedAttributeNode{}
		for key, dst := range map[string]*string{"value": &n.Value, "subgraph": &n.Subgraph, "keySubgraph": &n.KeySubgraph} {
			if x, ok := v[key]; ok {
				s, ok := x.(string)
				if !ok {
					return fmt.Errorf("schema: attribute node: %s must be a string, got %T", key, x)
				}
				*dst = s
			}
		}
	default:
		return fmt.Errorf("schema: attribute node: unexpected %T", v)
	}
	return nil
}

// NamedEntityGraphs is the annotation attaching graph declarations to an
// entity type. Attaching it more than once appends the declarations.
type NamedEntityGraphs []NamedEntityGraph

// Graphs returns a NamedEntityGraphs annotation.
func Graphs(graphs ...NamedEntityGraph) NamedEntityGraphs {
	return NamedEntityGraphs(graphs)
}

// Name implements the Annotation interface.
func (NamedEntityGraphs) Name() string {
	return "NamedEntityGraphs"
}

// Merge implements the Merger interface.
func (a NamedEntityGraphs) Merge(other Annotation) Annotation {
	switch other := other.(type) {
	case NamedEntityGraphs:
		return append(a[:len(a):len(a)], other...)
	case *NamedEntityGraphs:
		if other != nil {
			return append(a[:len(a):len(a)], *other...)
		}
	}
	return a
}

var (
	_ Annotation = NamedEntityGraphs(nil)
	_ Merger     = NamedEntityGraphs(nil)
)
