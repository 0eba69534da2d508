package entitygraph

import (
	"slices"

	"github.com/syssam/entitygraph/metamodel"
)

// AttributeNode represents one attribute of the type of its enclosing graph
// or subgraph. It owns the subgraphs describing the attribute's value and,
// for map attributes, its keys. Each dimension holds at most one subgraph per
// type, in creation order.
type AttributeNode struct {
	attr   *metamodel.Attribute
	owner  *container
	values subgraphSet
	keys   subgraphSet
}

func newAttributeNode(owner *container, a *metamodel.Attribute) *AttributeNode {
	n := &AttributeNode{attr: a, owner: owner}
	n.values = subgraphSet{node: n}
	n.keys = subgraphSet{node: n, key: true}
	return n
}

// Name returns the attribute name.
func (n *AttributeNode) Name() string { return n.attr.Name }

// Attribute returns the attribute metadata.
func (n *AttributeNode) Attribute() *metamodel.Attribute { return n.attr }

// Subgraphs returns the value subgraphs of the node.
func (n *AttributeNode) Subgraphs() []*Subgraph { return slices.Clone(n.values.graphs) }

// Subgraph returns the value subgraph for the given type.
func (n *AttributeNode) Subgraph(typ string) (*Subgraph, bool) { return n.values.get(typ) }

// KeySubgraphs returns the map-key subgraphs of the node.
func (n *AttributeNode) KeySubgraphs() []*Subgraph { return slices.Clone(n.keys.graphs) }

// KeySubgraph returns the map-key subgraph for the given type.
func (n *AttributeNode) KeySubgraph(typ string) (*Subgraph, bool) { return n.keys.get(typ) }

// subgraphSet holds the subgraphs of one dimension: the value or key
// subgraphs of an attribute node, or the subclass subgraphs of a graph.
// Members are kept deep supersets of every member for a supertype, and of
// base when set.
type subgraphSet struct {
	node   *AttributeNode // owning node, nil for subclass sets
	key    bool
	base   *container // narrowed graph of subclass sets
	graphs []*Subgraph
}

func (s *subgraphSet) get(typ string) (*Subgraph, bool) {
	for _, g := range s.graphs {
		if g.typ.Name == typ {
			return g, true
		}
	}
	return nil, false
}

// create adds a subgraph for typ, seeded with the attribute nodes of the
// base graph and of every existing subgraph for a supertype of typ.
func (s *subgraphSet) create(reg Registry, tr *tree, typ *metamodel.Type) *Subgraph {
	g := s.alloc(reg, tr, typ)
	if s.base != nil {
		g.merge(s.base)
	}
	for _, sup := range s.graphs[:len(s.graphs)-1] {
		if reg.IsSubtype(typ.Name, sup.typ.Name) {
			g.merge(&sup.container)
		}
	}
	return g
}

// alloc appends an empty subgraph for typ.
func (s *subgraphSet) alloc(reg Registry, tr *tree, typ *metamodel.Type) *Subgraph {
	g := &Subgraph{node: s.node, key: s.key}
	g.init(g, reg, tr, typ)
	g.set = s
	s.graphs = append(s.graphs, g)
	return g
}

// mirrors returns the subgraphs of the same type and dimension as c held by
// the node of the same attribute in each heir of the owning container. It is
// empty for subclass sets.
func (s *subgraphSet) mirrors(c *container) []*container {
	if s.node == nil {
		return nil
	}
	var ms []*container
	for _, h := range s.node.owner.heirs() {
		n, ok := h.index[s.node.attr.Name]
		if !ok {
			continue
		}
		set := &n.values
		if s.key {
			set = &n.keys
		}
		if g, ok := set.get(c.typ.Name); ok {
			ms = append(ms, &g.container)
		}
	}
	return ms
}

// heirs returns the members that must include nodes added to c.
func (s *subgraphSet) heirs(reg Registry, c *container) []*Subgraph {
	var heirs []*Subgraph
	for _, g := range s.graphs {
		if &g.container != c && reg.IsSubtype(g.typ.Name, c.typ.Name) {
			heirs = append(heirs, g)
		}
	}
	return heirs
}
