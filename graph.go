package entitygraph

import (
	"fmt"
	"slices"

	"github.com/syssam/entitygraph/metamodel"
)

// Graph is the read surface shared by entity graphs and subgraphs.
type Graph interface {
	// Type returns the managed type the graph describes.
	Type() *metamodel.Type
	// AttributeNodes returns the attribute nodes in insertion order.
	AttributeNodes() []*AttributeNode
	// AttributeNode returns the node of the given attribute.
	AttributeNode(name string) (*AttributeNode, bool)
	// SubclassSubgraphs returns the subgraphs narrowing the graph to subtypes.
	SubclassSubgraphs() []*Subgraph
}

var (
	_ Graph = (*EntityGraph)(nil)
	_ Graph = (*Subgraph)(nil)
)

// tree holds the state shared by all nodes of one graph.
type tree struct {
	name   string
	frozen bool
}

// EntityGraph is the root of an entity graph: the attributes of an entity type,
// and transitively of related types, that are to be fetched eagerly.
//
// An EntityGraph is not safe for concurrent mutation. A frozen graph rejects
// all mutations and is safe for concurrent reads.
type EntityGraph struct {
	container
}

// Subgraph describes the attributes of the value or map key of an attribute,
// or the additional attributes of a subtype of the enclosing graph.
type Subgraph struct {
	container
	node *AttributeNode
	key  bool
}

// Option configures an EntityGraph.
type Option func(*EntityGraph)

// WithName sets the graph name.
func WithName(name string) Option {
	return func(g *EntityGraph) {
		g.tree.name = name
	}
}

// New returns an empty mutable graph for the given entity type.
//
//	g, err := entitygraph.New(model, "Employee", entitygraph.WithName("Employee.department"))
func New(reg Registry, typ string, opts ...Option) (*EntityGraph, error) {
	t, ok := reg.Type(typ)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidType, typ)
	}
	if !t.IsEntity() {
		return nil, fmt.Errorf("%w: %q is %s, not an entity", ErrInvalidType, typ, t.Kind)
	}
	g := &EntityGraph{}
	g.init(g, reg, &tree{}, t)
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// MustNew is like New but panics on error.
func MustNew(reg Registry, typ string, opts ...Option) *EntityGraph {
	g, err := New(reg, typ, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

// Name returns the graph name, or "" for anonymous graphs.
func (g *EntityGraph) Name() string { return g.tree.name }

// Freeze makes the graph and all its subgraphs immutable. It is a no-op on
// frozen graphs.
func (g *EntityGraph) Freeze() *EntityGraph {
	g.tree.frozen = true
	return g
}

// Copy returns a mutable deep copy of the graph with the given name.
// Copying a frozen graph is the way to derive new graphs from declared ones.
func (g *EntityGraph) Copy(name string) *EntityGraph {
	cp := &EntityGraph{}
	cp.init(cp, g.reg, &tree{name: name}, g.typ)
	g.cloneTo(&cp.container)
	return cp
}

// Attribute returns the attribute whose value or key this subgraph describes,
// or nil for subclass subgraphs.
func (s *Subgraph) Attribute() *metamodel.Attribute {
	if s.node == nil {
		return nil
	}
	return s.node.attr
}

// IsKey reports whether the subgraph describes map keys.
func (s *Subgraph) IsKey() bool { return s.key }

// container is the tree-building implementation shared by EntityGraph and
// Subgraph.
type container struct {
	reg        Registry
	typ        *metamodel.Type
	tree       *tree
	nodes      []*AttributeNode
	index      map[string]*AttributeNode
	subclasses subgraphSet
	set        *subgraphSet // set holding this subgraph, nil for roots
	self       Graph        // enclosing *EntityGraph or *Subgraph
}

func (c *container) init(self Graph, reg Registry, tr *tree, typ *metamodel.Type) {
	c.self = self
	c.reg = reg
	c.typ = typ
	c.tree = tr
	c.index = make(map[string]*AttributeNode)
	c.subclasses = subgraphSet{base: c}
}

// Type returns the managed type the graph describes.
func (c *container) Type() *metamodel.Type { return c.typ }

// Frozen reports whether the graph is frozen.
func (c *container) Frozen() bool { return c.tree.frozen }

// AttributeNodes returns the attribute nodes in insertion order.
func (c *container) AttributeNodes() []*AttributeNode { return slices.Clone(c.nodes) }

// AttributeNode returns the node of the given attribute.
func (c *container) AttributeNode(name string) (*AttributeNode, bool) {
	n, ok := c.index[name]
	return n, ok
}

// SubclassSubgraphs returns the subgraphs narrowing the graph to subtypes.
func (c *container) SubclassSubgraphs() []*Subgraph { return slices.Clone(c.subclasses.graphs) }

// SubclassSubgraph returns the subclass subgraph for the given type.
func (c *container) SubclassSubgraph(typ string) (*Subgraph, bool) { return c.subclasses.get(typ) }

// AddAttributeNodes adds nodes for the named attributes of the graph type,
// declared or inherited. Existing nodes are kept, so the operation is
// idempotent. If any name is invalid, no node is added.
func (c *container) AddAttributeNodes(names ...string) error {
	if err := c.mutable("add attribute nodes"); err != nil {
		return err
	}
	attrs := make([]*metamodel.Attribute, 0, len(names))
	for _, name := range names {
		a, err := c.resolve(name)
		if err != nil {
			return err
		}
		attrs = append(attrs, a)
	}
	c.addNodes(attrs...)
	return nil
}

// AddAttributes is like AddAttributeNodes, but takes resolved attributes.
// Each attribute must belong to the graph type.
func (c *container) AddAttributes(attrs ...*metamodel.Attribute) error {
	if err := c.mutable("add attribute nodes"); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := c.check(a); err != nil {
			return err
		}
	}
	c.addNodes(attrs...)
	return nil
}

// AddSubgraph returns the subgraph for the value of the named attribute,
// creating it and the attribute node if needed. The subgraph describes the
// declared target type of the attribute.
func (c *container) AddSubgraph(name string) (*Subgraph, error) {
	return c.AddSubgraphAs(name, "")
}

// AddSubgraphAs is like AddSubgraph, but narrows the subgraph to a subtype
// of the attribute target. Subgraphs accumulate per subtype: a repeated call
// with the same subtype returns the existing subgraph, and the subgraph for
// a subtype holds the attribute nodes and nested subgraphs of the subgraphs
// for its supertypes, whichever was built first.
func (c *container) AddSubgraphAs(name, subtype string) (*Subgraph, error) {
	if err := c.mutable("add subgraph"); err != nil {
		return nil, err
	}
	a, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	return c.AddSubgraphFor(a, subtype)
}

// AddSubgraphFor is like AddSubgraphAs, but takes a resolved attribute.
// An empty subtype selects the declared target type.
func (c *container) AddSubgraphFor(a *metamodel.Attribute, subtype string) (*Subgraph, error) {
	return c.addSubgraph(a, subtype, false)
}

// AddKeySubgraph returns the subgraph for the keys of the named map
// attribute. The key type, not the value type, must be managed.
func (c *container) AddKeySubgraph(name string) (*Subgraph, error) {
	return c.AddKeySubgraphAs(name, "")
}

// AddKeySubgraphAs is like AddKeySubgraph, but narrows the subgraph to a
// subtype of the map key type.
func (c *container) AddKeySubgraphAs(name, subtype string) (*Subgraph, error) {
	if err := c.mutable("add key subgraph"); err != nil {
		return nil, err
	}
	a, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	return c.AddKeySubgraphFor(a, subtype)
}

// AddKeySubgraphFor is like AddKeySubgraphAs, but takes a resolved attribute.
func (c *container) AddKeySubgraphFor(a *metamodel.Attribute, subtype string) (*Subgraph, error) {
	return c.addSubgraph(a, subtype, true)
}

// AddSubclassSubgraph returns the subgraph for attributes only visible on a
// proper subtype of the graph type. The subgraph holds every attribute node
// of the graph and of the subclass subgraphs for supertypes of subtype,
// with their value and key subgraphs, including those added after it was
// created.
func (c *container) AddSubclassSubgraph(subtype string) (*Subgraph, error) {
	if err := c.mutable("add subclass subgraph"); err != nil {
		return nil, err
	}
	t, ok := c.reg.Type(subtype)
	switch {
	case !ok:
		return nil, &InvalidAttributeError{Type: c.typ.Name, Subtype: subtype, Reason: "unknown type"}
	case t.Name == c.typ.Name || !c.reg.IsSubtype(t.Name, c.typ.Name):
		return nil, &InvalidAttributeError{Type: c.typ.Name, Subtype: subtype, Reason: "not a proper subtype"}
	}
	if s, ok := c.subclasses.get(t.Name); ok {
		return s, nil
	}
	return c.subclasses.create(c.reg, c.tree, t), nil
}

func (c *container) addSubgraph(a *metamodel.Attribute, subtype string, key bool) (*Subgraph, error) {
	op := "add subgraph"
	if key {
		op = "add key subgraph"
	}
	if err := c.mutable(op); err != nil {
		return nil, err
	}
	if err := c.check(a); err != nil {
		return nil, err
	}
	t, err := c.subgraphType(a, subtype, key)
	if err != nil {
		return nil, err
	}
	return c.ensureSubgraph(a, t, key), nil
}

// ensureSubgraph returns the value or key subgraph of type t for the node of
// a, creating it in c and in every heir of c.
func (c *container) ensureSubgraph(a *metamodel.Attribute, t *metamodel.Type, key bool) *Subgraph {
	c.addNodes(a)
	n := c.index[a.Name]
	set := &n.values
	if key {
		set = &n.keys
	}
	if s, ok := set.get(t.Name); ok {
		return s
	}
	s := set.create(c.reg, c.tree, t)
	for _, h := range c.heirs() {
		h.ensureSubgraph(a, t, key).merge(&s.container)
	}
	return s
}

func (c *container) mutable(op string) error {
	if c.tree.frozen {
		return &FrozenGraphError{Graph: c.tree.name, Op: op}
	}
	return nil
}

// resolve looks up an attribute of the graph type by name.
func (c *container) resolve(name string) (*metamodel.Attribute, error) {
	a, err := c.reg.Attribute(c.typ.Name, name)
	if err != nil {
		return nil, &InvalidAttributeError{Type: c.typ.Name, Attribute: name, Reason: "no such attribute", Cause: err}
	}
	return a, nil
}

// check verifies that a resolved attribute belongs to the graph type.
func (c *container) check(a *metamodel.Attribute) error {
	if a == nil {
		return &InvalidAttributeError{Type: c.typ.Name, Reason: "nil attribute"}
	}
	r, err := c.reg.Attribute(c.typ.Name, a.Name)
	if err != nil {
		return &InvalidAttributeError{Type: c.typ.Name, Attribute: a.Name, Reason: "no such attribute", Cause: err}
	}
	if r != a {
		return &InvalidAttributeError{Type: c.typ.Name, Attribute: a.Name, Reason: fmt.Sprintf("attribute %s does not belong to the type", a)}
	}
	return nil
}

// subgraphType returns the type a subgraph of a describes.
func (c *container) subgraphType(a *metamodel.Attribute, subtype string, key bool) (*metamodel.Type, error) {
	target, dim := a.Target, "target"
	if key {
		if !a.IsMap() {
			return nil, &InvalidAttributeError{Type: c.typ.Name, Attribute: a.Name, Subtype: subtype, Reason: "not a map attribute"}
		}
		target, dim = a.Key, "map key"
	}
	t, ok := c.reg.Type(target)
	if !ok || !t.Managed() {
		return nil, &InvalidAttributeError{Type: c.typ.Name, Attribute: a.Name, Subtype: subtype, Reason: fmt.Sprintf("%s type %q is not a managed type", dim, target)}
	}
	if subtype == "" || subtype == target {
		return t, nil
	}
	st, ok := c.reg.Type(subtype)
	if !ok || !c.reg.IsSubtype(subtype, target) {
		return nil, &InvalidAttributeError{Type: c.typ.Name, Attribute: a.Name, Subtype: subtype, Reason: fmt.Sprintf("%q is not a subtype of %s type %q", subtype, dim, target)}
	}
	return st, nil
}

// addNodes inserts missing nodes and forwards them to the subgraphs that
// must stay supersets of c.
func (c *container) addNodes(attrs ...*metamodel.Attribute) {
	var added []*metamodel.Attribute
	for _, a := range attrs {
		if _, ok := c.index[a.Name]; ok {
			continue
		}
		c.insert(a)
		added = append(added, a)
	}
	if len(added) == 0 {
		return
	}
	for _, h := range c.heirs() {
		h.addNodes(added...)
	}
}

// heirs returns the containers that must stay supersets of c: its subclass
// subgraphs, the subgraphs for subtypes of c in its set, and the subgraphs
// standing for c under the heirs of its parent.
func (c *container) heirs() []*container {
	var hs []*container
	for _, g := range c.subclasses.heirs(c.reg, c) {
		hs = append(hs, &g.container)
	}
	if c.set != nil {
		for _, g := range c.set.heirs(c.reg, c) {
			hs = append(hs, &g.container)
		}
		hs = append(hs, c.set.mirrors(c)...)
	}
	return hs
}

func (c *container) insert(a *metamodel.Attribute) *AttributeNode {
	n := newAttributeNode(c, a)
	c.nodes = append(c.nodes, n)
	c.index[a.Name] = n
	return n
}

// merge adds the nodes of src, with their value and key subgraphs, to c.
func (c *container) merge(src *container) {
	for _, sn := range src.nodes {
		c.addNodes(sn.attr)
		for _, sg := range sn.values.graphs {
			c.ensureSubgraph(sn.attr, sg.typ, false).merge(&sg.container)
		}
		for _, sg := range sn.keys.graphs {
			c.ensureSubgraph(sn.attr, sg.typ, true).merge(&sg.container)
		}
	}
}

// cloneTo copies the whole subtree of c into the empty container dst.
func (c *container) cloneTo(dst *container) {
	for _, n := range c.nodes {
		dn := dst.insert(n.attr)
		n.values.cloneTo(dst, &dn.values)
		n.keys.cloneTo(dst, &dn.keys)
	}
	c.subclasses.cloneTo(dst, &dst.subclasses)
}

func (s *subgraphSet) cloneTo(owner *container, dst *subgraphSet) {
	for _, sg := range s.graphs {
		g := dst.alloc(owner.reg, owner.tree, sg.typ)
		sg.cloneTo(&g.container)
	}
}
