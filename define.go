package entitygraph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/schema"
)

// Define builds the graph declared by def and freezes it. The graph name
// defaults to the root type name. Subgraphs are referenced by name from
// attribute nodes; declarations sharing a name but differing in Type become
// one subgraph per subtype. Any error is returned as a *DefinitionError
// wrapping the cause.
//
//	g, err := entitygraph.Define(model, schema.NamedEntityGraph{
//		Name: "Employee.department",
//		Type: "Employee",
//		AttributeNodes: []schema.NamedAttributeNode{
//			{Value: "name"},
//			{Value: "department", Subgraph: "dept"},
//		},
//		Subgraphs: []schema.NamedSubgraph{
//			{Name: "dept", AttributeNodes: schema.Nodes("deptName")},
//		},
//	})
func Define(reg Registry, def schema.NamedEntityGraph) (*EntityGraph, error) {
	name := cmp.Or(def.Name, def.Type)
	fail := func(path string, err error) (*EntityGraph, error) {
		return nil, &DefinitionError{Graph: name, Path: path, Err: err}
	}
	if def.Type == "" {
		return fail("", errors.New("missing root type"))
	}
	g, err := New(reg, def.Type, WithName(name))
	if err != nil {
		return fail("", err)
	}
	d := &definer{reg: reg, def: def, active: make(map[string]bool)}
	if def.IncludeAllAttributes {
		if err := g.AddAttributes(g.typ.Attributes()...); err != nil {
			return fail("", err)
		}
	}
	if err := d.nodes(&g.container, "attributeNodes", def.AttributeNodes); err != nil {
		return nil, &DefinitionError{Graph: name, Path: d.path, Err: err}
	}
	for i, sub := range supertypesFirst(reg, def.SubclassSubgraphs) {
		path := fmt.Sprintf("subclassSubgraphs[%d]", i)
		if sub.Type == "" {
			return fail(path, errors.New("subclass subgraph without type"))
		}
		s, err := g.AddSubclassSubgraph(sub.Type)
		if err != nil {
			return fail(path, err)
		}
		if err := d.nodes(&s.container, path+".attributeNodes", sub.AttributeNodes); err != nil {
			return nil, &DefinitionError{Graph: name, Path: d.path, Err: err}
		}
	}
	return g.Freeze(), nil
}

// MustDefine is like Define but panics on error.
func MustDefine(reg Registry, def schema.NamedEntityGraph) *EntityGraph {
	g, err := Define(reg, def)
	if err != nil {
		panic(err)
	}
	return g
}

type definer struct {
	reg    Registry
	def    schema.NamedEntityGraph
	active map[string]bool // subgraph names being expanded
	path   string          // location of the last error
}

func (d *definer) nodes(c *container, path string, nodes []schema.NamedAttributeNode) error {
	for i, n := range nodes {
		p := fmt.Sprintf("%s[%d]", path, i)
		if n.Value == "" {
			d.path = p
			return errors.New("attribute node without value")
		}
		a, err := c.resolve(n.Value)
		if err != nil {
			d.path = p
			return err
		}
		c.addNodes(a)
		if n.Subgraph != "" {
			if err := d.subgraphs(c, a, p, n.Subgraph, false); err != nil {
				return err
			}
		}
		if n.KeySubgraph != "" {
			if err := d.subgraphs(c, a, p, n.KeySubgraph, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// subgraphs expands every subgraph declaration named ref on attribute a.
func (d *definer) subgraphs(c *container, a *metamodel.Attribute, path, ref string, key bool) error {
	path = fmt.Sprintf("%s.subgraphs[%s]", path, ref)
	if d.active[ref] {
		d.path = path
		return fmt.Errorf("recursive reference to subgraph %q", ref)
	}
	var decls []schema.NamedSubgraph
	for _, s := range d.def.Subgraphs {
		if s.Name == ref {
			decls = append(decls, s)
		}
	}
	if len(decls) == 0 {
		d.path = path
		return fmt.Errorf("unknown subgraph %q", ref)
	}
	d.active[ref] = true
	defer delete(d.active, ref)
	for _, decl := range supertypesFirst(d.reg, decls) {
		s, err := c.addSubgraph(a, decl.Type, key)
		if err != nil {
			d.path = path
			return err
		}
		if err := d.nodes(&s.container, path+".attributeNodes", decl.AttributeNodes); err != nil {
			return err
		}
	}
	return nil
}

// supertypesFirst orders declarations so that subgraphs for supertypes are
// built before those of their subtypes. Declaration order is kept otherwise.
func supertypesFirst(reg Registry, decls []schema.NamedSubgraph) []schema.NamedSubgraph {
	depth := func(name string) int {
		t, ok := reg.Type(name)
		if !ok {
			return 0
		}
		var n int
		for c := t.Supertype(); c != nil; c = c.Supertype() {
			n++
		}
		return n
	}
	sorted := slices.Clone(decls)
	slices.SortStableFunc(sorted, func(a, b schema.NamedSubgraph) int {
		return cmp.Compare(depth(a.Type), depth(b.Type))
	})
	return sorted
}
