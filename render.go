package entitygraph

import (
	"errors"
	"strings"
)

// String renders the graph as an indented tree, one attribute node per
// line. The output is deterministic and reflects insertion order:
//
//	graph "Employee.department" (Employee)
//	  name
//	  department -> Department
//	    deptName
//	  phones [key] -> PhoneType
//	    label
//	  + Manager
//	    level
func (g *EntityGraph) String() string {
	var b strings.Builder
	b.WriteString("graph ")
	if g.tree.name != "" {
		b.WriteString(`"` + g.tree.name + `" `)
	}
	b.WriteString("(" + g.typ.Name + ")\n")
	g.render(&b, 1)
	return b.String()
}

// String renders the subgraph like EntityGraph.String.
func (s *Subgraph) String() string {
	var b strings.Builder
	b.WriteString("subgraph (" + s.typ.Name + ")\n")
	s.render(&b, 1)
	return b.String()
}

func (c *container) render(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range c.nodes {
		if len(n.values.graphs) == 0 && len(n.keys.graphs) == 0 {
			b.WriteString(indent + n.Name() + "\n")
			continue
		}
		for _, s := range n.values.graphs {
			b.WriteString(indent + n.Name() + " -> " + s.typ.Name + "\n")
			s.render(b, depth+1)
		}
		for _, s := range n.keys.graphs {
			b.WriteString(indent + n.Name() + " [key] -> " + s.typ.Name + "\n")
			s.render(b, depth+1)
		}
	}
	for _, s := range c.subclasses.graphs {
		b.WriteString(indent + "+ " + s.typ.Name + "\n")
		s.render(b, depth+1)
	}
}

// SkipSubgraphs is used as a return value from WalkFunc to indicate that
// the subgraphs of the visited node are to be skipped.
var SkipSubgraphs = errors.New("skip subgraphs")

// WalkFunc is the type of the function called by Walk for each attribute
// node. The path locates the node from the walk root: attribute names joined
// by dots, with "<Type>" marking subgraphs narrowed to a subtype and "[key]"
// marking map-key subgraphs, e.g. "department<Division>.manager" or
// "phones[key].label".
type WalkFunc func(path string, owner Graph, node *AttributeNode) error

// Walk visits every attribute node depth-first in insertion order. Nodes
// reachable through several subgraphs are visited once per path. Subclass
// subgraphs are visited after the nodes of the graph they narrow.
func (c *container) Walk(fn WalkFunc) error {
	return c.walk("", c.self, fn)
}

func (c *container) walk(prefix string, owner Graph, fn WalkFunc) error {
	for _, n := range c.nodes {
		path := n.Name()
		if prefix != "" {
			path = prefix + "." + path
		}
		switch err := fn(path, owner, n); {
		case errors.Is(err, SkipSubgraphs):
			continue
		case err != nil:
			return err
		}
		for _, s := range n.values.graphs {
			p := path
			if s.typ.Name != n.attr.Target {
				p += "<" + s.typ.Name + ">"
			}
			if err := s.walk(p, s, fn); err != nil {
				return err
			}
		}
		for _, s := range n.keys.graphs {
			p := path + "[key]"
			if s.typ.Name != n.attr.Key {
				p += "<" + s.typ.Name + ">"
			}
			if err := s.walk(p, s, fn); err != nil {
				return err
			}
		}
	}
	for _, s := range c.subclasses.graphs {
		if err := s.walk(prefix+"<"+s.typ.Name+">", s, fn); err != nil {
			return err
		}
	}
	return nil
}
