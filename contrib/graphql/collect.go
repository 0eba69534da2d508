package graphql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/metamodel"
)

// Connection and map entry field names.
const (
	fieldEdges = "edges"
	fieldNode  = "node"
	fieldNodes = "nodes"
	fieldKey   = "key"
	fieldValue = "value"
)

var (
	// ErrNoFieldContext is returned by FromContext outside of a gqlgen
	// resolver.
	ErrNoFieldContext = errors.New("graphql: no field context")
	// ErrMaxDepth is returned when a selection nests deeper than the
	// configured limit.
	ErrMaxDepth = errors.New("graphql: selection exceeds max depth")
)

type (
	// Option configures the collection of a graph.
	Option func(*config)

	config struct {
		name      string
		vars      map[string]any
		fragments ast.FragmentDefinitionList
		maxDepth  int
	}
)

// WithName sets the name of the collected graph.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithVariables sets the operation variables used by @skip and @include.
func WithVariables(vars map[string]any) Option {
	return func(c *config) { c.vars = vars }
}

// WithFragments sets the fragment definitions of the operation, used for
// fragment spreads of documents that were not validated.
func WithFragments(fragments ast.FragmentDefinitionList) Option {
	return func(c *config) { c.fragments = fragments }
}

// WithMaxDepth limits the nesting of association selections. Zero means
// no limit.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// Collector builds entity graphs from GraphQL selection sets: selected
// fields become attribute nodes, nested selections become subgraphs, and
// fragments on subtypes become subclass subgraphs.
//
// A Collector is safe for concurrent use.
type Collector struct {
	binding *binding
}

// NewCollector returns a collector for the types of m.
func NewCollector(m *metamodel.Model) *Collector {
	return &Collector{binding: bind(m)}
}

// FromSelectionSet is a shorthand for NewCollector(m).Collect.
func FromSelectionSet(m *metamodel.Model, root string, set ast.SelectionSet, opts ...Option) (*entitygraph.EntityGraph, error) {
	return NewCollector(m).Collect(root, set, opts...)
}

// FromContext collects the graph of the field resolved in ctx, a gqlgen
// resolver context, with the variables and fragments of its operation.
func FromContext(ctx context.Context, m *metamodel.Model, root string, opts ...Option) (*entitygraph.EntityGraph, error) {
	fc := graphql.GetFieldContext(ctx)
	if fc == nil || fc.Field.Field == nil {
		return nil, ErrNoFieldContext
	}
	var base []Option
	if graphql.HasOperationContext(ctx) {
		oc := graphql.GetOperationContext(ctx)
		base = append(base, WithVariables(oc.Variables))
		if oc.Doc != nil {
			base = append(base, WithFragments(oc.Doc.Fragments))
		}
	}
	return NewCollector(m).Collect(root, fc.Field.Selections, append(base, opts...)...)
}

// Collect returns a mutable graph rooted at the given entity type holding
// the attributes selected by set. Fields without a mapped attribute, such
// as computed fields, are ignored.
func (c *Collector) Collect(root string, set ast.SelectionSet, opts ...Option) (*entitygraph.EntityGraph, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	g, err := entitygraph.New(c.binding.model, root, entitygraph.WithName(cfg.name))
	if err != nil {
		return nil, err
	}
	w := &walker{binding: c.binding, config: cfg}
	if err := w.walk(g, set, 1); err != nil {
		return nil, err
	}
	return g, nil
}

// container is the mutation surface shared by graphs and subgraphs.
type container interface {
	entitygraph.Graph
	AddAttributes(...*metamodel.Attribute) error
	AddSubgraphFor(*metamodel.Attribute, string) (*entitygraph.Subgraph, error)
	AddKeySubgraphFor(*metamodel.Attribute, string) (*entitygraph.Subgraph, error)
	AddSubclassSubgraph(string) (*entitygraph.Subgraph, error)
}

type walker struct {
	*binding
	*config
	spreads []string
}

func (w *walker) walk(c container, set ast.SelectionSet, depth int) error {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			if !w.include(sel.Directives) {
				continue
			}
			if err := w.field(c, sel, depth); err != nil {
				return err
			}
		case *ast.InlineFragment:
			if !w.include(sel.Directives) {
				continue
			}
			if err := w.fragment(c, sel.TypeCondition, sel.SelectionSet, depth); err != nil {
				return err
			}
		case *ast.FragmentSpread:
			if !w.include(sel.Directives) {
				continue
			}
			if err := w.spread(c, sel, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) field(c container, f *ast.Field, depth int) error {
	if strings.HasPrefix(f.Name, "__") {
		return nil
	}
	for _, a := range w.attributes(c.Type(), f.Name) {
		if err := w.attribute(c, a, f, depth); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) attribute(c container, a *metamodel.Attribute, f *ast.Field, depth int) error {
	_, managed := w.model.Target(a)
	if a.IsMap() {
		_, managedKey := w.model.KeyType(a)
		managed = managed || managedKey
	}
	if !managed || len(f.SelectionSet) == 0 {
		return c.AddAttributes(a)
	}
	if w.maxDepth > 0 && depth >= w.maxDepth {
		return fmt.Errorf("%w %d at %s", ErrMaxDepth, w.maxDepth, a)
	}
	set := f.SelectionSet
	if a.IsPlural() && From(a.Annotations).RelayConnection {
		set = connectionNodes(set)
	}
	if a.IsMap() {
		return w.entries(c, a, set, depth)
	}
	sub, err := c.AddSubgraphFor(a, "")
	if err != nil {
		return err
	}
	return w.walk(sub, set, depth+1)
}

// entries collects a map attribute selected as a list of key/value entries.
// A selection without key or value fields selects the values. Keys and
// values only get a subgraph when they are selected and managed.
func (w *walker) entries(c container, a *metamodel.Attribute, set ast.SelectionSet, depth int) error {
	keys, values, ok := entrySelections(set)
	if !ok {
		values = set
	}
	nested := false
	if _, managed := w.model.KeyType(a); managed && len(keys) > 0 {
		sub, err := c.AddKeySubgraphFor(a, "")
		if err != nil {
			return err
		}
		if err := w.walk(sub, keys, depth+1); err != nil {
			return err
		}
		nested = true
	}
	if _, managed := w.model.Target(a); managed && len(values) > 0 {
		sub, err := c.AddSubgraphFor(a, "")
		if err != nil {
			return err
		}
		if err := w.walk(sub, values, depth+1); err != nil {
			return err
		}
		nested = true
	}
	if !nested {
		return c.AddAttributes(a)
	}
	return nil
}

// fragment applies the selections of a fragment. A condition on a proper
// subtype of the container type goes to a subclass subgraph, a condition
// on an unrelated type is skipped.
func (w *walker) fragment(c container, cond string, set ast.SelectionSet, depth int) error {
	t, ok := w.lookup(cond)
	typ := c.Type()
	switch {
	case cond == "" || !ok:
		// Interfaces and unions unknown to the model.
		return w.walk(c, set, depth)
	case w.model.IsSubtype(typ.Name, t.Name):
		return w.walk(c, set, depth)
	case w.model.IsSubtype(t.Name, typ.Name):
		sub, err := c.AddSubclassSubgraph(t.Name)
		if err != nil {
			return err
		}
		return w.walk(sub, set, depth)
	}
	return nil
}

func (w *walker) spread(c container, s *ast.FragmentSpread, depth int) error {
	def := s.Definition
	if def == nil {
		def = w.fragments.ForName(s.Name)
	}
	if def == nil {
		return fmt.Errorf("graphql: unknown fragment %q", s.Name)
	}
	for _, name := range w.spreads {
		if name == def.Name {
			return fmt.Errorf("graphql: fragment %q spreads itself", def.Name)
		}
	}
	w.spreads = append(w.spreads, def.Name)
	defer func() { w.spreads = w.spreads[:len(w.spreads)-1] }()
	return w.fragment(c, def.TypeCondition, def.SelectionSet, depth)
}

// include evaluates the @skip and @include directives.
func (w *walker) include(dirs ast.DirectiveList) bool {
	if d := dirs.ForName("skip"); d != nil && w.condition(d) {
		return false
	}
	if d := dirs.ForName("include"); d != nil && !w.condition(d) {
		return false
	}
	return true
}

func (w *walker) condition(d *ast.Directive) bool {
	arg := d.Arguments.ForName("if")
	if arg == nil || arg.Value == nil {
		return false
	}
	v, err := arg.Value.Value(w.vars)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

// connectionNodes returns the node selections of a Relay connection
// selection: edges.node and nodes.
func connectionNodes(set ast.SelectionSet) ast.SelectionSet {
	var nodes ast.SelectionSet
	for _, sel := range set {
		f, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		switch f.Name {
		case fieldNodes:
			nodes = append(nodes, f.SelectionSet...)
		case fieldEdges:
			for _, esel := range f.SelectionSet {
				if ef, ok := esel.(*ast.Field); ok && ef.Name == fieldNode {
					nodes = append(nodes, ef.SelectionSet...)
				}
			}
		}
	}
	return nodes
}

// entrySelections splits a map entry selection into key and value
// selections. It reports false if set selects neither.
func entrySelections(set ast.SelectionSet) (keys, values ast.SelectionSet, ok bool) {
	for _, sel := range set {
		f, isField := sel.(*ast.Field)
		if !isField {
			continue
		}
		switch f.Name {
		case fieldKey:
			keys, ok = append(keys, f.SelectionSet...), true
		case fieldValue:
			values, ok = append(values, f.SelectionSet...), true
		}
	}
	return keys, values, ok
}
