package fetchplan

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/privacy"
)

// ErrUnsupported is returned for graphs whose root type cannot be loaded
// from the model, e.g. graphs built against another registry.
var ErrUnsupported = errors.New("fetchplan: unsupported graph")

// Option configures plan compilation.
type Option func(*options)

type options struct {
	mode     Mode
	maxDepth int
	policy   privacy.Rule
}

// WithMode sets the plan mode. The default is ModeFetch.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithMaxDepth limits the nesting of steps. Steps nested deeper are left out
// and recorded in Plan.Truncated. Zero means no limit.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithPolicy evaluates the given rule for every attribute the plan reads.
// Denied attributes are left out and recorded in Plan.Denied. Identifiers
// are always read.
func WithPolicy(rule privacy.Rule) Option {
	return func(o *options) {
		o.policy = rule
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Build compiles the graph into a plan. Graphs are usually built against the
// same model; only type and attribute names are carried over.
func Build(ctx context.Context, model *metamodel.Model, g entitygraph.Graph, opts ...Option) (*Plan, error) {
	o := newOptions(opts)
	root, ok := model.Type(g.Type().Name)
	if !ok || !root.IsEntity() {
		return nil, fmt.Errorf("%w: root type %q is not an entity of the model", ErrUnsupported, g.Type().Name)
	}
	b := &builder{ctx: ctx, model: model, opts: o, plan: &Plan{Mode: o.mode, MaxDepth: o.maxDepth}}
	if named, ok := g.(interface{ Name() string }); ok {
		b.plan.Graph = named.Name()
	}
	lvl, _, err := b.level(root, g, "", 0, true, nil)
	if err != nil {
		return nil, err
	}
	b.plan.Root = lvl
	return b.plan, nil
}

type builder struct {
	ctx   context.Context
	model *metamodel.Model
	opts  options
	plan  *Plan
}

// selection is one attribute read by a level, with its graph node if the
// attribute comes from the graph.
type selection struct {
	attr *metamodel.Attribute
	node *entitygraph.AttributeNode
}

// level compiles the rows of typ. Explicit levels come from graph containers
// and follow eager associations in ModeLoad; implicit ones stop at them.
// Attributes named in exclude are read by an enclosing level already.
func (b *builder) level(typ *metamodel.Type, g entitygraph.Graph, path string, depth int, explicit bool, exclude map[string]bool) (*Level, map[string]bool, error) {
	id := typ.ID()
	if id == nil {
		return nil, nil, fmt.Errorf("%w: type %q has no identifier", ErrUnsupported, typ.Name)
	}
	lvl := &Level{
		Type:          typ.Name,
		Table:         typ.Table(),
		ID:            id.Name,
		IDColumn:      id.ColumnName(),
		Discriminator: typ.Discriminator(),
	}
	if ant := typ.Root().SQL(); ant != nil {
		lvl.Schema = ant.Schema
	}
	if lvl.Discriminator != "" && typ.Root() != typ {
		lvl.DiscriminatorValues = b.discriminatorValues(typ)
	}
	handled := map[string]bool{id.Name: true}
	for name := range exclude {
		handled[name] = true
	}
	for _, sel := range b.selections(typ, g, explicit) {
		a := sel.attr
		if handled[a.Name] {
			continue
		}
		handled[a.Name] = true
		p := join(path, a.Name)
		ok, err := b.allowed(typ, a, p)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		switch a.Persistent {
		case metamodel.PersistentBasic:
			lvl.Columns = append(lvl.Columns, Column{Attribute: a.Name, Name: a.ColumnName()})
		case metamodel.PersistentEmbedded:
			cols, err := b.embedded(a, sel.node, a.Name, embeddedPrefix(a), p)
			if err != nil {
				return nil, nil, err
			}
			lvl.Columns = append(lvl.Columns, cols...)
		default:
			if b.opts.maxDepth > 0 && depth >= b.opts.maxDepth {
				b.plan.Truncated = append(b.plan.Truncated, p)
				continue
			}
			step, err := b.step(a, sel.node, p, depth+1, explicit && sel.node != nil)
			if err != nil {
				return nil, nil, err
			}
			lvl.Steps = append(lvl.Steps, step)
		}
	}
	if g != nil {
		for _, sg := range g.SubclassSubgraphs() {
			sub, err := b.subtype(sg, path, depth, handled)
			if err != nil {
				return nil, nil, err
			}
			lvl.Subtypes = append(lvl.Subtypes, sub)
		}
	}
	return lvl, handled, nil
}

// subtype compiles a subgraph narrowed to a subtype of an enclosing level.
func (b *builder) subtype(sg *entitygraph.Subgraph, path string, depth int, exclude map[string]bool) (*Level, error) {
	typ, ok := b.model.Type(sg.Type().Name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown subtype %q", ErrUnsupported, sg.Type().Name)
	}
	sub, _, err := b.level(typ, sg, path+"<"+typ.Name+">", depth, true, exclude)
	if err != nil {
		return nil, err
	}
	if sub.Discriminator != "" {
		sub.DiscriminatorValues = b.discriminatorValues(typ)
	}
	return sub, nil
}

// selections returns the attributes read for typ: graph nodes in insertion
// order, then in ModeLoad the remaining eager attributes in declaration order.
func (b *builder) selections(typ *metamodel.Type, g entitygraph.Graph, explicit bool) []selection {
	var sels []selection
	seen := make(map[string]bool)
	if g != nil {
		for _, n := range g.AttributeNodes() {
			a, ok := typ.Attribute(n.Name())
			if !ok {
				continue
			}
			seen[a.Name] = true
			sels = append(sels, selection{attr: a, node: n})
		}
	}
	if b.opts.mode != ModeLoad {
		return sels
	}
	for _, a := range typ.Attributes() {
		if seen[a.Name] || !a.Eager() {
			continue
		}
		if !explicit && (a.IsAssociation() || a.IsPlural()) {
			continue
		}
		sels = append(sels, selection{attr: a})
	}
	return sels
}

func (b *builder) allowed(typ *metamodel.Type, a *metamodel.Attribute, path string) (bool, error) {
	if b.opts.policy == nil {
		return true, nil
	}
	ok, err := privacy.Allowed(b.opts.policy.EvalAccess(b.ctx, privacy.Access{Type: typ, Attribute: a, Path: path}))
	if err != nil {
		return false, fmt.Errorf("fetchplan: evaluate access to %s: %w", path, err)
	}
	if !ok {
		b.plan.Denied = append(b.plan.Denied, path)
	}
	return ok, nil
}

// embedded returns the columns of an embedded value. The attributes read are
// those of the value subgraph, or all of them without one.
func (b *builder) embedded(a *metamodel.Attribute, node *entitygraph.AttributeNode, attrPath, prefix, path string) ([]Column, error) {
	emb, ok := b.model.Target(a)
	if !ok {
		return nil, fmt.Errorf("%w: embedded type %q of %s is not managed", ErrUnsupported, a.Target, a)
	}
	return b.valueColumns(emb, node, attrPath, prefix, path, func(s *entitygraph.AttributeNode) (*entitygraph.Subgraph, bool) {
		return s.Subgraph(emb.Name)
	})
}

// valueColumns returns the columns of the basic and embedded attributes of
// an embeddable, prefixing column names with prefix.
func (b *builder) valueColumns(emb *metamodel.Type, node *entitygraph.AttributeNode, attrPath, prefix, path string, sub func(*entitygraph.AttributeNode) (*entitygraph.Subgraph, bool)) ([]Column, error) {
	var (
		attrs []*metamodel.Attribute
		nodes = make(map[string]*entitygraph.AttributeNode)
	)
	if node != nil {
		if sg, ok := sub(node); ok {
			for _, n := range sg.AttributeNodes() {
				attrs = append(attrs, n.Attribute())
				nodes[n.Name()] = n
			}
		}
	}
	if attrs == nil {
		attrs = emb.Attributes()
	}
	var cols []Column
	for _, a := range attrs {
		p := join(path, a.Name)
		ok, err := b.allowed(emb, a, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		switch a.Persistent {
		case metamodel.PersistentBasic:
			cols = append(cols, Column{Attribute: join(attrPath, a.Name), Name: prefixed(prefix, a.ColumnName())})
		case metamodel.PersistentEmbedded:
			nested, err := b.embedded(a, nodes[a.Name], join(attrPath, a.Name), prefixed(prefix, embeddedPrefix(a)), p)
			if err != nil {
				return nil, err
			}
			cols = append(cols, nested...)
		}
	}
	return cols, nil
}

// step compiles the load of a plural or association attribute.
func (b *builder) step(a *metamodel.Attribute, node *entitygraph.AttributeNode, path string, depth int, explicit bool) (*Step, error) {
	s := &Step{Attribute: a.Name, Path: path, Plural: a.IsPlural(), Map: a.IsMap()}
	switch {
	case a.Persistent == metamodel.PersistentElementCollection:
		s.Link = LinkElementTable
		s.JoinTable = ElementTable(a)
	case a.Owning():
		s.Link = LinkOwnerFK
		s.Column = a.ColumnName()
	case a.MappedBy != "":
		inverse, err := b.model.Attribute(a.Target, a.MappedBy)
		if err != nil {
			return nil, fmt.Errorf("fetchplan: %s: mapped by: %w", a, err)
		}
		if inverse.Owning() {
			s.Link = LinkInverseFK
			s.Column = inverse.ColumnName()
			break
		}
		jt := metamodel.DefaultJoinTable(inverse)
		s.Link = LinkJoinTable
		s.JoinTable = &JoinTable{Name: jt.Name, JoinColumn: jt.InverseJoinColumn, InverseJoinColumn: jt.JoinColumn}
	default:
		jt := metamodel.DefaultJoinTable(a)
		s.Link = LinkJoinTable
		s.JoinTable = &JoinTable{Name: jt.Name, JoinColumn: jt.JoinColumn, InverseJoinColumn: jt.InverseJoinColumn}
	}
	if a.IsMap() {
		if err := b.mapKey(s, a, node, path, depth); err != nil {
			return nil, err
		}
	}
	target, ok := b.model.Target(a)
	switch {
	case !ok:
		s.Elements = []Column{{Attribute: a.Name, Name: elementColumn(a)}}
	case target.IsEmbeddable():
		cols, err := b.valueColumns(target, node, "", "", path, func(n *entitygraph.AttributeNode) (*entitygraph.Subgraph, bool) {
			return n.Subgraph(target.Name)
		})
		if err != nil {
			return nil, err
		}
		s.Elements = cols
	default:
		lvl, err := b.target(target, node, path, depth, explicit, false)
		if err != nil {
			return nil, err
		}
		s.Target = lvl
	}
	return s, nil
}

// mapKey compiles the key side of a map attribute.
func (b *builder) mapKey(s *Step, a *metamodel.Attribute, node *entitygraph.AttributeNode, path string, depth int) error {
	s.KeyColumn = metamodel.DefaultKeyColumn(a)
	key, ok := b.model.KeyType(a)
	switch {
	case !ok:
	case key.IsEmbeddable():
		cols, err := b.valueColumns(key, node, "", s.KeyColumn, path+"[key]", func(n *entitygraph.AttributeNode) (*entitygraph.Subgraph, bool) {
			return n.KeySubgraph(key.Name)
		})
		if err != nil {
			return err
		}
		s.KeyColumn, s.KeyColumns = "", cols
	default:
		lvl, err := b.target(key, node, path+"[key]", depth, node != nil, true)
		if err != nil {
			return err
		}
		s.Key = lvl
	}
	return nil
}

// target compiles the level of associated entities from the value (or key)
// subgraphs of node. The subgraph of the declared type becomes the level
// itself, and subgraphs narrowed to subtypes become its subtype levels.
func (b *builder) target(typ *metamodel.Type, node *entitygraph.AttributeNode, path string, depth int, explicit, key bool) (*Level, error) {
	var (
		base entitygraph.Graph
		subs []*entitygraph.Subgraph
	)
	if node != nil {
		graphs := node.Subgraphs()
		if key {
			graphs = node.KeySubgraphs()
		}
		for _, sg := range graphs {
			if sg.Type().Name == typ.Name {
				base = sg
			} else {
				subs = append(subs, sg)
			}
		}
	}
	lvl, handled, err := b.level(typ, base, path, depth, explicit && (base != nil || len(subs) > 0), nil)
	if err != nil {
		return nil, err
	}
	for _, sg := range subs {
		sub, err := b.subtype(sg, path, depth, handled)
		if err != nil {
			return nil, err
		}
		lvl.Subtypes = append(lvl.Subtypes, sub)
	}
	return lvl, nil
}

// discriminatorValues returns the discriminator values of typ and its subtypes.
func (b *builder) discriminatorValues(typ *metamodel.Type) []string {
	values := []string{typ.DiscriminatorValue()}
	for _, sub := range b.model.Subtypes(typ.Name) {
		if sub.IsEntity() {
			values = append(values, sub.DiscriminatorValue())
		}
	}
	return values
}

// ElementTable returns the collection table of an element collection, e.g.
// "employee_nicknames" joined on "employee_id" for Employee.nicknames.
func ElementTable(a *metamodel.Attribute) *JoinTable {
	if jt := a.JoinTable; jt != nil {
		return &JoinTable{Name: jt.Name, JoinColumn: jt.JoinColumn}
	}
	return &JoinTable{
		Name:       metamodel.Snake(a.Owner) + "_" + metamodel.Snake(a.Name),
		JoinColumn: metamodel.Snake(a.Owner) + "_id",
	}
}

// elementColumn returns the value column of a basic element collection.
func elementColumn(a *metamodel.Attribute) string {
	if a.Column != "" {
		return a.Column
	}
	return metamodel.Snake(a.Name)
}

func embeddedPrefix(a *metamodel.Attribute) string {
	if a.Column != "" {
		return a.Column
	}
	return metamodel.Snake(a.Name)
}

func prefixed(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
