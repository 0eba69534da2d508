package sqlgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/entitygraph/contrib/dataloader"
	"github.com/syssam/entitygraph/dialect"
	"github.com/syssam/entitygraph/dialect/sql"
	"github.com/syssam/entitygraph/fetchplan"
)

// DefaultBatchSize is the maximum number of keys in one IN query.
const DefaultBatchSize = 500

// ErrNoRoot is returned when loading a plan without a root level.
var ErrNoRoot = errors.New("sqlgraph: plan has no root level")

// Loader executes fetch plans: one query for the requested roots, then one
// batched IN query per step and level. Sibling steps run concurrently.
type Loader struct {
	drv     dialect.ExecQuerier
	dialect string
	batch   int
	limit   int
	logger  *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize sets the maximum number of keys per IN query.
// A non-positive size disables batching.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		l.batch = n
	}
}

// WithConcurrency limits the number of steps loaded concurrently per level.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		l.limit = n
	}
}

// WithDialect sets the dialect of the generated queries. It is required for
// executors that do not report their dialect, such as transactions.
func WithDialect(name string) Option {
	return func(l *Loader) {
		l.dialect = name
	}
}

// WithLogger sets the logger of the loader.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader returns a loader reading through drv.
func NewLoader(drv dialect.ExecQuerier, opts ...Option) *Loader {
	l := &Loader{
		drv:    drv,
		batch:  DefaultBatchSize,
		logger: slog.New(slog.DiscardHandler),
	}
	if d, ok := drv.(interface{ Dialect() string }); ok {
		l.dialect = d.Dialect()
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads the entities with the given identifiers, and everything the
// plan reaches from them, with a default loader.
func Load(ctx context.Context, drv dialect.Driver, plan *fetchplan.Plan, ids ...any) ([]*Node, error) {
	return NewLoader(drv).Load(ctx, plan, ids...)
}

// Load loads the entities with the given identifiers in the order of ids.
// Identifiers without a row are left out.
func (l *Loader) Load(ctx context.Context, plan *fetchplan.Plan, ids ...any) ([]*Node, error) {
	if plan == nil || plan.Root == nil {
		return nil, ErrNoRoot
	}
	keys := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = NormalizeKey(id)
	}
	keys = dataloader.Unique(keys)
	nodes, _, err := l.byID(ctx, plan.Root, keys)
	if err != nil {
		return nil, schemaError("", err)
	}
	l.logger.DebugContext(ctx, "plan loaded", "graph", plan.Graph, "type", plan.Root.Type, "requested", len(keys), "found", len(nodes))
	return dataloader.Found(keys, nodes, func(n *Node) any { return n.ID }), nil
}

// layout maps the columns selected for a level, and the subtype levels
// under it, to row positions. Leading positions hold extra columns.
type layout struct {
	lvl   *fetchplan.Level
	cols  []string
	index map[string]int
	extra int
}

func newLayout(lvl *fetchplan.Level, extra int) *layout {
	ly := &layout{lvl: lvl, index: make(map[string]int), extra: extra}
	ly.add(lvl.IDColumn)
	if lvl.Discriminator != "" {
		ly.add(lvl.Discriminator)
	}
	ly.collect(lvl)
	return ly
}

func (ly *layout) collect(lvl *fetchplan.Level) {
	for _, c := range lvl.Columns {
		ly.add(c.Name)
	}
	for _, s := range lvl.Steps {
		if s.Link == fetchplan.LinkOwnerFK {
			ly.add(s.Column)
		}
	}
	for _, sub := range lvl.Subtypes {
		ly.collect(sub)
	}
}

func (ly *layout) add(column string) {
	if _, ok := ly.index[column]; ok {
		return
	}
	ly.index[column] = ly.extra + len(ly.cols)
	ly.cols = append(ly.cols, column)
}

// node reads one row into a node, applying the subtype levels the row
// belongs to.
func (ly *layout) node(row []any) *Node {
	lvl := ly.lvl
	n := newNode(lvl.Type, NormalizeKey(row[ly.index[lvl.IDColumn]]))
	if lvl.Discriminator != "" {
		n.Discriminator = text(row[ly.index[lvl.Discriminator]])
	}
	ly.apply(lvl, n, row)
	return n
}

func (ly *layout) apply(lvl *fetchplan.Level, n *Node, row []any) {
	for _, c := range lvl.Columns {
		n.Values[c.Attribute] = row[ly.index[c.Name]]
	}
	for _, s := range lvl.Steps {
		if s.Link != fetchplan.LinkOwnerFK {
			continue
		}
		if n.fks == nil {
			n.fks = make(map[string]any)
		}
		n.fks[s.Column] = NormalizeKey(row[ly.index[s.Column]])
	}
	for _, sub := range lvl.Subtypes {
		if applies(sub, n) {
			if n.Discriminator != "" {
				n.Type = sub.Type
			}
			ly.apply(sub, n, row)
		}
	}
}

// applies reports if the subtype level applies to n. Rows of hierarchies
// without a discriminator get every subtype level.
func applies(sub *fetchplan.Level, n *Node) bool {
	return sub.Discriminator == "" || slices.Contains(sub.DiscriminatorValues, n.Discriminator)
}

func (l *Loader) table(lvl *fetchplan.Level, alias string) *sql.SelectTable {
	return sql.Table(lvl.Table).Schema(lvl.Schema).As(alias)
}

// selector returns a query of the layout columns of t, preceded by extra
// columns and restricted to the discriminator values of the level.
func (l *Loader) selector(ly *layout, t *sql.SelectTable, extra ...string) *sql.Selector {
	columns := make([]string, 0, len(extra)+len(ly.cols))
	columns = append(columns, extra...)
	for _, c := range ly.cols {
		columns = append(columns, t.C(c))
	}
	sel := sql.Dialect(l.dialect).Select(columns...).From(t)
	if lvl := ly.lvl; lvl.Discriminator != "" && len(lvl.DiscriminatorValues) > 0 {
		values := make([]any, len(lvl.DiscriminatorValues))
		for i, v := range lvl.DiscriminatorValues {
			values[i] = v
		}
		sel.Where(sql.In(t.C(lvl.Discriminator), values...))
	}
	return sel
}

// query runs the statement and returns its rows as value slices.
func (l *Loader) query(ctx context.Context, sel *sql.Selector) ([][]any, error) {
	query, args := sel.Query()
	rows := &sql.Rows{}
	if err := l.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var records [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		records = append(records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if s, ok := l.drv.(interface{ QueryStats() *sql.QueryStats }); ok {
		s.QueryStats().AddRows(len(records))
	}
	return records, nil
}

// byID loads the rows of lvl with the given identifiers and expands them.
func (l *Loader) byID(ctx context.Context, lvl *fetchplan.Level, keys []any) ([]*Node, map[any]*Node, error) {
	var (
		ly    = newLayout(lvl, 0)
		nodes []*Node
	)
	for _, batch := range dataloader.Chunk(keys, l.batch) {
		t := l.table(lvl, "t0")
		rows, err := l.query(ctx, l.selector(ly, t).Where(sql.In(t.C(lvl.IDColumn), batch...)))
		if err != nil {
			return nil, nil, err
		}
		for _, row := range rows {
			nodes = append(nodes, ly.node(row))
		}
	}
	if err := l.expand(ctx, lvl, nodes); err != nil {
		return nil, nil, err
	}
	byID := make(map[any]*Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return nodes, byID, nil
}

type task struct {
	owner   *fetchplan.Level
	step    *fetchplan.Step
	parents []*Node
}

func tasks(lvl *fetchplan.Level, nodes []*Node) []task {
	var ts []task
	for _, s := range lvl.Steps {
		ts = append(ts, task{owner: lvl, step: s, parents: nodes})
	}
	for _, sub := range lvl.Subtypes {
		var matched []*Node
		for _, n := range nodes {
			if applies(sub, n) {
				matched = append(matched, n)
			}
		}
		if len(matched) > 0 {
			ts = append(ts, tasks(sub, matched)...)
		}
	}
	return ts
}

// expand loads the steps of lvl for nodes. Steps run concurrently and their
// edges are attached once all of them succeeded.
func (l *Loader) expand(ctx context.Context, lvl *fetchplan.Level, nodes []*Node) error {
	if len(nodes) == 0 {
		return nil
	}
	ts := tasks(lvl, nodes)
	if len(ts) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	if l.limit > 0 {
		g.SetLimit(l.limit)
	}
	results := make([][]*Edge, len(ts))
	for i, t := range ts {
		g.Go(func() error {
			edges, err := l.step(ctx, t.owner, t.step, t.parents)
			if err != nil {
				var se *SchemaError
				if err = schemaError(t.step.Path, err); errors.As(err, &se) {
					return err
				}
				return fmt.Errorf("sqlgraph: load %s: %w", t.step.Path, err)
			}
			results[i] = edges
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, t := range ts {
		for j, p := range t.parents {
			p.setEdge(t.step.Attribute, results[i][j])
		}
	}
	return nil
}

// step loads one step of the owner level for parents. The result is
// aligned with parents. Link and collection tables live in the schema of
// the owner table.
func (l *Loader) step(ctx context.Context, owner *fetchplan.Level, s *fetchplan.Step, parents []*Node) ([]*Edge, error) {
	switch s.Link {
	case fetchplan.LinkOwnerFK:
		return l.ownerFK(ctx, s, parents)
	case fetchplan.LinkInverseFK:
		if s.Target == nil {
			return nil, fmt.Errorf("inverse foreign key without target level")
		}
		t := l.table(s.Target, "t0")
		return l.linked(ctx, s, parents, t, s.Target, t.C(s.Column), keyColumns(s, t))
	case fetchplan.LinkJoinTable:
		if s.Target == nil || s.JoinTable == nil {
			return nil, fmt.Errorf("join table link without target level")
		}
		j := sql.Table(s.JoinTable.Name).Schema(owner.Schema).As("j")
		return l.linked(ctx, s, parents, l.table(s.Target, "t0"), s.Target, j.C(s.JoinTable.JoinColumn), keyColumns(s, j), j)
	case fetchplan.LinkElementTable:
		if s.JoinTable == nil {
			return nil, fmt.Errorf("element collection without collection table")
		}
		return l.elements(ctx, s, parents, sql.Table(s.JoinTable.Name).Schema(owner.Schema).As("e"))
	}
	return nil, fmt.Errorf("unknown link %s", s.Link)
}

func (l *Loader) ownerFK(ctx context.Context, s *fetchplan.Step, parents []*Node) ([]*Edge, error) {
	if s.Target == nil {
		return nil, fmt.Errorf("owner foreign key without target level")
	}
	keys := make([]any, 0, len(parents))
	for _, p := range parents {
		if k := p.fks[s.Column]; k != nil {
			keys = append(keys, k)
		}
	}
	_, byID, err := l.byID(ctx, s.Target, dataloader.Unique(keys))
	if err != nil {
		return nil, err
	}
	edges := make([]*Edge, len(parents))
	for i, p := range parents {
		e := &Edge{Plural: s.Plural, Map: s.Map}
		if n, ok := byID[p.fks[s.Column]]; ok {
			e.Nodes = []*Node{n}
		}
		edges[i] = e
	}
	return edges, nil
}

// record is a row linked to a parent, with its map key.
type record struct {
	parent any
	key    any
	node   *Node
	value  any
}

// keyColumns returns the qualified map-key columns of the step on t.
func keyColumns(s *fetchplan.Step, t *sql.SelectTable) []string {
	if !s.Map {
		return nil
	}
	if len(s.KeyColumns) > 0 {
		columns := make([]string, len(s.KeyColumns))
		for i, c := range s.KeyColumns {
			columns[i] = t.C(c.Name)
		}
		return columns
	}
	if s.KeyColumn != "" {
		return []string{t.C(s.KeyColumn)}
	}
	return nil
}

// mapKey reads the map key of a row from the values following the parent column.
func mapKey(s *fetchplan.Step, values []any) any {
	if len(s.KeyColumns) > 0 {
		key := make(map[string]any, len(s.KeyColumns))
		for i, c := range s.KeyColumns {
			key[c.Attribute] = values[i]
		}
		return key
	}
	if len(values) > 0 {
		return NormalizeKey(values[0])
	}
	return nil
}

// linked loads the target rows of inverse foreign keys and join tables. The
// parent column selects the rows of a batch of parents. A join table, if
// given, links the target table t to the parent rows.
func (l *Loader) linked(ctx context.Context, s *fetchplan.Step, parents []*Node, t *sql.SelectTable, lvl *fetchplan.Level, parent string, keys []string, jt ...*sql.SelectTable) ([]*Edge, error) {
	extra := append([]string{parent}, keys...)
	var (
		ly      = newLayout(lvl, len(extra))
		records []record
		nodes   []*Node
		byID    = make(map[any]*Node)
	)
	for _, batch := range dataloader.Chunk(parentKeys(parents), l.batch) {
		sel := l.selector(ly, t, extra...)
		for _, j := range jt {
			sel.Join(j, j.C(s.JoinTable.InverseJoinColumn), t.C(lvl.IDColumn))
		}
		rows, err := l.query(ctx, sel.Where(sql.In(parent, batch...)).OrderBy(parent, t.C(lvl.IDColumn)))
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			n := ly.node(row)
			if seen, ok := byID[n.ID]; ok {
				n = seen
			} else {
				byID[n.ID] = n
				nodes = append(nodes, n)
			}
			records = append(records, record{
				parent: NormalizeKey(row[0]),
				key:    mapKey(s, row[1:len(extra)]),
				node:   n,
			})
		}
	}
	if err := l.expand(ctx, lvl, nodes); err != nil {
		return nil, err
	}
	if err := l.resolveKeys(ctx, s, records); err != nil {
		return nil, err
	}
	return edges(s, parents, records), nil
}

// elements loads the values of element collections.
func (l *Loader) elements(ctx context.Context, s *fetchplan.Step, parents []*Node, t *sql.SelectTable) ([]*Edge, error) {
	parent := t.C(s.JoinTable.JoinColumn)
	keys := keyColumns(s, t)
	columns := append([]string{parent}, keys...)
	for _, c := range s.Elements {
		columns = append(columns, t.C(c.Name))
	}
	var records []record
	for _, batch := range dataloader.Chunk(parentKeys(parents), l.batch) {
		sel := sql.Dialect(l.dialect).Select(columns...).From(t).Where(sql.In(parent, batch...)).OrderBy(parent)
		rows, err := l.query(ctx, sel)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			values := row[1+len(keys):]
			var value any
			if len(s.Elements) == 1 && s.Elements[0].Attribute == s.Attribute {
				value = values[0]
			} else {
				m := make(map[string]any, len(s.Elements))
				for i, c := range s.Elements {
					m[c.Attribute] = values[i]
				}
				value = m
			}
			records = append(records, record{
				parent: NormalizeKey(row[0]),
				key:    mapKey(s, row[1:1+len(keys)]),
				value:  value,
			})
		}
	}
	if err := l.resolveKeys(ctx, s, records); err != nil {
		return nil, err
	}
	return edges(s, parents, records), nil
}

// resolveKeys replaces entity map keys with their loaded nodes.
func (l *Loader) resolveKeys(ctx context.Context, s *fetchplan.Step, records []record) error {
	if s.Key == nil || len(records) == 0 {
		return nil
	}
	keys := make([]any, 0, len(records))
	for _, r := range records {
		if r.key != nil {
			keys = append(keys, r.key)
		}
	}
	_, byID, err := l.byID(ctx, s.Key, dataloader.Unique(keys))
	if err != nil {
		return fmt.Errorf("load keys: %w", err)
	}
	for i, r := range records {
		if n, ok := byID[r.key]; ok {
			records[i].key = n
		}
	}
	return nil
}

func parentKeys(parents []*Node) []any {
	keys := make([]any, len(parents))
	for i, p := range parents {
		keys[i] = p.ID
	}
	return dataloader.Unique(keys)
}

// edges groups records by parent into edges aligned with parents.
func edges(s *fetchplan.Step, parents []*Node, records []record) []*Edge {
	groups := dataloader.GroupByKey(records, func(r record) any { return r.parent })
	result := make([]*Edge, len(parents))
	for i, p := range parents {
		e := &Edge{Plural: s.Plural, Map: s.Map}
		for _, r := range groups[p.ID] {
			if r.node != nil {
				e.Nodes = append(e.Nodes, r.node)
			} else {
				e.Elements = append(e.Elements, r.value)
			}
			if s.Map {
				e.Keys = append(e.Keys, r.key)
			}
		}
		result[i] = e
	}
	return result
}

func text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(v)
}
