package sql

import (
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/syssam/entitygraph/dialect"
)

// Builder is the base query builder. It writes quoted identifiers and
// dialect placeholders, and collects the query arguments.
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect string
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// WriteString appends s as is.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Ident appends a quoted identifier. Dotted identifiers such as "t0.name"
// are quoted part by part.
func (b *Builder) Ident(s string) *Builder {
	for i, part := range strings.Split(s, ".") {
		if i > 0 {
			b.sb.WriteByte('.')
		}
		b.sb.WriteString(b.Quote(part))
	}
	return b
}

// Quote quotes a single identifier for the builder dialect.
func (b *Builder) Quote(ident string) string {
	switch b.dialect {
	case dialect.MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case dialect.Postgres:
		return pq.QuoteIdentifier(ident)
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// Arg appends a placeholder for v.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.sb.WriteString("$" + strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// Args appends comma separated placeholders for vs.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Arg(v)
	}
	return b
}

// Query returns the query and its arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}

// P is a predicate written into a builder.
type P func(*Builder)

// EQ returns a "column = value" predicate.
func EQ(column string, v any) P {
	return func(b *Builder) {
		b.Ident(column).WriteString(" = ").Arg(v)
	}
}

// In returns a "column IN (values)" predicate. An empty value list matches
// no rows.
func In(column string, vs ...any) P {
	return func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("1 = 0")
			return
		}
		b.Ident(column).WriteString(" IN (").Args(vs...).WriteString(")")
	}
}

// IsNull returns a "column IS NULL" predicate.
func IsNull(column string) P {
	return func(b *Builder) {
		b.Ident(column).WriteString(" IS NULL")
	}
}

// NotNull returns a "column IS NOT NULL" predicate.
func NotNull(column string) P {
	return func(b *Builder) {
		b.Ident(column).WriteString(" IS NOT NULL")
	}
}

// And joins predicates with AND.
func And(ps ...P) P {
	return func(b *Builder) {
		for i, p := range ps {
			if i > 0 {
				b.WriteString(" AND ")
			}
			p(b)
		}
	}
}

// SelectTable is a table reference in a SELECT statement.
type SelectTable struct {
	name   string
	schema string
	as     string
}

// Table returns a new table reference.
func Table(name string) *SelectTable {
	return &SelectTable{name: name}
}

// Schema sets the schema of the table.
func (t *SelectTable) Schema(name string) *SelectTable {
	t.schema = name
	return t
}

// As sets the table alias.
func (t *SelectTable) As(alias string) *SelectTable {
	t.as = alias
	return t
}

// C returns the column qualified by the table alias, or name.
func (t *SelectTable) C(column string) string {
	if t.as != "" {
		return t.as + "." + column
	}
	return t.name + "." + column
}

func (t *SelectTable) write(b *Builder) {
	if t.schema != "" {
		b.WriteString(b.Quote(t.schema)).WriteString(".")
	}
	b.WriteString(b.Quote(t.name))
	if t.as != "" {
		b.WriteString(" AS ").WriteString(b.Quote(t.as))
	}
}

type join struct {
	table       *SelectTable
	left, right string
}

// Selector is a builder for SELECT statements.
type Selector struct {
	dialect string
	columns []string
	from    *SelectTable
	joins   []join
	where   []P
	order   []string
}

// DialectBuilder creates statements for a dialect.
type DialectBuilder struct {
	dialect string
}

// Dialect returns a DialectBuilder for the given dialect name.
//
//	sql.Dialect(dialect.Postgres).Select("id", "name").From(sql.Table("users"))
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// Select returns a Selector for the dialect.
func (d *DialectBuilder) Select(columns ...string) *Selector {
	return &Selector{dialect: d.dialect, columns: columns}
}

// Select returns a Selector quoting identifiers in the SQL standard way.
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// AppendSelect adds columns to the select list.
func (s *Selector) AppendSelect(columns ...string) *Selector {
	s.columns = append(s.columns, columns...)
	return s
}

// From sets the source table.
func (s *Selector) From(t *SelectTable) *Selector {
	s.from = t
	return s
}

// Join adds an inner join of t on "left = right".
func (s *Selector) Join(t *SelectTable, left, right string) *Selector {
	s.joins = append(s.joins, join{table: t, left: left, right: right})
	return s
}

// Where adds a predicate. Predicates are joined with AND.
func (s *Selector) Where(p P) *Selector {
	s.where = append(s.where, p)
	return s
}

// OrderBy adds ordering columns.
func (s *Selector) OrderBy(columns ...string) *Selector {
	s.order = append(s.order, columns...)
	return s
}

// Query returns the statement and its arguments.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	b.WriteString("SELECT ")
	if len(s.columns) == 0 {
		b.WriteString("*")
	}
	for i, c := range s.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c)
	}
	if s.from != nil {
		b.WriteString(" FROM ")
		s.from.write(b)
	}
	for _, j := range s.joins {
		b.WriteString(" JOIN ")
		j.table.write(b)
		b.WriteString(" ON ").Ident(j.left).WriteString(" = ").Ident(j.right)
	}
	if len(s.where) > 0 {
		b.WriteString(" WHERE ")
		And(s.where...)(b)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, c := range s.order {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Ident(c)
		}
	}
	return b.Query()
}
