// Package schema checks a database against the tables and columns that
// fetch plans read, so that a stale schema is reported before loading.
package schema

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/entitygraph/dialect"
	"github.com/syssam/entitygraph/dialect/sql"
	"github.com/syssam/entitygraph/fetchplan"
)

// ValidationError reports a table or column missing from the database.
type ValidationError struct {
	Table  string
	Column string
	// Path is the plan step reading the table, empty for the root level.
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Table)
	if e.Column != "" {
		b.WriteString("." + e.Column)
	}
	b.WriteString(": " + e.Message)
	if e.Path != "" {
		b.WriteString(" (read by " + e.Path + ")")
	}
	return b.String()
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err returns the validation errors joined, or nil.
func (r *ValidationResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	if !r.HasErrors() {
		return "Schema is valid."
	}
	var sb strings.Builder
	sb.WriteString("Errors:\n")
	for _, e := range r.Errors {
		sb.WriteString("  - ")
		sb.WriteString(e.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Table lists the columns a plan reads from one table.
type Table struct {
	Schema  string
	Name    string
	Columns []string
	// Path is the first plan step reading the table.
	Path string
}

func (t *Table) add(columns ...string) {
	for _, c := range columns {
		if c != "" && !slices.Contains(t.Columns, c) {
			t.Columns = append(t.Columns, c)
		}
	}
}

// tables collects tables in first-use order.
type tables struct {
	list  []*Table
	index map[string]*Table
}

func (ts *tables) get(schema, name, path string) *Table {
	key := schema + "." + name
	if t, ok := ts.index[key]; ok {
		return t
	}
	t := &Table{Schema: schema, Name: name, Path: path}
	ts.index[key] = t
	ts.list = append(ts.list, t)
	return t
}

// Required returns the tables and columns read by the plan, in the order
// the loader first reads them.
func Required(plan *fetchplan.Plan) []*Table {
	ts := &tables{index: make(map[string]*Table)}
	if plan != nil && plan.Root != nil {
		ts.level(plan.Root, "")
	}
	return ts.list
}

func (ts *tables) level(lvl *fetchplan.Level, path string) {
	t := ts.get(lvl.Schema, lvl.Table, path)
	t.add(lvl.IDColumn, lvl.Discriminator)
	for _, c := range lvl.Columns {
		t.add(c.Name)
	}
	for _, s := range lvl.Steps {
		ts.step(lvl, t, s)
	}
	for _, sub := range lvl.Subtypes {
		ts.level(sub, path)
	}
}

func (ts *tables) step(owner *fetchplan.Level, parent *Table, s *fetchplan.Step) {
	keys := func(t *Table) {
		t.add(s.KeyColumn)
		for _, c := range s.KeyColumns {
			t.add(c.Name)
		}
	}
	switch s.Link {
	case fetchplan.LinkOwnerFK:
		parent.add(s.Column)
	case fetchplan.LinkInverseFK:
		if s.Target != nil {
			t := ts.get(s.Target.Schema, s.Target.Table, s.Path)
			t.add(s.Column)
			keys(t)
		}
	case fetchplan.LinkJoinTable, fetchplan.LinkElementTable:
		if s.JoinTable != nil {
			t := ts.get(owner.Schema, s.JoinTable.Name, s.Path)
			t.add(s.JoinTable.JoinColumn, s.JoinTable.InverseJoinColumn)
			for _, c := range s.Elements {
				t.add(c.Name)
			}
			keys(t)
		}
	}
	if s.Target != nil {
		ts.level(s.Target, s.Path)
	}
	if s.Key != nil {
		ts.level(s.Key, s.Path)
	}
}

// Validate checks that the database of drv holds every table and column
// the plan reads. Tables are inspected with an empty SELECT, so the check
// works alike on all dialects. The returned error is only set when the
// context is done; missing tables and columns are reported in the result.
func Validate(ctx context.Context, drv dialect.Driver, plan *fetchplan.Plan) (*ValidationResult, error) {
	result := &ValidationResult{}
	for _, t := range Required(plan) {
		columns, err := readColumns(ctx, drv, t)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Path:    t.Path,
				Message: fmt.Sprintf("table is not readable: %v", err),
			})
			continue
		}
		for _, c := range t.Columns {
			if !slices.ContainsFunc(columns, func(s string) bool { return strings.EqualFold(s, c) }) {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Column:  c,
					Path:    t.Path,
					Message: "column does not exist",
				})
			}
		}
	}
	return result, nil
}

func readColumns(ctx context.Context, drv dialect.Driver, t *Table) ([]string, error) {
	none := func(b *sql.Builder) { b.WriteString("1 = 0") }
	query, args := sql.Dialect(drv.Dialect()).Select().
		From(sql.Table(t.Name).Schema(t.Schema)).
		Where(none).
		Query()
	rows := &sql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	return rows.Columns()
}
