package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/entitygraph/dialect/sql/schema"
	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/namedgraph"
)

var errSchema = errors.New("database schema does not match the model")

type summary struct {
	Types    int      `json:"types" yaml:"types"`
	Entities int      `json:"entities" yaml:"entities"`
	Graphs   []string `json:"graphs" yaml:"graphs"`
	// Schema lists the tables and columns missing from the database.
	Schema []string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

func (a *app) newValidateCmd() *cobra.Command {
	var checkDB bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the model and the graph definitions",
		Long: `Validate loads the model and every graph definition, and reports the first
invalid type, attribute or graph. With --check-db it also plans every graph
and checks that the configured database holds the tables and columns the
plans read.`,
		Example: `  entitygraph validate -m model/ -g graphs/
  entitygraph validate --check-db --dialect sqlite --dsn file:app.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.loadModel(ctx)
			if err != nil {
				return err
			}
			reg, err := a.loadGraphs(ctx, m)
			if err != nil {
				return err
			}
			s := summary{
				Types:    len(m.Types()),
				Entities: len(m.Entities()),
				Graphs:   reg.Names(),
			}
			if checkDB {
				if s.Schema, err = a.checkSchema(ctx, m, reg); err != nil {
					return err
				}
			}
			err = render(a.out, a.cfg.Output, s, func(w io.Writer) error {
				if len(s.Schema) > 0 {
					for _, p := range s.Schema {
						if _, err := fmt.Fprintln(w, p); err != nil {
							return err
						}
					}
					return nil
				}
				_, err := fmt.Fprintf(w, "ok: %d types (%d entities), %d graphs\n", s.Types, s.Entities, len(s.Graphs))
				return err
			})
			if err != nil {
				return err
			}
			if len(s.Schema) > 0 {
				return errSchema
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkDB, "check-db", false, "check the database schema against the plans of all graphs")
	addPlanFlags(cmd)
	addDatabaseFlags(cmd)
	return cmd
}

// checkSchema returns the schema problems of the plans of all graphs,
// prefixed by graph name.
func (a *app) checkSchema(ctx context.Context, m *metamodel.Model, reg *namedgraph.Registry) ([]string, error) {
	p, err := a.planner(ctx, m)
	if err != nil {
		return nil, err
	}
	drv, err := a.openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	defer drv.Close()
	var problems []string
	for _, name := range reg.Names() {
		g, err := graph(reg, name)
		if err != nil {
			return nil, err
		}
		plan, err := p.Plan(ctx, g)
		if err != nil {
			return nil, err
		}
		result, err := schema.Validate(ctx, drv, plan)
		if err != nil {
			return nil, err
		}
		for _, e := range result.Errors {
			problems = append(problems, name+": "+e.Error())
		}
	}
	loggerFromContext(ctx).Debug("schema checked", "graphs", len(reg.Names()), "problems", len(problems))
	return problems, nil
}
