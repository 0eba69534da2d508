package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/syssam/entitygraph/dialect/sql/sqlgraph"
)

func (a *app) newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <graph> <id>...",
		Short: "Load entities through a named graph",
		Long: `Load reads the entities with the given identifiers, and everything the
named graph reaches from them, from the configured database. Rows are read
with one query per level and batched IN queries per association.`,
		Example: `  entitygraph load Employee.department 1 2 --dialect sqlite --dsn file:app.db
  ENTITYGRAPH_DATABASE__DSN=postgres://localhost/app entitygraph load Employee.phones 7 -o json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.loadModel(ctx)
			if err != nil {
				return err
			}
			reg, err := a.loadGraphs(ctx, m)
			if err != nil {
				return err
			}
			g, err := graph(reg, args[0])
			if err != nil {
				return err
			}
			p, err := a.planner(ctx, m)
			if err != nil {
				return err
			}
			plan, err := p.Plan(ctx, g)
			if err != nil {
				return err
			}
			drv, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer drv.Close()

			logger := loggerFromContext(ctx)
			loader := sqlgraph.NewLoader(drv,
				sqlgraph.WithBatchSize(a.cfg.Database.BatchSize),
				sqlgraph.WithLogger(slogger(ctx)),
			)
			nodes, err := loader.Load(ctx, plan, parseIDs(args[1:])...)
			if err != nil {
				return err
			}
			logger.Debug("queries", "stats", drv.QueryStats().Stats())
			entities := make([]map[string]any, len(nodes))
			for i, n := range nodes {
				entities[i] = n.Map()
			}
			return render(a.out, a.cfg.Output, entities, func(w io.Writer) error {
				for _, n := range nodes {
					b, err := json.Marshal(n)
					if err != nil {
						return err
					}
					if _, err := fmt.Fprintf(w, "%s %s\n", n, b); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	addPlanFlags(cmd)
	addDatabaseFlags(cmd)
	cmd.Flags().Int("batch-size", 0, "maximum keys per IN query")
	return cmd
}

// parseIDs converts integer arguments to int64, leaving other identifiers,
// such as UUIDs and codes, as strings.
func parseIDs(args []string) []any {
	ids := make([]any, len(args))
	for i, s := range args {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			ids[i] = n
		} else {
			ids[i] = s
		}
	}
	return ids
}
