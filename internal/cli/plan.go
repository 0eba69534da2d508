package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/fetchplan"
	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/privacy"
)

// addPlanFlags adds the flags of commands compiling fetch plans.
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", fetchplan.ModeFetch.String(), "plan mode: fetch or load")
	cmd.Flags().Int("max-depth", 0, "maximum association depth, 0 for no limit")
	cmd.Flags().Bool("deny-sensitive", false, "leave sensitive attributes out of the plan")
}

// planner returns a planner applying the plan settings of the config.
func (a *app) planner(ctx context.Context, m *metamodel.Model) (*fetchplan.Planner, error) {
	mode, err := fetchplan.ParseMode(a.cfg.Plan.Mode)
	if err != nil {
		return nil, err
	}
	defaults := []fetchplan.Option{
		fetchplan.WithMode(mode),
		fetchplan.WithMaxDepth(a.cfg.Plan.MaxDepth),
	}
	if a.cfg.Plan.DenySensitive {
		defaults = append(defaults, fetchplan.WithPolicy(privacy.DenySensitiveRule()))
	}
	return fetchplan.NewPlanner(m,
		fetchplan.WithCache(entitygraph.NewMemoryCache()),
		fetchplan.WithDefaults(defaults...),
		fetchplan.WithLogger(slogger(ctx)),
	), nil
}

func (a *app) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <graph>",
		Short: "Print the fetch plan of a named graph",
		Long: `Plan compiles a named graph into the levels, columns and batched steps
the SQL loader runs. In fetch mode only the graph is read; in load mode the
eager attributes of the model are added.`,
		Example: `  entitygraph plan Employee.department --mode load
  entitygraph plan Employee.department -o yaml`,
		Args: cobra.ExactArgs(1),
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
			return render(a.out, a.cfg.Output, plan, func(w io.Writer) error {
				return writePlan(w, plan)
			})
		},
	}
	addPlanFlags(cmd)
	return cmd
}

// writePlan writes a plan as an indented tree of levels and steps.
func writePlan(w io.Writer, plan *fetchplan.Plan) error {
	var b strings.Builder
	fmt.Fprintf(&b, "plan %q (%s)\n", plan.Graph, plan.Mode)
	writeLevel(&b, plan.Root, 1)
	for _, path := range plan.Denied {
		fmt.Fprintf(&b, "denied %s\n", path)
	}
	for _, path := range plan.Truncated {
		fmt.Fprintf(&b, "truncated %s\n", path)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeLevel(b *strings.Builder, lvl *fetchplan.Level, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s from %s by %s\n", indent, lvl.Type, lvl.Table, lvl.IDColumn)
	for _, c := range lvl.Columns {
		fmt.Fprintf(b, "%s  %s = %s\n", indent, c.Attribute, c.Name)
	}
	for _, s := range lvl.Steps {
		fmt.Fprintf(b, "%s  %s (%s)\n", indent, s.Path, s.Link)
		if s.Key != nil {
			writeLevel(b, s.Key, depth+2)
		}
		if s.Target != nil {
			writeLevel(b, s.Target, depth+2)
		}
	}
	for _, sub := range lvl.Subtypes {
		writeLevel(b, sub, depth+1)
	}
}
