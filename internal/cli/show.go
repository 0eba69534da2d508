package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/compiler/load"
)

// graphInfo is the structured output of a graph.
type graphInfo struct {
	Name   string   `json:"name" yaml:"name"`
	Type   string   `json:"type" yaml:"type"`
	Source string   `json:"source,omitempty" yaml:"source,omitempty"`
	Paths  []string `json:"paths" yaml:"paths"`
}

func (a *app) newShowCmd() *cobra.Command {
	var describe bool
	cmd := &cobra.Command{
		Use:   "show [graph...]",
		Short: "Print named graphs or the model",
		Long: `Show prints the named graphs, all of them without arguments. With --describe
it prints the normalized model descriptor instead.`,
		Example: `  entitygraph show Employee.department
  entitygraph show --describe -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.loadModel(ctx)
			if err != nil {
				return err
			}
			if describe {
				format := load.YAML
				if a.cfg.Output == OutputJSON {
					format = load.JSON
				}
				return load.Describe(m).Encode(a.out, format)
			}
			reg, err := a.loadGraphs(ctx, m)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = reg.Names()
			}
			graphs := make([]*entitygraph.EntityGraph, 0, len(args))
			infos := make([]graphInfo, 0, len(args))
			for _, name := range args {
				g, err := graph(reg, name)
				if err != nil {
					return err
				}
				info := graphInfo{Name: g.Name(), Type: g.Type().Name, Source: reg.Source(name)}
				err = g.Walk(func(path string, _ entitygraph.Graph, _ *entitygraph.AttributeNode) error {
					info.Paths = append(info.Paths, path)
					return nil
				})
				if err != nil {
					return err
				}
				graphs = append(graphs, g)
				infos = append(infos, info)
			}
			return render(a.out, a.cfg.Output, infos, func(w io.Writer) error {
				for _, g := range graphs {
					if _, err := fmt.Fprint(w, g); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&describe, "describe", false, "print the normalized model descriptor")
	return cmd
}
