package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/entitygraph/namedgraph"
)

func (a *app) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload graph definition files as they change",
		Long: `Watch loads the graph definition files and reloads them when they are
written, created or removed, logging the graphs of every reload. Invalid
definitions are reported and leave the loaded graphs unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if len(a.cfg.Graphs) == 0 {
				return errors.New("nothing to watch: set --graphs or graphs in the config file")
			}
			m, err := a.loadModel(ctx)
			if err != nil {
				return err
			}
			reg, err := a.loadGraphs(ctx, m)
			if err != nil {
				return err
			}
			logger := loggerFromContext(ctx)
			w, err := namedgraph.NewWatcher(reg, a.cfg.Graphs,
				namedgraph.WithDebounce(a.cfg.Watch.Debounce),
				namedgraph.WithLogger(slogger(ctx)),
				namedgraph.OnReload(func(e namedgraph.Event) {
					// Failures are logged by the watcher.
					if e.Err == nil {
						logger.Info("registry updated", "graphs", reg.Len())
					}
				}),
			)
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().Duration("debounce", 100*time.Millisecond, "wait for files to settle before reloading")
	return cmd
}
