// Package cli implements the entitygraph command line.
//
// The commands work on a model read from descriptor files (see the load
// package) and on named graphs declared in the model or in definition files
// (see the namedgraph package):
//
//   - validate: check the model and the graph definitions
//   - show: print named graphs or the normalized model
//   - plan: print the fetch plan of a named graph
//   - gen: generate the static metamodel package
//   - load: load entities through a named graph from a database
//   - watch: reload graph definition files as they change
//
// Settings come from entitygraph.yaml, ENTITYGRAPH_* environment variables
// and flags, in increasing precedence. See Config.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version. It is
// called by the main package with values injected at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// app holds the state shared by the commands of one run.
type app struct {
	cfgFile string
	cfg     *Config
	out     io.Writer
}

// NewRootCommand returns the root command. Command results are written to
// out and logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "entitygraph",
		Short:         "Inspect, plan and load entity graphs",
		Long:          `entitygraph works with entity graphs: templates of the attributes and associations to fetch with an entity, declared against a model of managed types.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger := newLogger(errOut, cfg.Verbose)
			if cfg.File != "" {
				logger.Debug("config loaded", "file", cfg.File)
			}
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(fmt.Sprintf("entitygraph %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default entitygraph.yaml)")
	flags.StringSliceP("model", "m", nil, "model descriptor files or directories")
	flags.StringSliceP("graphs", "g", nil, "graph definition files or directories")
	flags.StringP("output", "o", OutputText, "output format: text, json or yaml")
	flags.BoolP("verbose", "v", false, "enable verbose logging")

	root.AddCommand(
		a.newValidateCmd(),
		a.newShowCmd(),
		a.newPlanCmd(),
		a.newGenCmd(),
		a.newLoadCmd(),
		a.newWatchCmd(),
	)
	return root
}

// Execute runs the command line with the arguments of the process.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}
