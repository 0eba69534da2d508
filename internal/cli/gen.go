package cli

import (
	"github.com/spf13/cobra"

	"github.com/syssam/entitygraph/compiler/gen"
	"github.com/syssam/entitygraph/contrib/graphql"
)

func (a *app) newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate the static metamodel package",
		Long: `Gen writes one Go package per managed type holding the names of its
attributes, columns and graphs, and a root package registering the graphs
declared in the model. With --graphql-schema or --gqlgen-config it also
writes the GraphQL schema of the model and registers it in gqlgen.yml.`,
		Example: `  entitygraph gen --target ./model --package example.com/app/model
  entitygraph gen --features sql,graphs --gqlgen-config ./gqlgen.yml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.loadModel(ctx)
			if err != nil {
				return err
			}
			c := a.cfg.Gen
			opts := []gen.Option{
				gen.WithTarget(c.Target),
				gen.WithFeatureNames(c.Features...),
				gen.WithWorkers(c.Workers),
			}
			if c.Package != "" {
				opts = append(opts, gen.WithPackage(c.Package))
			}
			if c.Header != "" {
				opts = append(opts, gen.WithHeader(c.Header))
			}
			if c.GraphQL.Enabled() {
				var exopts []graphql.ExtensionOption
				if c.GraphQL.Schema != "" {
					exopts = append(exopts, graphql.WithSchemaPath(c.GraphQL.Schema))
				}
				if c.GraphQL.Config != "" {
					exopts = append(exopts, graphql.WithConfigPath(c.GraphQL.Config))
				}
				ex, err := graphql.NewExtension(exopts...)
				if err != nil {
					return err
				}
				opts = append(opts, gen.WithHooks(ex.Hook()))
			}
			cfg, err := gen.NewConfig(opts...)
			if err != nil {
				return err
			}
			p := newProgress(loggerFromContext(ctx))
			if err := gen.Generate(ctx, m, cfg); err != nil {
				return err
			}
			p.done("generated", "target", c.Target, "types", len(m.Types()))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("target", "model", "output directory")
	f.String("package", "", "import path of the output directory")
	f.String("header", "", "header comment of generated files")
	f.StringSlice("features", nil, "features to enable, e.g. sql,graphs")
	f.Int("workers", 0, "files written concurrently, 0 for the default")
	f.String("graphql-schema", "", "path of the generated GraphQL schema")
	f.String("gqlgen-config", "", "gqlgen.yml to register the schema in")
	return cmd
}
