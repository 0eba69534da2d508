package graphql

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/syssam/entitygraph/compiler/gen"
)

// DefaultSchemaFile is the schema file written to the generation target.
const DefaultSchemaFile = "schema.graphql"

// SchemaHook is a function that is called after GraphQL schema generation.
// It receives the graph and the generated schema content, and can modify
// or perform additional processing on the schema.
type SchemaHook func(g *gen.Graph, schema string) (string, error)

// Extension writes the GraphQL schema of the model next to the generated
// metamodel, and registers it in the gqlgen configuration.
//
// Usage:
//
//	ex, err := graphql.NewExtension(
//	    graphql.WithConfigPath("./gqlgen.yml"),
//	    graphql.WithSchemaPath("./graph/model.graphql"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := gen.NewConfig(
//	    gen.WithTarget("./model"),
//	    gen.WithHooks(ex.Hook()),
//	)
type Extension struct {
	schemaPath  string
	configPath  string
	schemaHooks []SchemaHook

	// gqlgenConfig is the gqlgen configuration after the last run.
	gqlgenConfig *GQLGenConfig
}

// ExtensionOption is a function that configures the Extension.
type ExtensionOption func(*Extension) error

// NewExtension creates a new GraphQL extension with the given options.
func NewExtension(opts ...ExtensionOption) (*Extension, error) {
	ex := &Extension{}
	for _, opt := range opts {
		if err := opt(ex); err != nil {
			return nil, err
		}
	}
	return ex, nil
}

// WithSchemaPath sets the output path of the schema. The path can be either
// a directory or a file path:
//   - "graph" -> outputs to graph/schema.graphql
//   - "graph/model.graphql" -> outputs to graph/model.graphql
//
// Relative paths are resolved against the generation target.
func WithSchemaPath(schemaPath string) ExtensionOption {
	return func(e *Extension) error {
		if schemaPath == "" {
			return errors.New("graphql: empty schema path")
		}
		if filepath.Ext(schemaPath) != ".graphql" {
			schemaPath = filepath.Join(schemaPath, DefaultSchemaFile)
		}
		e.schemaPath = schemaPath
		return nil
	}
}

// WithConfigPath sets the path of gqlgen.yml. The generated schema and the
// scalar bindings are added to it.
func WithConfigPath(path string) ExtensionOption {
	return func(e *Extension) error {
		if path == "" {
			return errors.New("graphql: empty config path")
		}
		e.configPath = path
		return nil
	}
}

// WithSchemaHook adds hooks that can rewrite the schema before it is
// written.
func WithSchemaHook(hooks ...SchemaHook) ExtensionOption {
	return func(e *Extension) error {
		e.schemaHooks = append(e.schemaHooks, hooks...)
		return nil
	}
}

// GQLGenConfig returns the gqlgen configuration after the last run, if any.
func (e *Extension) GQLGenConfig() *GQLGenConfig {
	return e.gqlgenConfig
}

// Hook returns the generation hook writing the schema after the metamodel.
func (e *Extension) Hook() gen.Hook {
	return func(next gen.Generator) gen.Generator {
		return gen.GenerateFunc(func(ctx context.Context, g *gen.Graph) error {
			if err := next.Generate(ctx, g); err != nil {
				return err
			}
			return e.generate(g)
		})
	}
}

func (e *Extension) generate(g *gen.Graph) error {
	var buf bytes.Buffer
	if err := WriteSchema(&buf, g.Model); err != nil {
		return gen.NewGenerationError("graphql", "", "format schema", err)
	}
	schema := buf.String()
	for _, h := range e.schemaHooks {
		var err error
		if schema, err = h(g, schema); err != nil {
			return gen.NewGenerationError("graphql", "", "schema hook", err)
		}
	}
	path := e.path(g)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return gen.NewGenerationError("graphql", path, "create directory", err)
	}
	if err := os.WriteFile(path, []byte(schema), 0o644); err != nil {
		return gen.NewGenerationError("graphql", path, "write schema", err)
	}
	if e.configPath == "" {
		return nil
	}
	rel, err := filepath.Rel(filepath.Dir(e.configPath), path)
	if err != nil {
		rel = path
	}
	if err := InjectBindings(e.configPath, filepath.ToSlash(rel)); err != nil {
		return gen.NewGenerationError("graphql", e.configPath, "update gqlgen config", err)
	}
	cfg, err := LoadGQLGenConfig(e.configPath)
	if err != nil {
		return gen.NewGenerationError("graphql", e.configPath, "read gqlgen config", err)
	}
	e.gqlgenConfig = cfg
	return nil
}

// path returns the schema output path of a run.
func (e *Extension) path(g *gen.Graph) string {
	switch {
	case e.schemaPath == "":
		return filepath.Join(g.Target, DefaultSchemaFile)
	case filepath.IsAbs(e.schemaPath):
		return e.schemaPath
	}
	return filepath.Join(g.Target, e.schemaPath)
}
