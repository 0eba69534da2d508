package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/syssam/entitygraph/dialect"
	"github.com/syssam/entitygraph/fetchplan"
)

// EnvPrefix prefixes the environment variables read by the CLI. Nested keys
// are separated by a double underscore, e.g. ENTITYGRAPH_DATABASE__DSN.
const EnvPrefix = "ENTITYGRAPH_"

// configFiles are looked up in the working directory when no config file is
// given.
var configFiles = []string{"entitygraph.yaml", "entitygraph.yml"}

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config is the configuration of the CLI.
//
//	model: [model/]
//	graphs: [graphs/]
//	database:
//	  dialect: sqlite
//	  dsn: file:app.db
//	gen:
//	  target: ./model
//	  features: [sql, graphs]
//	  graphql:
//	    schema: ./graph/model.graphql
//	    config: ./gqlgen.yml
type Config struct {
	// Model lists the model descriptor files and directories.
	Model []string `koanf:"model"`
	// Graphs lists the named graph definition files and directories.
	Graphs   []string       `koanf:"graphs"`
	Output   string         `koanf:"output"`
	Verbose  bool           `koanf:"verbose"`
	Database DatabaseConfig `koanf:"database"`
	Plan     PlanConfig     `koanf:"plan"`
	Gen      GenConfig      `koanf:"gen"`
	Watch    WatchConfig    `koanf:"watch"`

	// File is the config file read, if any.
	File string `koanf:"-"`
}

// DatabaseConfig configures the connection used by the load command.
type DatabaseConfig struct {
	Dialect   string        `koanf:"dialect"`
	DSN       string        `koanf:"dsn"`
	SlowQuery time.Duration `koanf:"slow_query"`
	BatchSize int           `koanf:"batch_size"`
}

// PlanConfig holds the defaults of compiled fetch plans.
type PlanConfig struct {
	Mode          string `koanf:"mode"`
	MaxDepth      int    `koanf:"max_depth"`
	DenySensitive bool   `koanf:"deny_sensitive"`
}

// GenConfig configures code generation.
type GenConfig struct {
	Target   string        `koanf:"target"`
	Package  string        `koanf:"package"`
	Header   string        `koanf:"header"`
	Features []string      `koanf:"features"`
	Workers  int           `koanf:"workers"`
	GraphQL  GraphQLConfig `koanf:"graphql"`
}

// GraphQLConfig enables the GraphQL schema output of code generation.
type GraphQLConfig struct {
	Schema string `koanf:"schema"`
	Config string `koanf:"config"`
}

// Enabled reports whether a GraphQL output is configured.
func (c GraphQLConfig) Enabled() bool {
	return c.Schema != "" || c.Config != ""
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// defaults are the lowest configuration layer.
var defaults = map[string]any{
	"output":              OutputText,
	"database.slow_query": "200ms",
	"database.batch_size": 500,
	"plan.mode":           fetchplan.ModeFetch.String(),
	"gen.target":          "model",
	"watch.debounce":      "100ms",
}

// flagKeys maps flags to nested config keys. Other flags use their name
// with dashes replaced by underscores.
var flagKeys = map[string]string{
	"dialect":        "database.dialect",
	"dsn":            "database.dsn",
	"slow-query":     "database.slow_query",
	"batch-size":     "database.batch_size",
	"mode":           "plan.mode",
	"max-depth":      "plan.max_depth",
	"deny-sensitive": "plan.deny_sensitive",
	"target":         "gen.target",
	"package":        "gen.package",
	"header":         "gen.header",
	"features":       "gen.features",
	"workers":        "gen.workers",
	"graphql-schema": "gen.graphql.schema",
	"gqlgen-config":  "gen.graphql.config",
	"debounce":       "watch.debounce",
}

// pathKeys hold paths. Relative paths of a config file are resolved
// against its directory.
var pathKeys = []string{"model", "graphs", "gen.target", "gen.graphql.schema", "gen.graphql.config"}

// LoadConfig loads the configuration from the defaults, the config file,
// the environment and the flags, in increasing precedence. An empty
// cfgFile looks for entitygraph.yaml in the working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	path := findConfigFile(cfgFile)
	if path != "" {
		fk := koanf.New(".")
		if err := fk.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := resolvePaths(fk, filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := k.Merge(fk); err != nil {
			return nil, fmt.Errorf("merge config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the config file to read, or "" if there is none.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey transforms ENTITYGRAPH_PLAN__MAX_DEPTH into plan.max_depth.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func resolvePaths(k *koanf.Koanf, dir string) error {
	for _, key := range pathKeys {
		var resolved any
		switch v := k.Get(key).(type) {
		case string:
			resolved = resolvePath(v, dir)
		case []any:
			paths := make([]string, 0, len(v))
			for _, p := range v {
				paths = append(paths, resolvePath(fmt.Sprint(p), dir))
			}
			resolved = paths
		default:
			continue
		}
		if err := k.Set(key, resolved); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func resolvePath(path, dir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Validate checks the values of the configuration.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{OutputText, OutputJSON, OutputYAML}, c.Output) {
		errs = append(errs, fmt.Errorf("output: unknown format %q", c.Output))
	}
	if _, err := fetchplan.ParseMode(c.Plan.Mode); err != nil {
		errs = append(errs, fmt.Errorf("plan.mode: %w", err))
	}
	if c.Plan.MaxDepth < 0 {
		errs = append(errs, errors.New("plan.max_depth: must not be negative"))
	}
	if c.Gen.Workers < 0 {
		errs = append(errs, errors.New("gen.workers: must not be negative"))
	}
	if d := c.Database.Dialect; d != "" && !slices.Contains([]string{dialect.SQLite, dialect.Postgres, dialect.MySQL}, d) {
		errs = append(errs, fmt.Errorf("database.dialect: unknown dialect %q", d))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
