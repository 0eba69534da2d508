package graphql

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// ScalarBindings bind the custom scalars of the generated schema to the
// gqlgen implementations.
var ScalarBindings = map[string]string{
	"Time": "github.com/99designs/gqlgen/graphql.Time",
	"UUID": "github.com/99designs/gqlgen/graphql.UUID",
	"JSON": "github.com/99designs/gqlgen/graphql.Map",
}

// GQLGenConfig represents a subset of gqlgen.yml configuration.
type GQLGenConfig struct {
	// SchemaFilename is the path(s) to the GraphQL schema file(s).
	SchemaFilename StringList `yaml:"schema,omitempty"`

	// Exec configures the generated executor.
	Exec PackageConfig `yaml:"exec,omitempty"`

	// Model configures the generated models.
	Model PackageConfig `yaml:"model,omitempty"`

	// Autobind is a list of packages to autobind types from.
	Autobind []string `yaml:"autobind,omitempty"`

	// Models is a map of GraphQL type name to model configuration.
	Models map[string]TypeMapEntry `yaml:"models,omitempty"`
}

// PackageConfig configures a generated package.
type PackageConfig struct {
	Filename string `yaml:"filename,omitempty"`
	Package  string `yaml:"package,omitempty"`
}

// TypeMapEntry is the configuration for a single GraphQL type.
type TypeMapEntry struct {
	// Model is the Go model(s) to bind to this GraphQL type.
	Model StringList `yaml:"model,omitempty"`
}

// StringList is a YAML type that can be either a string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// MarshalYAML implements yaml.Marshaler for StringList.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// LoadGQLGenConfig loads a gqlgen.yml configuration file.
func LoadGQLGenConfig(path string) (*GQLGenConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &GQLGenConfig{Models: make(map[string]TypeMapEntry)}, nil
		}
		return nil, fmt.Errorf("read gqlgen config: %w", err)
	}
	var cfg GQLGenConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse gqlgen config: %w", err)
	}
	if cfg.Models == nil {
		cfg.Models = make(map[string]TypeMapEntry)
	}
	return &cfg, nil
}

// InjectBindings adds the schema path and the ScalarBindings missing from
// the gqlgen configuration at path, creating the file if needed. The rest
// of the file, including comments, is kept. Existing model bindings win.
func InjectBindings(path, schemaPath string) error {
	var doc yaml.Node
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read gqlgen config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse gqlgen config: %w", err)
		}
	}
	if len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("parse gqlgen config: expected a mapping, got %v", root.Kind)
	}
	if schemaPath != "" {
		addSchema(root, schemaPath)
	}
	models := mapping(root, "models")
	for _, name := range slices.Sorted(maps.Keys(ScalarBindings)) {
		if value(models, name) == nil {
			m := mapping(models, name)
			m.Content = append(m.Content, scalar("model"), scalar(ScalarBindings[name]))
		}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("marshal gqlgen config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal gqlgen config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// addSchema adds path to the schema list of the config.
func addSchema(root *yaml.Node, path string) {
	v := value(root, "schema")
	switch {
	case v == nil:
		root.Content = append(root.Content, scalar("schema"), &yaml.Node{
			Kind:    yaml.SequenceNode,
			Content: []*yaml.Node{scalar(path)},
		})
	case v.Kind == yaml.ScalarNode:
		if v.Value != path {
			*v = yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{scalar(v.Value), scalar(path)}}
		}
	case v.Kind == yaml.SequenceNode:
		for _, n := range v.Content {
			if n.Value == path {
				return
			}
		}
		v.Content = append(v.Content, scalar(path))
	}
}

// value returns the value node of key in a mapping node.
func value(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// mapping returns the mapping value of key, adding it if missing.
func mapping(m *yaml.Node, key string) *yaml.Node {
	if v := value(m, key); v != nil {
		if v.Kind != yaml.MappingNode {
			*v = yaml.Node{Kind: yaml.MappingNode}
		}
		return v
	}
	v := &yaml.Node{Kind: yaml.MappingNode}
	m.Content = append(m.Content, scalar(key), v)
	return v
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
