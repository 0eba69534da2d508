package namedgraph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/schema"
)

// File is the layout of definition files.
//
//	graphs:
//	  - name: Employee.department
//	    type: Employee
//	    attributeNodes: [name, {value: department, subgraph: dept}]
//	    subgraphs:
//	      - name: dept
//	        attributeNodes: [deptName]
type File struct {
	Graphs []schema.NamedEntityGraph `json:"graphs" yaml:"graphs" toml:"graphs"`
}

var extensions = []string{".yaml", ".yml", ".json", ".toml"}

// IsDefinitionFile reports whether path has the extension of a definition
// file: .yaml, .yml, .json or .toml.
func IsDefinitionFile(path string) bool {
	return slices.Contains(extensions, strings.ToLower(filepath.Ext(path)))
}

// ReadFile decodes the definition file at path, choosing the format by
// file extension.
func ReadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("namedgraph: %w", err)
	}
	f := &File{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, f)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(f)
	case ".toml":
		_, err = toml.Decode(string(b), f)
	default:
		return nil, fmt.Errorf("namedgraph: %s: unsupported file extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("namedgraph: decode %s: %w", path, err)
	}
	return f, nil
}

// LoadFile registers the graphs of the definition file at path and returns
// their names. Loading a file again replaces the graphs it defined before.
// On error the registry is left unchanged.
func (r *Registry) LoadFile(path string) ([]string, error) {
	source, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("namedgraph: %w", err)
	}
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	var (
		names  []string
		graphs []*entitygraph.EntityGraph
		errs   []error
	)
	for i, def := range f.Graphs {
		g, err := entitygraph.Define(r.reg, def)
		if err != nil {
			errs = append(errs, fmt.Errorf("namedgraph: %s: graphs[%d]: %w", path, i, err))
			continue
		}
		graphs = append(graphs, g)
		names = append(names, g.Name())
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := r.replace(source, graphs); err != nil {
		return nil, fmt.Errorf("%w in %s", err, path)
	}
	return names, nil
}

// LoadDir loads every definition file of dir, in file name order. It keeps
// loading after a failed file and returns the errors joined.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("namedgraph: %w", err)
	}
	var (
		names []string
		errs  []error
	)
	for _, e := range entries {
		if e.IsDir() || !IsDefinitionFile(e.Name()) {
			continue
		}
		loaded, err := r.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		names = append(names, loaded...)
	}
	return names, errors.Join(errs...)
}

// Unload removes the graphs loaded from the definition file at path and
// returns their names.
func (r *Registry) Unload(path string) []string {
	source, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drop(source)
}

// Source returns the definition file the named graph was loaded from, or
// "" for graphs registered otherwise.
func (r *Registry) Source(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[name]
}
