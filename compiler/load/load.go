// Package load reads model descriptor files into a metamodel.Model.
//
// A descriptor is a YAML, JSON or TOML document listing the managed types of
// the model, their attributes, SQL mapping and named entity graphs. See
// Document for the layout.
package load

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/syssam/entitygraph/metamodel"
)

// Format names a descriptor encoding.
type Format string

// Descriptor formats.
const (
	YAML Format = "yaml"
	JSON Format = "json"
	TOML Format = "toml"
)

// FormatOf returns the format of a descriptor file by extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, true
	case ".json":
		return JSON, true
	case ".toml":
		return TOML, true
	}
	return "", false
}

// Config holds the configuration for loading a model.
type Config struct {
	// Paths are descriptor files or directories of descriptor files.
	// Types and graphs of all files are merged into one model.
	Paths []string
}

// Load reads all descriptors of the config and builds the model.
func (c *Config) Load() (*metamodel.Model, error) {
	doc, err := c.Read()
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// Read reads and merges all descriptors of the config.
func (c *Config) Read() (*Document, error) {
	if len(c.Paths) == 0 {
		return nil, errors.New("load: no descriptor paths")
	}
	doc := &Document{}
	for _, path := range c.Paths {
		files, err := descriptors(path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			d, err := ReadFile(f)
			if err != nil {
				return nil, err
			}
			doc.merge(d)
		}
	}
	return doc, nil
}

// descriptors returns path itself, or the descriptor files of the directory
// path in name order.
func descriptors(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	var files []string
	for _, e := range entries {
		if _, ok := FormatOf(e.Name()); ok && !e.IsDir() {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("load: no descriptor files in %s", path)
	}
	return files, nil
}

// ReadFile decodes the descriptor file at path.
func ReadFile(path string) (*Document, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("load: %s: unsupported file extension", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer f.Close()
	doc, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("load: %s: %w", path, err)
	}
	return doc, nil
}

// Decode decodes a descriptor. Unknown fields are rejected in YAML and
// JSON documents.
func Decode(r io.Reader, format Format) (*Document, error) {
	doc := &Document{}
	switch format {
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(doc); err != nil {
			return nil, err
		}
	case TOML:
		if _, err := toml.NewDecoder(r).Decode(doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return doc, nil
}

// Encode writes the document in the given format.
func (d *Document) Encode(w io.Writer, format Format) error {
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	case JSON:
		b, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err
	case TOML:
		return toml.NewEncoder(w).Encode(d)
	}
	return fmt.Errorf("load: unknown format %q", format)
}
