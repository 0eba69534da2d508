package gen

import (
	"errors"
	"path"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the output package import path.
// For example: "github.com/org/project/model".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		if !validPackage(path.Base(pkg)) {
			return NewConfigError("Package", pkg, "last path element is not a valid package name")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
// The directory where generated code will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithFeatures enables specific features.
// Features control optional code generation capabilities.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		c.Features = append(c.Features, features...)
		return nil
	}
}

// WithFeatureNames enables features by name, e.g. from a command line
// flag. Unknown names are reported as a ConfigError.
func WithFeatureNames(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			f, ok := FeatureByName(name)
			if !ok {
				return NewConfigError("Features", name, "unknown feature")
			}
			c.Features = append(c.Features, f)
		}
		return nil
	}
}

// WithWorkers limits the number of files written concurrently.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("Workers", n, "workers cannot be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithHooks adds generation hooks.
// Hooks are called before/after code generation.
func WithHooks(hooks ...Hook) Option {
	return func(c *Config) error {
		c.Hooks = append(c.Hooks, hooks...)
		return nil
	}
}

// WithTemplates adds custom templates for code generation.
// Templates allow extending or overriding default code generation.
func WithTemplates(templates ...*Template) Option {
	return func(c *Config) error {
		c.Templates = append(c.Templates, templates...)
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
