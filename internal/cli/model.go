package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/compiler/load"
	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/namedgraph"
)

var errNoModel = errors.New("no model descriptors: set --model or model in the config file")

// loadModel reads the model descriptors of the config.
func (a *app) loadModel(ctx context.Context) (*metamodel.Model, error) {
	if len(a.cfg.Model) == 0 {
		return nil, errNoModel
	}
	p := newProgress(loggerFromContext(ctx))
	m, err := (&load.Config{Paths: a.cfg.Model}).Load()
	if err != nil {
		return nil, err
	}
	p.done("model loaded", "types", len(m.Types()))
	return m, nil
}

// loadGraphs returns a registry holding the graphs declared in the model
// and in the definition files of the config.
func (a *app) loadGraphs(ctx context.Context, m *metamodel.Model) (*namedgraph.Registry, error) {
	reg := namedgraph.New(m)
	if err := reg.LoadModel(m); err != nil {
		return nil, err
	}
	logger := loggerFromContext(ctx)
	for _, path := range a.cfg.Graphs {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		var names []string
		if info.IsDir() {
			names, err = reg.LoadDir(path)
		} else {
			names, err = reg.LoadFile(path)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("graphs loaded", "path", path, "graphs", names)
	}
	return reg, nil
}

// graph returns the named graph of the registry.
func graph(reg *namedgraph.Registry, name string) (*entitygraph.EntityGraph, error) {
	g, ok := reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown graph %q (known: %v)", name, reg.Names())
	}
	return g, nil
}
