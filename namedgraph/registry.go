package namedgraph

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/schema"
)

var (
	// ErrNotFound is returned when a graph name is not registered.
	ErrNotFound = errors.New("namedgraph: graph not found")
	// ErrDuplicate is returned when registering a name that is taken.
	ErrDuplicate = errors.New("namedgraph: duplicate graph name")
)

// Registry stores frozen named graphs. It is safe for concurrent use.
type Registry struct {
	reg entitygraph.Registry

	mu      sync.RWMutex
	graphs  map[string]*entitygraph.EntityGraph
	sources map[string]string // graph name -> definition file, "" otherwise
}

// New returns an empty registry resolving declarations against reg.
func New(reg entitygraph.Registry) *Registry {
	return &Registry{
		reg:     reg,
		graphs:  make(map[string]*entitygraph.EntityGraph),
		sources: make(map[string]string),
	}
}

// Register freezes g and stores it under its name.
func (r *Registry) Register(g *entitygraph.EntityGraph) error {
	if g.Name() == "" {
		return errors.New("namedgraph: register anonymous graph")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add("", g)
}

// Define builds the declared graph and registers it.
func (r *Registry) Define(def schema.NamedEntityGraph) (*entitygraph.EntityGraph, error) {
	g, err := entitygraph.Define(r.reg, def)
	if err != nil {
		return nil, err
	}
	if err := r.Register(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Registry) add(source string, g *entitygraph.EntityGraph) error {
	if _, ok := r.graphs[g.Name()]; ok {
		if prev := r.sources[g.Name()]; prev != "" {
			return fmt.Errorf("%w: %q (defined in %s)", ErrDuplicate, g.Name(), prev)
		}
		return fmt.Errorf("%w: %q", ErrDuplicate, g.Name())
	}
	r.graphs[g.Name()] = g.Freeze()
	r.sources[g.Name()] = source
	return nil
}

// Get returns the graph registered under name.
func (r *Registry) Get(name string) (*entitygraph.EntityGraph, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[name]
	return g, ok
}

// Mutable returns a mutable copy of the named graph, keeping its name.
func (r *Registry) Mutable(name string) (*entitygraph.EntityGraph, error) {
	g, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return g.Copy(name), nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.graphs))
}

// ForType returns the graphs applicable to entities of typ: those rooted at
// typ or at one of its supertypes, sorted by name.
func (r *Registry) ForType(typ string) []*entitygraph.EntityGraph {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var graphs []*entitygraph.EntityGraph
	for _, g := range r.graphs {
		if r.reg.IsSubtype(typ, g.Type().Name) {
			graphs = append(graphs, g)
		}
	}
	slices.SortFunc(graphs, func(a, b *entitygraph.EntityGraph) int {
		return cmp.Compare(a.Name(), b.Name())
	})
	return graphs
}

// Remove removes the named graph and reports whether it was registered.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.graphs[name]; !ok {
		return false
	}
	delete(r.graphs, name)
	delete(r.sources, name)
	return true
}

// Len returns the number of registered graphs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.graphs)
}

// LoadModel registers the graphs declared on the entity types of m with
// the NamedEntityGraphs annotation. Declarations without a Type are rooted
// at the annotated type. All declarations are checked before any is
// registered.
func (r *Registry) LoadModel(m *metamodel.Model) error {
	var (
		graphs []*entitygraph.EntityGraph
		errs   []error
	)
	for _, typ := range m.Entities() {
		for _, def := range Declarations(typ) {
			def.Type = cmp.Or(def.Type, typ.Name)
			g, err := entitygraph.Define(r.reg, def)
			if err != nil {
				errs = append(errs, fmt.Errorf("namedgraph: type %s: %w", typ.Name, err))
				continue
			}
			graphs = append(graphs, g)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return r.replace("", graphs)
}

// Declarations returns the graph declarations attached to typ.
func Declarations(typ *metamodel.Type) schema.NamedEntityGraphs {
	switch v := typ.Annotations[schema.NamedEntityGraphs(nil).Name()].(type) {
	case schema.NamedEntityGraphs:
		return v
	case *schema.NamedEntityGraphs:
		if v != nil {
			return *v
		}
	}
	return nil
}

// replace registers graphs, atomically. Graphs of a non-empty source
// replace the graphs previously loaded from it. Nothing changes if a name
// conflicts with a graph of another source.
func (r *Registry) replace(source string, graphs []*entitygraph.EntityGraph) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool, len(graphs))
	for _, g := range graphs {
		name := g.Name()
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicate, name)
		}
		seen[name] = true
		if _, ok := r.graphs[name]; ok && (source == "" || r.sources[name] != source) {
			if prev := r.sources[name]; prev != "" {
				return fmt.Errorf("%w: %q (defined in %s)", ErrDuplicate, name, prev)
			}
			return fmt.Errorf("%w: %q", ErrDuplicate, name)
		}
	}
	if source != "" {
		r.drop(source)
	}
	for _, g := range graphs {
		if err := r.add(source, g); err != nil {
			return err
		}
	}
	return nil
}

// drop removes the graphs loaded from source and returns their names.
func (r *Registry) drop(source string) []string {
	var names []string
	for name, src := range r.sources {
		if src == source {
			names = append(names, name)
			delete(r.graphs, name)
			delete(r.sources, name)
		}
	}
	slices.Sort(names)
	return names
}
