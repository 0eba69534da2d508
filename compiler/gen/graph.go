package gen

import (
	"cmp"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/syssam/entitygraph/fetchplan"
	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/schema"
)

// DefaultHeader is the header comment of generated files.
const DefaultHeader = "Code generated by entitygraph. DO NOT EDIT."

type (
	// Config holds the global codegen configuration.
	Config struct {
		// Target is the output directory of the generated code.
		Target string
		// Package is the import path of Target, e.g. "example.com/app/model".
		// Type packages are generated as subpackages of it.
		Package string
		// Header is the comment on top of each generated file.
		// Default is DefaultHeader.
		Header string
		// Features are the enabled features. Empty means the features
		// enabled by default.
		Features []Feature
		// Templates are executed in addition to the built-in generators.
		Templates []*Template
		// Hooks wrap the generator.
		Hooks []Hook
		// Workers limits the files written concurrently. Default is
		// GOMAXPROCS.
		Workers int
	}

	// Graph holds the model and the types to generate.
	Graph struct {
		*Config
		// Model is the source model.
		Model *metamodel.Model
		// Nodes are the managed types, in declaration order.
		Nodes []*Type
		// Graphs are all named graph declarations of the model, with their
		// root type set.
		Graphs []schema.NamedEntityGraph
	}

	// Type is a managed type prepared for generation.
	Type struct {
		typ *metamodel.Type
		// Name of the type in the model.
		Name string
		// Package is the name of the generated package of the type.
		Package string
		// Attributes are the declared and inherited attributes.
		Attributes []*Attribute
		// Graphs are the graph declarations rooted at the type.
		Graphs []schema.NamedEntityGraph
	}

	// Attribute is an attribute prepared for generation.
	Attribute struct {
		attr *metamodel.Attribute
		// Name of the attribute in the model.
		Name string
		// Ident is the Go identifier derived from the name, e.g. DeptName.
		Ident string
		// Column is the storage column, if the attribute is stored in a
		// column of the type table.
		Column string
		// Table is the link or element table of plural attributes.
		Table string
	}
)

// FeatureEnabled reports if the given feature name is enabled. It returns
// an error for unknown features.
func (c *Config) FeatureEnabled(name string) (bool, error) {
	f, ok := FeatureByName(name)
	if !ok {
		return false, NewConfigError("Features", name, "unknown feature")
	}
	if len(c.Features) == 0 {
		return f.Default, nil
	}
	return slices.ContainsFunc(c.Features, func(e Feature) bool { return e.Name == name }), nil
}

// PackageName returns the name of the root package: the last element of
// Package, or the base of Target.
func (c *Config) PackageName() string {
	if c.Package != "" {
		return path.Base(c.Package)
	}
	return filepath.Base(c.Target)
}

// header returns the header comment of generated files.
func (c *Config) header() string {
	return cmp.Or(c.Header, DefaultHeader)
}

// NewGraph prepares the types of m for generation.
func NewGraph(c *Config, m *metamodel.Model) (*Graph, error) {
	if c == nil || c.Target == "" {
		return nil, NewConfigError("Target", nil, "missing target directory")
	}
	if name := c.PackageName(); !validPackage(name) {
		return nil, NewConfigError("Package", name, "invalid root package name")
	}
	if m == nil {
		return nil, NewSchemaError("", "", "missing model", nil)
	}
	g := &Graph{Config: c, Model: m}
	packages := make(map[string]string)
	for _, mt := range m.Types() {
		t := newType(mt)
		if !validPackage(t.Package) {
			return nil, NewSchemaError(t.Name, "", "invalid package name "+t.Package, nil)
		}
		if prev, ok := packages[t.Package]; ok {
			return nil, NewSchemaError(t.Name, "", "package name "+t.Package+" already used by type "+prev, nil)
		}
		packages[t.Package] = t.Name
		idents := make(map[string]string)
		for _, a := range t.Attributes {
			if prev, ok := idents[a.Ident]; ok {
				return nil, NewSchemaError(t.Name, a.Name, "identifier "+a.Ident+" already used by attribute "+prev, nil)
			}
			idents[a.Ident] = a.Name
		}
		g.Nodes = append(g.Nodes, t)
		g.Graphs = append(g.Graphs, t.Graphs...)
	}
	return g, nil
}

func newType(mt *metamodel.Type) *Type {
	t := &Type{
		typ:     mt,
		Name:    mt.Name,
		Package: strings.ToLower(mt.Name),
	}
	for _, a := range mt.Attributes() {
		t.Attributes = append(t.Attributes, newAttribute(a))
	}
	var decls schema.NamedEntityGraphs
	switch v := mt.Annotations[decls.Name()].(type) {
	case schema.NamedEntityGraphs:
		decls = v
	case *schema.NamedEntityGraphs:
		if v != nil {
			decls = *v
		}
	}
	for _, d := range decls {
		d.Type = cmp.Or(d.Type, mt.Name)
		d.Name = cmp.Or(d.Name, d.Type)
		t.Graphs = append(t.Graphs, d)
	}
	return t
}

func newAttribute(a *metamodel.Attribute) *Attribute {
	na := &Attribute{attr: a, Name: a.Name, Ident: pascal(a.Name)}
	switch {
	case a.Persistent == metamodel.PersistentBasic, a.Owning():
		na.Column = a.ColumnName()
	case a.Persistent == metamodel.PersistentElementCollection:
		na.Table = fetchplan.ElementTable(a).Name
	case a.IsPlural() && a.MappedBy == "":
		na.Table = metamodel.DefaultJoinTable(a).Name
	}
	return na
}

// Type returns the type of the model.
func (t *Type) Type() *metamodel.Type { return t.typ }

// Kind returns the kind name of the type.
func (t *Type) Kind() string { return t.typ.Kind.String() }

// Entity reports whether the type is an entity, and so has a table.
func (t *Type) Entity() bool { return t.typ.IsEntity() }

// PackageDir returns the directory of the type package, relative to the
// target directory.
func (t *Type) PackageDir() string { return t.Package }

// PkgPath returns the import path of the type package.
func (t *Type) PkgPath(c *Config) string {
	if c.Package == "" {
		return ""
	}
	return path.Join(c.Package, t.Package)
}

// Associations returns the attributes referencing entities.
func (t *Type) Associations() []*Attribute {
	var attrs []*Attribute
	for _, a := range t.Attributes {
		if a.attr.IsAssociation() {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// Columns returns the columns of the type table holding its attributes.
func (t *Type) Columns() []string {
	var cols []string
	for _, a := range t.Attributes {
		if a.Column != "" {
			cols = append(cols, a.Column)
		}
	}
	return cols
}

// Attribute returns the attribute of the model.
func (a *Attribute) Attribute() *metamodel.Attribute { return a.attr }

// Const returns the name of the constant holding the attribute name.
func (a *Attribute) Const() string { return "Attr" + a.Ident }
