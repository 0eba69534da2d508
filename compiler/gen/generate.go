package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/schema"
)

const (
	schemaPkg     = "github.com/syssam/entitygraph/schema"
	namedgraphPkg = "github.com/syssam/entitygraph/namedgraph"
)

type (
	// Generator is the interface that wraps the Generate method.
	Generator interface {
		// Generate generates the code for the graph.
		Generate(context.Context, *Graph) error
	}

	// GenerateFunc is an adapter to allow the use of ordinary functions as
	// Generators.
	GenerateFunc func(context.Context, *Graph) error

	// Hook wraps a Generator, e.g. to run code before or after generation.
	Hook func(Generator) Generator
)

// Generate calls f(ctx, g).
func (f GenerateFunc) Generate(ctx context.Context, g *Graph) error {
	return f(ctx, g)
}

// Generate generates the static metamodel of m: one package per managed
// type holding its attribute names, and the named graph declarations of
// the model.
func Generate(ctx context.Context, m *metamodel.Model, c *Config) error {
	g, err := NewGraph(c, m)
	if err != nil {
		return err
	}
	var gen Generator = GenerateFunc(generate)
	for i := len(c.Hooks) - 1; i >= 0; i-- {
		gen = c.Hooks[i](gen)
	}
	return gen.Generate(ctx, g)
}

func generate(ctx context.Context, g *Graph) error {
	if err := NewJenniferGenerator(g, g.Target).WithWorkers(g.Workers).Generate(ctx); err != nil {
		return err
	}
	if len(g.Templates) > 0 {
		if err := NewTemplateWriter(g, g.Target).WithWorkers(g.Workers).GenerateAll(ctx); err != nil {
			return err
		}
	}
	return cleanup(g.Config)
}

// cleanup removes the files of disabled features left by previous runs.
func cleanup(c *Config) error {
	for _, f := range AllFeatures {
		if f.cleanup == nil {
			continue
		}
		if enabled, _ := c.FeatureEnabled(f.Name); enabled {
			continue
		}
		if err := f.cleanup(c); err != nil {
			return NewGenerationError("cleanup", "", "feature "+f.Name, err)
		}
	}
	return nil
}

// JenniferGenerator generates the metamodel packages with jennifer, which
// tracks imports and formats the output.
type JenniferGenerator struct {
	graph   *Graph
	workers int
	outDir  string
}

// NewJenniferGenerator creates a new Jennifer-based generator.
func NewJenniferGenerator(g *Graph, outDir string) *JenniferGenerator {
	return &JenniferGenerator{
		graph:   g,
		workers: runtime.GOMAXPROCS(0),
		outDir:  outDir,
	}
}

// WithWorkers sets the number of parallel workers.
func (g *JenniferGenerator) WithWorkers(n int) *JenniferGenerator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Generate writes all files, with up to workers files written concurrently.
func (g *JenniferGenerator) Generate(ctx context.Context) error {
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return NewGenerationError("type", g.outDir, "create target directory", err)
	}
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.workers)
	for _, t := range g.graph.Nodes {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.writeFile(g.GenType(t), t.PackageDir(), t.Package+".go", "type")
		})
	}
	if g.enabled(FeatureGraphs) {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.writeFile(g.GenGraphs(), "", "graphs.go", "graphs")
		})
	}
	return errg.Wait()
}

// GenType returns the package of a type.
func (g *JenniferGenerator) GenType(t *Type) *jen.File {
	f := g.newFile(t.Package)
	f.PackageComment(fmt.Sprintf("Package %s holds the attribute names of the %s %s.", t.Package, t.Name, t.typ.Kind))
	consts := []jen.Code{
		jen.Comment("Label holds the name of the type in the model."),
		jen.Id("Label").Op("=").Lit(t.Name),
	}
	if t.typ.Super != "" {
		consts = append(consts,
			jen.Comment("Supertype holds the name of the direct supertype."),
			jen.Id("Supertype").Op("=").Lit(t.typ.Super),
		)
	}
	for _, a := range t.Attributes {
		consts = append(consts,
			jen.Commentf("%s holds the name of the %q attribute.", a.Const(), a.Name),
			jen.Id(a.Const()).Op("=").Lit(a.Name),
		)
	}
	f.Const().Defs(consts...)

	if t.Entity() && g.enabled(FeatureSQL) {
		g.genSQL(f, t)
	}
	if len(t.Graphs) > 0 && g.enabled(FeatureGraphs) {
		var defs []jen.Code
		for _, d := range t.Graphs {
			id := graphConst(d.Name)
			defs = append(defs,
				jen.Commentf("%s is the name of the %q graph.", id, d.Name),
				jen.Id(id).Op("=").Lit(d.Name),
			)
		}
		f.Const().Defs(defs...)
	}
	if g.enabled(FeatureAttributeLists) {
		f.Comment("Attributes holds the declared and inherited attributes of the type.")
		f.Var().Id("Attributes").Op("=").Index().String().ValuesFunc(func(grp *jen.Group) {
			for _, a := range t.Attributes {
				grp.Id(a.Const())
			}
		})
		if assocs := t.Associations(); len(assocs) > 0 {
			f.Comment("Associations holds the attributes referencing entities.")
			f.Var().Id("Associations").Op("=").Index().String().ValuesFunc(func(grp *jen.Group) {
				for _, a := range assocs {
					grp.Id(a.Const())
				}
			})
		}
	}
	return f
}

func (g *JenniferGenerator) genSQL(f *jen.File, t *Type) {
	consts := []jen.Code{
		jen.Comment("Table holds the table of the type."),
		jen.Id("Table").Op("=").Lit(t.typ.Table()),
	}
	if d := t.typ.Discriminator(); d != "" {
		consts = append(consts,
			jen.Comment("Discriminator holds the column telling the types of the hierarchy apart."),
			jen.Id("Discriminator").Op("=").Lit(d),
			jen.Comment("DiscriminatorValue holds the discriminator of rows of the type."),
			jen.Id("DiscriminatorValue").Op("=").Lit(t.typ.DiscriminatorValue()),
		)
	}
	for _, a := range t.Attributes {
		switch {
		case a.Column != "":
			consts = append(consts,
				jen.Commentf("%sColumn holds the column of the %q attribute.", a.Ident, a.Name),
				jen.Id(a.Ident+"Column").Op("=").Lit(a.Column),
			)
		case a.Table != "":
			consts = append(consts,
				jen.Commentf("%sTable holds the table of the %q attribute.", a.Ident, a.Name),
				jen.Id(a.Ident+"Table").Op("=").Lit(a.Table),
			)
		}
	}
	if id := t.typ.ID(); id != nil && pascal(id.Name) != "ID" {
		consts = append(consts,
			jen.Comment("IDColumn holds the column of the identifier."),
			jen.Id("IDColumn").Op("=").Id(pascal(id.Name)+"Column"),
		)
	}
	f.Const().Defs(consts...)
	f.Comment("Columns holds the columns of the table holding the attributes of the type.")
	f.Var().Id("Columns").Op("=").Index().String().ValuesFunc(func(grp *jen.Group) {
		for _, a := range t.Attributes {
			if a.Column != "" {
				grp.Id(a.Ident + "Column")
			}
		}
	})
}

// GenGraphs returns the root package file declaring the named graphs.
func (g *JenniferGenerator) GenGraphs() *jen.File {
	f := g.newFile(g.graph.PackageName())
	f.Comment("Graphs holds the named entity graph declarations of the model.")
	f.Var().Id("Graphs").Op("=").Index().Qual(schemaPkg, "NamedEntityGraph").ValuesFunc(func(grp *jen.Group) {
		for _, t := range g.graph.Nodes {
			for _, d := range t.Graphs {
				dict := jen.Dict{
					jen.Id("Name"): g.typeRef(t, graphConst(d.Name), jen.Lit(d.Name)),
					jen.Id("Type"): g.typeRef(t, "Label", jen.Lit(t.Name)),
				}
				if d.IncludeAllAttributes {
					dict[jen.Id("IncludeAllAttributes")] = jen.True()
				}
				if len(d.AttributeNodes) > 0 {
					dict[jen.Id("AttributeNodes")] = nodes(d.AttributeNodes)
				}
				if len(d.Subgraphs) > 0 {
					dict[jen.Id("Subgraphs")] = subgraphs(d.Subgraphs)
				}
				if len(d.SubclassSubgraphs) > 0 {
					dict[jen.Id("SubclassSubgraphs")] = subgraphs(d.SubclassSubgraphs)
				}
				grp.Values(dict)
			}
		}
	})
	f.Comment("Register defines the graphs of the model and registers them in r.")
	f.Func().Id("Register").Params(jen.Id("r").Op("*").Qual(namedgraphPkg, "Registry")).Error().Block(
		jen.Var().Id("errs").Index().Error(),
		jen.For(jen.List(jen.Id("_"), jen.Id("def")).Op(":=").Range().Id("Graphs")).Block(
			jen.If(
				jen.List(jen.Id("_"), jen.Err()).Op(":=").Id("r").Dot("Define").Call(jen.Id("def")),
				jen.Err().Op("!=").Nil(),
			).Block(
				jen.Id("errs").Op("=").Append(jen.Id("errs"), jen.Err()),
			),
		),
		jen.Return(jen.Qual("errors", "Join").Call(jen.Id("errs").Op("..."))),
	)
	return f
}

// typeRef references a constant of the type package when its import path
// is known, or falls back to the literal.
func (g *JenniferGenerator) typeRef(t *Type, name string, lit jen.Code) jen.Code {
	if pkg := t.PkgPath(g.graph.Config); pkg != "" {
		return jen.Qual(pkg, name)
	}
	return lit
}

func nodes(ns []schema.NamedAttributeNode) jen.Code {
	return jen.Index().Qual(schemaPkg, "NamedAttributeNode").ValuesFunc(func(grp *jen.Group) {
		for _, n := range ns {
			dict := jen.Dict{jen.Id("Value"): jen.Lit(n.Value)}
			if n.Subgraph != "" {
				dict[jen.Id("Subgraph")] = jen.Lit(n.Subgraph)
			}
			if n.KeySubgraph != "" {
				dict[jen.Id("KeySubgraph")] = jen.Lit(n.KeySubgraph)
			}
			grp.Values(dict)
		}
	})
}

func subgraphs(ss []schema.NamedSubgraph) jen.Code {
	return jen.Index().Qual(schemaPkg, "NamedSubgraph").ValuesFunc(func(grp *jen.Group) {
		for _, s := range ss {
			dict := jen.Dict{jen.Id("Name"): jen.Lit(s.Name)}
			if s.Type != "" {
				dict[jen.Id("Type")] = jen.Lit(s.Type)
			}
			if len(s.AttributeNodes) > 0 {
				dict[jen.Id("AttributeNodes")] = nodes(s.AttributeNodes)
			}
			grp.Values(dict)
		}
	})
}

// graphConst returns the name of the constant holding a graph name.
func graphConst(name string) string {
	return "Graph" + pascal(name)
}

func (g *JenniferGenerator) enabled(f Feature) bool {
	enabled, _ := g.graph.FeatureEnabled(f.Name)
	return enabled
}

// writeFile writes jennifer file directly to disk (no buffering).
func (g *JenniferGenerator) writeFile(f *jen.File, subdir, filename, phase string) error {
	dir := g.outDir
	if subdir != "" {
		dir = filepath.Join(g.outDir, subdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewGenerationError(phase, dir, "create directory", err)
	}
	path := filepath.Join(dir, filename)
	out, err := os.Create(path)
	if err != nil {
		return NewGenerationError(phase, path, "create file", err)
	}
	defer out.Close()
	// Jennifer renders with correct imports and formatting
	if err := f.Render(out); err != nil {
		return NewGenerationError(phase, path, "render", err)
	}
	return nil
}

// newFile creates a new Jennifer file with the header comment.
func (g *JenniferGenerator) newFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(g.graph.header())
	return f
}
