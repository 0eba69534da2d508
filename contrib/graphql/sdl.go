package graphql

import (
	"io"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/entitygraph/metamodel"
)

// scalars maps basic attribute types to GraphQL scalars. Types missing
// from the map are exposed as String.
var scalars = map[string]string{
	"string":  "String",
	"text":    "String",
	"enum":    "String",
	"bytes":   "String",
	"bool":    "Boolean",
	"int":     "Int",
	"int8":    "Int",
	"int16":   "Int",
	"int32":   "Int",
	"int64":   "Int",
	"uint":    "Int",
	"uint8":   "Int",
	"uint16":  "Int",
	"uint32":  "Int",
	"uint64":  "Int",
	"float32": "Float",
	"float64": "Float",
	"decimal": "Float",
	"time":    "Time",
	"date":    "Time",
	"uuid":    "UUID",
	"json":    "JSON",
}

// builtin scalars need no declaration.
var builtin = []string{"String", "Boolean", "Int", "Float", "ID"}

// PageInfo is the Relay page info type of connections.
const PageInfo = "PageInfo"

// connectionNames holds the names of the Relay types of a node type.
type connectionNames struct {
	Connection string
	Edge       string
	Node       string
}

func paginationNames(node string) connectionNames {
	return connectionNames{
		Connection: node + "Connection",
		Edge:       node + "Edge",
		Node:       node,
	}
}

type sdl struct {
	*binding
	doc     *ast.SchemaDocument
	defined map[string]bool
	scalars []string
}

// Schema returns the GraphQL schema of the model:
//
//   - an object type per entity and embeddable,
//   - an interface per type with subtypes, implemented by the type and its
//     subtypes, so that fragments on subtypes are valid,
//   - Relay connection types for attributes annotated with RelayConnection,
//   - an entry type with key and value fields per map attribute,
//   - a Query type listing the entities annotated with QueryField.
func Schema(m *metamodel.Model) *ast.SchemaDocument {
	s := &sdl{
		binding: bind(m),
		doc:     &ast.SchemaDocument{},
		defined: make(map[string]bool),
	}
	var query ast.FieldList
	for _, t := range m.Types() {
		ant := From(t.Annotations)
		if ant.IsSkipType() {
			continue
		}
		fields := s.fields(t)
		if s.hasSubtypes(t) {
			s.add(&ast.Definition{
				Kind:        ast.Interface,
				Name:        interfaceName(t),
				Description: t.Comment,
				Fields:      fields,
			})
		}
		if t.Kind == metamodel.KindMappedSuperclass {
			continue
		}
		s.add(&ast.Definition{
			Kind:        ast.Object,
			Name:        typeName(t),
			Description: t.Comment,
			Interfaces:  s.interfaces(t),
			Fields:      fields,
		})
		if t.IsEntity() && ant.HasQueryField() {
			query = append(query, &ast.FieldDefinition{
				Name: lowerFirst(metamodel.Plural(typeName(t))),
				Type: ast.NonNullListType(ast.NonNullNamedType(s.ref(t), nil), nil),
			})
		}
	}
	if len(query) > 0 {
		s.add(&ast.Definition{Kind: ast.Object, Name: "Query", Fields: query})
	}
	slices.Sort(s.scalars)
	defs := make(ast.DefinitionList, 0, len(s.scalars)+len(s.doc.Definitions))
	for _, name := range s.scalars {
		defs = append(defs, &ast.Definition{Kind: ast.Scalar, Name: name})
	}
	s.doc.Definitions = append(defs, s.doc.Definitions...)
	return s.doc
}

// WriteSchema writes the formatted GraphQL schema of m to w.
func WriteSchema(w io.Writer, m *metamodel.Model) error {
	ew := &errWriter{w: w}
	formatter.NewFormatter(ew).FormatSchemaDocument(Schema(m))
	return ew.err
}

// errWriter keeps the first write error, as the formatter drops them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (s *sdl) add(def *ast.Definition) {
	if s.defined[def.Name] {
		return
	}
	s.defined[def.Name] = true
	s.doc.Definitions = append(s.doc.Definitions, def)
}

func (s *sdl) hasSubtypes(t *metamodel.Type) bool {
	for _, sub := range s.model.Subtypes(t.Name) {
		if !From(sub.Annotations).IsSkipType() {
			return true
		}
	}
	return false
}

// interfaces returns the interfaces implemented by the object type of t.
func (s *sdl) interfaces(t *metamodel.Type) []string {
	var names []string
	for c := t; c != nil; c = c.Supertype() {
		if !From(c.Annotations).IsSkipType() && s.hasSubtypes(c) {
			names = append(names, interfaceName(c))
		}
	}
	return names
}

// ref returns the name used to reference t from fields: its interface if
// it has subtypes.
func (s *sdl) ref(t *metamodel.Type) string {
	if s.hasSubtypes(t) {
		return interfaceName(t)
	}
	return typeName(t)
}

func (s *sdl) fields(t *metamodel.Type) ast.FieldList {
	var fields ast.FieldList
	for _, a := range t.Attributes() {
		name := fieldName(a)
		if name == "" {
			continue
		}
		typ, ok := s.fieldType(a)
		if !ok {
			continue
		}
		fields = append(fields, &ast.FieldDefinition{
			Name:        name,
			Description: a.Comment,
			Type:        typ,
		})
	}
	return fields
}

func (s *sdl) fieldType(a *metamodel.Attribute) (*ast.Type, bool) {
	if a.ID {
		return ast.NonNullNamedType("ID", nil), true
	}
	name, ok := s.valueType(a.Target)
	if !ok {
		return nil, false
	}
	switch {
	case a.IsMap():
		key, ok := s.valueType(a.Key)
		if !ok {
			return nil, false
		}
		entry := s.entry(a, key, name)
		return ast.NonNullListType(ast.NonNullNamedType(entry, nil), nil), true
	case a.IsPlural():
		if a.IsAssociation() && From(a.Annotations).RelayConnection {
			return ast.NonNullNamedType(s.connection(name), nil), true
		}
		return ast.NonNullListType(ast.NonNullNamedType(name, nil), nil), true
	case a.Optional:
		return ast.NamedType(name, nil), true
	}
	return ast.NonNullNamedType(name, nil), true
}

// valueType returns the GraphQL type of a basic or managed type name. It
// reports false for skipped types.
func (s *sdl) valueType(name string) (string, bool) {
	if t, ok := s.model.Type(name); ok && t.Managed() {
		if From(t.Annotations).IsSkipType() {
			return "", false
		}
		return s.ref(t), true
	}
	scalar, ok := scalars[name]
	if !ok {
		scalar = "String"
	}
	if !slices.Contains(builtin, scalar) && !slices.Contains(s.scalars, scalar) {
		s.scalars = append(s.scalars, scalar)
	}
	return scalar, true
}

// entry defines the key/value entry type of a map attribute.
func (s *sdl) entry(a *metamodel.Attribute, key, value string) string {
	owner := a.Owner
	if t, ok := s.model.Type(a.Owner); ok {
		owner = typeName(t)
	}
	name := owner + upperFirst(a.Name) + "Entry"
	s.add(&ast.Definition{
		Kind: ast.Object,
		Name: name,
		Fields: ast.FieldList{
			{Name: fieldKey, Type: ast.NonNullNamedType(key, nil)},
			{Name: fieldValue, Type: ast.NonNullNamedType(value, nil)},
		},
	})
	return name
}

// connection defines the Relay connection types of node.
func (s *sdl) connection(node string) string {
	names := paginationNames(node)
	s.add(&ast.Definition{
		Kind: ast.Object,
		Name: PageInfo,
		Fields: ast.FieldList{
			{Name: "hasNextPage", Type: ast.NonNullNamedType("Boolean", nil)},
			{Name: "hasPreviousPage", Type: ast.NonNullNamedType("Boolean", nil)},
			{Name: "startCursor", Type: ast.NamedType("String", nil)},
			{Name: "endCursor", Type: ast.NamedType("String", nil)},
		},
	})
	s.add(&ast.Definition{
		Kind: ast.Object,
		Name: names.Edge,
		Fields: ast.FieldList{
			{Name: fieldNode, Type: ast.NonNullNamedType(names.Node, nil)},
			{Name: "cursor", Type: ast.NonNullNamedType("String", nil)},
		},
	})
	s.add(&ast.Definition{
		Kind: ast.Object,
		Name: names.Connection,
		Fields: ast.FieldList{
			{Name: fieldEdges, Type: ast.NonNullListType(ast.NonNullNamedType(names.Edge, nil), nil)},
			{Name: fieldNodes, Type: ast.NonNullListType(ast.NonNullNamedType(names.Node, nil), nil)},
			{Name: "pageInfo", Type: ast.NonNullNamedType(PageInfo, nil)},
			{Name: "totalCount", Type: ast.NonNullNamedType("Int", nil)},
		},
	})
	return names.Connection
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}
