package graphql

import (
	"cmp"

	"github.com/syssam/entitygraph/metamodel"
)

// binding maps GraphQL type and field names to the managed types and
// attributes of a model.
type binding struct {
	model  *metamodel.Model
	types  map[string]*metamodel.Type
	fields map[string]map[string][]*metamodel.Attribute
}

func bind(m *metamodel.Model) *binding {
	b := &binding{
		model:  m,
		types:  make(map[string]*metamodel.Type),
		fields: make(map[string]map[string][]*metamodel.Attribute),
	}
	for _, t := range m.Types() {
		if From(t.Annotations).IsSkipType() {
			continue
		}
		b.types[typeName(t)] = t
		if len(m.Subtypes(t.Name)) > 0 {
			b.types[interfaceName(t)] = t
		}
		fields := make(map[string][]*metamodel.Attribute)
		for _, a := range t.Attributes() {
			ant := From(a.Annotations)
			if ant.SkipField {
				continue
			}
			if name := fieldName(a); name != "" {
				fields[name] = append(fields[name], a)
			}
			for _, name := range ant.Mapping {
				fields[name] = append(fields[name], a)
			}
			for _, name := range ant.CollectedFor {
				fields[name] = append(fields[name], a)
			}
		}
		b.fields[t.Name] = fields
	}
	return b
}

// typeName returns the GraphQL object name of a type.
func typeName(t *metamodel.Type) string {
	return cmp.Or(From(t.Annotations).Type, t.Name)
}

// interfaceName returns the name of the GraphQL interface implemented by
// a type and its subtypes.
func interfaceName(t *metamodel.Type) string {
	return typeName(t) + "Interface"
}

// fieldName returns the GraphQL field name of an attribute, or "" if the
// attribute has no schema field.
func fieldName(a *metamodel.Attribute) string {
	ant := From(a.Annotations)
	if ant.SkipField || ant.Unbind {
		return ""
	}
	return cmp.Or(ant.FieldName, a.Name)
}

// attributes returns the attributes collected for a GraphQL field of t.
func (b *binding) attributes(t *metamodel.Type, name string) []*metamodel.Attribute {
	return b.fields[t.Name][name]
}

// lookup returns the type named by a GraphQL type condition.
func (b *binding) lookup(name string) (*metamodel.Type, bool) {
	t, ok := b.types[name]
	return t, ok
}
