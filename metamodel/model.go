package metamodel

import "slices"

// Model is an immutable registry of managed types. Use a Builder to create one.
type Model struct {
	types []*Type
	index map[string]*Type
}

// Type returns the managed type with the given name.
func (m *Model) Type(name string) (*Type, bool) {
	t, ok := m.index[name]
	return t, ok
}

// MustType is like Type but panics if the type is unknown.
func (m *Model) MustType(name string) *Type {
	t, ok := m.index[name]
	if !ok {
		panic(&NotFoundError{Type: name})
	}
	return t
}

// Types returns all types in declaration order.
func (m *Model) Types() []*Type {
	return slices.Clone(m.types)
}

// Entities returns the entity types in declaration order.
func (m *Model) Entities() []*Type {
	var entities []*Type
	for _, t := range m.types {
		if t.IsEntity() {
			entities = append(entities, t)
		}
	}
	return entities
}

// Managed reports whether name denotes a managed type of the model.
func (m *Model) Managed(name string) bool {
	t, ok := m.index[name]
	return ok && t.Managed()
}

// Attribute returns the attribute of the given type, declared or inherited.
// It returns a *NotFoundError if either the type or the attribute is unknown.
func (m *Model) Attribute(typ, name string) (*Attribute, error) {
	t, ok := m.index[typ]
	if !ok {
		return nil, &NotFoundError{Type: typ}
	}
	a, ok := t.Attribute(name)
	if !ok {
		return nil, &NotFoundError{Type: typ, Attribute: name}
	}
	return a, nil
}

// Attributes returns all attributes of the given type, inherited ones first.
func (m *Model) Attributes(typ string) ([]*Attribute, error) {
	t, ok := m.index[typ]
	if !ok {
		return nil, &NotFoundError{Type: typ}
	}
	return t.Attributes(), nil
}

// IsSubtype reports whether sub equals super or inherits from it, directly or
// transitively. Unknown names are never subtypes of anything.
func (m *Model) IsSubtype(sub, super string) bool {
	t, ok := m.index[sub]
	if !ok {
		return false
	}
	if _, ok := m.index[super]; !ok {
		return false
	}
	for c := t; c != nil; c = c.Supertype() {
		if c.Name == super {
			return true
		}
	}
	return false
}

// Subtypes returns the proper subtypes of the given type, direct and
// transitive, in declaration order.
func (m *Model) Subtypes(name string) []*Type {
	var subs []*Type
	for _, t := range m.types {
		if t.Name != name && m.IsSubtype(t.Name, name) {
			subs = append(subs, t)
		}
	}
	return subs
}

// Target returns the managed type referenced by the attribute value, if any.
func (m *Model) Target(a *Attribute) (*Type, bool) {
	t, ok := m.index[a.Target]
	return t, ok && t.Managed()
}

// KeyType returns the managed type of map keys of the attribute, if any.
func (m *Model) KeyType(a *Attribute) (*Type, bool) {
	if !a.IsMap() {
		return nil, false
	}
	t, ok := m.index[a.Key]
	return t, ok && t.Managed()
}
