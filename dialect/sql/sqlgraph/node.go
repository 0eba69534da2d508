package sqlgraph

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Node is one loaded entity.
type Node struct {
	// Type is the most specific planned type the row was read as.
	Type string
	// ID is the normalized identifier of the entity.
	ID any
	// Discriminator holds the raw discriminator value, if the hierarchy has one.
	Discriminator string
	// Values maps attribute paths to column values, e.g. "name" or "address.city".
	Values map[string]any
	// Edges holds the loaded plural and association attributes.
	Edges map[string]*Edge

	fks map[string]any
}

// Edge holds the loaded values of one plural or association attribute.
type Edge struct {
	Plural bool
	Map    bool
	// Nodes are the associated entities.
	Nodes []*Node
	// Elements are the values of element collections: column values for
	// basic elements and attribute-path maps for embeddables.
	Elements []any
	// Keys are the map keys, aligned with Nodes or Elements. Entity keys are
	// *Node values.
	Keys []any
}

func newNode(typ string, id any) *Node {
	return &Node{Type: typ, ID: id, Values: make(map[string]any)}
}

// Value returns the value of the attribute path.
func (n *Node) Value(path string) (any, bool) {
	v, ok := n.Values[path]
	return v, ok
}

// Edge returns the edge of the attribute, or nil if it was not loaded.
func (n *Node) Edge(name string) *Edge {
	return n.Edges[name]
}

// One returns the entity of a to-one attribute, or nil.
func (n *Node) One(name string) *Node {
	if e := n.Edges[name]; e != nil && len(e.Nodes) > 0 {
		return e.Nodes[0]
	}
	return nil
}

// Many returns the entities of a plural attribute.
func (n *Node) Many(name string) []*Node {
	if e := n.Edges[name]; e != nil {
		return e.Nodes
	}
	return nil
}

func (n *Node) setEdge(name string, e *Edge) {
	if n.Edges == nil {
		n.Edges = make(map[string]*Edge)
	}
	n.Edges[name] = e
}

// Map returns the node as nested maps: dotted value paths become nested
// objects, to-one edges objects, plural edges lists and map edges lists of
// {"key", "value"} entries.
func (n *Node) Map() map[string]any {
	m := map[string]any{"@type": n.Type, "@id": n.ID}
	for path, v := range n.Values {
		cur := m
		parts := strings.Split(path, ".")
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = displayValue(v)
	}
	for name, e := range n.Edges {
		m[name] = e.value()
	}
	return m
}

func (e *Edge) value() any {
	var values []any
	for _, n := range e.Nodes {
		values = append(values, n.Map())
	}
	for _, v := range e.Elements {
		values = append(values, displayValue(v))
	}
	switch {
	case e.Map:
		entries := make([]any, len(values))
		for i, v := range values {
			var key any
			if i < len(e.Keys) {
				key = e.Keys[i]
			}
			if kn, ok := key.(*Node); ok {
				key = kn.Map()
			}
			entries[i] = map[string]any{"key": displayValue(key), "value": v}
		}
		return entries
	case e.Plural:
		if values == nil {
			return []any{}
		}
		return values
	case len(values) > 0:
		return values[0]
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Map())
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%v)", n.Type, n.ID)
}

func displayValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// NormalizeKey returns the comparable form of an identifier or foreign-key
// value, so keys read from different columns and drivers match:
// integers become int64, 16-byte values and UUID strings become uuid.UUID,
// and other byte slices become strings.
func NormalizeKey(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v)
		}
		return uint64(v)
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
		return v
	case []byte:
		if len(v) == 16 {
			if id, err := uuid.FromBytes(v); err == nil {
				return id
			}
		}
		return NormalizeKey(string(v))
	case string:
		if len(v) == 36 {
			if id, err := uuid.Parse(v); err == nil {
				return id
			}
		}
		return v
	case *uuid.UUID:
		if v == nil {
			return nil
		}
		return *v
	}
	return v
}
