package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/syssam/entitygraph/schema"
)

func TestCommentAnnotation(t *testing.T) {
	ann := schema.Comment("Employee is a member of the staff.")
	require.NotNil(t, ann)
	assert.Equal(t, "Employee is a member of the staff.", ann.Text)
	assert.Equal(t, "Comment", ann.Name())
}

// mockAnnotation is a test implementation of Annotation.
type mockAnnotation struct{ name string }

func (m *mockAnnotation) Name() string { return m.name }

func TestNamedEntityGraphs_Merge(t *testing.T) {
	a := schema.Graphs(schema.NamedEntityGraph{Name: "a"})
	b := schema.Graphs(schema.NamedEntityGraph{Name: "b"})

	t.Run("Value", func(t *testing.T) {
		merged := a.Merge(b)
		assert.Equal(t, schema.Graphs(schema.NamedEntityGraph{Name: "a"}, schema.NamedEntityGraph{Name: "b"}), merged)
		assert.Len(t, a, 1, "receiver is not modified")
	})

	t.Run("Pointer", func(t *testing.T) {
		merged := a.Merge(&b)
		assert.Len(t, merged, 2)
		assert.Equal(t, a, a.Merge((*schema.NamedEntityGraphs)(nil)))
	})

	t.Run("Other", func(t *testing.T) {
		assert.Equal(t, a, a.Merge(&mockAnnotation{name: "Other"}))
	})

	t.Run("Interfaces", func(_ *testing.T) {
		var _ schema.Annotation = a
		var _ schema.Merger = a
	})
	assert.Equal(t, "NamedEntityGraphs", a.Name())
}

// want is the declaration every format below decodes to.
var want = schema.NamedEntityGraph{
	Name: "Employee.department",
	Type: "Employee",
	AttributeNodes: []schema.NamedAttributeNode{
		{Value: "name"},
		{Value: "department", Subgraph: "dept"},
		{Value: "phones", KeySubgraph: "types"},
	},
	Subgraphs: []schema.NamedSubgraph{
		{Name: "dept", AttributeNodes: schema.Nodes("deptName")},
		{Name: "types", Type: "PhoneType", AttributeNodes: schema.Nodes("label")},
	},
}

func TestNamedAttributeNode_Unmarshal(t *testing.T) {
	t.Run("YAML", func(t *testing.T) {
		var got schema.NamedEntityGraph
		require.NoError(t, yaml.Unmarshal([]byte(`
name: Employee.department
type: Employee
attributeNodes:
  - name
  - value: department
    subgraph: dept
  - value: phones
    keySubgraph: types
subgraphs:
  - name: dept
    attributeNodes: [deptName]
  - name: types
    type: PhoneType
    attributeNodes: [label]
`), &got))
		assert.Equal(t, want, got)
	})

	t.Run("JSON", func(t *testing.T) {
		var got schema.NamedEntityGraph
		require.NoError(t, json.Unmarshal([]byte(`{
			"name": "Employee.department",
			"type": "Employee",
			"attributeNodes": ["name", {"value": "department", "subgraph": "dept"}, {"value": "phones", "keySubgraph": "types"}],
			"subgraphs": [
				{"name": "dept", "attributeNodes": ["deptName"]},
				{"name": "types", "type": "PhoneType", "attributeNodes": ["label"]}
			]
		}`), &got))
		assert.Equal(t, want, got)
	})

	t.Run("TOML", func(t *testing.T) {
		var got schema.NamedEntityGraph
		_, err := toml.Decode(`
name = "Employee.department"
type = "Employee"
attributeNodes = ["name", { value = "department", subgraph = "dept" }, { value = "phones", keySubgraph = "types" }]

[[subgraphs]]
name = "dept"
attributeNodes = ["deptName"]

[[subgraphs]]
name = "types"
type = "PhoneType"
attributeNodes = ["label"]
`, &got)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Invalid", func(t *testing.T) {
		var n schema.NamedAttributeNode
		assert.Error(t, json.Unmarshal([]byte(`42`), &n))
		assert.Error(t, n.UnmarshalTOML(42))
		assert.Error(t, n.UnmarshalTOML(map[string]any{"value": 1}))
		var g schema.NamedEntityGraph
		assert.Error(t, yaml.Unmarshal([]byte("attributeNodes:\n  - [a, b]\n"), &g))
	})
}
