package graphql_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/entitygraph/contrib/graphql"
	"github.com/syssam/entitygraph/metamodel"
)

func TestSchema(t *testing.T) {
	m := newModel(t)
	var buf bytes.Buffer
	require.NoError(t, graphql.WriteSchema(&buf, m))
	s, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: buf.String()})
	require.NoError(t, err)

	fieldType := func(t *testing.T, typ, field string) string {
		t.Helper()
		def := s.Types[typ]
		require.NotNil(t, def, typ)
		f := def.Fields.ForName(field)
		require.NotNil(t, f, "%s.%s", typ, field)
		return f.Type.String()
	}

	t.Run("Types", func(t *testing.T) {
		require.NotNil(t, s.Types["Employee"])
		assert.Equal(t, ast.Object, s.Types["Employee"].Kind)
		assert.Equal(t, "Employee of the company.", s.Types["Employee"].Description)
		assert.Equal(t, ast.Object, s.Types["Address"].Kind)
		assert.Nil(t, s.Types["Manager"], "renamed by annotation")
		require.NotNil(t, s.Types["Boss"])
		assert.Equal(t, ast.Object, s.Types["Boss"].Kind)
	})

	t.Run("Interfaces", func(t *testing.T) {
		iface := s.Types["EmployeeInterface"]
		require.NotNil(t, iface)
		assert.Equal(t, ast.Interface, iface.Kind)
		assert.Equal(t, []string{"EmployeeInterface"}, s.Types["Employee"].Interfaces)
		assert.Equal(t, []string{"EmployeeInterface"}, s.Types["Boss"].Interfaces)
		assert.Nil(t, s.Types["BossInterface"])
		assert.Nil(t, s.Types["Boss"].Fields.ForName("salary"))
		assert.NotNil(t, s.Types["Boss"].Fields.ForName("firstName"))
		assert.Nil(t, iface.Fields.ForName("level"))
	})

	t.Run("Fields", func(t *testing.T) {
		assert.Equal(t, "ID!", fieldType(t, "Employee", "id"))
		assert.Equal(t, "String!", fieldType(t, "Employee", "firstName"))
		assert.Equal(t, "Time!", fieldType(t, "Employee", "hired"))
		assert.Equal(t, "Address!", fieldType(t, "Employee", "address"))
		assert.Equal(t, "Department!", fieldType(t, "Employee", "department"))
		assert.Equal(t, "Boss", fieldType(t, "Employee", "manager"))
		assert.Equal(t, "[String!]!", fieldType(t, "Employee", "tags"))
		assert.Equal(t, "[EmployeeInterface!]!", fieldType(t, "Boss", "reports"))
		assert.Equal(t, "EmployeeInterface!", fieldType(t, "Phone", "owner"))
		assert.Equal(t, "ID!", fieldType(t, "PhoneType", "code"))
		assert.Nil(t, s.Types["Employee"].Fields.ForName("salary"))
	})

	t.Run("Connections", func(t *testing.T) {
		assert.Equal(t, "ProjectConnection!", fieldType(t, "Employee", "projects"))
		assert.Equal(t, "[ProjectEdge!]!", fieldType(t, "ProjectConnection", "edges"))
		assert.Equal(t, "[Project!]!", fieldType(t, "ProjectConnection", "nodes"))
		assert.Equal(t, "PageInfo!", fieldType(t, "ProjectConnection", "pageInfo"))
		assert.Equal(t, "Project!", fieldType(t, "ProjectEdge", "node"))
		assert.Equal(t, "Boolean!", fieldType(t, "PageInfo", "hasNextPage"))
	})

	t.Run("MapEntries", func(t *testing.T) {
		assert.Equal(t, "[EmployeePhonesEntry!]!", fieldType(t, "Employee", "phones"))
		assert.Equal(t, "PhoneType!", fieldType(t, "EmployeePhonesEntry", "key"))
		assert.Equal(t, "Phone!", fieldType(t, "EmployeePhonesEntry", "value"))
	})

	t.Run("Scalars", func(t *testing.T) {
		require.NotNil(t, s.Types["Time"])
		assert.Equal(t, ast.Scalar, s.Types["Time"].Kind)
		assert.Nil(t, s.Types["UUID"], "unused scalars are not declared")
	})

	t.Run("Query", func(t *testing.T) {
		require.NotNil(t, s.Query)
		assert.Equal(t, "[EmployeeInterface!]!", fieldType(t, "Query", "employees"))
		assert.Nil(t, s.Query.Fields.ForName("projects"))
	})

	t.Run("SkipType", func(t *testing.T) {
		b := metamodel.NewBuilder()
		b.Entity("Account").Annotations(graphql.QueryField()).Attributes(
			metamodel.ID("id", "uuid"),
			metamodel.ManyToOne("secret", "Secret").Optional(),
		)
		b.Entity("Secret").Annotations(graphql.Skip(graphql.SkipType)).Attributes(
			metamodel.ID("id", "int64"),
		)
		m, err := b.Build()
		require.NoError(t, err)
		doc := graphql.Schema(m)
		assert.Nil(t, doc.Definitions.ForName("Secret"))
		account := doc.Definitions.ForName("Account")
		require.NotNil(t, account)
		assert.Nil(t, account.Fields.ForName("secret"))
		assert.Equal(t, "accounts", doc.Definitions.ForName("Query").Fields[0].Name)
	})

	t.Run("WriteError", func(t *testing.T) {
		err := graphql.WriteSchema(failWriter{}, m)
		assert.ErrorIs(t, err, errWrite)
	})
}

var errWrite = errors.New("disk full")

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errWrite }
