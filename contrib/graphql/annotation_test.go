package graphql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entitygraph/contrib/graphql"
	"github.com/syssam/entitygraph/metamodel"
)

func TestAnnotation(t *testing.T) {
	t.Run("Name", func(t *testing.T) {
		assert.Equal(t, graphql.AnnotationName, graphql.QueryField().Name())
	})

	t.Run("Skip", func(t *testing.T) {
		a := graphql.Skip(graphql.SkipAll)
		assert.True(t, a.IsSkipType())
		assert.True(t, a.Skip.Is(graphql.SkipQueryField))

		a = graphql.Skip(graphql.SkipQueryField)
		assert.False(t, a.IsSkipType())
		assert.False(t, graphql.MergeAnnotations(graphql.QueryField(), a).HasQueryField())
		assert.True(t, graphql.QueryField().HasQueryField())
	})

	t.Run("Merge", func(t *testing.T) {
		a := graphql.CollectedFor("fullName")
		merged := a.Merge(graphql.CollectedFor("fullName", "initials")).(graphql.Annotation)
		assert.Equal(t, []string{"fullName", "initials"}, merged.CollectedFor)

		ptr := graphql.FieldName("name")
		merged = merged.Merge(&ptr).(graphql.Annotation)
		assert.Equal(t, "name", merged.FieldName)

		var nilAnt *graphql.Annotation
		assert.Equal(t, merged, merged.Merge(nilAnt))
	})

	t.Run("MergeAnnotations", func(t *testing.T) {
		a := graphql.MergeAnnotations(
			graphql.Type("Staff"),
			graphql.Type("Person"),
			graphql.RelayConnection(),
			graphql.Mapping("a", "b"),
			graphql.Mapping("b", "c"),
		)
		assert.Equal(t, "Person", a.Type)
		assert.True(t, a.RelayConnection)
		assert.Equal(t, []string{"a", "b", "c"}, a.Mapping)
		assert.False(t, a.SkipField)
	})

	t.Run("Model", func(t *testing.T) {
		b := metamodel.NewBuilder()
		b.Entity("User").
			Annotations(graphql.Type("Member"), graphql.QueryField()).
			Attributes(
				metamodel.ID("id", "int64"),
				metamodel.Basic("email", "string").Annotations(graphql.FieldName("mail"), graphql.Mapping("contact")),
			)
		m, err := b.Build()
		require.NoError(t, err)
		u, ok := m.Type("User")
		require.True(t, ok)
		ant := graphql.From(u.Annotations)
		assert.Equal(t, "Member", ant.Type)
		assert.True(t, ant.HasQueryField())

		email := u.Attributes()[1]
		ant = graphql.From(email.Annotations)
		assert.Equal(t, "mail", ant.FieldName)
		assert.Equal(t, []string{"contact"}, ant.Mapping)
		assert.Equal(t, graphql.Annotation{}, graphql.From(u.Attributes()[0].Annotations))
	})
}
