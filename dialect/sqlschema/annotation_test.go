package sqlschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/entitygraph/dialect/sqlschema"
)

func TestMerge(t *testing.T) {
	t.Run("LaterWins", func(t *testing.T) {
		a := sqlschema.Merge(
			sqlschema.Table("employees"),
			sqlschema.Annotation{Schema: "hr", Discriminator: "kind"},
			sqlschema.Table("staff"),
		)
		assert.Equal(t, sqlschema.Annotation{Table: "staff", Schema: "hr", Discriminator: "kind"}, a)
	})

	t.Run("Merger", func(t *testing.T) {
		a := sqlschema.Table("employees").Merge(&sqlschema.Annotation{DiscriminatorValue: "M"})
		assert.Equal(t, sqlschema.Annotation{Table: "employees", DiscriminatorValue: "M"}, a)

		var nilAnt *sqlschema.Annotation
		assert.Equal(t, sqlschema.Table("employees"), sqlschema.Table("employees").Merge(nilAnt))
	})
}
