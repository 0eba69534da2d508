package mixin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/contrib/mixin"
	"github.com/syssam/entitygraph/fetchplan"
	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/privacy"
)

func names(attrs []*metamodel.Attribute) []string {
	var names []string
	for _, a := range attrs {
		names = append(names, a.Name)
	}
	return names
}

func TestMixins(t *testing.T) {
	tests := []struct {
		mixin metamodel.Mixin
		want  []string
	}{
		{mixin.CreateTime{}, []string{"createdAt"}},
		{mixin.UpdateTime{}, []string{"updatedAt"}},
		{mixin.Time{}, []string{"createdAt", "updatedAt"}},
		{mixin.ID{}, []string{"id"}},
		{mixin.SoftDelete{}, []string{"deletedAt"}},
		{mixin.TenantID{}, []string{"tenantId"}},
		{mixin.TimeSoftDelete{}, []string{"createdAt", "updatedAt", "deletedAt"}},
	}
	for _, tt := range tests {
		var got []string
		for _, d := range tt.mixin.Attributes() {
			got = append(got, d.Descriptor().Name)
		}
		assert.Equal(t, tt.want, got, "%T", tt.mixin)
	}
}

func TestTypeBuilder(t *testing.T) {
	b := metamodel.NewBuilder()
	b.Entity("Order").
		Mixin(mixin.ID{}, mixin.TimeSoftDelete{}, mixin.TenantID{}).
		Attributes(metamodel.Basic("total", "decimal"))
	b.Entity("Invoice").
		Attributes(metamodel.ID("id", "int64")).
		Mixin(mixin.Time{})
	m, err := b.Build()
	require.NoError(t, err)

	t.Run("Order", func(t *testing.T) {
		order := m.MustType("Order")
		assert.Equal(t, []string{"id", "createdAt", "updatedAt", "deletedAt", "tenantId", "total"}, names(order.Attributes()))
		assert.Equal(t, "uuid", order.ID().Target)

		created, _ := order.Attribute("createdAt")
		assert.Equal(t, "created_at", created.ColumnName())
		assert.Equal(t, "Order", created.Owner)
		assert.False(t, created.Optional)

		deleted, _ := order.Attribute("deletedAt")
		assert.True(t, deleted.Optional)

		tenant, _ := order.Attribute("tenantId")
		assert.True(t, tenant.Sensitive)
		assert.False(t, tenant.Eager())
		assert.Contains(t, tenant.Annotations, "Comment")
	})

	t.Run("Invoice", func(t *testing.T) {
		invoice := m.MustType("Invoice")
		assert.Equal(t, []string{"id", "createdAt", "updatedAt"}, names(invoice.Attributes()))
		created, _ := invoice.Attribute("createdAt")
		assert.Equal(t, "Invoice", created.Owner)
	})

	t.Run("DenyTenant", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Order")
		require.NoError(t, g.AddAttributeNodes("total", "tenantId", "createdAt"))
		plan, err := fetchplan.Build(context.Background(), m, g, fetchplan.WithPolicy(privacy.DenySensitiveRule()))
		require.NoError(t, err)
		assert.Equal(t, []string{"tenantId"}, plan.Denied)
		_, ok := plan.Root.Column("tenantId")
		assert.False(t, ok)
		c, ok := plan.Root.Column("createdAt")
		require.True(t, ok)
		assert.Equal(t, "created_at", c.Name)
	})
}
