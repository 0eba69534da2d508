package metamodel_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entitygraph/dialect/sqlschema"
	"github.com/syssam/entitygraph/metamodel"
)

func newModel(t *testing.T) *metamodel.Model {
	t.Helper()
	b := metamodel.NewBuilder()
	b.MappedSuperclass("Auditable").Attributes(
		metamodel.Basic("createdAt", "time"),
	)
	b.Entity("Department").Extends("Auditable").Attributes(
		metamodel.ID("id", "int64"),
		metamodel.Basic("deptName", "string"),
		metamodel.OneToMany("employees", "Employee").MappedBy("department"),
	)
	b.Embeddable("Address").Attributes(
		metamodel.Basic("street", "string"),
		metamodel.Basic("city", "string"),
	)
	b.Entity("PhoneType").Attributes(
		metamodel.ID("code", "string"),
		metamodel.Basic("label", "string"),
	)
	b.Entity("Phone").Attributes(
		metamodel.ID("id", "int64"),
		metamodel.Basic("number", "string"),
		metamodel.ManyToOne("owner", "Employee"),
	)
	b.Entity("Employee").
		Annotations(sqlschema.Table("staff"), sqlschema.Discriminator("kind")).
		Attributes(
			metamodel.ID("id", "int64"),
			metamodel.Basic("name", "string"),
			metamodel.Basic("salary", "decimal").Sensitive().Lazy(),
			metamodel.Embedded("address", "Address"),
			metamodel.ManyToOne("department", "Department"),
			metamodel.Map("phones", "PhoneType", "Phone").MappedBy("owner").KeyColumn("kind"),
			metamodel.ElementCollection("nicknames", "string").Set(),
		)
	b.Entity("Manager").Extends("Employee").Attributes(
		metamodel.Basic("level", "int"),
		metamodel.ManyToMany("projects", "Project").JoinTable("manager_projects", "manager_id", "project_id"),
	)
	b.Entity("Project").Attributes(
		metamodel.ID("id", "uuid"),
		metamodel.Basic("title", "string"),
	)
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestModel_Type(t *testing.T) {
	m := newModel(t)

	t.Run("Known", func(t *testing.T) {
		typ, ok := m.Type("Employee")
		require.True(t, ok)
		assert.Equal(t, metamodel.KindEntity, typ.Kind)
		assert.True(t, typ.Managed())
		assert.Equal(t, "Employee", typ.String())
	})

	t.Run("Unknown", func(t *testing.T) {
		_, ok := m.Type("Nope")
		assert.False(t, ok)
		assert.Panics(t, func() { m.MustType("Nope") })
	})

	t.Run("Entities", func(t *testing.T) {
		var names []string
		for _, e := range m.Entities() {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{"Department", "PhoneType", "Phone", "Employee", "Manager", "Project"}, names)
		assert.Len(t, m.Types(), 8)
	})

	t.Run("Managed", func(t *testing.T) {
		assert.True(t, m.Managed("Address"))
		assert.True(t, m.Managed("Auditable"))
		assert.False(t, m.Managed("string"))
		assert.False(t, m.Managed("Nope"))
	})
}

func TestModel_Attribute(t *testing.T) {
	m := newModel(t)

	t.Run("Declared", func(t *testing.T) {
		a, err := m.Attribute("Employee", "department")
		require.NoError(t, err)
		assert.Equal(t, "Employee", a.Owner)
		assert.Equal(t, metamodel.PersistentManyToOne, a.Persistent)
		assert.Equal(t, "Employee.department", a.String())
	})

	t.Run("Inherited", func(t *testing.T) {
		a, err := m.Attribute("Manager", "name")
		require.NoError(t, err)
		assert.Equal(t, "Employee", a.Owner)

		a, err = m.Attribute("Department", "createdAt")
		require.NoError(t, err)
		assert.Equal(t, "Auditable", a.Owner)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := m.Attribute("Employee", "nope")
		require.Error(t, err)
		assert.True(t, metamodel.IsNotFound(err))
		assert.True(t, errors.Is(err, metamodel.ErrNotFound))
		assert.Equal(t, `metamodel: attribute "nope" not found on type "Employee"`, err.Error())

		_, err = m.Attribute("Nope", "name")
		assert.EqualError(t, err, `metamodel: type "Nope" not found`)

		// Subtype attributes are not visible on the supertype.
		_, err = m.Attribute("Employee", "level")
		assert.True(t, metamodel.IsNotFound(err))
	})

	t.Run("Order", func(t *testing.T) {
		attrs, err := m.Attributes("Manager")
		require.NoError(t, err)
		var names []string
		for _, a := range attrs {
			names = append(names, a.Name)
		}
		assert.Equal(t, []string{"id", "name", "salary", "address", "department", "phones", "nicknames", "level", "projects"}, names)

		typ := m.MustType("Manager")
		assert.Len(t, typ.DeclaredAttributes(), 2)
		_, ok := typ.DeclaredAttribute("name")
		assert.False(t, ok)
	})
}

func TestModel_IsSubtype(t *testing.T) {
	m := newModel(t)
	assert.True(t, m.IsSubtype("Manager", "Employee"))
	assert.True(t, m.IsSubtype("Employee", "Employee"))
	assert.True(t, m.IsSubtype("Department", "Auditable"))
	assert.False(t, m.IsSubtype("Employee", "Manager"))
	assert.False(t, m.IsSubtype("Manager", "Nope"))
	assert.False(t, m.IsSubtype("Nope", "Nope"))

	subs := m.Subtypes("Employee")
	require.Len(t, subs, 1)
	assert.Equal(t, "Manager", subs[0].Name)
}

func TestModel_Targets(t *testing.T) {
	m := newModel(t)
	phones, err := m.Attribute("Employee", "phones")
	require.NoError(t, err)

	target, ok := m.Target(phones)
	require.True(t, ok)
	assert.Equal(t, "Phone", target.Name)
	key, ok := m.KeyType(phones)
	require.True(t, ok)
	assert.Equal(t, "PhoneType", key.Name)

	name, err := m.Attribute("Employee", "name")
	require.NoError(t, err)
	_, ok = m.Target(name)
	assert.False(t, ok)
	_, ok = m.KeyType(name)
	assert.False(t, ok)
}

func TestType_Mapping(t *testing.T) {
	m := newModel(t)

	t.Run("Table", func(t *testing.T) {
		assert.Equal(t, "staff", m.MustType("Employee").Table())
		assert.Equal(t, "staff", m.MustType("Manager").Table())
		assert.Equal(t, "departments", m.MustType("Department").Table())
		assert.Equal(t, "phone_types", m.MustType("PhoneType").Table())
	})

	t.Run("Root", func(t *testing.T) {
		assert.Equal(t, "Employee", m.MustType("Manager").Root().Name)
		// Mapped superclasses own no table.
		assert.Equal(t, "Department", m.MustType("Department").Root().Name)
	})

	t.Run("Discriminator", func(t *testing.T) {
		assert.Equal(t, "kind", m.MustType("Manager").Discriminator())
		assert.Equal(t, "Manager", m.MustType("Manager").DiscriminatorValue())
		assert.Empty(t, m.MustType("Project").Discriminator())
	})

	t.Run("ID", func(t *testing.T) {
		assert.Equal(t, "id", m.MustType("Manager").ID().Name)
		assert.Equal(t, "code", m.MustType("PhoneType").ID().Name)
		assert.Nil(t, m.MustType("Address").ID())
	})
}

func TestAttribute_Mapping(t *testing.T) {
	m := newModel(t)
	attr := func(typ, name string) *metamodel.Attribute {
		a, err := m.Attribute(typ, name)
		require.NoError(t, err)
		return a
	}

	assert.Equal(t, "department_id", attr("Employee", "department").ColumnName())
	assert.Equal(t, "dept_name", attr("Department", "deptName").ColumnName())
	assert.True(t, attr("Employee", "department").Owning())
	assert.False(t, attr("Department", "employees").Owning())

	assert.True(t, attr("Employee", "name").Eager())
	assert.False(t, attr("Employee", "salary").Eager())
	assert.False(t, attr("Employee", "phones").Eager())
	assert.True(t, attr("Employee", "phones").IsMap())
	assert.True(t, attr("Employee", "nicknames").IsPlural())
	assert.Equal(t, metamodel.CollectionSet, attr("Employee", "nicknames").Collection)
	assert.True(t, attr("Manager", "projects").IsAssociation())
	assert.False(t, attr("Employee", "address").IsAssociation())
}

func TestKinds(t *testing.T) {
	for _, k := range []metamodel.Kind{metamodel.KindBasic, metamodel.KindEntity, metamodel.KindEmbeddable, metamodel.KindMappedSuperclass} {
		parsed, err := metamodel.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := metamodel.ParseKind("table")
	assert.Error(t, err)

	p, err := metamodel.ParsePersistentType("many_to_one")
	require.NoError(t, err)
	assert.Equal(t, metamodel.PersistentManyToOne, p)
	c, err := metamodel.ParseCollectionType("map")
	require.NoError(t, err)
	assert.Equal(t, metamodel.CollectionMap, c)
	_, err = metamodel.ParseCollectionType("tree")
	assert.Error(t, err)
}
