package entitygraph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/metamodel"
)

func newModel(t testing.TB) *metamodel.Model {
	t.Helper()
	b := metamodel.NewBuilder()
	b.Entity("Department").Attributes(
		metamodel.ID("id", "int64"),
		metamodel.Basic("deptName", "string"),
		metamodel.Basic("budget", "decimal"),
		metamodel.OneToMany("employees", "Employee").MappedBy("department"),
	)
	b.Entity("Division").Extends("Department").Attributes(
		metamodel.Basic("region", "string"),
	)
	b.Embeddable("Address").Attributes(
		metamodel.Basic("street", "string"),
		metamodel.Basic("city", "string"),
	)
	b.Entity("PhoneType").Attributes(
		metamodel.ID("code", "string"),
		metamodel.Basic("label", "string"),
	)
	b.Entity("SpecialPhoneType").Extends("PhoneType").Attributes(
		metamodel.Basic("priority", "int"),
	)
	b.Entity("Phone").Attributes(
		metamodel.ID("id", "int64"),
		metamodel.Basic("number", "string"),
		metamodel.ManyToOne("owner", "Employee"),
	)
	b.Entity("Project").Attributes(
		metamodel.ID("id", "int64"),
		metamodel.Basic("title", "string"),
	)
	b.Entity("Employee").Attributes(
		metamodel.ID("id", "int64"),
		metamodel.Basic("name", "string"),
		metamodel.Basic("salary", "decimal"),
		metamodel.Embedded("address", "Address"),
		metamodel.ManyToOne("department", "Department"),
		metamodel.ManyToOne("manager", "Manager").Optional(),
		metamodel.Map("phones", "PhoneType", "Phone").MappedBy("owner").KeyColumn("type_code"),
		metamodel.Map("ratings", "string", "Project").ManyToMany().JoinTable("employee_ratings", "employee_id", "project_id"),
		metamodel.ElementCollection("tags", "string"),
	)
	b.Entity("Manager").Extends("Employee").Attributes(
		metamodel.Basic("level", "int"),
		metamodel.OneToMany("reports", "Employee").MappedBy("manager"),
	)
	b.Entity("Director").Extends("Manager").Attributes(
		metamodel.Basic("board", "string"),
	)
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func names(nodes []*entitygraph.AttributeNode) []string {
	var s []string
	for _, n := range nodes {
		s = append(s, n.Name())
	}
	return s
}

func TestNew(t *testing.T) {
	m := newModel(t)

	t.Run("Entity", func(t *testing.T) {
		g, err := entitygraph.New(m, "Employee", entitygraph.WithName("emp"))
		require.NoError(t, err)
		assert.Equal(t, "emp", g.Name())
		assert.Equal(t, "Employee", g.Type().Name)
		assert.Empty(t, g.AttributeNodes())
		assert.False(t, g.Frozen())
	})

	t.Run("Anonymous", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		assert.Empty(t, g.Name())
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := entitygraph.New(m, "Nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, entitygraph.ErrInvalidType))
	})

	t.Run("NotEntity", func(t *testing.T) {
		_, err := entitygraph.New(m, "Address")
		require.Error(t, err)
		assert.True(t, errors.Is(err, entitygraph.ErrInvalidType))
		assert.Contains(t, err.Error(), "embeddable")
		assert.Panics(t, func() { entitygraph.MustNew(m, "Address") })
	})
}

func TestAddAttributeNodes(t *testing.T) {
	m := newModel(t)

	t.Run("Idempotent", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		require.NoError(t, g.AddAttributeNodes("name"))
		require.NoError(t, g.AddAttributeNodes("name", "salary"))
		require.NoError(t, g.AddAttributeNodes("name"))
		assert.Equal(t, []string{"name", "salary"}, names(g.AttributeNodes()))
	})

	t.Run("Inherited", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Director")
		require.NoError(t, g.AddAttributeNodes("board", "level", "name"))
		assert.Equal(t, []string{"board", "level", "name"}, names(g.AttributeNodes()))
		n, ok := g.AttributeNode("name")
		require.True(t, ok)
		assert.Equal(t, "Employee", n.Attribute().Owner)
	})

	t.Run("Atomic", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		require.NoError(t, g.AddAttributeNodes("name"))
		before := g.String()

		err := g.AddAttributeNodes("salary", "nope", "department")
		require.Error(t, err)
		assert.True(t, entitygraph.IsInvalidAttribute(err))
		assert.True(t, errors.Is(err, metamodel.ErrNotFound))
		assert.Equal(t, `entitygraph: invalid attribute "nope" of type "Employee": no such attribute`, err.Error())
		assert.Equal(t, []string{"name"}, names(g.AttributeNodes()))
		assert.Equal(t, before, g.String())
	})

	t.Run("SubtypeAttribute", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		err := g.AddAttributeNodes("level")
		assert.True(t, entitygraph.IsInvalidAttribute(err))
		assert.Empty(t, g.AttributeNodes())
	})

	t.Run("Copies", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		require.NoError(t, g.AddAttributeNodes("name"))
		nodes := g.AttributeNodes()
		nodes[0] = nil
		assert.NotNil(t, g.AttributeNodes()[0])
	})
}

func TestAddAttributes(t *testing.T) {
	m := newModel(t)
	name, err := m.Attribute("Employee", "name")
	require.NoError(t, err)
	title, err := m.Attribute("Project", "title")
	require.NoError(t, err)

	t.Run("Resolved", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Manager")
		require.NoError(t, g.AddAttributes(name))
		n, ok := g.AttributeNode("name")
		require.True(t, ok)
		assert.Same(t, name, n.Attribute())
	})

	t.Run("ForeignAttribute", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		err := g.AddAttributes(name, title)
		require.Error(t, err)
		assert.True(t, errors.Is(err, entitygraph.ErrInvalidAttribute))
		assert.Empty(t, g.AttributeNodes())
	})

	t.Run("LookalikeAttribute", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		fake := *name
		err := g.AddAttributes(&fake)
		assert.True(t, entitygraph.IsInvalidAttribute(err))
	})

	t.Run("Nil", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		err := g.AddAttributes(nil)
		assert.True(t, entitygraph.IsInvalidAttribute(err))
	})
}

func TestAddSubgraph(t *testing.T) {
	m := newModel(t)

	t.Run("Scenario", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		require.NoError(t, g.AddAttributeNodes("name"))
		dept, err := g.AddSubgraph("department")
		require.NoError(t, err)
		require.NoError(t, dept.AddAttributeNodes("deptName"))

		nodes := g.AttributeNodes()
		require.Len(t, nodes, 2)
		assert.Equal(t, "name", nodes[0].Name())
		assert.Empty(t, nodes[0].Subgraphs())
		assert.Equal(t, "department", nodes[1].Name())
		subs := nodes[1].Subgraphs()
		require.Len(t, subs, 1)
		assert.Same(t, dept, subs[0])
		assert.Equal(t, "Department", subs[0].Type().Name)
		assert.Equal(t, []string{"deptName"}, names(subs[0].AttributeNodes()))
		assert.Equal(t, "department", dept.Attribute().Name)
		assert.False(t, dept.IsKey())
	})

	t.Run("ImplicitNode", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		require.NoError(t, g.AddAttributeNodes("department"))
		s1, err := g.AddSubgraph("department")
		require.NoError(t, err)
		s2, err := g.AddSubgraph("department")
		require.NoError(t, err)
		assert.Same(t, s1, s2)
		assert.Equal(t, []string{"department"}, names(g.AttributeNodes()))
	})

	t.Run("Embeddable", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		addr, err := g.AddSubgraph("address")
		require.NoError(t, err)
		require.NoError(t, addr.AddAttributeNodes("city"))
		assert.True(t, entitygraph.IsInvalidAttribute(addr.AddAttributeNodes("name")))
	})

	t.Run("BasicTarget", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		for _, attr := range []string{"name", "tags"} {
			_, err := g.AddSubgraph(attr)
			require.Error(t, err, attr)
			assert.True(t, entitygraph.IsInvalidAttribute(err))
		}
		_, err := g.AddSubgraph("tags")
		assert.Contains(t, err.Error(), `target type "string" is not a managed type`)
		assert.Empty(t, g.AttributeNodes())
	})

	t.Run("UnknownAttribute", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		_, err := g.AddSubgraph("nope")
		assert.True(t, entitygraph.IsInvalidAttribute(err))
	})

	t.Run("Accumulate", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		div1, err := g.AddSubgraphAs("department", "Division")
		require.NoError(t, err)
		dept, err := g.AddSubgraphAs("department", "Department")
		require.NoError(t, err)
		div2, err := g.AddSubgraphAs("department", "Division")
		require.NoError(t, err)
		assert.Same(t, div1, div2)
		assert.NotSame(t, dept, div1)

		n, _ := g.AttributeNode("department")
		require.Len(t, n.Subgraphs(), 2)
		s, ok := n.Subgraph("Division")
		require.True(t, ok)
		assert.Same(t, div1, s)
		_, ok = n.Subgraph("Project")
		assert.False(t, ok)
	})

	t.Run("NotSubtype", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		_, err := g.AddSubgraphAs("department", "Project")
		require.Error(t, err)
		assert.True(t, entitygraph.IsInvalidAttribute(err))
		assert.Contains(t, err.Error(), `"Project" is not a subtype of target type "Department"`)
		_, err = g.AddSubgraphAs("department", "Nope")
		assert.True(t, entitygraph.IsInvalidAttribute(err))
		assert.Empty(t, g.AttributeNodes())
	})

	t.Run("Canonical", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Manager")
		reports, err := m.Attribute("Manager", "reports")
		require.NoError(t, err)
		s, err := g.AddSubgraphFor(reports, "Director")
		require.NoError(t, err)
		assert.Equal(t, "Director", s.Type().Name)
		require.NoError(t, s.AddAttributeNodes("board"))
	})
}

func TestSubclassUnion(t *testing.T) {
	m := newModel(t)

	t.Run("AtCreation", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		dept, err := g.AddSubgraph("department")
		require.NoError(t, err)
		require.NoError(t, dept.AddAttributeNodes("deptName", "budget"))

		div, err := g.AddSubgraphAs("department", "Division")
		require.NoError(t, err)
		assert.Equal(t, []string{"deptName", "budget"}, names(div.AttributeNodes()))
	})

	t.Run("LaterAdditions", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		div, err := g.AddSubgraphAs("department", "Division")
		require.NoError(t, err)
		require.NoError(t, div.AddAttributeNodes("region"))
		dept, err := g.AddSubgraph("department")
		require.NoError(t, err)
		require.NoError(t, dept.AddAttributeNodes("deptName"))

		assert.Equal(t, []string{"region", "deptName"}, names(div.AttributeNodes()))
		assert.Equal(t, []string{"deptName"}, names(dept.AttributeNodes()))
	})

	t.Run("Transitive", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Department")
		emp, err := g.AddSubgraph("employees")
		require.NoError(t, err)
		require.NoError(t, emp.AddAttributeNodes("name"))
		mgr, err := g.AddSubgraphAs("employees", "Manager")
		require.NoError(t, err)
		require.NoError(t, mgr.AddAttributeNodes("level"))
		dir, err := g.AddSubgraphAs("employees", "Director")
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "level"}, names(dir.AttributeNodes()))

		require.NoError(t, emp.AddAttributeNodes("salary"))
		assert.Equal(t, []string{"name", "level", "salary"}, names(mgr.AttributeNodes()))
		assert.Equal(t, []string{"name", "level", "salary"}, names(dir.AttributeNodes()))
		assert.Equal(t, []string{"name", "salary"}, names(emp.AttributeNodes()))
	})

	t.Run("NestedSubgraphs", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Department")
		emp, err := g.AddSubgraph("employees")
		require.NoError(t, err)
		dept, err := emp.AddSubgraph("department")
		require.NoError(t, err)
		require.NoError(t, dept.AddAttributeNodes("deptName"))

		mgr, err := g.AddSubgraphAs("employees", "Manager")
		require.NoError(t, err)
		n, ok := mgr.AttributeNode("department")
		require.True(t, ok)
		s, ok := n.Subgraph("Department")
		require.True(t, ok)
		assert.NotSame(t, dept, s)
		assert.Equal(t, []string{"deptName"}, names(s.AttributeNodes()))

		// Copies are independent.
		require.NoError(t, s.AddAttributeNodes("budget"))
		assert.Equal(t, []string{"deptName"}, names(dept.AttributeNodes()))
	})

	t.Run("NestedSubgraphsAfterSubtype", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Department")
		mgr, err := g.AddSubgraphAs("employees", "Manager")
		require.NoError(t, err)
		emp, err := g.AddSubgraph("employees")
		require.NoError(t, err)
		dept, err := emp.AddSubgraph("department")
		require.NoError(t, err)
		require.NoError(t, dept.AddAttributeNodes("deptName"))
		div, err := emp.AddSubgraphAs("department", "Division")
		require.NoError(t, err)
		require.NoError(t, div.AddAttributeNodes("region"))

		n, ok := mgr.AttributeNode("department")
		require.True(t, ok)
		s, ok := n.Subgraph("Department")
		require.True(t, ok)
		assert.NotSame(t, dept, s)
		assert.Equal(t, []string{"deptName"}, names(s.AttributeNodes()))
		s, ok = n.Subgraph("Division")
		require.True(t, ok)
		assert.Equal(t, []string{"deptName", "region"}, names(s.AttributeNodes()))

		// Built in the opposite order, the subtype subgraph is the same.
		other := entitygraph.MustNew(m, "Department")
		emp, err = other.AddSubgraph("employees")
		require.NoError(t, err)
		dept, err = emp.AddSubgraph("department")
		require.NoError(t, err)
		require.NoError(t, dept.AddAttributeNodes("deptName"))
		div, err = emp.AddSubgraphAs("department", "Division")
		require.NoError(t, err)
		require.NoError(t, div.AddAttributeNodes("region"))
		later, err := other.AddSubgraphAs("employees", "Manager")
		require.NoError(t, err)
		assert.Equal(t, mgr.String(), later.String())
	})

	t.Run("ImplicitNodesPropagate", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		dept, err := g.AddSubgraph("department")
		require.NoError(t, err)
		div, err := g.AddSubgraphAs("department", "Division")
		require.NoError(t, err)
		_, err = dept.AddSubgraph("employees")
		require.NoError(t, err)
		_, ok := div.AttributeNode("employees")
		assert.True(t, ok)
	})
}

func TestAddKeySubgraph(t *testing.T) {
	m := newModel(t)

	t.Run("KeyOnly", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		key, err := g.AddKeySubgraph("phones")
		require.NoError(t, err)
		require.NoError(t, key.AddAttributeNodes("label"))
		assert.Equal(t, "PhoneType", key.Type().Name)
		assert.True(t, key.IsKey())

		n, ok := g.AttributeNode("phones")
		require.True(t, ok)
		assert.Empty(t, n.Subgraphs())
		require.Len(t, n.KeySubgraphs(), 1)
		s, ok := n.KeySubgraph("PhoneType")
		require.True(t, ok)
		assert.Same(t, key, s)
	})

	t.Run("Independent", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		val, err := g.AddSubgraph("phones")
		require.NoError(t, err)
		require.NoError(t, val.AddAttributeNodes("number"))
		n, _ := g.AttributeNode("phones")
		assert.Empty(t, n.KeySubgraphs())

		key, err := g.AddKeySubgraph("phones")
		require.NoError(t, err)
		assert.Empty(t, key.AttributeNodes())
		require.Len(t, n.Subgraphs(), 1)
		assert.Equal(t, []string{"number"}, names(val.AttributeNodes()))
	})

	t.Run("SubtypeUnion", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		key, err := g.AddKeySubgraph("phones")
		require.NoError(t, err)
		require.NoError(t, key.AddAttributeNodes("label"))
		special, err := g.AddKeySubgraphAs("phones", "SpecialPhoneType")
		require.NoError(t, err)
		require.NoError(t, special.AddAttributeNodes("priority"))
		assert.Equal(t, []string{"label", "priority"}, names(special.AttributeNodes()))
		assert.Equal(t, []string{"label"}, names(key.AttributeNodes()))
	})

	t.Run("NotMap", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		_, err := g.AddKeySubgraph("department")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a map attribute")
	})

	t.Run("BasicKey", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		_, err := g.AddKeySubgraph("ratings")
		require.Error(t, err)
		assert.True(t, entitygraph.IsInvalidAttribute(err))
		assert.Contains(t, err.Error(), `map key type "string" is not a managed type`)
		// The value type is managed.
		_, err = g.AddSubgraph("ratings")
		assert.NoError(t, err)
	})

	t.Run("Canonical", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		phones, err := m.Attribute("Employee", "phones")
		require.NoError(t, err)
		_, err = g.AddKeySubgraphFor(phones, "Project")
		assert.True(t, entitygraph.IsInvalidAttribute(err))
		s, err := g.AddKeySubgraphFor(phones, "")
		require.NoError(t, err)
		assert.Equal(t, "PhoneType", s.Type().Name)
	})
}

func TestAddSubclassSubgraph(t *testing.T) {
	m := newModel(t)

	t.Run("Union", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		require.NoError(t, g.AddAttributeNodes("name"))
		mgr, err := g.AddSubclassSubgraph("Manager")
		require.NoError(t, err)
		assert.Equal(t, []string{"name"}, names(mgr.AttributeNodes()))
		assert.Nil(t, mgr.Attribute())
		require.NoError(t, mgr.AddAttributeNodes("level"))

		require.NoError(t, g.AddAttributeNodes("salary"))
		assert.Equal(t, []string{"name", "level", "salary"}, names(mgr.AttributeNodes()))
		assert.Equal(t, []string{"name", "salary"}, names(g.AttributeNodes()))

		dir, err := g.AddSubclassSubgraph("Director")
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "salary", "level"}, names(dir.AttributeNodes()))

		again, err := g.AddSubclassSubgraph("Manager")
		require.NoError(t, err)
		assert.Same(t, mgr, again)
		assert.Len(t, g.SubclassSubgraphs(), 2)
		s, ok := g.SubclassSubgraph("Director")
		require.True(t, ok)
		assert.Same(t, dir, s)
	})

	t.Run("OnSubgraph", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		dept, err := g.AddSubgraph("department")
		require.NoError(t, err)
		require.NoError(t, dept.AddAttributeNodes("deptName"))
		div, err := dept.AddSubclassSubgraph("Division")
		require.NoError(t, err)
		require.NoError(t, div.AddAttributeNodes("region"))
		assert.Equal(t, []string{"deptName", "region"}, names(div.AttributeNodes()))
	})

	t.Run("NestedSubgraphsAfterSubclass", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Employee")
		mgr, err := g.AddSubclassSubgraph("Manager")
		require.NoError(t, err)
		dept, err := g.AddSubgraph("department")
		require.NoError(t, err)
		require.NoError(t, dept.AddAttributeNodes("deptName"))
		phones, err := g.AddKeySubgraph("phones")
		require.NoError(t, err)
		require.NoError(t, phones.AddAttributeNodes("label"))

		n, ok := mgr.AttributeNode("department")
		require.True(t, ok)
		require.Len(t, n.Subgraphs(), 1)
		assert.Equal(t, []string{"deptName"}, names(n.Subgraphs()[0].AttributeNodes()))
		n, ok = mgr.AttributeNode("phones")
		require.True(t, ok)
		require.Len(t, n.KeySubgraphs(), 1)
		assert.Equal(t, []string{"label"}, names(n.KeySubgraphs()[0].AttributeNodes()))
		assert.Empty(t, n.Subgraphs())
	})

	t.Run("Invalid", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Manager")
		for _, typ := range []string{"Manager", "Employee", "Project", "Nope"} {
			_, err := g.AddSubclassSubgraph(typ)
			require.Error(t, err, typ)
			assert.True(t, entitygraph.IsInvalidAttribute(err), typ)
		}
		assert.Empty(t, g.SubclassSubgraphs())
	})
}

func TestFrozen(t *testing.T) {
	m := newModel(t)
	g := entitygraph.MustNew(m, "Employee", entitygraph.WithName("frozen"))
	require.NoError(t, g.AddAttributeNodes("name"))
	dept, err := g.AddSubgraph("department")
	require.NoError(t, err)
	require.NoError(t, dept.AddAttributeNodes("deptName"))
	g.Freeze()
	before := g.String()
	require.True(t, g.Frozen())
	require.True(t, dept.Frozen())

	phones, err := m.Attribute("Employee", "phones")
	require.NoError(t, err)
	ops := map[string]func() error{
		"AddAttributeNodes": func() error { return g.AddAttributeNodes("salary") },
		"AddAttributes":     func() error { return g.AddAttributes(phones) },
		"AddSubgraph": func() error {
			_, err := g.AddSubgraph("department")
			return err
		},
		"AddSubgraphAs": func() error {
			_, err := g.AddSubgraphAs("department", "Division")
			return err
		},
		"AddSubgraphFor": func() error {
			_, err := g.AddSubgraphFor(phones, "")
			return err
		},
		"AddKeySubgraph": func() error {
			_, err := g.AddKeySubgraph("phones")
			return err
		},
		"AddKeySubgraphFor": func() error {
			_, err := g.AddKeySubgraphFor(phones, "")
			return err
		},
		"AddSubclassSubgraph": func() error {
			_, err := g.AddSubclassSubgraph("Manager")
			return err
		},
		"Subgraph.AddAttributeNodes": func() error { return dept.AddAttributeNodes("budget") },
		"InvalidName":                func() error { return g.AddAttributeNodes("nope") },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.Error(t, err)
			assert.True(t, entitygraph.IsFrozen(err))
			assert.True(t, errors.Is(err, entitygraph.ErrFrozenGraph))
			assert.False(t, entitygraph.IsInvalidAttribute(err))
			assert.Equal(t, before, g.String())
		})
	}

	t.Run("Copy", func(t *testing.T) {
		cp := g.Copy("thawed")
		assert.Equal(t, "thawed", cp.Name())
		assert.False(t, cp.Frozen())
		require.NoError(t, cp.AddAttributeNodes("salary"))
		s, err := cp.AddSubgraph("department")
		require.NoError(t, err)
		assert.NotSame(t, dept, s)
		require.NoError(t, s.AddAttributeNodes("budget"))
		assert.Equal(t, before, g.String())
		assert.Equal(t, []string{"name", "department", "salary"}, names(cp.AttributeNodes()))
	})
}
