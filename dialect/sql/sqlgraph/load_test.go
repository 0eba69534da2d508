package sqlgraph_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/dialect"
	"github.com/syssam/entitygraph/dialect/sql"
	"github.com/syssam/entitygraph/dialect/sql/sqlgraph"
	"github.com/syssam/entitygraph/dialect/sqlschema"
	"github.com/syssam/entitygraph/fetchplan"
	"github.com/syssam/entitygraph/metamodel"
)

func newModel(t testing.TB) *metamodel.Model {
	t.Helper()
	b := metamodel.NewBuilder()
	b.Entity("Department").Attributes(
		metamodel.ID("id", "int64"),
		metamodel.Basic("deptName", "string"),
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
	b.Entity("Project").Attributes(
		metamodel.ID("id", "int64"),
		metamodel.Basic("title", "string"),
	)
	b.Entity("Employee").
		Annotations(sqlschema.Discriminator("kind")).
		Attributes(
			metamodel.ID("id", "int64"),
			metamodel.Basic("name", "string"),
			metamodel.ManyToOne("department", "Department"),
			metamodel.ManyToOne("manager", "Manager").Optional().Lazy(),
			metamodel.Map("phones", "PhoneType", "Phone").MappedBy("owner").KeyColumn("type_code"),
			metamodel.ManyToMany("projects", "Project"),
			metamodel.ElementCollection("tags", "string"),
		)
	b.Entity("Manager").Extends("Employee").Attributes(
		metamodel.Basic("level", "int"),
		metamodel.OneToMany("reports", "Employee").MappedBy("manager"),
	)
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

const ddl = `
CREATE TABLE departments (id INTEGER PRIMARY KEY, dept_name TEXT);
CREATE TABLE employees (id INTEGER PRIMARY KEY, kind TEXT NOT NULL, name TEXT, department_id INTEGER, manager_id INTEGER, level INTEGER);
CREATE TABLE phone_types (code TEXT PRIMARY KEY, label TEXT);
CREATE TABLE phones (id INTEGER PRIMARY KEY, number TEXT, owner_id INTEGER, type_code TEXT);
CREATE TABLE projects (id INTEGER PRIMARY KEY, title TEXT);
CREATE TABLE employee_projects (employee_id INTEGER, project_id INTEGER);
CREATE TABLE employee_tags (employee_id INTEGER, tags TEXT);

INSERT INTO departments VALUES (1, 'R&D'), (2, 'Sales');
INSERT INTO employees VALUES
	(1, 'Employee', 'Ann', 1, 2, NULL),
	(2, 'Manager', 'Bob', 1, NULL, 3),
	(3, 'Employee', 'Cid', 2, 2, NULL);
INSERT INTO phone_types VALUES ('home', 'Home'), ('work', 'Work');
INSERT INTO phones VALUES (1, '555-1', 1, 'home'), (2, '555-2', 1, 'work'), (3, '555-3', 2, 'work');
INSERT INTO projects VALUES (1, 'Apollo'), (2, 'Gemini');
INSERT INTO employee_projects VALUES (1, 1), (1, 2), (3, 1);
INSERT INTO employee_tags VALUES (1, 'go'), (1, 'sql'), (2, 'lead');
`

func openSQLite(t *testing.T) *sql.StatsDriver {
	t.Helper()
	drv, err := sql.OpenWithStats(dialect.SQLite, ":memory:")
	require.NoError(t, err)
	// A single connection keeps the in-memory database shared by all queries.
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	_, err = drv.DB().Exec(ddl)
	require.NoError(t, err)
	return drv
}

// staffGraph loads employees with their department, phones by type,
// projects and tags, and the reports of managers.
func staffGraph(t *testing.T, m *metamodel.Model) *entitygraph.EntityGraph {
	t.Helper()
	g := entitygraph.MustNew(m, "Employee", entitygraph.WithName("Employee.staff"))
	require.NoError(t, g.AddAttributeNodes("name", "tags"))
	dept, err := g.AddSubgraph("department")
	require.NoError(t, err)
	require.NoError(t, dept.AddAttributeNodes("deptName"))
	phones, err := g.AddSubgraph("phones")
	require.NoError(t, err)
	require.NoError(t, phones.AddAttributeNodes("number"))
	keys, err := g.AddKeySubgraph("phones")
	require.NoError(t, err)
	require.NoError(t, keys.AddAttributeNodes("label"))
	projects, err := g.AddSubgraph("projects")
	require.NoError(t, err)
	require.NoError(t, projects.AddAttributeNodes("title"))
	mgr, err := g.AddSubclassSubgraph("Manager")
	require.NoError(t, err)
	require.NoError(t, mgr.AddAttributeNodes("level"))
	reports, err := mgr.AddSubgraph("reports")
	require.NoError(t, err)
	require.NoError(t, reports.AddAttributeNodes("name"))
	return g
}

func names(nodes []*sqlgraph.Node) []any {
	var values []any
	for _, n := range nodes {
		values = append(values, n.Values["name"])
	}
	return values
}

func TestLoad_SQLite(t *testing.T) {
	ctx := context.Background()
	m := newModel(t)
	drv := openSQLite(t)
	plan, err := fetchplan.Build(ctx, m, staffGraph(t, m))
	require.NoError(t, err)

	for name, opts := range map[string][]sqlgraph.Option{
		"Default":    nil,
		"Sequential": {sqlgraph.WithBatchSize(1), sqlgraph.WithConcurrency(1)},
	} {
		t.Run(name, func(t *testing.T) {
			nodes, err := sqlgraph.NewLoader(drv, opts...).Load(ctx, plan, 3, 1, 2, 99)
			require.NoError(t, err)
			require.Len(t, nodes, 3)
			cid, ann, bob := nodes[0], nodes[1], nodes[2]
			assert.Equal(t, []any{"Cid", "Ann", "Bob"}, names(nodes))

			t.Run("Identity", func(t *testing.T) {
				assert.Equal(t, int64(1), ann.ID)
				assert.Equal(t, "Employee", ann.Type)
				assert.Equal(t, "Manager", bob.Type)
				assert.Equal(t, "Manager", bob.Discriminator)
			})

			t.Run("OwnerFK", func(t *testing.T) {
				require.NotNil(t, ann.One("department"))
				assert.Equal(t, "R&D", ann.One("department").Values["deptName"])
				assert.Equal(t, "Sales", cid.One("department").Values["deptName"])
				assert.Same(t, ann.One("department"), bob.One("department"))
				assert.Nil(t, ann.Edge("manager"), "lazy attributes outside the graph are not loaded")
			})

			t.Run("Map", func(t *testing.T) {
				phones := ann.Edge("phones")
				require.NotNil(t, phones)
				assert.True(t, phones.Map)
				require.Len(t, phones.Nodes, 2)
				require.Len(t, phones.Keys, 2)
				assert.Equal(t, "555-1", phones.Nodes[0].Values["number"])
				home, ok := phones.Keys[0].(*sqlgraph.Node)
				require.True(t, ok)
				assert.Equal(t, "home", home.ID)
				assert.Equal(t, "Home", home.Values["label"])
				assert.Empty(t, cid.Edge("phones").Nodes)
			})

			t.Run("JoinTable", func(t *testing.T) {
				projects := ann.Many("projects")
				require.Len(t, projects, 2)
				assert.Equal(t, "Apollo", projects[0].Values["title"])
				assert.Equal(t, "Gemini", projects[1].Values["title"])
				require.Len(t, cid.Many("projects"), 1)
				assert.Same(t, projects[0], cid.Many("projects")[0])
				assert.Empty(t, bob.Many("projects"))
				assert.True(t, bob.Edge("projects").Plural)
			})

			t.Run("ElementTable", func(t *testing.T) {
				assert.Equal(t, []any{"go", "sql"}, ann.Edge("tags").Elements)
				assert.Equal(t, []any{"lead"}, bob.Edge("tags").Elements)
				assert.Empty(t, cid.Edge("tags").Elements)
			})

			t.Run("Subtype", func(t *testing.T) {
				assert.Equal(t, int64(3), bob.Values["level"])
				assert.NotContains(t, ann.Values, "level")
				assert.Equal(t, []any{"Ann", "Cid"}, names(bob.Many("reports")))
				assert.Nil(t, ann.Edge("reports"))
			})
		})
	}

	t.Run("Stats", func(t *testing.T) {
		s := drv.QueryStats().Stats()
		assert.NotZero(t, s.TotalQueries)
		assert.NotZero(t, s.Rows)
		assert.Zero(t, s.Errors)
	})

	t.Run("JSON", func(t *testing.T) {
		nodes, err := sqlgraph.Load(ctx, drv, plan, 3)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		b, err := json.Marshal(nodes[0])
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, "Employee", got["@type"])
		assert.Equal(t, "Cid", got["name"])
		assert.Equal(t, map[string]any{"@type": "Department", "@id": float64(2), "deptName": "Sales"}, got["department"])
		assert.Equal(t, []any{}, got["tags"])
	})

	t.Run("SubtypeRoot", func(t *testing.T) {
		g := entitygraph.MustNew(m, "Manager")
		require.NoError(t, g.AddAttributeNodes("level"))
		plan, err := fetchplan.Build(ctx, m, g)
		require.NoError(t, err)
		nodes, err := sqlgraph.Load(ctx, drv, plan, 1, 2, 3)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, int64(2), nodes[0].ID)
	})

	t.Run("SchemaMismatch", func(t *testing.T) {
		_, err := drv.DB().Exec("ALTER TABLE projects RENAME COLUMN title TO name")
		require.NoError(t, err)
		t.Cleanup(func() {
			_, err := drv.DB().Exec("ALTER TABLE projects RENAME COLUMN name TO title")
			require.NoError(t, err)
		})
		_, err = sqlgraph.Load(ctx, drv, plan, 1)
		require.Error(t, err)
		assert.True(t, sqlgraph.IsSchemaError(err))
		var se *sqlgraph.SchemaError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "projects", se.Path)
	})
}

func newMock(t *testing.T) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(dialect.SQLite, db), mock
}

func userPlan() *fetchplan.Plan {
	return &fetchplan.Plan{
		Root: &fetchplan.Level{
			Type:     "User",
			Table:    "users",
			ID:       "id",
			IDColumn: "id",
			Columns:  []fetchplan.Column{{Attribute: "name", Name: "name"}},
			Steps: []*fetchplan.Step{{
				Attribute: "group",
				Path:      "group",
				Link:      fetchplan.LinkOwnerFK,
				Column:    "group_id",
				Target: &fetchplan.Level{
					Type:     "Group",
					Table:    "groups",
					ID:       "id",
					IDColumn: "id",
					Columns:  []fetchplan.Column{{Attribute: "name", Name: "name"}},
				},
			}},
		},
	}
}

func TestLoader_Mock(t *testing.T) {
	ctx := context.Background()
	const (
		usersQuery  = `SELECT "t0"."id", "t0"."name", "t0"."group_id" FROM "users" AS "t0" WHERE "t0"."id" IN (?, ?)`
		usersQuery1 = `SELECT "t0"."id", "t0"."name", "t0"."group_id" FROM "users" AS "t0" WHERE "t0"."id" IN (?)`
		groupsQuery = `SELECT "t0"."id", "t0"."name" FROM "groups" AS "t0" WHERE "t0"."id" IN (?, ?)`
	)
	userRows := func() *sqlmock.Rows { return sqlmock.NewRows([]string{"id", "name", "group_id"}) }

	t.Run("Batches", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectQuery(usersQuery).WithArgs(int64(1), int64(2)).
			WillReturnRows(userRows().AddRow(1, "a8m", 10).AddRow(2, "nati", nil))
		mock.ExpectQuery(usersQuery1).WithArgs(int64(3)).
			WillReturnRows(userRows().AddRow(3, "ariel", 20))
		mock.ExpectQuery(groupsQuery).WithArgs(int64(10), int64(20)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(10, "admins").AddRow(20, "devs"))

		nodes, err := sqlgraph.NewLoader(drv, sqlgraph.WithBatchSize(2)).Load(ctx, userPlan(), 1, 2, 3, 2)
		require.NoError(t, err)
		require.Len(t, nodes, 3)
		assert.Equal(t, "admins", nodes[0].One("group").Values["name"])
		assert.Nil(t, nodes[1].One("group"))
		assert.NotNil(t, nodes[1].Edge("group"))
		assert.Equal(t, "devs", nodes[2].One("group").Values["name"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("StepError", func(t *testing.T) {
		drv, mock := newMock(t)
		boom := errors.New("boom")
		mock.ExpectQuery(usersQuery1).WithArgs(int64(1)).
			WillReturnRows(userRows().AddRow(1, "a8m", 10))
		mock.ExpectQuery(`SELECT "t0"."id", "t0"."name" FROM "groups" AS "t0" WHERE "t0"."id" IN (?)`).
			WillReturnError(boom)

		_, err := sqlgraph.Load(ctx, drv, userPlan(), 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, boom))
		assert.Contains(t, err.Error(), "sqlgraph: load group")
		assert.False(t, sqlgraph.IsSchemaError(err))
	})

	t.Run("RootError", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectQuery(usersQuery1).WillReturnError(errors.New("no such table: users"))
		_, err := sqlgraph.Load(ctx, drv, userPlan(), 1)
		var se *sqlgraph.SchemaError
		require.True(t, errors.As(err, &se))
		assert.Empty(t, se.Path)
		assert.True(t, sqlgraph.IsUndefinedTableError(err))
	})

	t.Run("Discriminator", func(t *testing.T) {
		drv, mock := newMock(t)
		plan := &fetchplan.Plan{Root: &fetchplan.Level{
			Type:                "Admin",
			Table:               "users",
			ID:                  "id",
			IDColumn:            "id",
			Discriminator:       "kind",
			DiscriminatorValues: []string{"Admin", "Root"},
		}}
		mock.ExpectQuery(`SELECT "t0"."id", "t0"."kind" FROM "users" AS "t0" WHERE "t0"."kind" IN (?, ?) AND "t0"."id" IN (?)`).
			WithArgs("Admin", "Root", int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind"}).AddRow(1, []byte("Root")))
		nodes, err := sqlgraph.Load(ctx, drv, plan, 1)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "Admin", nodes[0].Type)
		assert.Equal(t, "Root", nodes[0].Discriminator)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoRoot", func(t *testing.T) {
		drv, _ := newMock(t)
		_, err := sqlgraph.Load(ctx, drv, &fetchplan.Plan{}, 1)
		assert.ErrorIs(t, err, sqlgraph.ErrNoRoot)
	})

	t.Run("NoIDs", func(t *testing.T) {
		drv, mock := newMock(t)
		nodes, err := sqlgraph.Load(ctx, drv, userPlan())
		require.NoError(t, err)
		assert.Empty(t, nodes)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
