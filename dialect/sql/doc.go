// Package sql provides the database/sql driver used to load fetch plans,
// a small dialect-aware SELECT builder and query statistics.
//
// # Driver
//
// Driver implements dialect.Driver on top of database/sql:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//
// Session variables attached with WithVar are set before every statement,
// on a dedicated connection that is reset before it returns to the pool.
//
// # Builder
//
// Selector writes SELECT statements with dialect quoting and placeholders:
//
//	t := sql.Table("staff").As("t0")
//	query, args := sql.Dialect(dialect.Postgres).
//		Select(t.C("id"), t.C("name")).
//		From(t).
//		Where(sql.In(t.C("id"), 1, 2)).
//		Query()
//	// SELECT "t0"."id", "t0"."name" FROM "staff" AS "t0" WHERE "t0"."id" IN ($1, $2)
//
// PostgreSQL identifiers are quoted with lib/pq, MySQL identifiers with
// backticks, and others with double quotes.
//
// # Statistics
//
// StatsDriver counts statements and rows and reports slow queries:
//
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(logger))
//	fmt.Println(stats.QueryStats().Stats())
package sql
