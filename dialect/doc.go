// Package dialect defines the database driver abstraction used by fetch-plan
// loaders.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// Drivers are usually opened through dialect/sql and passed to the loader
// in dialect/sql/sqlgraph:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//	nodes, err := sqlgraph.Load(ctx, drv, plan, 1, 2, 3)
//
// Debug wraps a driver and logs every statement with log/slog at debug level.
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver, SELECT builder and query statistics
//   - dialect/sql/sqlgraph: batched loading of fetch plans
//   - dialect/sqlschema: table mapping annotations for managed types
package dialect
