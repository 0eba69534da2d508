package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/syssam/entitygraph/dialect"
	"github.com/syssam/entitygraph/dialect/sql"
)

var errNoDatabase = errors.New("no database: set --dialect and --dsn or database in the config file")

// addDatabaseFlags adds the connection flags of commands reading a database.
func addDatabaseFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("dialect", "", "database dialect: sqlite, postgres or mysql")
	f.String("dsn", "", "database connection string")
	f.Duration("slow-query", 0, "log queries slower than this")
}

// openDatabase opens the configured database with query statistics and
// slow query logging.
func (a *app) openDatabase(ctx context.Context) (*sql.StatsDriver, error) {
	db := a.cfg.Database
	if db.Dialect == "" || db.DSN == "" {
		return nil, errNoDatabase
	}
	dsn, err := normalizeDSN(db.Dialect, db.DSN)
	if err != nil {
		return nil, err
	}
	drv, err := sql.OpenWithStats(db.Dialect, dsn,
		sql.WithSlowThreshold(db.SlowQuery),
		sql.WithSlowQueryLog(slogger(ctx)),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", db.Dialect, err)
	}
	if err := drv.DB().PingContext(ctx); err != nil {
		drv.Close()
		return nil, fmt.Errorf("connect %s database: %w", db.Dialect, err)
	}
	return drv, nil
}

// normalizeDSN enables the driver options the loader relies on. MySQL
// connections parse DATETIME columns into time.Time.
func normalizeDSN(name, dsn string) (string, error) {
	if name != dialect.MySQL {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
