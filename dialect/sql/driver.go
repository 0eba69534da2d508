package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/syssam/entitygraph/dialect"
)

// Driver is a dialect.Driver implementation for SQL based databases.
type Driver struct {
	Conn
	dialect string
}

// NewDriver creates a new Driver with the given Conn and dialect.
func NewDriver(dialect string, c Conn) *Driver {
	return &Driver{dialect: dialect, Conn: c}
}

// Open wraps the database/sql.Open method and returns a Driver. The driver
// name is also the dialect name, so the database driver package must be
// registered under one of the dialect names (e.g. modernc.org/sqlite as
// "sqlite").
func Open(dialect, source string) (*Driver, error) {
	db, err := sql.Open(dialect, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(dialect, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, Conn{db, dialect})
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect implements the dialect.Dialect method. Driver names carrying a
// dialect prefix, like "postgres-traced", report the plain dialect.
func (d Driver) Dialect() string {
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options. Loaders use read-only
// transactions to get a consistent snapshot across batched queries.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: Conn{tx, d.dialect},
		Tx:   tx,
	}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx interface.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) (rerr error) {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	switch v.(type) {
	case nil, *sql.Result:
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	ex, cf, err := c.session(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: set session vars: %w", err)
	}
	if cf != nil {
		defer func() { rerr = errors.Join(rerr, cf()) }()
	}
	res, err := ex.ExecContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	if v, ok := v.(*sql.Result); ok {
		*v = res
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, cf, err := c.session(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: set session vars: %w", err)
	}
	rows, err := ex.QueryContext(ctx, query, argv...)
	if err != nil {
		if cf != nil {
			err = errors.Join(err, cf())
		}
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	if cf != nil {
		vr.ColumnScanner = rowsWithCloser{rows, cf}
	}
	return nil
}

type sessionVarsKey struct{}

type sessionVar struct{ name, value string }

// WithVar returns a new context that holds a session variable set before
// every statement, e.g. the tenant read by row-level security policies:
//
//	ctx = sql.WithVar(ctx, "app.tenant_id", viewer.GetTenantID())
func WithVar(ctx context.Context, name, value string) context.Context {
	vars, _ := ctx.Value(sessionVarsKey{}).([]sessionVar)
	vars = append(vars[:len(vars):len(vars)], sessionVar{name, value})
	return context.WithValue(ctx, sessionVarsKey{}, vars)
}

// VarFromContext returns the last value set for the session variable.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	vars, _ := ctx.Value(sessionVarsKey{}).([]sessionVar)
	for i := len(vars) - 1; i >= 0; i-- {
		if vars[i].name == name {
			return vars[i].value, true
		}
	}
	return "", false
}

// varNameRe matches session variable names, optionally qualified.
var varNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func validVarName(s string) bool {
	return len(s) <= 128 && varNameRe.MatchString(s)
}

// quoteValue renders a session variable value as a string literal.
func quoteValue(s string) string {
	if strings.ContainsAny(s, `'\`) {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, "'", "''")
	}
	return "'" + s + "'"
}

// session returns the ExecQuerier to run a statement on, setting the
// session variables of ctx first. Outside transactions, variables are set on
// a dedicated connection that is reset and released by the returned closer.
func (c Conn) session(ctx context.Context) (ExecQuerier, func() error, error) {
	vars, _ := ctx.Value(sessionVarsKey{}).([]sessionVar)
	if len(vars) == 0 {
		return c, nil, nil
	}
	var (
		ex    ExecQuerier
		cf    func() error
		reset []string
		seen  = make(map[string]bool, len(vars))
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.Tx:
		ex = e
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, cf = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("unsupported ExecQuerier type: %T", c.ExecQuerier)
	}
	fail := func(err error) (ExecQuerier, func() error, error) {
		if cf != nil {
			err = errors.Join(err, cf())
		}
		return nil, nil, err
	}
	for _, v := range vars {
		if !validVarName(v.name) {
			return fail(fmt.Errorf("invalid session variable name: %q", v.name))
		}
		if !seen[v.name] {
			seen[v.name] = true
			switch c.dialect {
			case dialect.Postgres:
				reset = append(reset, "RESET "+v.name)
			case dialect.MySQL:
				reset = append(reset, "SET "+v.name+" = NULL")
			}
		}
		if _, err := ex.ExecContext(ctx, "SET "+v.name+" = "+quoteValue(v.value)); err != nil {
			return fail(err)
		}
	}
	// Connections go back to the pool clean, even if ctx was canceled.
	if release := cf; cf != nil && len(reset) > 0 {
		cf = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, q := range reset {
				if _, err := ex.ExecContext(ctx, q); err != nil {
					return errors.Join(err, release())
				}
			}
			return release()
		}
	}
	return ex, cf, nil
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// rowsWithCloser wraps the ColumnScanner interface with a custom Close hook.
type rowsWithCloser struct {
	ColumnScanner
	closer func() error
}

// Close closes the underlying ColumnScanner and calls the custom closer.
func (r rowsWithCloser) Close() error {
	err := r.ColumnScanner.Close()
	return errors.Join(err, r.closer())
}
