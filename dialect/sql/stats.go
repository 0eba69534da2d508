package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/syssam/entitygraph/dialect"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	queries     atomic.Int64
	execs       atomic.Int64
	duration    atomic.Int64 // nanoseconds
	slowQueries atomic.Int64
	errors      atomic.Int64
	rows        atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.queries.Load(),
		TotalExecs:    s.execs.Load(),
		TotalDuration: time.Duration(s.duration.Load()),
		SlowQueries:   s.slowQueries.Load(),
		Errors:        s.errors.Load(),
		Rows:          s.rows.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.queries.Store(0)
	s.execs.Store(0)
	s.duration.Store(0)
	s.slowQueries.Store(0)
	s.errors.Store(0)
	s.rows.Store(0)
}

// AddRows records rows scanned by a loader.
func (s *QueryStats) AddRows(n int) {
	s.rows.Add(int64(n))
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
	Rows          int64
}

// AvgQueryDuration returns the average query duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d rows=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.Rows, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// LogValue implements slog.LogValuer.
func (s StatsSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("queries", s.TotalQueries),
		slog.Int64("execs", s.TotalExecs),
		slog.Int64("rows", s.Rows),
		slog.Duration("duration", s.TotalDuration),
		slog.Int64("slow", s.SlowQueries),
		slog.Int64("errors", s.Errors),
	)
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver wraps a Driver with query statistics collection.
type StatsDriver struct {
	*Driver
	stats         *QueryStats
	slowThreshold atomic.Int64
	slowHook      SlowQueryHook
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow query detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold.Store(int64(d))
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow queries to the given logger, or to the default
// logger if nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, duration time.Duration) {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		l.WarnContext(ctx, "slow query detected", "duration", duration, "query", query, "args", len(args))
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
//	drv, _ := sql.Open(dialect.Postgres, dsn)
//	stats := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(logger),
//	)
//	nodes, err := sqlgraph.Load(ctx, stats, plan, ids...)
//	logger.Info("loaded", "stats", stats.QueryStats().Stats())
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver: drv,
		stats:  &QueryStats{},
	}
	s.slowThreshold.Store(int64(100 * time.Millisecond))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow query threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return time.Duration(d.slowThreshold.Load())
}

// SetSlowThreshold updates the slow query threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.slowThreshold.Store(int64(threshold))
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		d.stats.queries.Add(1)
	} else {
		d.stats.execs.Add(1)
	}
	d.stats.duration.Add(int64(duration))
	if err != nil {
		d.stats.errors.Add(1)
	}
	if duration > d.SlowThreshold() {
		d.stats.slowQueries.Add(1)
		if d.slowHook != nil {
			argv, _ := args.([]any)
			d.slowHook(ctx, query, argv, duration)
		}
	}
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query executes a query within the transaction and records statistics.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement within the transaction and records statistics.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, false)
	return err
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
)

// OpenWithStats opens a database connection with statistics collection enabled.
func OpenWithStats(dialectName, source string, opts ...StatsOption) (*StatsDriver, error) {
	drv, err := Open(dialectName, source)
	if err != nil {
		return nil, err
	}
	return NewStatsDriver(drv, opts...), nil
}
