package fetchplan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/entitygraph"
	"github.com/syssam/entitygraph/metamodel"
)

// KeyPrefix prefixes the cache keys of compiled plans.
const KeyPrefix = "fetchplan:"

// Planner compiles graphs against a model and caches the resulting plans.
// It is safe for concurrent use.
type Planner struct {
	model    *metamodel.Model
	cache    entitygraph.Cache
	ttl      time.Duration
	defaults []Option
	logger   *slog.Logger
	group    singleflight.Group
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithCache sets the plan cache. The default is an in-memory cache.
func WithCache(c entitygraph.Cache) PlannerOption {
	return func(p *Planner) {
		p.cache = c
	}
}

// WithTTL sets the lifetime of cached plans. Zero keeps them until evicted.
func WithTTL(d time.Duration) PlannerOption {
	return func(p *Planner) {
		p.ttl = d
	}
}

// WithDefaults sets options applied before the options of each Plan call.
func WithDefaults(opts ...Option) PlannerOption {
	return func(p *Planner) {
		p.defaults = append(p.defaults, opts...)
	}
}

// WithLogger sets the logger reporting unreadable cache entries.
func WithLogger(l *slog.Logger) PlannerOption {
	return func(p *Planner) {
		p.logger = l
	}
}

// NewPlanner returns a planner for the given model.
func NewPlanner(model *metamodel.Model, opts ...PlannerOption) *Planner {
	p := &Planner{model: model}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = entitygraph.NewMemoryCache()
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Plan returns the plan of the graph, compiling it on a cache miss.
// Plans depending on a privacy rule are compiled on every call, as rules
// usually depend on the viewer in ctx.
func (p *Planner) Plan(ctx context.Context, g *entitygraph.EntityGraph, opts ...Option) (*Plan, error) {
	all := append(p.defaults[:len(p.defaults):len(p.defaults)], opts...)
	o := newOptions(all)
	if o.policy != nil {
		return Build(ctx, p.model, g, all...)
	}
	key := Key(g, o.mode, o.maxDepth)
	switch data, err := p.cache.Get(ctx, key); {
	case err != nil:
		return nil, fmt.Errorf("fetchplan: read cache: %w", err)
	case data != nil:
		plan, err := Decode(data)
		if err == nil {
			return plan, nil
		}
		p.logger.WarnContext(ctx, "dropping unreadable cached plan", "key", key, "error", err)
	}
	v, err, _ := p.group.Do(key, func() (any, error) {
		plan, err := Build(ctx, p.model, g, all...)
		if err != nil {
			return nil, err
		}
		data, err := Encode(plan)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			return nil, fmt.Errorf("fetchplan: write cache: %w", err)
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Plan), nil
}

// Invalidate drops all cached plans.
func (p *Planner) Invalidate(ctx context.Context) error {
	return p.cache.DeletePrefix(ctx, KeyPrefix)
}

// Key returns the cache key of a graph compiled with the given mode and depth.
// Graphs with the same name and structure share a key.
func Key(g *entitygraph.EntityGraph, mode Mode, maxDepth int) string {
	h := sha256.New()
	h.Write([]byte(g.String()))
	h.Write([]byte{0})
	h.Write([]byte(mode.String()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(maxDepth)))
	return KeyPrefix + hex.EncodeToString(h.Sum(nil))
}
