package pathgraph

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	domerrors "github.com/garyellow/campus-navigator/internal/errors"
)

// Cache memoises successful shortest-path queries for a fixed graph.
// Stored paths are never mutated; every caller receives its own copy.
// Concurrent identical queries share a single computation.
type Cache struct {
	query   func(ctx context.Context, origin, destination string) (Path, error)
	store   *gocache.Cache
	group   singleflight.Group
	onHit   func(hit bool)
	bypass  bool
	timeout time.Duration
}

// DefaultQueryTimeout bounds a shared computation when no WithQueryTimeout
// option is given.
const DefaultQueryTimeout = 2 * time.Second

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLookupHook registers fn to observe every lookup (true on a hit).
func WithLookupHook(fn func(hit bool)) CacheOption {
	return func(c *Cache) { c.onHit = fn }
}

// WithQueryTimeout bounds each shared computation. Callers are additionally
// bounded by their own contexts.
func WithQueryTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewCache wraps g. A non-positive ttl disables memoisation but keeps
// request collapsing.
func NewCache(g *Graph, ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{query: g.ShortestPath, timeout: DefaultQueryTimeout}
	if ttl > 0 {
		c.store = gocache.New(ttl, 2*ttl)
	} else {
		c.bypass = true
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShortestPath answers from the cache or computes and stores the path.
// Errors are not cached.
func (c *Cache) ShortestPath(ctx context.Context, origin, destination string) (Path, error) {
	key := origin + "\x00" + destination
	if err := ctx.Err(); err != nil {
		return Path{}, domerrors.NoPathExists(origin, destination, err)
	}

	if !c.bypass {
		if v, ok := c.store.Get(key); ok {
			c.observe(true)
			return v.(Path).Clone(), nil
		}
	}
	c.observe(false)

	// The computation is shared, so it must not inherit one caller's
	// cancellation or deadline.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		qctx, cancel := context.WithTimeout(shared, c.timeout)
		defer cancel()
		p, err := c.query(qctx, origin, destination)
		if err != nil {
			return nil, err
		}
		if !c.bypass {
			c.store.SetDefault(key, p)
		}
		return p, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Path{}, res.Err
		}
		return res.Val.(Path).Clone(), nil
	case <-ctx.Done():
		return Path{}, domerrors.NoPathExists(origin, destination, ctx.Err())
	}
}

// Len reports the number of cached paths.
func (c *Cache) Len() int {
	if c.bypass {
		return 0
	}
	return c.store.ItemCount()
}

// Flush drops every cached path.
func (c *Cache) Flush() {
	if !c.bypass {
		c.store.Flush()
	}
}

func (c *Cache) observe(hit bool) {
	if c.onHit != nil {
		c.onHit(hit)
	}
}
