package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TTLCache is a keyed store whose entries are valid until a fixed
// time-to-live has elapsed since insertion. It is safe for concurrent use.
type TTLCache[V any] struct {
	name      string
	cache     map[string]entry[V]
	mutex     sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
	observer  Observer
	hitCount  int
	missCount int
}

// entry represents a cached payload with its insertion timestamp
type entry[V any] struct {
	Data      V
	Timestamp time.Time
}

// Observer is notified of cache lookups, e.g. to export metrics
type Observer interface {
	CacheLookup(name string, hit bool)
}

// Option configures a TTLCache
type Option func(*cacheOptions)

type cacheOptions struct {
	now      func() time.Time
	logger   *zap.Logger
	observer Observer
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(o *cacheOptions) { o.now = now }
}

// WithLogger sets the logger used for hit/miss tracing
func WithLogger(logger *zap.Logger) Option {
	return func(o *cacheOptions) { o.logger = logger }
}

// WithObserver registers an observer for lookups
func WithObserver(observer Observer) Option {
	return func(o *cacheOptions) { o.observer = observer }
}

// New creates an empty cache. name identifies the data kind in logs and metrics.
func New[V any](name string, ttl time.Duration, opts ...Option) *TTLCache[V] {
	o := cacheOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	return &TTLCache[V]{
		name:     name,
		cache:    make(map[string]entry[V]),
		ttl:      ttl,
		now:      o.now,
		logger:   o.logger.With(zap.String("cache", name)),
		observer: o.observer,
	}
}

// Name returns the data kind this cache holds
func (c *TTLCache[V]) Name() string {
	return c.name
}

// TTL returns the configured time-to-live
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry for key if present and not stale
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	e, found := c.cache[key]
	c.mutex.RUnlock()

	now := c.now()
	if found && now.Sub(e.Timestamp) < c.ttl {
		c.record(true)
		c.logger.Debug("Cache HIT",
			zap.String("key", key),
			zap.Duration("age", now.Sub(e.Timestamp).Round(time.Second)))
		return e.Data, true
	}

	c.record(false)
	c.logger.Debug("Cache MISS", zap.String("key", key), zap.Bool("expired", found))

	var zero V
	return zero, false
}

// Put stores value under key, replacing any previous entry
func (c *TTLCache[V]) Put(key string, value V) {
	c.mutex.Lock()
	c.cache[key] = entry[V]{
		Data:      value,
		Timestamp: c.now(),
	}
	c.mutex.Unlock()
}

// Prune removes stale entries and returns how many were removed
func (c *TTLCache[V]) Prune() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	pruned := 0
	for key, e := range c.cache {
		if now.Sub(e.Timestamp) >= c.ttl {
			delete(c.cache, key)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of stored entries, stale or not
func (c *TTLCache[V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// CacheStats returns statistics about cache hits and misses
func (c *TTLCache[V]) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.hitCount, c.missCount
}

func (c *TTLCache[V]) record(hit bool) {
	c.mutex.Lock()
	if hit {
		c.hitCount++
	} else {
		c.missCount++
	}
	c.mutex.Unlock()

	if c.observer != nil {
		c.observer.CacheLookup(c.name, hit)
	}
}
