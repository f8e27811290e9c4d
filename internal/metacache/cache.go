// Package metacache caches item metadata lists (item types, materials, rarities,
// enchantments) with a time-to-live in memory and, optionally, in a persisted store.
// Concurrent loads of the same key share one in-flight fetch.
package metacache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/metrics"
)

// CacheSchemaVersion is the version of cached entries.
// Increment this when a cached payload changes shape to invalidate persisted entries.
const CacheSchemaVersion = "1"

// Defaults
const (
	DefaultTTL  = 60 * time.Second
	DefaultSize = 64
)

// Persister is the persisted tier
type Persister interface {
	GetEntry(key string) ([]byte, bool, error)
	PutEntry(key string, data []byte) error
	DeleteEntry(key string) error
}

// persistedEntry wraps a payload with version metadata for invalidation
type persistedEntry struct {
	Version  string          `json:"version"`
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// memEntry keeps the time the value was fetched, which a persisted hit carries over
type memEntry struct {
	value    any
	storedAt time.Time
}

// Cache is a two-tier TTL cache with fetch coalescing
type Cache struct {
	mem     *expirable.LRU[string, memEntry]
	persist Persister
	group   singleflight.Group
	ttl     time.Duration
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithPersister enables the persisted tier
func WithPersister(p Persister) Option {
	return func(c *Cache) { c.persist = p }
}

// WithClock overrides the clock used for persisted entry expiry
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache with the given TTL (DefaultTTL when zero)
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		mem: expirable.NewLRU[string, memEntry](DefaultSize, nil, ttl),
		ttl: ttl,
		now: time.Now,
		log: logger.Component("metacache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key or loads it with fetch. Concurrent callers
// for the same key share one fetch. Errors are not cached.
func Get[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if e, ok := c.mem.Get(key); ok {
		if typed, ok := e.value.(T); ok && c.fresh(e.storedAt) {
			metrics.LookupCacheRequests.WithLabelValues(key, metrics.ResultHit).Inc()
			return typed, nil
		}
		c.mem.Remove(key)
	}

	if v, storedAt, ok := loadPersisted[T](c, key); ok {
		metrics.LookupCacheRequests.WithLabelValues(key, metrics.ResultHit).Inc()
		c.mem.Add(key, memEntry{value: v, storedAt: storedAt})
		return v, nil
	}

	metrics.LookupCacheRequests.WithLabelValues(key, metrics.ResultMiss).Inc()

	// The shared fetch must not be cancelled by whichever caller happened to start it.
	fetchCtx := context.WithoutCancel(ctx)
	resultCh := c.group.DoChan(key, func() (any, error) {
		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		storedAt := c.now()
		c.mem.Add(key, memEntry{value: v, storedAt: storedAt})
		storePersisted(c, key, v, storedAt)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, errTypeMismatch(key)
		}
		return typed, nil
	}
}

func (c *Cache) fresh(storedAt time.Time) bool {
	return c.now().Sub(storedAt) < c.ttl
}

func loadPersisted[T any](c *Cache, key string) (T, time.Time, bool) {
	var zero T
	if c.persist == nil {
		return zero, time.Time{}, false
	}
	raw, ok, err := c.persist.GetEntry(key)
	if err != nil {
		c.log.Warn("Failed to read persisted cache entry", "key", key, "error", err)
		return zero, time.Time{}, false
	}
	if !ok {
		return zero, time.Time{}, false
	}

	var entry persistedEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Version != CacheSchemaVersion ||
		!c.fresh(entry.StoredAt) {
		_ = c.persist.DeleteEntry(key)
		return zero, time.Time{}, false
	}

	var v T
	if err := json.Unmarshal(entry.Data, &v); err != nil {
		_ = c.persist.DeleteEntry(key)
		return zero, time.Time{}, false
	}
	return v, entry.StoredAt, true
}

func storePersisted(c *Cache, key string, v any, storedAt time.Time) {
	if c.persist == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("Failed to encode cache entry", "key", key, "error", err)
		return
	}
	raw, err := json.Marshal(persistedEntry{Version: CacheSchemaVersion, StoredAt: storedAt, Data: data})
	if err != nil {
		return
	}
	if err := c.persist.PutEntry(key, raw); err != nil {
		c.log.Warn("Failed to persist cache entry", "key", key, "error", err)
	}
}

// Invalidate drops key from both tiers
func (c *Cache) Invalidate(key string) {
	c.mem.Remove(key)
	if c.persist != nil {
		_ = c.persist.DeleteEntry(key)
	}
}

// Purge drops every in-memory entry
func (c *Cache) Purge() {
	c.mem.Purge()
}
