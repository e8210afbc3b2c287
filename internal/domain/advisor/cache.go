package advisor

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// DefaultCacheTTL is how long a shaped reply stays servable.
const DefaultCacheTTL = 300 * time.Second

// CacheEntry is a shaped reply stored under a normalized query.
type CacheEntry struct {
	Key       string    `json:"key"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists cache entries. Implementations may keep expired entries;
// freshness is decided by ResponseCache.
type Store interface {
	Get(ctx context.Context, key string) (CacheEntry, bool, error)
	Put(ctx context.Context, entry CacheEntry, ttl time.Duration) error
}

// ResponseCache applies key normalization and the expiry window on top of a
// Store.
type ResponseCache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewResponseCache wires a cache over store. A nil clock uses time.Now.
func NewResponseCache(store Store, ttl time.Duration, now func() time.Time, logger *slog.Logger) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ResponseCache{
		store:  store,
		ttl:    ttl,
		now:    now,
		logger: logger.With("component", "advisor.cache"),
	}
}

// NormalizeKey lowercases and trims a query into its cache key.
func NormalizeKey(query string) string {
	return strings.TrimSpace(strings.ToLower(query))
}

// TTL reports the expiry window.
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Lookup returns the cached reply for query if one is still fresh.
func (c *ResponseCache) Lookup(ctx context.Context, query string) (string, bool) {
	key := NormalizeKey(query)
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", "error", err)
		return "", false
	}
	if !ok || c.now().Sub(entry.CreatedAt) >= c.ttl {
		return "", false
	}
	return entry.Response, true
}

// Store upserts response under the normalized query, stamped with now.
func (c *ResponseCache) Store(ctx context.Context, query, response string) {
	entry := CacheEntry{
		Key:       NormalizeKey(query),
		Response:  response,
		CreatedAt: c.now(),
	}
	if err := c.store.Put(ctx, entry, c.ttl); err != nil {
		c.logger.Warn("cache save failed", "error", err)
	}
}
