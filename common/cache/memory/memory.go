package memory

import (
	"context"
	"sync"
	"time"

	"jobhub/common/cache"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is an in-process cache.Cache backed by go-cache. Values are stored
// encoded, so readers never share memory with writers. Expired entries are
// hidden on read and swept every CleanupInterval.
type Cache struct {
	mu     sync.RWMutex
	items  *gocache.Cache
	closed bool
}

func New(opts cache.Options) *Cache {
	defaults := cache.DefaultOptions()
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = defaults.DefaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaults.CleanupInterval
	}

	return &Cache{
		items: gocache.New(opts.DefaultTTL, opts.CleanupInterval),
	}
}

// Set stores value under key. A ttl of zero uses the default TTL and
// cache.NoExpiration keeps the value until it is deleted; both line up with
// go-cache's own sentinels.
func (c *Cache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return cache.ErrInvalidKey
	}
	data, err := cache.Encode(value)
	if err != nil {
		return err
	}
	// Callers may reuse their buffer.
	data = append([]byte(nil), data...)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cache.ErrClosed
	}

	switch {
	case ttl == 0:
		ttl = gocache.DefaultExpiration
	case ttl < 0:
		ttl = gocache.NoExpiration
	}
	c.items.Set(key, data, ttl)
	return nil
}

func (c *Cache) Get(_ context.Context, key string, value interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cache.ErrClosed
	}

	v, ok := c.items.Get(key)
	if !ok {
		return cache.ErrNotFound
	}
	return cache.Decode(v.([]byte), value)
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.items.Delete(key)
	return nil
}

// Close drops every entry. Further calls return cache.ErrClosed. The
// go-cache janitor stops once the cache is unreachable.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.items.Flush()
	return nil
}
