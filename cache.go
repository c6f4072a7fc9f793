package conduit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const (
	defaultCacheTTL         = 3600 * time.Second
	defaultCacheCheckPeriod = 600 * time.Second
	cacheShards             = 16
)

// Cache is an in-memory key/value store with per-entry TTL. Expired entries
// are dropped lazily on read and by a periodic sweep.
type Cache struct {
	shards     []*cacheShard
	defaultTTL time.Duration
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// NewCache creates a cache. A positive checkPeriod starts a background sweep
// that runs until Close.
func NewCache(defaultTTL, checkPeriod time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = defaultCacheTTL
	}
	shards := make([]*cacheShard, cacheShards)
	for i := range shards {
		shards[i] = &cacheShard{store: make(map[string]cacheEntry)}
	}
	c := &Cache{
		shards:     shards,
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if checkPeriod > 0 {
		go c.janitor(checkPeriod)
	}
	return c
}

func (c *Cache) getShard(key string) *cacheShard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return c.shards[hash.Sum32()%uint32(len(c.shards))]
}

// Get returns the value for key if it is present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	shard := c.getShard(key)
	now := c.now()

	shard.mu.RLock()
	entry, exists := shard.store[key]
	shard.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if now.After(entry.expiresAt) {
		shard.mu.Lock()
		if cur, ok := shard.store[key]; ok && now.After(cur.expiresAt) {
			delete(shard.store, key)
		}
		shard.mu.Unlock()
		return nil, false
	}

	return entry.value, true
}

// Set stores value under key, replacing any previous entry. A non-positive
// ttl uses the cache default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	shard := c.getShard(key)
	shard.mu.Lock()
	shard.store[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
	shard.mu.Unlock()
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	shard := c.getShard(key)
	shard.mu.Lock()
	delete(shard.store, key)
	shard.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.store = make(map[string]cacheEntry)
		shard.mu.Unlock()
	}
}

// Len counts stored entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.store)
		shard.mu.RUnlock()
	}
	return total
}

// Sweep drops every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()
	removed := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		for k, e := range shard.store {
			if now.After(e.expiresAt) {
				delete(shard.store, k)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

// Close stops the background sweep. It is safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.Sweep()
		}
	}
}

// Cached is the typed form of Client.CacheRequest against a bare Cache: a hit
// returns the stored value without calling fn, a miss calls fn and stores a
// successful result. A stored value of another type counts as a miss.
// Concurrent misses on the same key each call fn; the last write wins.
func Cached[T any](ctx context.Context, cache *Cache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	cache.Set(key, v, ttl)
	return v, nil
}
