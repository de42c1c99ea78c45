package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryCache is an in-memory Cacher for handler tests. Values are stored
// as JSON so (de)serialization behaves like the redis-backed cache.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	counters map[string]int64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:  make(map[string][]byte),
		counters: make(map[string]int64),
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.counters[key]; ok {
		data, _ := json.Marshal(v)
		return json.Unmarshal(data, dest)
	}
	data, ok := c.entries[key]
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(data, dest)
}

func (c *MemoryCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *MemoryCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

func (c *MemoryCache) Close() error {
	return nil
}

// Len reports the number of cached entries, for cache-behavior assertions.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
