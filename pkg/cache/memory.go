// Package cache holds small in-process caches used by the services layer.
package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 500
)

var ErrNotFound = errors.New("cache entry not found")

type Config struct {
	TTL     time.Duration
	MaxSize int
}

type Stats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// InMemory is a TTL cache with a size cap. When full, an arbitrary entry is
// evicted to make room.
type InMemory[V any] struct {
	entries map[string]*entry[V]
	mu      sync.RWMutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	// counters
	hits      int64
	misses    int64
	sets      int64
	evictions int64
}

type entry[V any] struct {
	value    V
	cachedAt time.Time
}

func NewInMemory[V any](c Config) *InMemory[V] {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}

	return &InMemory[V]{
		entries: make(map[string]*entry[V]),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
		now:     time.Now,
	}
}

func (c *InMemory[V]) Get(key string) (V, error) {
	var zero V

	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return zero, ErrNotFound
	}

	if c.now().Sub(e.cachedAt) > c.ttl {
		atomic.AddInt64(&c.misses, 1)
		c.expire(key, e)
		return zero, ErrNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	return e.value, nil
}

// expire drops key only if it still holds the stale entry we looked at
func (c *InMemory[V]) expire(key string, stale *entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[key]; ok && current == stale {
		delete(c.entries, key)
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *InMemory[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, replacing := c.entries[key]; !replacing && len(c.entries) >= c.maxSize {
		for k := range c.entries {
			delete(c.entries, k)
			atomic.AddInt64(&c.evictions, 1)
			break
		}
	}

	c.entries[key] = &entry[V]{
		value:    value,
		cachedAt: c.now(),
	}

	atomic.AddInt64(&c.sets, 1)
}

func (c *InMemory[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemory[V]) Stats() Stats {
	return Stats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      c.Len(),
		TTL:       c.ttl,
	}
}
