// Package robots answers whether a crawler may fetch a URL, caching each
// origin's robots.txt for a fixed TTL.
package robots

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/temoto/robotstxt"
)

const (
	// DefaultCacheSize bounds the number of origins kept in memory
	DefaultCacheSize = 1024
	// DefaultTTL is how long a fetched robots.txt is trusted
	DefaultTTL = 6 * time.Hour
)

type entry struct {
	data      *robotstxt.RobotsData
	expiresAt time.Time
}

// Cache is an LRU of parsed robots.txt files keyed by origin. Entries older
// than the TTL are treated as absent.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, entry]
	ttl time.Duration
	now func() time.Time
}

// NewCache returns a cache holding up to size origins for ttl each
func NewCache(size int, ttl time.Duration) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source; used by tests
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Get returns the live entry for origin
func (c *Cache) Get(origin string) (*robotstxt.RobotsData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(origin)
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.lru.Remove(origin)
		return nil, false
	}
	return e.data, true
}

// Put stores data for origin until now+TTL
func (c *Cache) Put(origin string, data *robotstxt.RobotsData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(origin, entry{data: data, expiresAt: c.now().Add(c.ttl)})
}

// Len reports the number of stored origins, expired ones included
func (c *Cache) Len() int {
	return c.lru.Len()
}
