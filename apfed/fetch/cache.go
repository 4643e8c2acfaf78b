// Package fetch implements typed dereferencing of remote ActivityPub
// identifiers: request-budget enforcement, signed-GET support, domain
// gating, same-origin redirect enforcement, and a short-TTL in-memory cache
// of recently fetched JSON bodies.
package fetch

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultCacheSize = 10_000
	defaultCacheTTL  = 60 * time.Second
)

type cachedBody struct {
	body      []byte
	fetchedAt time.Time
}

// Cache is a bounded, short-TTL cache of recently fetched JSON bodies keyed
// by URL. It exists only to collapse duplicate fetches triggered by
// near-simultaneous receipt of activities referencing the same id — it is
// not a substitute for the application's own persistent storage of remote
// actors and objects.
type Cache struct {
	mu    sync.Mutex
	inner *lru.Cache[string, cachedBody]
	ttl   time.Duration
	now   func() time.Time
}

// NewCache builds a Cache with the package defaults (≈10,000 entries, 60s
// TTL), matching spec §4.3.
func NewCache() *Cache {
	c, err := lru.New[string, cachedBody](defaultCacheSize)
	if err != nil {
		// Only possible with a non-positive size, which defaultCacheSize
		// never is.
		panic(err)
	}
	return &Cache{inner: c, ttl: defaultCacheTTL, now: time.Now}
}

// Get returns the cached body for url if present and not yet expired.
func (c *Cache) Get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.inner.Get(url)
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		c.inner.Remove(url)
		return nil, false
	}
	return entry.body, true
}

// Put records body as the most recently fetched representation of url.
func (c *Cache) Put(url string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Add(url, cachedBody{body: body, fetchedAt: c.now()})
}
