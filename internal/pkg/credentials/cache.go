package credentials

import (
	"sync"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// Cache is a freshness-bounded in-process cache in front of the broker.
// The clock is injected so TTL behavior is testable without sleeps.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	userID   string
	platform models.Platform
}

type cacheEntry struct {
	cred      models.PlatformCredential
	fetchedAt time.Time
}

// NewCache creates a credential cache. A nil clock uses time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// GetOrFetch serves a cached credential while it is inside the freshness
// window and re-fetches synchronously otherwise. A fetch error is returned
// as-is and nothing is cached for it.
func (c *Cache) GetOrFetch(userID string, platform models.Platform, fetch func() (models.PlatformCredential, error)) (models.PlatformCredential, error) {
	key := cacheKey{userID: userID, platform: platform}

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return entry.cred, nil
	}
	c.mu.Unlock()

	cred, err := fetch()
	if err != nil {
		return models.PlatformCredential{}, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{cred: cred, fetchedAt: c.now()}
	c.mu.Unlock()

	return cred, nil
}

// Invalidate drops the entry for one (user, platform). Save and delete paths
// call this so an explicit disconnect never leaves a stale positive behind.
func (c *Cache) Invalidate(userID string, platform models.Platform) {
	c.mu.Lock()
	delete(c.entries, cacheKey{userID: userID, platform: platform})
	c.mu.Unlock()
}
