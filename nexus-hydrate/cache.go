package nexushydrate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Cache holds signed URLs keyed by (bucket, path). It is process-wide and
// safe for concurrent use; each gateway instance caches independently.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	url       string
	expiresAt time.Time
}

func NewCache() *Cache {
	return &Cache{entries: map[string]cacheEntry{}}
}

func cacheKey(bucket, path string) string {
	return fmt.Sprintf("signed_url:%v/%v", bucket, path)
}

// Get returns the cached URL for (bucket, path) if one is present and has not
// passed its reduced expiry.
func (c *Cache) Get(bucket, path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(bucket, path)]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.url, true
}

// Set stores url for (bucket, path) for the given ttl.
func (c *Cache) Set(bucket, path, url string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(bucket, path)] = cacheEntry{
		url:       url,
		expiresAt: time.Now().Add(ttl),
	}
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	pruned := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			pruned++
		}
	}
	return pruned
}

// Len reports the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Janitor prunes expired entries on the given interval until ctx is
// cancelled. Expired entries are already invisible to Get; this only bounds
// memory on long-lived processes.
func (c *Cache) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Prune()
		case <-ctx.Done():
			return
		}
	}
}
