package research

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// cacheEntry holds one cached lookup report.
type cacheEntry struct {
	Key       string
	Report    *Report
	Source    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Cache provides in-memory caching for lookup reports so repeated queries
// during a healing loop do not refetch.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	maxSize int
	ttl     time.Duration
}

// NewCache creates a cache with the given size limit and TTL.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a cached report by key, honoring expiration.
func (c *Cache) Get(key string) (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Report, true
}

// Set stores a report, evicting the oldest entry at capacity.
func (c *Cache) Set(key string, report *Report, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	c.entries[key] = &cacheEntry{
		Key:       key,
		Report:    report,
		Source:    source,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Size returns the number of entries, expired ones included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldest removes the entry with the earliest creation time.
// Caller holds the write lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CreatedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// cacheKey hashes the query plus depth so different depths cache separately.
func cacheKey(query string, depth int) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte(fmt.Sprintf("|%d", depth)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
