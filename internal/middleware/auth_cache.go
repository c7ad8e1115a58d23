package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

const (
	accountCacheTTL    = 5 * time.Minute
	negativeCacheTTL   = 30 * time.Second
	maxCacheEntries    = 10000
	cacheCleanupPeriod = 60 * time.Second
)

// negativeSentinel is stored in accountID to indicate a cached lookup failure.
const negativeSentinel = "\x00negative"

// errCachedNotFound is returned for negative cache hits.
var errCachedNotFound = errors.New("account not found (cached)")

type cachedAccount struct {
	accountID string
	fetchedAt time.Time
}

// isNegative returns true if this entry represents a cached lookup failure.
func (ca cachedAccount) isNegative() bool {
	return ca.accountID == negativeSentinel
}

// ttl returns the appropriate TTL for this entry.
func (ca cachedAccount) ttl() time.Duration {
	if ca.isNegative() {
		return negativeCacheTTL
	}
	return accountCacheTTL
}

// hashKey returns a hex-encoded SHA-256 hash of the API key so raw keys
// are never stored in memory.
func hashKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

// CachedAccountLookup wraps an AccountLookup with a bounded in-memory cache.
type CachedAccountLookup struct {
	inner AccountLookup
	mu    sync.RWMutex
	cache map[string]cachedAccount
}

// NewCachedAccountLookup creates a caching wrapper around the given AccountLookup.
// The provided context controls the lifetime of the background eviction goroutine.
func NewCachedAccountLookup(ctx context.Context, inner AccountLookup) *CachedAccountLookup {
	c := &CachedAccountLookup{
		inner: inner,
		cache: make(map[string]cachedAccount),
	}
	go c.evictLoop(ctx)
	return c
}

// evictLoop periodically removes expired entries from the cache.
func (c *CachedAccountLookup) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.cache {
				if now.Sub(v.fetchedAt) >= v.ttl() {
					delete(c.cache, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// GetAccountByAPIKey returns a cached account ID or delegates to the inner lookup.
// Failed lookups are negatively cached for 30s to prevent brute-force DB hammering.
func (c *CachedAccountLookup) GetAccountByAPIKey(ctx context.Context, apiKey string) (string, error) {
	hk := hashKey(apiKey)

	// Read path — RLock for concurrent cache hits.
	c.mu.RLock()
	entry, ok := c.cache[hk]
	if ok && time.Since(entry.fetchedAt) < entry.ttl() {
		c.mu.RUnlock()
		if entry.isNegative() {
			return "", errCachedNotFound
		}
		return entry.accountID, nil
	}
	c.mu.RUnlock()

	// Cache miss or expired — fetch from inner.
	accountID, err := c.inner.GetAccountByAPIKey(ctx, apiKey)
	if err != nil {
		// Negative cache: store failed lookup with short TTL.
		c.mu.Lock()
		c.cache[hk] = cachedAccount{accountID: negativeSentinel, fetchedAt: time.Now()}
		c.mu.Unlock()
		return "", err
	}

	c.mu.Lock()
	if len(c.cache) >= maxCacheEntries {
		// Evict expired entries, then trim if still over limit.
		now := time.Now()
		for k, v := range c.cache {
			if now.Sub(v.fetchedAt) >= v.ttl() {
				delete(c.cache, k)
			}
		}
		for k := range c.cache {
			if len(c.cache) < maxCacheEntries {
				break
			}
			delete(c.cache, k)
		}
	}
	c.cache[hk] = cachedAccount{accountID: accountID, fetchedAt: time.Now()}
	c.mu.Unlock()

	return accountID, nil
}
