package glose

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache is a bounded response cache with per-entry expiry. Entries
// are freshness hints only; a miss simply costs one more API call.
type LRUCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRUCache builds a cache holding up to size entries for ttl each.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns the cached body for key, if present and fresh.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

// Add stores a response body under key.
func (c *LRUCache) Add(key string, value []byte) {
	c.lru.Add(key, value)
}
