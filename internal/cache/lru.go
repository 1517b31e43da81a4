package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU is a bounded cache with optional expiry, for hosts that cannot accept
// unbounded growth. ttl of zero disables expiry.
type LRU struct {
	lru *expirable.LRU[string, Entry]
}

// NewLRU creates an LRU cache holding at most size entries.
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{lru: expirable.NewLRU[string, Entry](size, nil, ttl)}
}

func (c *LRU) Get(query string) (Entry, bool) {
	return c.lru.Get(query)
}

func (c *LRU) Put(query string, entry Entry) {
	c.lru.Add(query, entry)
}
