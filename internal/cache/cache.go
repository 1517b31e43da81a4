// Package cache maps a search-query string to a previously computed summary
// and result list. Keys are exact strings: case and whitespace sensitive.
package cache

import (
	"sync"

	"github.com/seekforge/groundchat/internal/search"
)

// Entry is one cached search outcome.
type Entry struct {
	Summary string          `json:"summary"`
	Results []search.Result `json:"results"`
}

// Cache is injected into the orchestrator so eviction policy stays a caller
// decision. Implementations must be safe for concurrent use.
type Cache interface {
	Get(query string) (Entry, bool)
	Put(query string, entry Entry)
}

// Memory is the default backend: an unbounded map living for the process
// lifetime. No eviction, no TTL — matching the accepted growth limitation.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(query string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[query]
	return e, ok
}

func (m *Memory) Put(query string, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[query] = entry
}

// Len reports the number of cached queries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
