// Package cache memoizes remote results for a fixed lifetime.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long an entry stays readable after it is written.
const DefaultTTL = 5 * time.Minute

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is a time-bounded memo keyed by normalized prompt text. Entries are
// never swept: an expired entry stays in memory until overwritten and reads
// treat it as absent. Entry count is unbounded.
type Cache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
}

type Option[V any] func(*Cache[V])

// WithClock replaces time.Now, for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		c.now = now
	}
}

func New[V any](ttl time.Duration, opts ...Option[V]) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeKey case-folds and trims a prompt. Prompts differing only in
// punctuation or emphasis stay distinct.
func NormalizeKey(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}

// Get returns the value stored under key while it is younger than the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.createdAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, replacing any previous entry.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, createdAt: c.now()}
}

// Len counts stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
