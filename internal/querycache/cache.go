// Package querycache is an in-process keyed cache for query results. Entries
// are mutated either by direct patch (optimistic update) or by invalidation,
// which marks them stale and eligible for background refetch. All mutation is
// replace-if-present under one lock, so concurrent writers never corrupt an
// entry, only lose to a later write (last-write-wins per key).
package querycache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	stale     bool
	updatedAt time.Time
}

// Snapshot captures one key's state before an optimistic mutation so a failed
// server write can restore it.
type Snapshot struct {
	key     string
	value   any
	stale   bool
	present bool
}

// Key returns the cache key the snapshot was taken from.
func (s Snapshot) Key() string { return s.key }

// InvalidateHook observes invalidations, typically to schedule a refetch.
type InvalidateHook func(key string)

// Cache is the shared mutable store behind the query layer.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	hooks   []InvalidateHook
}

func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// OnInvalidate registers a hook called (outside the lock) for every key an
// Invalidate touches.
func (c *Cache) OnInvalidate(h InvalidateHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, h)
}

// Get returns the cached value for key and whether it is present.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// IsStale reports whether key is present but marked for refetch.
func (c *Cache) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.stale
}

// UpdatedAt returns when key was last written.
func (c *Cache) UpdatedAt(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.updatedAt, ok
}

// Set stores value under key and clears any stale mark.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, updatedAt: time.Now()}
}

// Patch applies fn to the current value of key and stores the result.
// No-op when the key is absent; a patch never materializes an entry that a
// fetch has not populated first.
func (c *Cache) Patch(key string, fn func(cur any) any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.entries[key] = entry{value: fn(e.value), updatedAt: time.Now()}
	return true
}

// Invalidate marks the given keys stale and notifies hooks. Absent keys are
// recorded as stale placeholders so a later Get-miss still triggers a fetch
// through the normal path.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	hooks := make([]InvalidateHook, len(c.hooks))
	copy(hooks, c.hooks)
	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.stale = true
			c.entries[key] = e
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		for _, h := range hooks {
			h(key)
		}
	}
}

// Delete removes key outright.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// BeginOptimistic snapshots key ahead of an optimistic mutation. The caller
// patches the entry, issues the server write, then either Commit or
// Rollback(snapshot) depending on the outcome.
func (c *Cache) BeginOptimistic(key string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return Snapshot{key: key, value: e.value, stale: e.stale, present: ok}
}

// Commit finalizes an optimistic mutation. The patched value is already in
// place; committing only discards the snapshot's claim on the key.
func (c *Cache) Commit(key string) {}

// Rollback restores the state captured by BeginOptimistic, undoing whatever
// the optimistic patch wrote.
func (c *Cache) Rollback(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !s.present {
		delete(c.entries, s.key)
		return
	}
	c.entries[s.key] = entry{value: s.value, stale: s.stale, updatedAt: time.Now()}
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
