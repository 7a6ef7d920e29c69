package di

import (
	"context"
	"sync"
	"time"
)

// ListingCache holds short-lived query results such as the sorted event
// listing. Writes through the command bus clear it.
type ListingCache struct {
	mu      sync.RWMutex
	entries map[string]listingEntry
	now     func() time.Time

	sweepEvery time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
	done       chan struct{}
}

type listingEntry struct {
	value     interface{}
	expiresAt time.Time
}

// ListingCacheOption configures a ListingCache
type ListingCacheOption func(*ListingCache)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) ListingCacheOption {
	return func(c *ListingCache) { c.now = now }
}

// WithSweepInterval sets how often expired entries are dropped.
// Zero disables the background sweep.
func WithSweepInterval(d time.Duration) ListingCacheOption {
	return func(c *ListingCache) { c.sweepEvery = d }
}

// NewListingCache creates the cache and starts its sweeper
func NewListingCache(opts ...ListingCacheOption) *ListingCache {
	c := &ListingCache{
		entries:    make(map[string]listingEntry),
		now:        time.Now,
		sweepEvery: time.Minute,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sweepEvery > 0 {
		go c.sweepLoop()
	} else {
		close(c.done)
	}
	return c
}

// Get returns a live entry
func (c *ListingCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores value for ttl seconds. A non-positive ttl removes the key.
func (c *ListingCache) Set(_ context.Context, key string, value interface{}, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.entries, key)
		return nil
	}
	c.entries[key] = listingEntry{
		value:     value,
		expiresAt: c.now().Add(time.Duration(ttl) * time.Second),
	}
	return nil
}

// Delete drops a single key
func (c *ListingCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear drops every entry
func (c *ListingCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]listingEntry)
	c.mu.Unlock()
	return nil
}

// Len reports stored entries, expired ones included until the next sweep
func (c *ListingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were dropped
func (c *ListingCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// Stop ends the sweeper and waits for it to exit. Safe to call twice.
func (c *ListingCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *ListingCache) sweepLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}
