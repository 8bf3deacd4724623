// Package memcache implements a simple in-memory cache with expiring items.
package memcache

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	cleanUpTimeOutDefault = time.Minute * 10
)

// Cache is an in-memory cache. It is safe for concurrent use.
//
// The cache can optionally be limited to a maximum number of items.
// When the limit is reached, expired items are removed first
// and then the item closest to expiry is evicted.
type Cache struct {
	closeC   chan struct{}
	count    atomic.Int64
	items    sync.Map
	maxItems int
	mu       sync.Mutex // serializes writes
}

type item struct {
	Value     any
	ExpiresAt time.Time
}

func (i item) isExpired() bool {
	return !i.ExpiresAt.IsZero() && time.Until(i.ExpiresAt) < 0
}

// New creates a new cache with default timeout and returns it.
//
// Users can close the cache to free allocated resources when the cache is no longer needed.
func New() *Cache {
	return create(cleanUpTimeOutDefault, 0)
}

// NewWithTimeout creates a new cache with a specific timeout for the regular clean-up and returns it.
//
// A timeout of 0 disables the automatic clean-up and users then need to start clean-up manually.
//
// When automatic clean-up is enabled users can close the cache
// to free allocated resources when the cache is no longer needed.
func NewWithTimeout(cleanUpTimeout time.Duration) *Cache {
	return create(cleanUpTimeout, 0)
}

// NewWithLimit creates a new cache which holds at most maxItems items.
// A maxItems of 0 means unlimited.
func NewWithLimit(cleanUpTimeout time.Duration, maxItems int) *Cache {
	return create(cleanUpTimeout, maxItems)
}

func create(cleanUpTimeout time.Duration, maxItems int) *Cache {
	c := &Cache{
		closeC:   make(chan struct{}),
		maxItems: max(0, maxItems),
	}
	if cleanUpTimeout > 0 {
		go func() {
			ticker := time.NewTicker(cleanUpTimeout)
			defer ticker.Stop()
			for {
				select {
				case <-c.closeC:
					slog.Debug("cache closed")
					return
				case <-ticker.C:
				}
				c.CleanUp()
			}
		}()
	}
	return c
}

// CleanUp removes all expired items.
func (c *Cache) CleanUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.removeExpired()
	slog.Debug("cache clean-up: completed", "removed", n)
}

func (c *Cache) removeExpired() int {
	var n int
	c.items.Range(func(key, value any) bool {
		if value.(item).isExpired() {
			c.delete(key.(string))
			n++
		}
		return true
	})
	return n
}

// Clear removes all items.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Range(func(key, value any) bool {
		c.delete(key.(string))
		return true
	})
}

// Close closes the cache and frees allocated resources.
func (c *Cache) Close() {
	close(c.closeC)
}

// Delete deletes an item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delete(key)
}

func (c *Cache) delete(key string) {
	if _, loaded := c.items.LoadAndDelete(key); loaded {
		c.count.Add(-1)
	}
}

// Exists reports whether an item exists. Expired items do not exist.
func (c *Cache) Exists(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Get returns an item that exists and is not expired.
// It also reports whether the item was found.
func (c *Cache) Get(key string) (any, bool) {
	value, ok := c.items.Load(key)
	if !ok {
		return nil, false
	}
	i := value.(item)
	if i.isExpired() {
		return nil, false
	}
	return i.Value, true
}

// Len returns the number of items in the cache, including expired items not yet cleaned up.
func (c *Cache) Len() int {
	return int(c.count.Load())
}

// Set stores an item in the cache.
//
// If an item with the same key already exists it will be overwritten.
// An item with timeout = 0 never expires
func (c *Cache) Set(key string, value any, timeout time.Duration) {
	var at time.Time
	if timeout > 0 {
		at = time.Now().Add(timeout)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.items.Load(key); !found && c.maxItems > 0 && c.Len() >= c.maxItems {
		if c.removeExpired() == 0 {
			c.evictOne()
		}
	}
	if _, loaded := c.items.Swap(key, item{Value: value, ExpiresAt: at}); !loaded {
		c.count.Add(1)
	}
}

// evictOne removes the item closest to expiry. Items which never expire are evicted last.
func (c *Cache) evictOne() {
	var victim string
	var victimAt time.Time
	var found bool
	c.items.Range(func(key, value any) bool {
		at := value.(item).ExpiresAt
		switch {
		case !found:
			found = true
		case at.IsZero():
			return true
		case victimAt.IsZero() || at.Before(victimAt):
		default:
			return true
		}
		victim = key.(string)
		victimAt = at
		return true
	})
	if found {
		c.delete(victim)
	}
}
