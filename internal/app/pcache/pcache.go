// Package pcache implements a persistent cache.
//
// Entries are stored in the local database and mirrored in memory for faster access.
package pcache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/storage"
	"github.com/warpedintentions/srp/internal/memcache"
)

const memoryTimeout = 5 * time.Minute

// PCache is a persistent cache. It can automatically remove expired items.
type PCache struct {
	closeC chan struct{}
	mc     *memcache.Cache
	st     *storage.Storage
}

// New returns a new PCache.
//
// cleanUpTimeout is the timeout between automatic clean-up intervals. When set to 0 no cleanUp will be done.
// Make sure to close this object again to free all it's resources.
func New(st *storage.Storage, cleanUpTimeout time.Duration) *PCache {
	c := &PCache{
		closeC: make(chan struct{}),
		mc:     memcache.NewWithTimeout(cleanUpTimeout),
		st:     st,
	}
	if cleanUpTimeout > 0 {
		go func() {
			ticker := time.NewTicker(cleanUpTimeout)
			defer ticker.Stop()
			for {
				select {
				case <-c.closeC:
					slog.Debug("persistent cache closed")
					return
				case <-ticker.C:
					c.CleanUp()
				}
			}
		}()
	}
	return c
}

// CleanUp removes expired entries.
func (c *PCache) CleanUp() {
	if err := c.st.CacheCleanUp(context.Background()); err != nil {
		slog.Error("cache failure", "error", err)
	}
}

// Clear removes all entries.
func (c *PCache) Clear() {
	c.mc.Clear()
	if err := c.st.CacheClear(context.Background()); err != nil {
		slog.Error("cache failure", "error", err)
	}
}

// Close closes the cache and frees allocated resources.
func (c *PCache) Close() {
	close(c.closeC)
	c.mc.Close()
}

func (c *PCache) Delete(key string) {
	c.mc.Delete(key)
	if err := c.st.CacheDelete(context.Background(), key); err != nil {
		slog.Error("cache failure", "error", err)
	}
}

func (c *PCache) Exists(key string) bool {
	_, found := c.Get(key)
	return found
}

func (c *PCache) Get(key string) ([]byte, bool) {
	if v, found := c.mc.Get(key); found {
		return v.([]byte), true
	}
	v, err := c.st.CacheGet(context.Background(), key)
	if errors.Is(err, app.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		slog.Error("cache failure", "error", err)
		return nil, false
	}
	return v, true
}

// Set stores a value. Entries with timeout = 0 never expire.
func (c *PCache) Set(key string, value []byte, timeout time.Duration) {
	var expiresAt time.Time
	if timeout > 0 {
		expiresAt = time.Now().Add(timeout)
	}
	arg := storage.CacheSetParams{
		Key:       key,
		Value:     value,
		ExpiresAt: expiresAt,
	}
	if err := c.st.CacheSet(context.Background(), arg); err != nil {
		slog.Error("cache failure", "error", err)
		return
	}
	mt := memoryTimeout
	if timeout > 0 {
		mt = min(timeout, memoryTimeout)
	}
	c.mc.Set(key, value, mt)
}
