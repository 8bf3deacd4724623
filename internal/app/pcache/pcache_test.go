package pcache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warpedintentions/srp/internal/app/pcache"
	"github.com/warpedintentions/srp/internal/app/storage/testutil"
)

func TestPCache(t *testing.T) {
	db, st, _ := testutil.NewDBInMemory()
	defer db.Close()
	t.Run("can set and get a cache entry", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		c := pcache.New(st, 0)
		defer c.Close()
		value := []byte("value")
		// when
		c.Set("key", value, time.Minute)
		// then
		got, found := c.Get("key")
		if assert.True(t, found) {
			assert.Equal(t, value, got)
		}
	})
	t.Run("should create immortal cache entry", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		c := pcache.New(st, 0)
		defer c.Close()
		value := []byte("value")
		// when
		c.Set("key", value, 0)
		// then
		got, found := c.Get("key")
		if assert.True(t, found) {
			assert.Equal(t, value, got)
		}
	})
	t.Run("can read entries from the database", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		c1 := pcache.New(st, 0)
		c1.Set("key", []byte("value"), 0)
		c1.Close()
		c2 := pcache.New(st, 0)
		defer c2.Close()
		// when
		got, found := c2.Get("key")
		// then
		if assert.True(t, found) {
			assert.Equal(t, []byte("value"), got)
		}
	})
	t.Run("can check key existence", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		c := pcache.New(st, 0)
		defer c.Close()
		c.Set("key", []byte("dummy"), 0)
		// when/then
		assert.True(t, c.Exists("key"))
		assert.False(t, c.Exists("other"))
	})
	t.Run("can delete entry", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		c := pcache.New(st, 0)
		defer c.Close()
		c.Set("key", []byte("dummy"), 0)
		// when
		c.Delete("key")
		// then
		assert.False(t, c.Exists("key"))
	})
	t.Run("can clear all entries", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		c := pcache.New(st, 0)
		defer c.Close()
		c.Set("key", []byte("dummy"), 0)
		// when
		c.Clear()
		// then
		assert.False(t, c.Exists("key"))
	})
	t.Run("should not return expired entries", func(t *testing.T) {
		// given
		testutil.MustTruncateTables(db)
		c := pcache.New(st, 0)
		defer c.Close()
		c.Set("key", []byte("dummy"), 20*time.Millisecond)
		// when
		time.Sleep(100 * time.Millisecond)
		// then
		assert.False(t, c.Exists("key"))
	})
}
