package memcache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/warpedintentions/srp/internal/memcache"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemcache(t *testing.T) {
	c := memcache.New()
	defer c.Close()
	t.Run("can set a key", func(t *testing.T) {
		// when
		c.Set("k1", "xxx", time.Second*100)
		// then
		assert.True(t, c.Exists("k1"))
	})
	t.Run("can get a key", func(t *testing.T) {
		// given
		c.Set("k2", "xxx", time.Second*100)
		// when
		o, ok := c.Get("k2")
		// then
		if assert.True(t, ok) {
			assert.Equal(t, "xxx", o.(string))
		}
	})
	t.Run("can check if a key exists", func(t *testing.T) {
		// given
		c.Set("k6", "xxx", time.Second*100)
		// when/then
		assert.True(t, c.Exists("k6"))
		assert.False(t, c.Exists("other"))
	})
	t.Run("can set key that never expires", func(t *testing.T) {
		// given
		c.Set("k7", "xxx", 0)
		// when/then
		assert.True(t, c.Exists("k7"))
	})
	t.Run("should report when key is expired", func(t *testing.T) {
		// given
		c.Set("k3", "xxx", time.Millisecond*10)
		// when
		time.Sleep(time.Millisecond * 50)
		_, ok := c.Get("k3")
		// then
		assert.False(t, ok)
	})
	t.Run("can delete a key", func(t *testing.T) {
		// given
		c.Set("k4", "xxx", time.Second*100)
		// when
		c.Delete("k4")
		// then
		assert.False(t, c.Exists("k4"))
	})
	t.Run("can clear all keys", func(t *testing.T) {
		// given
		c.Set("k5", "xxx", time.Second*100)
		// when
		c.Clear()
		// then
		assert.False(t, c.Exists("k5"))
		assert.Equal(t, 0, c.Len())
	})
}

func TestMemcacheLimit(t *testing.T) {
	t.Run("should evict the item closest to expiry when full", func(t *testing.T) {
		// given
		c := memcache.NewWithLimit(0, 2)
		c.Set("a", 1, time.Hour)
		c.Set("b", 2, time.Minute)
		// when
		c.Set("c", 3, time.Hour)
		// then
		assert.Equal(t, 2, c.Len())
		assert.True(t, c.Exists("a"))
		assert.False(t, c.Exists("b"))
		assert.True(t, c.Exists("c"))
	})
	t.Run("should remove expired items before evicting", func(t *testing.T) {
		// given
		c := memcache.NewWithLimit(0, 2)
		c.Set("a", 1, time.Millisecond*10)
		c.Set("b", 2, time.Minute)
		time.Sleep(time.Millisecond * 50)
		// when
		c.Set("c", 3, time.Hour)
		// then
		assert.Equal(t, 2, c.Len())
		assert.True(t, c.Exists("b"))
		assert.True(t, c.Exists("c"))
	})
	t.Run("should evict items which never expire last", func(t *testing.T) {
		// given
		c := memcache.NewWithLimit(0, 2)
		c.Set("a", 1, 0)
		c.Set("b", 2, time.Hour)
		// when
		c.Set("c", 3, 0)
		// then
		assert.True(t, c.Exists("a"))
		assert.False(t, c.Exists("b"))
		assert.True(t, c.Exists("c"))
	})
	t.Run("should not evict when overwriting existing key", func(t *testing.T) {
		// given
		c := memcache.NewWithLimit(0, 2)
		c.Set("a", 1, time.Minute)
		c.Set("b", 2, time.Hour)
		// when
		c.Set("a", 3, time.Minute)
		// then
		assert.Equal(t, 2, c.Len())
		v, _ := c.Get("a")
		assert.Equal(t, 3, v)
		assert.True(t, c.Exists("b"))
	})
	t.Run("should never exceed limit with concurrent writers", func(t *testing.T) {
		// given
		c := memcache.NewWithLimit(0, 10)
		var wg sync.WaitGroup
		// when
		for i := range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Set(fmt.Sprint(i), i, time.Hour)
			}()
		}
		wg.Wait()
		// then
		assert.Equal(t, 10, c.Len())
	})
}
