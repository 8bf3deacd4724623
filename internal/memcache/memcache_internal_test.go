package memcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemcacheCleanUp(t *testing.T) {
	t.Run("can remove all expired keys", func(t *testing.T) {
		// given
		c := NewWithTimeout(0)
		c.Set("dummy-1", "xxx", time.Millisecond*20)
		c.Set("dummy-2", "xxx", time.Second*100)
		time.Sleep(time.Millisecond * 50)
		// when
		c.CleanUp()
		// then
		_, found := c.items.Load("dummy-1")
		assert.False(t, found)
		_, found = c.items.Load("dummy-2")
		assert.True(t, found)
		assert.Equal(t, 1, c.Len())
	})
	t.Run("should remove expired keys automatically", func(t *testing.T) {
		// given
		c := NewWithTimeout(50 * time.Millisecond)
		defer c.Close()
		c.Set("dummy", "xxx", time.Millisecond*10)
		// when
		time.Sleep(200 * time.Millisecond)
		// then
		_, found := c.items.Load("dummy")
		assert.False(t, found)
	})
}
