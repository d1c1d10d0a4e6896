package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL_GetPut(t *testing.T) {
	c := New[string, int](time.Minute, 10, clockwork.NewFakeClock())

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTTL_Expiry(t *testing.T) {
	clk := clockwork.NewFakeClock()
	c := New[string, string](time.Hour, 10, clk)

	c.Put("kl", "forecast")
	clk.Advance(59 * time.Minute)
	_, ok := c.Get("kl")
	assert.True(t, ok, "entry should survive until ttl")

	clk.Advance(time.Minute)
	_, ok = c.Get("kl")
	assert.False(t, ok, "entry should expire at ttl")
	assert.Equal(t, 0, c.Len())
}

func TestTTL_PutRefreshesExpiry(t *testing.T) {
	clk := clockwork.NewFakeClock()
	c := New[string, int](time.Hour, 10, clk)

	c.Put("k", 1)
	clk.Advance(50 * time.Minute)
	c.Put("k", 2)
	clk.Advance(50 * time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTL_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](time.Hour, 2, clockwork.NewFakeClock())

	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a") // a is now most recent
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestTTL_Unbounded(t *testing.T) {
	c := New[int, int](time.Hour, 0, nil)
	for i := 0; i < 100; i++ {
		c.Put(i, i)
	}
	assert.Equal(t, 100, c.Len())
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	c := New[int, int](time.Hour, 50, clockwork.NewFakeClock())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Put(base*1000+j, j)
				c.Get(base*1000 + j)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
}
