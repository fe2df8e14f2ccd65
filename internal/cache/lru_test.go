package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string](2, 0)
	c.Set("a", "1")
	c.Set("b", "2")

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", "3")

	_, ok = c.Get("b")
	assert.False(t, ok, "b should be evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", 42)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)

	c.Set("x", 1)
	c.Set("y", 2)
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_DisabledAndClear(t *testing.T) {
	off := NewLRUCache[int](0, time.Minute)
	off.Set("k", 1)
	assert.Equal(t, 0, off.Size())

	c := NewLRUCache[int](4, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	assert.Equal(t, 1, c.Size())
	c.Clear()
	assert.Equal(t, 0, c.Size())

	_, _ = c.Get("b")
	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestManager_CleanNow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](4, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(time.Hour)
	defer m.Stop()

	now = now.Add(time.Minute)
	assert.Equal(t, 1, m.CleanNow())
}
