package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Set("c", "3")
	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheStats(t *testing.T) {
	c := NewLRUCache[int](1, time.Minute)
	c.Set("a", 1)
	c.Get("a")
	c.Get("missing")
	c.Set("b", 2)

	assert.Equal(t, Stats{Hits: 1, Misses: 1, Evictions: 1, Size: 1}, c.Stats())
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 20*time.Millisecond)
	c.Set("k", 1)
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLRUCacheSetUntilCapsTTL(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.SetUntil("past", 1, time.Now().Add(-time.Second))
	c.SetUntil("future", 2, time.Now().Add(time.Minute))

	_, ok := c.Get("past")
	assert.False(t, ok)
	v, ok := c.Get("future")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.SetUntil("old", 1, time.Now().Add(-time.Second))
	c.Set("fresh", 2)

	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())

	c.Delete("fresh")
	assert.Zero(t, c.Size())
}

func TestManagerSweepsRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](4, time.Minute)
	c.SetUntil("old", 1, time.Now().Add(-time.Second))
	c.Set("new", 2)

	m := NewManager()
	m.Register("sessions", c)

	assert.Equal(t, map[string]int{"sessions": 1}, m.Sweep())
	assert.Equal(t, 1, c.Size())
}

func TestManagerStop(t *testing.T) {
	m := NewManager()
	m.Register("ints", NewLRUCache[int](1, time.Minute))
	m.StartCleanup(context.Background(), 5*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	NewManager().Stop()
}
