package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feli0x/docfs/internal/types"
)

func entry(path string) types.FileEntry {
	return types.FileEntry{Path: path, Name: path, Size: 1}
}

func TestGetMissThenHit(t *testing.T) {
	c := New(10, time.Minute)

	_, ok := c.Get("/a")
	assert.False(t, ok)

	c.Set("/a", entry("/a"))
	got, ok := c.Get("/a")
	require.True(t, ok)
	assert.Equal(t, "/a", got.Path)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(3, time.Minute)
	c.Set("/a", entry("/a"))
	c.Set("/b", entry("/b"))
	c.Set("/c", entry("/c"))

	// Touch /a so /b becomes the LRU entry.
	_, ok := c.Get("/a")
	require.True(t, ok)

	c.Set("/d", entry("/d"))

	_, ok = c.Get("/b")
	assert.False(t, ok, "least recently used entry should be evicted")
	for _, p := range []string{"/a", "/c", "/d"} {
		_, ok := c.Get(p)
		assert.True(t, ok, "%s should survive eviction", p)
	}
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestNeverExceedsCapacity(t *testing.T) {
	c := New(5, time.Minute)
	for i := 0; i < 100; i++ {
		p := fmt.Sprintf("/p%d", i)
		c.Set(p, entry(p))
		assert.LessOrEqual(t, c.Len(), 5)
	}
	assert.Equal(t, 5, c.Len())
}

func TestSetExistingRefreshesWithoutEviction(t *testing.T) {
	c := New(2, time.Minute)
	c.Set("/a", entry("/a"))
	c.Set("/b", entry("/b"))

	// Re-setting an existing key must not count as growth.
	updated := entry("/a")
	updated.Size = 42
	c.Set("/a", updated)

	assert.Equal(t, 2, c.Len())
	got, ok := c.Get("/a")
	require.True(t, ok)
	assert.Equal(t, int64(42), got.Size)
	assert.Equal(t, int64(0), c.Stats().Evictions)
}

func TestTTLExpiry(t *testing.T) {
	current := time.Unix(1000, 0)
	c := New(10, 30*time.Second)
	c.now = func() time.Time { return current }

	c.Set("/a", entry("/a"))

	current = current.Add(29 * time.Second)
	_, ok := c.Get("/a")
	assert.True(t, ok, "entry inside TTL should be returned")

	current = current.Add(2 * time.Second)
	_, ok = c.Get("/a")
	assert.False(t, ok, "expired entry should be absent")
	assert.Equal(t, 0, c.Len(), "expired entry should be removed on access")
}

func TestSetRefreshesExpiry(t *testing.T) {
	current := time.Unix(1000, 0)
	c := New(10, 30*time.Second)
	c.now = func() time.Time { return current }

	c.Set("/a", entry("/a"))
	current = current.Add(20 * time.Second)
	c.Set("/a", entry("/a"))

	// 25s after the refresh, 45s after the first insert.
	current = current.Add(25 * time.Second)
	_, ok := c.Get("/a")
	assert.True(t, ok, "refresh should extend the expiry")
}

func TestExpiryOnlyEnforcedOnAccess(t *testing.T) {
	current := time.Unix(1000, 0)
	c := New(10, time.Second)
	c.now = func() time.Time { return current }

	c.Set("/a", entry("/a"))
	current = current.Add(time.Hour)

	// Nothing has touched the entry, so it still occupies a slot.
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("/a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestClear(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("/a", entry("/a"))
	c.Get("/a")
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, Stats{}, c.Stats())
}
