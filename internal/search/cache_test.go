package search

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tadabbur-search-api/internal/models"
)

func cachedResponse(total int) *models.MultiConceptSearchResponse {
	return &models.MultiConceptSearchResponse{OK: true, TotalMatches: total}
}

func TestResponseCache(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		c := newResponseCache(4, time.Minute)
		c.put("a", cachedResponse(3))

		got, ok := c.get("a")
		require.True(t, ok)
		assert.Equal(t, 3, got.TotalMatches)

		_, ok = c.get("missing")
		assert.False(t, ok)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		c := newResponseCache(4, 10*time.Millisecond)
		c.put("a", cachedResponse(1))

		_, ok := c.get("a")
		require.True(t, ok)

		time.Sleep(20 * time.Millisecond)
		_, ok = c.get("a")
		assert.False(t, ok)
	})

	t.Run("lru eviction", func(t *testing.T) {
		c := newResponseCache(2, time.Minute)
		c.put("a", cachedResponse(1))
		c.put("b", cachedResponse(2))

		// Touch "a" so "b" becomes the eviction candidate.
		_, ok := c.get("a")
		require.True(t, ok)

		c.put("c", cachedResponse(3))

		_, ok = c.get("a")
		assert.True(t, ok)
		_, ok = c.get("b")
		assert.False(t, ok)
		_, ok = c.get("c")
		assert.True(t, ok)
	})

	t.Run("overwrite refreshes entry", func(t *testing.T) {
		c := newResponseCache(2, time.Minute)
		c.put("a", cachedResponse(1))
		c.put("a", cachedResponse(9))

		got, ok := c.get("a")
		require.True(t, ok)
		assert.Equal(t, 9, got.TotalMatches)
	})

	t.Run("disabled cache is nil-safe", func(t *testing.T) {
		c := newResponseCache(0, time.Minute)
		require.Nil(t, c)
		c.put("a", cachedResponse(1))
		_, ok := c.get("a")
		assert.False(t, ok)
	})

	t.Run("concurrent access", func(t *testing.T) {
		c := newResponseCache(8, time.Minute)
		done := make(chan struct{})
		for i := 0; i < 4; i++ {
			go func(i int) {
				defer func() { done <- struct{}{} }()
				for j := 0; j < 100; j++ {
					key := fmt.Sprintf("k%d", j%10)
					c.put(key, cachedResponse(i))
					c.get(key)
				}
			}(i)
		}
		for i := 0; i < 4; i++ {
			<-done
		}
	})
}
