package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_evictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Put("c", []float32{3})

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []float32{1}, v)
	assert.Equal(t, CacheStats{Hits: 2, Misses: 1, Entries: 2}, c.Stats())
}

func TestCache_putReplaces(t *testing.T) {
	c := NewCache(1)
	c.Put("a", []float32{1})
	c.Put("a", []float32{2, 2})
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{2, 2}, v)
	assert.Equal(t, 1, c.Stats().Entries)
}

func TestCache_copiesVectors(t *testing.T) {
	c := NewCache(1)
	in := []float32{1, 2}
	c.Put("a", in)
	in[0] = 9

	out, _ := c.Get("a")
	assert.Equal(t, []float32{1, 2}, out)
	out[1] = 9
	again, _ := c.Get("a")
	assert.Equal(t, []float32{1, 2}, again)
}

func TestCache_disabled(t *testing.T) {
	c := NewCache(0)
	c.Put("a", []float32{1})
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, CacheStats{Misses: 1}, c.Stats())
}
