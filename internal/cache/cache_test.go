package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetAndExpiry(t *testing.T) {
	c := New(true, time.Hour)
	clock := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	etag := c.Set("g1", []byte("jpeg"))
	data, got, ok := c.Get("g1")
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg"), data)
	assert.Equal(t, etag, got)

	thumb, ok := c.Thumbnail("g1")
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg"), thumb)

	clock = clock.Add(2 * time.Hour)
	_, ok = c.Thumbnail("g1")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Stats()["expired_keys"])
	assert.Equal(t, 1, c.evict())
	assert.Equal(t, 0, c.Stats()["total_keys"])
}

func TestDisabledCacheStoresNothing(t *testing.T) {
	c := New(false, time.Hour)
	etag := c.Set("g1", []byte("jpeg"))
	assert.Equal(t, ComputeETag([]byte("jpeg")), etag)
	_, ok := c.Thumbnail("g1")
	assert.False(t, ok)
}

func TestETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("x"))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.False(t, CheckETagMatch("", etag))
	assert.False(t, CheckETagMatch(`W/"other"`, etag))
}
