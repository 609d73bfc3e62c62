package cache

import (
	"testing"
	"time"

	"licity-service/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestMemorySetGetDelete(t *testing.T) {
	c := NewMemory(time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []byte("v"), time.Minute)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestMemoryTTLExpiry(t *testing.T) {
	c := NewMemory(time.Minute)

	c.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestOpenFallsBackToMemory(t *testing.T) {
	c := Open(&config.CacheConfig{Backend: "bogus", TTL: time.Minute})
	_, isMem := c.(*Mem)
	assert.True(t, isMem)

	c = Open(&config.CacheConfig{Backend: "memory", TTL: time.Minute})
	_, isMem = c.(*Mem)
	assert.True(t, isMem)
}
