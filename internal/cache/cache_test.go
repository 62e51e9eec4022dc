package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkm/internal/config"
	"pkm/internal/testutil"
)

func TestKey(t *testing.T) {
	a := Key("gen", "ab", "c")
	b := Key("gen", "a", "bc")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key("gen", "ab", "c"))
	assert.True(t, strings.HasPrefix(a, KeyPrefix+"gen:"), a)
	assert.Len(t, strings.TrimPrefix(a, KeyPrefix+"gen:"), 16)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	c := NewMemoryCache(clock)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("x"), 0))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	got[0] = 'z'
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "v", string(again), "callers get a copy")

	clock.Advance(time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires at its ttl")
	assert.Equal(t, 1, c.Len())

	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "forever"))
	assert.Zero(t, c.Len())
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	c, err := NewFromConfig(ctx, config.CacheConfig{Type: "none"}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewFromConfig(ctx, config.CacheConfig{Type: "memory"}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = NewFromConfig(ctx, config.CacheConfig{Type: "redis"}, nil, nil)
	assert.ErrorContains(t, err, "redis_addr")

	_, err = NewFromConfig(ctx, config.CacheConfig{Type: "memcached"}, nil, nil)
	assert.ErrorContains(t, err, "unknown cache type")
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	_, err := NewRedisCache(context.Background(), ConnectOptions{
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  50 * time.Millisecond,
		MaxWait:        100 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
		DialTimeout:    100 * time.Millisecond,
	}, logger)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable at 127.0.0.1:1")
	assert.NotEmpty(t, logger.Entries("error"))
}

// Runs against a real server when PKM_TEST_REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("PKM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PKM_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	c, err := NewRedisCache(ctx, ConnectOptions{Addr: addr}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Flush(ctx)
		c.Close()
	})

	key := Key("test", t.Name())
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte("hello"), time.Minute))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(got))

	require.NoError(t, c.Delete(ctx, key))
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
