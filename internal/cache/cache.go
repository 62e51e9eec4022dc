// Package cache keeps generated text around between requests so repeated
// prompts do not hit the remote provider again.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"pkm/internal/config"
	"pkm/internal/pkm"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "pkm:cache:"

// Cache is a byte-valued TTL cache. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key hashes parts into a fixed-length key under KeyPrefix. Parts are
// length-prefixed so ("ab", "c") and ("a", "bc") never collide.
func Key(namespace string, parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return fmt.Sprintf("%s%s:%016x", KeyPrefix, namespace, xxhash.Sum64String(b.String()))
}

// NewFromConfig builds the cache selected by cfg.Type. Type "none" (or empty)
// returns a nil Cache and no error; callers treat that as caching disabled.
func NewFromConfig(ctx context.Context, cfg config.CacheConfig, logger pkm.Logger, clock pkm.Clock) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(clock), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache requires redis_addr")
		}
		return NewRedisCache(ctx, ConnectOptions{
			Addr:     cfg.RedisAddr,
			User:     cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown cache type: %q", cfg.Type)
	}
}
