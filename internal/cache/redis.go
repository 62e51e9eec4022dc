package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pkm/internal/pkm"
)

// ConnectOptions configures the Redis client and the connect retry loop.
// Zero durations fall back to the defaults below.
type ConnectOptions struct {
	Addr     string
	User     string
	Password string
	DB       int

	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ConnectTimeout time.Duration // total time allowed for connection attempts
	RetryInterval  time.Duration // first wait between pings, doubled up to MaxWait
	MaxWait        time.Duration
	PingTimeout    time.Duration
}

func (o ConnectOptions) withDefaults() ConnectOptions {
	def := func(d *time.Duration, v time.Duration) {
		if *d <= 0 {
			*d = v
		}
	}
	def(&o.DialTimeout, 2*time.Second)
	def(&o.ReadTimeout, time.Second)
	def(&o.WriteTimeout, time.Second)
	def(&o.ConnectTimeout, 10*time.Second)
	def(&o.RetryInterval, 500*time.Millisecond)
	def(&o.MaxWait, 4*time.Second)
	def(&o.PingTimeout, 2*time.Second)
	return o
}

// RedisCache stores entries as plain Redis strings with an expiry.
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to Redis, pinging with exponential backoff until
// ConnectTimeout runs out.
func NewRedisCache(ctx context.Context, opts ConnectOptions, logger pkm.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = pkm.NewNopLogger()
	}
	opts = opts.withDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
	if err := connectWithRetry(ctx, client, opts, logger); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client without pinging it.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func connectWithRetry(ctx context.Context, client *redis.Client, opts ConnectOptions, logger pkm.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	logger.Info("connecting to redis", "addr", opts.Addr, "timeout", opts.ConnectTimeout)
	start := time.Now()
	wait := opts.RetryInterval

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			if attempt > 1 {
				logger.Warn("connected to redis after retry", "addr", opts.Addr, "attempts", attempt, "elapsed", time.Since(start))
			} else {
				logger.Info("connected to redis", "addr", opts.Addr)
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Error("redis unavailable", "addr", opts.Addr, "attempts", attempt, "error", err)
			return fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
			logger.Warn("redis connection failed, retrying", "addr", opts.Addr, "attempt", attempt, "next_retry_in", wait, "error", err)
			wait *= 2
			if wait > opts.MaxWait {
				wait = opts.MaxWait
			}
		}
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached value: %w", err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache value: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Flush removes every key under KeyPrefix.
func (c *RedisCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
