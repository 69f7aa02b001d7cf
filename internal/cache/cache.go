package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
type Client struct {
	client *redis.Client
}

// New creates a new Redis client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts)}
}

// NewFromRedis wraps an existing redis client.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{client: rdb}
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		// fail safe: behave like cache miss
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		// fail safe: ignore redis errors
		return nil
	}
	return nil
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return nil
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Counter returns a view of c for counters whose callers must see redis
// failures, such as the rate limiter deciding whether to fail open.
func (c *Client) Counter() *Counter {
	if c == nil {
		return &Counter{}
	}
	return &Counter{client: c.client}
}

// Counter reads and bumps integer keys and reports every redis error.
type Counter struct {
	client *redis.Client
}

// Get returns the stored value, or nil when the key is missing.
func (c *Counter) Get(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, redis.ErrClosed
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return res, err
}

// Set stores value with TTL.
func (c *Counter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.client == nil {
		return redis.ErrClosed
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Incr increments key, creating it at 1 without a TTL when missing.
func (c *Counter) Incr(ctx context.Context, key string) (int64, error) {
	if c.client == nil {
		return 0, redis.ErrClosed
	}
	return c.client.Incr(ctx, key).Result()
}
