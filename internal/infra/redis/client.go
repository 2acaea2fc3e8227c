package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// confirmedTTL bounds how long an intent stays in the idempotency cache.
const confirmedTTL = 24 * time.Hour

// Client wraps Redis operations for payment idempotency and retry locks.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks if Redis is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Key helpers
func confirmedKey(intentID string) string {
	return fmt.Sprintf("confirmed_intents:%s", intentID)
}

func retryLockKey(retryID string) string {
	return fmt.Sprintf("retry_lock:%s", retryID)
}

// MarkConfirmed records that an intent confirmed successfully, so a
// duplicate confirm can short-circuit instead of charging twice.
func (c *Client) MarkConfirmed(ctx context.Context, intentID string) error {
	key := confirmedKey(intentID)
	if err := c.rdb.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), confirmedTTL).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// IsConfirmed reports whether an intent already confirmed.
func (c *Client) IsConfirmed(ctx context.Context, intentID string) (bool, error) {
	key := confirmedKey(intentID)
	_, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get failed: %w", err)
	}
	return true, nil
}

// AcquireRetryLock attempts to acquire the cross-instance lock for a retry ID.
func (c *Client) AcquireRetryLock(ctx context.Context, retryID string, ttl time.Duration) (bool, error) {
	key := retryLockKey(retryID)
	ok, err := c.rdb.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseRetryLock releases the lock for a retry ID.
func (c *Client) ReleaseRetryLock(ctx context.Context, retryID string) error {
	key := retryLockKey(retryID)
	return c.rdb.Del(ctx, key).Err()
}
