package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/config"
)

const defaultAnalyticsKeyPrefix = "storesync:analytics:"

// RedisAnalyticsCache implements AnalyticsCache using one Redis hash per
// client, so invalidation is a single DEL.
type RedisAnalyticsCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisAnalyticsCache creates a cache on an existing Redis client
func NewRedisAnalyticsCache(client *redis.Client, keyPrefix string) *RedisAnalyticsCache {
	if keyPrefix == "" {
		keyPrefix = defaultAnalyticsKeyPrefix
	}
	return &RedisAnalyticsCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisAnalyticsCache) key(clientID uuid.UUID) string {
	return c.keyPrefix + clientID.String()
}

// Get reads one view from the client's hash
func (c *RedisAnalyticsCache) Get(ctx context.Context, clientID uuid.UUID, view string) ([]byte, bool, error) {
	payload, err := c.client.HGet(ctx, c.key(clientID), view).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read analytics cache: %w", err)
	}
	return payload, true, nil
}

// Set writes one view and refreshes the hash TTL. Views of one client share
// an expiry.
func (c *RedisAnalyticsCache) Set(ctx context.Context, clientID uuid.UUID, view string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := c.key(clientID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, view, payload)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write analytics cache: %w", err)
	}
	return nil
}

// Invalidate deletes the client's hash
func (c *RedisAnalyticsCache) Invalidate(ctx context.Context, clientID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(clientID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate analytics cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisAnalyticsCache) Close() error {
	return c.client.Close()
}

var _ integration.AnalyticsCache = (*RedisAnalyticsCache)(nil)
