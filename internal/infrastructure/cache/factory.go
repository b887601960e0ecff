package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/config"
)

// AnalyticsCacheFactory creates the analytics cache based on configuration
type AnalyticsCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*AnalyticsCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *AnalyticsCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *AnalyticsCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewAnalyticsCacheFactory creates a new factory
func NewAnalyticsCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *AnalyticsCacheFactory {
	f := &AnalyticsCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a Redis cache, an in-memory cache when Redis is unreachable
// and fallback is allowed, or a no-op cache when caching is disabled
func (f *AnalyticsCacheFactory) Create() (integration.AnalyticsCache, error) {
	if !f.cacheConfig.Enabled {
		f.logger.Info("analytics cache disabled")
		return NoopAnalyticsCache{}, nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis analytics cache", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisAnalyticsCache(client, ""), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for analytics cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory analytics cache", zap.Error(err))
	return NewInMemoryAnalyticsCache(), nil
}

// NoopAnalyticsCache never stores anything
type NoopAnalyticsCache struct{}

// Get always misses
func (NoopAnalyticsCache) Get(context.Context, uuid.UUID, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the payload
func (NoopAnalyticsCache) Set(context.Context, uuid.UUID, string, []byte, time.Duration) error {
	return nil
}

// Invalidate does nothing
func (NoopAnalyticsCache) Invalidate(context.Context, uuid.UUID) error {
	return nil
}

var _ integration.AnalyticsCache = NoopAnalyticsCache{}
