// Package cache remembers booking keys already stored so repeated syncs skip their folio pages.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"otasync/internal/booking"
	"otasync/internal/config"
	"otasync/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	otelScopeName         = "cache"
	otelCacheKeyAttribute = "cache.key"
	keyPrefix             = "otasync:seen:"
)

type SeenCache interface {
	Seen(ctx context.Context, key booking.Key) (bool, error)
	Mark(ctx context.Context, key booking.Key) error
}

// Key is the redis key of a booking key.
func Key(k booking.Key) string {
	return keyPrefix + k.PropertyID + ":" + k.ID()
}

// Connect opens the configured redis. It returns nil, nil when no host is set.
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	r := cfg.Cache.Redis
	if r.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(r.Host, r.Port),
		Password: r.Password,
		DB:       r.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().
		Int("db", r.DB).
		Str("host", r.Host).
		Str("port", r.Port).
		Msg("Connected to Redis")

	return client, nil
}

type redisCache struct {
	client *redis.Client
	otel   telemetry.Otel
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, otl telemetry.Otel, ttlSeconds int) SeenCache {
	return &redisCache{
		client: client,
		otel:   otl,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

// Seen implements SeenCache.
func (c *redisCache) Seen(ctx context.Context, key booking.Key) (_ bool, err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".Seen")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	k := Key(key)
	scope.SetAttribute(otelCacheKeyAttribute, k)

	err = c.client.Get(ctx, k).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("key", k).Str("RedisCache", "Seen").Msg("failed to get cache")

		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	return true, nil
}

// Mark implements SeenCache.
func (c *redisCache) Mark(ctx context.Context, key booking.Key) (err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".Mark")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	k := Key(key)
	scope.SetAttribute(otelCacheKeyAttribute, k)

	if err = c.client.Set(ctx, k, key.ExternalBookingID, c.ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", k).Str("RedisCache", "Mark").Msg("failed to set cache")

		return fmt.Errorf("failed to set cache value: %w", err)
	}

	return nil
}

// Memory is an in-process SeenCache.
type Memory struct {
	mu   sync.Mutex
	keys map[string]bool
}

func NewMemory() *Memory {
	return &Memory{keys: map[string]bool{}}
}

func (m *Memory) Seen(_ context.Context, key booking.Key) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[Key(key)], nil
}

func (m *Memory) Mark(_ context.Context, key booking.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[Key(key)] = true
	return nil
}
