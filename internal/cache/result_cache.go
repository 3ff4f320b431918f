package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tokosmart/restock-backend/internal/config"
	"github.com/tokosmart/restock-backend/internal/domain"
)

// ResultCache stores recommendation sets keyed by dataset digest, so an
// identical re-upload returns without re-running the pipeline.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.RecommendationSet, bool, error)
	Set(ctx context.Context, key string, set *domain.RecommendationSet) error
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache builds a redis-backed cache, or nil when caching is
// disabled so callers can fall back to the service's noop.
func NewResultCache(cfg config.CacheConfig) (ResultCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisResultCache{client: client, ttl: ttl}, nil
}

func (c *redisResultCache) Get(ctx context.Context, key string) (*domain.RecommendationSet, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var set domain.RecommendationSet
	if err := json.Unmarshal(payload, &set); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}

	return &set, true, nil
}

func (c *redisResultCache) Set(ctx context.Context, key string, set *domain.RecommendationSet) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode cached result: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}
