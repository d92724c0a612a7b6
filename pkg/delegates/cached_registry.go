package delegates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// cacheKeyPrefix namespaces delegate pages in Redis.
	cacheKeyPrefix = "delegates"
	// DefaultCacheTTL bounds how stale a cached delegate page may get.
	DefaultCacheTTL = 60 * time.Second
)

// CachedRegistry decorates another Registry with a Redis read-through cache.
// Registry lookups sit on the proposal hot path, and delegate sets change
// rarely compared to how often they are read.
type CachedRegistry struct {
	inner  Registry
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// Compile-time interface compliance check
var _ Registry = (*CachedRegistry)(nil)

// NewCachedRegistry wraps inner with a Redis cache using DefaultCacheTTL.
func NewCachedRegistry(inner Registry, client *redis.Client, logger *zap.Logger) *CachedRegistry {
	return NewCachedRegistryWithTTL(inner, client, DefaultCacheTTL, logger)
}

// NewCachedRegistryWithTTL wraps inner with a Redis cache using a custom TTL.
func NewCachedRegistryWithTTL(inner Registry, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRegistry {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRegistry{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(chainID int64, safe common.Address) string {
	return fmt.Sprintf("%s:%d:%s", cacheKeyPrefix, chainID, safe.Hex())
}

// GetDelegates serves from cache when possible and falls back to the inner
// registry. Cache failures are logged and degrade to a direct lookup; they
// never fail the verification call.
func (r *CachedRegistry) GetDelegates(ctx context.Context, chainID int64, safe common.Address) (Page, error) {
	key := cacheKey(chainID, safe)

	cached, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var page Page
		if err := json.Unmarshal(cached, &page); err == nil {
			return page, nil
		}
		r.logger.Warn("discarding undecodable delegate cache entry", zap.String("key", key))
	} else if err != redis.Nil {
		r.logger.Warn("delegate cache read failed", zap.String("key", key), zap.Error(err))
	}

	page, err := r.inner.GetDelegates(ctx, chainID, safe)
	if err != nil {
		return Page{}, err
	}

	if encoded, err := json.Marshal(page); err == nil {
		if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
			r.logger.Warn("delegate cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}
