package nonce

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// keyPrefix is the Redis key prefix for issued nonces
	keyPrefix = "auth:nonce"
)

// RedisStore implements Store using Redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// Compile-time interface compliance check
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-based nonce store with the default TTL
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return NewRedisStoreWithTTL(client, DefaultTTL, logger)
}

// NewRedisStoreWithTTL creates a Redis-based nonce store with a custom TTL
func NewRedisStoreWithTTL(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func buildKey(nonce string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, nonce)
}

// Issue records the nonce as redeemable for the store's TTL
func (s *RedisStore) Issue(ctx context.Context, nonce string) error {
	key := buildKey(nonce)

	if err := s.client.Set(ctx, key, "issued", s.ttl).Err(); err != nil {
		s.logger.Error("failed to issue nonce",
			zap.String("nonce", nonce),
			zap.Error(err),
		)
		return fmt.Errorf("failed to issue nonce: %w", err)
	}

	s.logger.Debug("nonce issued", zap.String("nonce", nonce))
	return nil
}

// Consume redeems the nonce exactly once using GETDEL
func (s *RedisStore) Consume(ctx context.Context, nonce string) error {
	key := buildKey(nonce)

	_, err := s.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		s.logger.Warn("nonce unknown or already used", zap.String("nonce", nonce))
		return ErrNonceUnknown
	}
	if err != nil {
		s.logger.Error("failed to consume nonce",
			zap.String("nonce", nonce),
			zap.Error(err),
		)
		return fmt.Errorf("failed to consume nonce: %w", err)
	}

	s.logger.Debug("nonce consumed", zap.String("nonce", nonce))
	return nil
}
