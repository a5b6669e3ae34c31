package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-persona-engine/internal/domain/entity"
	"wallet-persona-engine/internal/domain/repository"
	"wallet-persona-engine/internal/infrastructure/config"
	"wallet-persona-engine/internal/infrastructure/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPersonaCache implements the PersonaCache interface using Redis,
// storing serialized persona results under a per-wallet key with a
// configurable TTL.
type RedisPersonaCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// Ensure RedisPersonaCache implements the PersonaCache interface
var _ repository.PersonaCache = (*RedisPersonaCache)(nil)

// NewRedisPersonaCache creates a new Redis-backed persona cache
func NewRedisPersonaCache(cfg *config.RedisConfig, logger *logger.Logger) *RedisPersonaCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisPersonaCache{
		client: client,
		ttl:    cfg.TTL,
		logger: logger.WithComponent("redis-persona-cache"),
	}
}

// Get retrieves a cached persona result; a cache miss returns (nil, nil)
func (c *RedisPersonaCache) Get(ctx context.Context, walletAddress string) (*entity.PersonaResult, error) {
	data, err := c.client.Get(ctx, personaKey(walletAddress)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached persona: %w", err)
	}

	var result entity.PersonaResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached persona: %w", err)
	}

	c.logger.Debug("Persona cache hit", zap.String("wallet_address", walletAddress))
	return &result, nil
}

// Set stores a persona result under the wallet address
func (c *RedisPersonaCache) Set(ctx context.Context, result *entity.PersonaResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal persona: %w", err)
	}

	if err := c.client.Set(ctx, personaKey(result.WalletAddress), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache persona: %w", err)
	}
	return nil
}

// Invalidate removes a wallet's cached result
func (c *RedisPersonaCache) Invalidate(ctx context.Context, walletAddress string) error {
	if err := c.client.Del(ctx, personaKey(walletAddress)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached persona: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisPersonaCache) Close() error {
	return c.client.Close()
}

func personaKey(walletAddress string) string {
	return fmt.Sprintf("persona:%s", walletAddress)
}
