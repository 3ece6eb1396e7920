package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wardbook/internal/config"
	"wardbook/internal/domain"

	"github.com/redis/go-redis/v9"
)

type RedisStateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from configuration. The caller is
// responsible for pinging and closing it.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisStateRepository(client *redis.Client, ttl time.Duration) *RedisStateRepository {
	return &RedisStateRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStateRepository) GetPresence(ctx context.Context, userName string) (*domain.Presence, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	key := presenceKey(userName)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence from redis: %w", err)
	}

	var presence domain.Presence
	if err := json.Unmarshal([]byte(val), &presence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence: %w", err)
	}

	return &presence, nil
}

func (r *RedisStateRepository) SetPresence(ctx context.Context, presence *domain.Presence) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(presence)
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}

	if err := r.client.Set(ctx, presenceKey(presence.UserName), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set presence in redis: %w", err)
	}

	return nil
}

func (r *RedisStateRepository) ClearPresence(ctx context.Context, userName string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, presenceKey(userName)).Err(); err != nil {
		return fmt.Errorf("failed to delete presence from redis: %w", err)
	}
	return nil
}

func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	rlKey := fmt.Sprintf("rate_limit:%s", key)
	count, err := r.client.Incr(ctx, rlKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, rlKey, window)
	}

	return count <= int64(limit), nil
}

func presenceKey(userName string) string {
	return fmt.Sprintf("presence:%s", userName)
}

// Ping verifies the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
