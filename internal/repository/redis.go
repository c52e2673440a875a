package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wrenchbid/internal/config"
)

// RedisEngagementStore keeps the hot view sets and submission rate
// counters in redis. Data here is a latency cache; the rfq_views
// table stays authoritative.
type RedisEngagementStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisEngagementStore(client *redis.Client, ttl time.Duration) *RedisEngagementStore {
	return &RedisEngagementStore{client: client, ttl: ttl}
}

func (r *RedisEngagementStore) TrackView(ctx context.Context, rfqID, workshopID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("rfq_viewers:%s", rfqID)
	added, err := r.client.SAdd(ctx, key, workshopID).Result()
	if err != nil {
		return fmt.Errorf("failed to track view in redis: %w", err)
	}
	if added > 0 && r.ttl > 0 {
		r.client.Expire(ctx, key, r.ttl)
	}
	return nil
}

func (r *RedisEngagementStore) ViewCount(ctx context.Context, rfqID string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("rfq_viewers:%s", rfqID)
	count, err := r.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count views in redis: %w", err)
	}
	return count, nil
}

func (r *RedisEngagementStore) CheckRateLimit(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("rate_limit:%s", actorID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// Ping verifies the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
