package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mashdotdev/taskflow/pkg/config"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// Custom error types
var (
	ErrCacheNotFound   = errors.New("cache: key not found")
	ErrCacheConnection = errors.New("cache: connection error")
)

const defaultTTL = 5 * time.Minute

// RedisClient wraps the go-redis client with the small read-model caching
// surface the notification service needs
type RedisClient struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg *config.Config, log *logger.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     100,
		MinIdleConns: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &RedisClient{
		client: client,
		prefix: "taskflow:",
		ttl:    defaultTTL,
		logger: log,
	}, nil
}

func (c *RedisClient) key(parts ...string) string {
	key := c.prefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}

// GetUnreadCount returns the cached unread-notification count for a user
func (c *RedisClient) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	val, err := c.client.Get(ctx, c.key("notifications", "unread", userID)).Result()
	if err == redis.Nil {
		return 0, ErrCacheNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// SetUnreadCount caches the unread-notification count for a user
func (c *RedisClient) SetUnreadCount(ctx context.Context, userID string, count int64) error {
	return c.client.Set(ctx, c.key("notifications", "unread", userID), count, c.ttl).Err()
}

// InvalidateUnreadCount drops the cached count after a write
func (c *RedisClient) InvalidateUnreadCount(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, c.key("notifications", "unread", userID)).Err(); err != nil {
		c.logger.Warn("Failed to invalidate unread count cache",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

// Ping verifies the Redis connection, used by readiness checks
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying connection
func (c *RedisClient) Close() error {
	return c.client.Close()
}
