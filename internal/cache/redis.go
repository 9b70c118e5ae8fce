package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"go.uber.org/zap"
)

// RedisClient wraps redis.Client with the operations the API needs
type RedisClient struct {
	client redis.UniversalClient
}

// NewRedisClient connects to Redis and verifies the connection with PING
func NewRedisClient(host, port, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	addr := net.JoinHostPort(host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger.Log.Info("✅ Redis client connected successfully", zap.String("address", addr))
	return &RedisClient{client: client}, nil
}

// NewFromClient wraps an existing go-redis client
func NewFromClient(client redis.UniversalClient) *RedisClient {
	return &RedisClient{client: client}
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// Ping tests the Redis connection
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// incrWithExpiry increments KEYS[1] and sets its expiry to ARGV[1]
// milliseconds when the key has none. Scripts run atomically and need no
// EXPIRE flags, so any Redis version enforces the window.
var incrWithExpiry = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// IncrWithExpiry increments key and, when the key has no TTL yet, sets it to
// ttl. No caller can observe a counter without an expiry.
func (rc *RedisClient) IncrWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if rc == nil || rc.client == nil {
		return 0, fmt.Errorf("redis client not initialized")
	}

	n, err := incrWithExpiry.Run(ctx, rc.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}

// TTL returns the time-to-live for a key
func (rc *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rc.client.TTL(ctx, key).Result()
}
