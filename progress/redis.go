package progress

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry backs the Progress Registry with a Redis-protocol store
// (compatible with DragonflyDB), the same transport this codebase already
// uses for its other ephemeral key/value needs. Atomicity across
// concurrent workers comes from Redis's single-threaded command execution:
// Decr is a single INCRBY, never a read-modify-write round trip.
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

// RedisConfig configures a RedisRegistry.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // defaults to "progress:"
}

// NewRedisRegistry dials addr and verifies connectivity with a PING.
func NewRedisRegistry(ctx context.Context, cfg RedisConfig) (*RedisRegistry, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "progress:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("progress: connect to redis: %w", err)
	}
	return &RedisRegistry{client: client, prefix: prefix}, nil
}

// Close releases the underlying connection pool.
func (r *RedisRegistry) Close() error { return r.client.Close() }

func (r *RedisRegistry) key(tiid string) string { return r.prefix + tiid }

func (r *RedisRegistry) Set(ctx context.Context, tiid string, n int) error {
	if err := r.client.Set(ctx, r.key(tiid), n, 0).Err(); err != nil {
		return fmt.Errorf("progress: set %s: %w", tiid, err)
	}
	return nil
}

func (r *RedisRegistry) Decr(ctx context.Context, tiid string) (int, error) {
	n, err := r.client.IncrBy(ctx, r.key(tiid), -1).Result()
	if err != nil {
		return 0, fmt.Errorf("progress: decr %s: %w", tiid, err)
	}
	return int(n), nil
}

func (r *RedisRegistry) Get(ctx context.Context, tiid string) (int, bool, error) {
	val, err := r.client.Get(ctx, r.key(tiid)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("progress: get %s: %w", tiid, err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("progress: parse counter %s: %w", tiid, err)
	}
	return n, true, nil
}

func (r *RedisRegistry) Clear(ctx context.Context, tiid string) error {
	if err := r.client.Del(ctx, r.key(tiid)).Err(); err != nil {
		return fmt.Errorf("progress: clear %s: %w", tiid, err)
	}
	return nil
}
