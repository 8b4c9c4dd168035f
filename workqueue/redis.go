package workqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue atop Redis lists: RPush to enqueue, BLPop to
// dequeue with a blocking timeout, LLen for depth. This mirrors the
// existing Redis-backed job queue's transport choice and blocking-dequeue
// shape, simplified to carry plain string payloads.
type RedisQueue struct {
	client *redis.Client
	prefix string
}

// RedisQueueConfig configures a RedisQueue.
type RedisQueueConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // defaults to "queue:"
}

// NewRedisQueue dials addr and verifies connectivity with a PING.
func NewRedisQueue(ctx context.Context, cfg RedisQueueConfig) (*RedisQueue, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "queue:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("workqueue: connect to redis: %w", err)
	}
	return &RedisQueue{client: client, prefix: prefix}, nil
}

// Close releases the underlying connection pool.
func (q *RedisQueue) Close() error { return q.client.Close() }

func (q *RedisQueue) key(queueName string) string { return q.prefix + queueName }

func (q *RedisQueue) Enqueue(ctx context.Context, queueName, tiid string) error {
	if err := q.client.RPush(ctx, q.key(queueName), tiid).Err(); err != nil {
		return fmt.Errorf("workqueue: enqueue onto %s: %w", queueName, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (string, bool, error) {
	result, err := q.client.BLPop(ctx, timeout, q.key(queueName)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("workqueue: dequeue from %s: %w", queueName, err)
	}
	// BLPop returns [key, value]; we asked for a single key.
	if len(result) != 2 {
		return "", false, fmt.Errorf("workqueue: unexpected BLPOP reply shape for %s", queueName)
	}
	return result[1], true, nil
}

func (q *RedisQueue) Size(ctx context.Context, queueName string) (int64, error) {
	n, err := q.client.LLen(ctx, q.key(queueName)).Result()
	if err != nil {
		return 0, fmt.Errorf("workqueue: size of %s: %w", queueName, err)
	}
	return n, nil
}
