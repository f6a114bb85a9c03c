package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKey = "agrimarket:outbox:stock_alerts"

	// BRPOP wakes up at least this often so a cancelled ctx is noticed
	pollTimeout = time.Second
)

// RedisQueue keeps pending jobs in a Redis list so they survive restarts.
// Producers LPUSH, workers BRPOP, exhausted jobs go to "<key>:dead".
type RedisQueue struct {
	client  *redis.Client
	key     string
	deadKey string
}

// NewRedisQueue parses a redis:// URL and verifies the connection
func NewRedisQueue(ctx context.Context, redisURL string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.WriteTimeout = 3 * time.Second
	// must outlast the BRPOP timeout
	opts.ReadTimeout = pollTimeout + 3*time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisQueueWithClient(client, defaultRedisKey), nil
}

func NewRedisQueueWithClient(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key, deadKey: key + ":dead"}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}

		res, err := q.client.BRPop(ctx, pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if errors.Is(err, redis.ErrClosed) {
			return Job{}, ErrQueueClosed
		}
		if err != nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, err
		}

		// res is [key, value]
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			// a poison message is parked rather than retried forever
			q.client.LPush(ctx, q.deadKey, res[1])
			return Job{}, fmt.Errorf("failed to decode job: %w", err)
		}
		return job, nil
	}
}

func (q *RedisQueue) DeadLetter(ctx context.Context, job Job, cause error) error {
	if cause != nil {
		job.LastError = cause.Error()
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return q.client.LPush(ctx, q.deadKey, raw).Err()
}

// Len reports pending and dead-lettered job counts
func (q *RedisQueue) Len(ctx context.Context) (pending, dead int64, err error) {
	pending, err = q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, 0, err
	}
	dead, err = q.client.LLen(ctx, q.deadKey).Result()
	return pending, dead, err
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
