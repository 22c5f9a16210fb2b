// Package queue is the Redis-backed implementation of the three §6 topics
// (simulation-direct, simulation-batch, notifications), grounded on the
// connection shape of the teacher pack's redisclient/cache adapters: parse
// a connection target, construct a go-redis client, ping it once at
// startup, log from then on with zerolog.
//
// Each topic is a Redis list (RPUSH producer, BLPOP consumer). Delayed
// delivery — the batch poller's "run again in N seconds" requirement and
// the direct worker's transient-error backoff — is a sorted set scored by
// Unix delivery time: EnqueueXDelayed does ZADD, and a background promoter
// goroutine moves due members from the sorted set to the live list with
// ZRANGEBYSCORE + ZREM + RPUSH. This is the natural Redis-native way to
// express delayed delivery without a separate scheduler dependency.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/coursesim/simcore/internal/queue"
)

const (
	keyDirect        = "simcore:simulation-direct"
	keyDirectDelayed = "simcore:simulation-direct:delayed"
	keyBatch         = "simcore:simulation-batch"
	keyBatchDelayed  = "simcore:simulation-batch:delayed"
	keyNotifications = "simcore:notifications"
)

// RedisQueue is the production JobQueue implementation.
type RedisQueue struct {
	client *redis.Client
	log    zerolog.Logger
}

// New dials addr (a plain host:port, per §6's REDIS_ADDR) and pings once to
// fail fast on a bad connection string.
func New(addr string, log zerolog.Logger) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisQueue{client: client, log: log}, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) EnqueueDirect(ctx context.Context, msg queue.DirectJobMessage) error {
	return q.push(ctx, keyDirect, msg)
}

func (q *RedisQueue) EnqueueDirectDelayed(ctx context.Context, msg queue.DirectJobMessage, after time.Duration) error {
	return q.schedule(ctx, keyDirectDelayed, msg, after)
}

func (q *RedisQueue) DequeueDirect(ctx context.Context, timeout time.Duration) (*queue.DirectJobMessage, error) {
	var msg queue.DirectJobMessage
	ok, err := q.pop(ctx, keyDirect, timeout, &msg)
	if err != nil || !ok {
		return nil, err
	}
	return &msg, nil
}

func (q *RedisQueue) EnqueueBatch(ctx context.Context, msg queue.BatchMessage) error {
	return q.push(ctx, keyBatch, msg)
}

func (q *RedisQueue) EnqueueBatchDelayed(ctx context.Context, msg queue.BatchMessage, after time.Duration) error {
	return q.schedule(ctx, keyBatchDelayed, msg, after)
}

func (q *RedisQueue) DequeueBatch(ctx context.Context, timeout time.Duration) (*queue.BatchMessage, error) {
	var msg queue.BatchMessage
	ok, err := q.pop(ctx, keyBatch, timeout, &msg)
	if err != nil || !ok {
		return nil, err
	}
	return &msg, nil
}

func (q *RedisQueue) PublishNotification(ctx context.Context, msg queue.NotificationMessage) error {
	return q.push(ctx, keyNotifications, msg)
}

func (q *RedisQueue) push(ctx context.Context, key string, msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message for %s: %w", key, err)
	}
	return q.client.RPush(ctx, key, raw).Err()
}

func (q *RedisQueue) pop(ctx context.Context, key string, timeout time.Duration, dst any) (bool, error) {
	res, err := q.client.BLPop(ctx, timeout, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dequeue from %s: %w", key, err)
	}
	// BLPOP returns [key, value]; index 1 is the payload.
	if err := json.Unmarshal([]byte(res[1]), dst); err != nil {
		return false, fmt.Errorf("unmarshal message from %s: %w", key, err)
	}
	return true, nil
}

func (q *RedisQueue) schedule(ctx context.Context, delayedKey string, msg any, after time.Duration) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal delayed message for %s: %w", delayedKey, err)
	}
	score := float64(time.Now().Add(after).Unix())
	return q.client.ZAdd(ctx, delayedKey, redis.Z{Score: score, Member: raw}).Err()
}

// RunPromoters starts the background goroutines that move due members from
// the delayed sorted sets onto their live lists and returns immediately;
// the goroutines exit when ctx is cancelled. Callers (cmd/simulate-worker)
// run this once alongside the worker pools it feeds.
func (q *RedisQueue) RunPromoters(ctx context.Context, interval time.Duration) {
	go q.runPromoter(ctx, keyDirectDelayed, keyDirect, interval)
	go q.runPromoter(ctx, keyBatchDelayed, keyBatch, interval)
}

func (q *RedisQueue) runPromoter(ctx context.Context, delayedKey, liveKey string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.promoteDue(ctx, delayedKey, liveKey); err != nil {
				q.log.Warn().Err(err).Str("queue", delayedKey).Msg("promoting delayed messages failed")
			}
		}
	}
}

// promoteDue moves every member of delayedKey scored at or before now onto
// liveKey. ZRangeByScore + ZRem + RPush per member rather than a single
// Lua script: simplicity over a minor race where a member could be
// promoted twice under concurrent promoters, which is harmless here since
// every message the core enqueues is idempotent to re-delivery (jobs are
// re-claimed via MarkRunning's conditional update, batches via their own
// state checks).
func (q *RedisQueue) promoteDue(ctx context.Context, delayedKey, liveKey string) error {
	now := float64(time.Now().Unix())
	due, err := q.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%f", now),
		Count: 100,
	}).Result()
	if err != nil {
		return fmt.Errorf("scan due members of %s: %w", delayedKey, err)
	}
	for _, member := range due {
		if err := q.client.ZRem(ctx, delayedKey, member).Err(); err != nil {
			return fmt.Errorf("remove promoted member from %s: %w", delayedKey, err)
		}
		if err := q.client.RPush(ctx, liveKey, member).Err(); err != nil {
			return fmt.Errorf("promote member onto %s: %w", liveKey, err)
		}
	}
	return nil
}
