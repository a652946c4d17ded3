package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultQueueKey     = "tasks:delayed"
	pollBatch           = 100
)

// RedisRunner stores jobs in a sorted set scored by due time, so pending jobs survive restarts.
// Several processes may poll the same key; a job is claimed by whoever removes it first.
type RedisRunner struct {
	*registry

	client   *redis.Client
	key      string
	interval time.Duration

	mu      sync.Mutex
	closed  bool
	started bool
	cancel  context.CancelFunc
	loop    sync.WaitGroup
	running sync.WaitGroup
}

// NewRedisRunner returns a runner polling key every interval. Call Start to begin polling.
func NewRedisRunner(client *redis.Client, key string, interval time.Duration, logger *zap.Logger) *RedisRunner {
	if key == "" {
		key = defaultQueueKey
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &RedisRunner{registry: newRegistry(logger), client: client, key: key, interval: interval}
}

// Schedule adds job to the queue with its due time as score.
func (r *RedisRunner) Schedule(ctx context.Context, job Job, delay time.Duration) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrRunnerClosed
	}
	if delay < 0 {
		delay = 0
	}
	job.DueAt = time.Now().Add(delay).UTC()
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	score := float64(job.DueAt.UnixMilli())
	if err := r.client.ZAdd(ctx, r.key, redis.Z{Score: score, Member: b}).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Start launches the poll loop. It returns immediately.
func (r *RedisRunner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return
	}
	r.started = true
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.loop.Add(1)
	go func() {
		defer r.loop.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Poll(ctx)
			}
		}
	}()
}

// Poll claims and runs every job that is due now. Handlers run concurrently.
func (r *RedisRunner) Poll(ctx context.Context) int {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	members, err := r.client.ZRangeByScore(ctx, r.key, &redis.ZRangeBy{
		Min: "-inf", Max: now, Offset: 0, Count: pollBatch,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("poll task queue failed", zap.String("key", r.key), zap.Error(err))
		}
		return 0
	}

	claimed := 0
	for _, m := range members {
		n, err := r.client.ZRem(ctx, r.key, m).Result()
		if err != nil || n != 1 {
			// another poller got it
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(m), &job); err != nil {
			r.logger.Error("drop undecodable job", zap.String("key", r.key), zap.Error(err))
			continue
		}
		claimed++
		r.running.Add(1)
		go func() {
			defer r.running.Done()
			r.dispatch(context.Background(), job)
		}()
	}
	return claimed
}

// Pending returns the number of queued jobs.
func (r *RedisRunner) Pending(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, r.key).Result()
}

// Wait blocks until handlers of claimed jobs have returned.
func (r *RedisRunner) Wait() {
	r.running.Wait()
}

// Stop ends polling and waits for running handlers until ctx is done. Queued jobs stay in Redis.
func (r *RedisRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		r.loop.Wait()
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
