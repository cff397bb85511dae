package queue

import (
	"context"
	"strconv"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Queue is the persistent task queue contract. Pull leases the returned
// task for its visibility timeout; Ack deletes it permanently. A task
// neither acked nor extended before lease expiry is redelivered to any
// puller.
type Queue interface {
	Enqueue(ctx context.Context, t *Task) error
	Pull(ctx context.Context) (*Task, error)
	Extend(ctx context.Context, t *Task, timeout time.Duration) error
	Ack(ctx context.Context, t *Task) error
	Len(ctx context.Context) (int64, error)
}

// pullScript moves one pending body into the leased state in a single
// atomic step: a body is always in exactly one of the pending list or
// the lease/body pair, so a crashed puller can never lose a task.
var pullScript = redis.NewScript(`
local body = redis.call('LPOP', KEYS[1])
if not body then
  return false
end
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[3], ARGV[1], body)
return body
`)

// RedisQueue keeps pending task bodies in a list, in-flight leases in a
// sorted set scored by lease deadline, and lease->body mappings in a
// hash. Reclaiming expired leases happens on Pull.
type RedisQueue struct {
	client *redis.Client
	cfg    *Config
	logger kitlog.Logger

	// test seam for lease-deadline arithmetic
	now func() time.Time
}

var _ Queue = (*RedisQueue)(nil)

func NewRedis(cfg *Config, client *redis.Client, logger kitlog.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (q *RedisQueue) pendingKey() string { return q.cfg.Prefix + ":pending" }
func (q *RedisQueue) leasesKey() string  { return q.cfg.Prefix + ":leases" }
func (q *RedisQueue) bodiesKey() string  { return q.cfg.Prefix + ":bodies" }

// Enqueue appends the encoded task body.
func (q *RedisQueue) Enqueue(ctx context.Context, t *Task) error {
	if err := q.client.RPush(ctx, q.pendingKey(), t.Encode()).Err(); err != nil {
		return err
	}
	metricTasksEnqueued.Inc()
	level.Debug(q.logger).Log("msg", "task enqueued", "task", t)
	return nil
}

// Pull returns one leased task, or ErrEmpty once the poll window passes
// without any task becoming available. Undecodable bodies are dropped.
func (q *RedisQueue) Pull(ctx context.Context) (*Task, error) {
	// the poll window is wall-clock; q.now only drives lease arithmetic
	deadline := time.Now().Add(q.cfg.PollWindow)

	for {
		if err := q.reclaimExpired(ctx); err != nil {
			return nil, err
		}

		// the body is leased before we look at it, under a provisional
		// deadline; the real timeout is only known after decoding
		leaseID := uuid.New().String()
		provisional := q.now().Add(DefaultTimeout * time.Second)

		body, err := pullScript.Run(ctx, q.client,
			[]string{q.pendingKey(), q.leasesKey(), q.bodiesKey()},
			leaseID, provisional.Unix(),
		).Text()
		switch {
		case err == redis.Nil:
			if time.Now().After(deadline) {
				return nil, ErrEmpty
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(q.cfg.PollInterval):
			}
			continue
		case err != nil:
			return nil, err
		}

		task, err := Decode(body)
		if err != nil {
			level.Warn(q.logger).Log("msg", "dropping undecodable task body", "body", body, "err", err)
			if err := q.dropLease(ctx, leaseID); err != nil {
				return nil, err
			}
			continue
		}

		task.LeaseID = leaseID
		task.LeaseHandle = body

		if err := q.Extend(ctx, task, time.Duration(task.Timeout)*time.Second); err != nil {
			// already leased; the provisional deadline stands
			level.Warn(q.logger).Log("msg", "error applying task timeout to lease", "task", task, "err", err)
		}

		metricTasksPulled.Inc()
		level.Debug(q.logger).Log("msg", "task leased", "task", task, "lease", leaseID)
		return task, nil
	}
}

func (q *RedisQueue) dropLease(ctx context.Context, leaseID string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.leasesKey(), leaseID)
	pipe.HDel(ctx, q.bodiesKey(), leaseID)
	_, err := pipe.Exec(ctx)
	return err
}

// Extend pushes the lease deadline of a pulled task.
func (q *RedisQueue) Extend(ctx context.Context, t *Task, timeout time.Duration) error {
	if t.LeaseID == "" {
		return ErrNoLease
	}
	deadline := q.now().Add(timeout)
	return q.client.ZAddXX(ctx, q.leasesKey(), &redis.Z{
		Score:  float64(deadline.Unix()),
		Member: t.LeaseID,
	}).Err()
}

// Ack deletes the task permanently. Called only after the result commit
// succeeded.
func (q *RedisQueue) Ack(ctx context.Context, t *Task) error {
	if t.LeaseID == "" {
		return ErrNoLease
	}

	if err := q.dropLease(ctx, t.LeaseID); err != nil {
		return err
	}

	metricTasksAcked.Inc()
	level.Debug(q.logger).Log("msg", "task acked", "task", t, "lease", t.LeaseID)
	return nil
}

// Len counts pending plus in-flight tasks.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	pending, err := q.client.LLen(ctx, q.pendingKey()).Result()
	if err != nil {
		return 0, err
	}
	inflight, err := q.client.ZCard(ctx, q.leasesKey()).Result()
	if err != nil {
		return 0, err
	}
	return pending + inflight, nil
}

// reclaimExpired moves bodies of expired leases back to the front of the
// pending list.
func (q *RedisQueue) reclaimExpired(ctx context.Context) error {
	expired, err := q.client.ZRangeByScore(ctx, q.leasesKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().Unix(), 10),
	}).Result()
	if err != nil {
		return err
	}

	for _, leaseID := range expired {
		body, err := q.client.HGet(ctx, q.bodiesKey(), leaseID).Result()
		if err == redis.Nil {
			// lease without a body, nothing to requeue
			q.client.ZRem(ctx, q.leasesKey(), leaseID)
			continue
		}
		if err != nil {
			return err
		}

		pipe := q.client.TxPipeline()
		pipe.LPush(ctx, q.pendingKey(), body)
		pipe.ZRem(ctx, q.leasesKey(), leaseID)
		pipe.HDel(ctx, q.bodiesKey(), leaseID)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}

		metricTasksRedelivered.Inc()
		level.Info(q.logger).Log("msg", "lease expired, task requeued", "lease", leaseID, "body", body)
	}

	return nil
}
