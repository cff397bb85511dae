// Package coordinator ties the pipeline together: it creates tasks from
// shard sizes, runs one-shot map-reduce jobs, and drives the long-lived
// worker loop that pulls, processes, commits and acks.
package coordinator

import (
	"context"
	"io"
	"math"
	"runtime"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/backoff"
	"github.com/pkg/errors"

	"github.com/leoloe326/aws-training/internal/backend"
	"github.com/leoloe326/aws-training/internal/geo"
	"github.com/leoloe326/aws-training/internal/mapred"
	"github.com/leoloe326/aws-training/internal/queue"
	"github.com/leoloe326/aws-training/internal/records"
	"github.com/leoloe326/aws-training/internal/shard"
	"github.com/leoloe326/aws-training/internal/stats"
	"github.com/leoloe326/aws-training/internal/store"
)

type Coordinator struct {
	cfg     *Config
	backend backend.Reader
	geo     *geo.Index
	queue   queue.Queue
	store   store.Store
	logger  kitlog.Logger
}

func New(cfg *Config, b backend.Reader, g *geo.Index, q queue.Queue, s store.Store, logger kitlog.Logger) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		backend: b,
		geo:     g,
		queue:   q,
		store:   s,
		logger:  logger,
	}
}

// CreateTasks splits one shard into n tasks and enqueues them. Refuses
// to create more tasks than the shard has records.
func (c *Coordinator) CreateTasks(ctx context.Context, color string, year, month, n int) error {
	sh := shard.New(color, year, month)
	if err := sh.Validate(); err != nil {
		return err
	}

	total, err := records.Total(ctx, c.backend, sh)
	if err != nil {
		return err
	}
	if int64(n) > total {
		return errors.Errorf("cannot cut %s into %d tasks, only %d records", sh, n, total)
	}

	ranges, err := queue.Cut(0, total-1, n)
	if err != nil {
		return err
	}

	for _, r := range ranges {
		task := &queue.Task{
			Color:   color,
			Year:    year,
			Month:   month,
			Start:   r.Start,
			End:     r.End,
			Timeout: queue.DefaultTimeout,
		}
		if err := c.queue.Enqueue(ctx, task); err != nil {
			return errors.Wrapf(err, "error enqueueing task %s", task)
		}
		metricTasksCreated.Inc()
	}

	level.Info(c.logger).Log("msg", "tasks created", "shard", sh, "tasks", n, "records", total)
	return nil
}

// RunOnce maps the records [start, end) of one shard and commits the
// aggregate. end <= 0 means the whole shard. The commit carries no dedup
// token; repeating a one-shot run adds again.
func (c *Coordinator) RunOnce(ctx context.Context, color string, year, month int, start, end int64) (*stats.Stat, error) {
	sh := shard.New(color, year, month)
	if err := sh.Validate(); err != nil {
		return nil, err
	}

	if end <= 0 {
		total, err := records.Total(ctx, c.backend, sh)
		if err != nil {
			return nil, err
		}
		end = total
	}

	pool := mapred.NewPool(c.geo, clampProcs(c.cfg.Procs, end-start), c.logger)
	stat, err := pool.Run(ctx, color, year, month, func(ctx context.Context, parts, nth int) (*records.Reader, error) {
		return records.Open(ctx, c.backend, sh, start, end, parts, nth)
	})
	if err != nil {
		return nil, err
	}

	if err := c.store.Merge(ctx, stat, ""); err != nil {
		return nil, err
	}
	return stat, nil
}

// RunStream maps newline-delimited records from an arbitrary stream,
// stdin typically. Streams cannot be partitioned, so a single mapper
// does all the work. end <= 0 means until EOF.
func (c *Coordinator) RunStream(ctx context.Context, color string, year, month int, rc io.ReadCloser, start, end int64) (*stats.Stat, error) {
	sh := shard.New(color, year, month)
	if err := sh.Validate(); err != nil {
		return nil, err
	}

	if end <= 0 {
		end = math.MaxInt64
	}

	pool := mapred.NewPool(c.geo, 1, c.logger)
	stat, err := pool.Run(ctx, color, year, month, func(ctx context.Context, parts, nth int) (*records.Reader, error) {
		return records.NewLineReader(rc, start, end)
	})
	if err != nil {
		return nil, err
	}

	if err := c.store.Merge(ctx, stat, ""); err != nil {
		return nil, err
	}
	return stat, nil
}

// RunWorker pulls, processes and acks tasks until the context is
// canceled. A failed task is never acked; its lease expires and the
// queue redelivers it. Commits carry the task's wire encoding as dedup
// token, so a redelivery of work that did commit cannot double-count.
func (c *Coordinator) RunWorker(ctx context.Context) error {
	b := backoff.New(ctx, c.cfg.Backoff)

	for b.Ongoing() {
		task, err := c.queue.Pull(ctx)
		switch {
		case errors.Is(err, queue.ErrEmpty):
			level.Debug(c.logger).Log("msg", "queue empty, sleeping", "sleep", c.cfg.Sleep)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.Sleep):
			}
			continue
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			level.Error(c.logger).Log("msg", "error pulling task", "err", err)
			b.Wait()
			continue
		}

		if err := c.process(ctx, task); err != nil {
			if ctx.Err() != nil {
				// in-flight work stays unacked on shutdown
				return nil
			}
			metricTaskFailures.Inc()
			level.Error(c.logger).Log("msg", "task failed, leaving lease to expire", "task", task, "err", err)
			b.Wait()
			continue
		}

		if err := c.queue.Ack(ctx, task); err != nil {
			level.Error(c.logger).Log("msg", "error acking task", "task", task, "err", err)
			b.Wait()
			continue
		}

		metricTasksProcessed.Inc()
		b.Reset()
	}

	return nil
}

func (c *Coordinator) process(ctx context.Context, task *queue.Task) error {
	sh := task.Shard()
	if err := sh.Validate(); err != nil {
		return err
	}

	pool := mapred.NewPool(c.geo, clampProcs(c.cfg.Procs, task.End-task.Start), c.logger)
	stat, err := pool.Run(ctx, task.Color, task.Year, task.Month, func(ctx context.Context, parts, nth int) (*records.Reader, error) {
		return records.Open(ctx, c.backend, sh, task.Start, task.End, parts, nth)
	})
	if err != nil {
		return err
	}

	return c.store.Merge(ctx, stat, task.Encode())
}

// clampProcs bounds the fan-out by the number of records so no mapper
// opens an empty subrange.
func clampProcs(procs int, n int64) int {
	if procs <= 0 {
		procs = runtime.NumCPU()
	}
	if n > 0 && int64(procs) > n {
		procs = int(n)
	}
	return procs
}
