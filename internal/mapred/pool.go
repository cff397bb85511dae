package mapred

import (
	"context"
	"io"
	"runtime"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/leoloe326/aws-training/internal/geo"
	"github.com/leoloe326/aws-training/internal/records"
	"github.com/leoloe326/aws-training/internal/stats"
)

// OpenFunc opens the nth of parts record sub-streams for one run. The
// pool never touches storage itself; callers bind the shard, range and
// backend into the closure.
type OpenFunc func(ctx context.Context, parts, nth int) (*records.Reader, error)

// Pool fans a record range out over parallel mappers and reduces their
// partial aggregates into one Stat.
type Pool struct {
	procs  int
	geo    *geo.Index
	logger kitlog.Logger
}

func NewPool(g *geo.Index, procs int, logger kitlog.Logger) *Pool {
	if procs <= 0 {
		procs = runtime.NumCPU()
	}
	return &Pool{
		procs:  procs,
		geo:    g,
		logger: logger,
	}
}

// Procs returns the configured fan-out.
func (p *Pool) Procs() int {
	return p.procs
}

type mapResult struct {
	stat *stats.Stat
	err  error
}

// Run maps every record of the opened streams and reduces the partials.
// Each sub-worker owns its mapper; counters only meet in the reduce, so
// the map phase is lock free. Any sub-worker error fails the whole run
// and the partials are discarded.
func (p *Pool) Run(ctx context.Context, color string, year, month int, open OpenFunc) (*stats.Stat, error) {
	start := time.Now()
	metricPoolRuns.Inc()

	results := make(chan mapResult, p.procs)
	for nth := 0; nth < p.procs; nth++ {
		go func(nth int) {
			results <- p.mapOne(ctx, color, year, month, open, nth)
		}(nth)
	}

	merged := stats.New(color, year, month)
	var firstErr error
	for i := 0; i < p.procs; i++ {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		merged.Merge(res.stat)
	}

	if firstErr != nil {
		metricPoolFailures.Inc()
		return nil, firstErr
	}

	merged.RollupBoroughs()
	merged.Elapsed = time.Since(start)

	level.Debug(p.logger).Log(
		"msg", "pool run complete",
		"color", color, "year", year, "month", month,
		"procs", p.procs, "total", merged.Total, "invalid", merged.Invalid,
		"elapsed", merged.Elapsed,
	)
	return merged, nil
}

func (p *Pool) mapOne(ctx context.Context, color string, year, month int, open OpenFunc, nth int) mapResult {
	r, err := open(ctx, p.procs, nth)
	if err != nil {
		return mapResult{err: err}
	}
	defer r.Close()

	m := NewMapper(p.geo, color, year, month)
	for {
		if err := ctx.Err(); err != nil {
			return mapResult{err: err}
		}

		line, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return mapResult{err: err}
		}
		m.Map(line)
	}

	return mapResult{stat: m.Stat()}
}
