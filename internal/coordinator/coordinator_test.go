package coordinator

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	kitlog "github.com/go-kit/log"
	"github.com/go-redis/redis/v8"
	"github.com/grafana/dskit/backoff"
	"github.com/stretchr/testify/require"

	"github.com/leoloe326/aws-training/internal/backend/local"
	"github.com/leoloe326/aws-training/internal/geo"
	"github.com/leoloe326/aws-training/internal/queue"
	"github.com/leoloe326/aws-training/internal/records"
	"github.com/leoloe326/aws-training/internal/shard"
	"github.com/leoloe326/aws-training/internal/store"
)

// one square community district, 10101 at [10,11]x[10,11]
const testDistricts = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"boro_cd": "101"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[10,10],[11,10],[11,11],[10,11],[10,10]]]
      }
    }
  ]
}`

type testEnv struct {
	coordinator *Coordinator
	queue       *queue.RedisQueue
	store       *store.RedisStore
	shard       shard.Shard
}

func setup(t *testing.T, nRecords int) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := kitlog.NewNopLogger()
	q := queue.NewRedis(&queue.Config{
		Prefix:       "taxi:tasks",
		PollWindow:   100 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}, client, logger)
	s := store.NewRedis(&store.Config{Prefix: "taxi:stat"}, client, logger)

	idx, err := geo.Load(strings.NewReader(testDistricts))
	require.NoError(t, err)

	r, w, err := local.New(&local.Config{Path: t.TempDir()})
	require.NoError(t, err)

	sh := shard.New(shard.ColorGreen, 2016, 1)
	var buf bytes.Buffer
	for i := 0; i < nRecords; i++ {
		line, err := records.FormatRecord(records.Trip{
			PickupTime:  int64(i * 3600),
			DropoffTime: int64(i*3600 + 450),
			PickupLon:   10.5,
			PickupLat:   10.5,
			DropoffLon:  10.5,
			DropoffLat:  10.5,
			Distance:    1.5,
			Fare:        7.0,
		})
		require.NoError(t, err)
		buf.Write(line)
	}
	require.NoError(t, w.Write(context.Background(), sh, &buf, int64(buf.Len())))

	cfg := &Config{
		Procs: 2,
		Sleep: 10 * time.Millisecond,
		Backoff: backoff.Config{
			MinBackoff: time.Millisecond,
			MaxBackoff: 10 * time.Millisecond,
		},
	}

	return &testEnv{
		coordinator: New(cfg, r, idx, q, s, logger),
		queue:       q,
		store:       s,
		shard:       sh,
	}
}

func TestCreateTasks(t *testing.T) {
	env := setup(t, 10)
	ctx := context.Background()

	require.NoError(t, env.coordinator.CreateTasks(ctx, shard.ColorGreen, 2016, 1, 3))

	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	// the task ranges tile [0, total) exactly
	var next int64
	for i := 0; i < 3; i++ {
		task, err := env.queue.Pull(ctx)
		require.NoError(t, err)
		require.Equal(t, next, task.Start)
		require.Equal(t, queue.DefaultTimeout, task.Timeout)
		next = task.End
	}
	require.Equal(t, int64(10), next)
}

func TestCreateTasksRejectsBadInput(t *testing.T) {
	env := setup(t, 10)
	ctx := context.Background()

	// more tasks than records
	require.Error(t, env.coordinator.CreateTasks(ctx, shard.ColorGreen, 2016, 1, 11))

	// outside the green date window
	err := env.coordinator.CreateTasks(ctx, shard.ColorGreen, 2012, 1, 1)
	require.ErrorIs(t, err, shard.ErrDateOutOfRange)

	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRunOnce(t *testing.T) {
	env := setup(t, 10)
	ctx := context.Background()

	stat, err := env.coordinator.RunOnce(ctx, shard.ColorGreen, 2016, 1, 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(10), stat.Total)
	require.Equal(t, int64(10), stat.Pickups[10101])
	require.Equal(t, int64(10), stat.BoroughPickups[1])

	got, err := env.store.Get(ctx, shard.ColorGreen, 2016, 1)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.Total)
}

func TestRunOnceSubrange(t *testing.T) {
	env := setup(t, 10)

	stat, err := env.coordinator.RunOnce(context.Background(), shard.ColorGreen, 2016, 1, 3, 7)
	require.NoError(t, err)
	require.Equal(t, int64(4), stat.Total)
}

func TestRunStream(t *testing.T) {
	env := setup(t, 0)
	ctx := context.Background()

	var buf bytes.Buffer
	for i := 0; i < 5; i++ {
		line, err := records.FormatRecord(records.Trip{
			PickupTime:  int64(i),
			DropoffTime: int64(i + 300),
			PickupLon:   10.5,
			PickupLat:   10.5,
			DropoffLon:  10.5,
			DropoffLat:  10.5,
			Distance:    1.0,
			Fare:        5.0,
		})
		require.NoError(t, err)
		buf.Write(line)
	}

	stat, err := env.coordinator.RunStream(ctx, shard.ColorGreen, 2016, 1, io.NopCloser(&buf), 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(5), stat.Total)

	got, err := env.store.Get(ctx, shard.ColorGreen, 2016, 1)
	require.NoError(t, err)
	require.Equal(t, int64(5), got.Total)
}

func TestProcessCommitsWithTaskToken(t *testing.T) {
	env := setup(t, 10)
	ctx := context.Background()

	require.NoError(t, env.coordinator.CreateTasks(ctx, shard.ColorGreen, 2016, 1, 1))

	task, err := env.queue.Pull(ctx)
	require.NoError(t, err)

	require.NoError(t, env.coordinator.process(ctx, task))
	// a redelivered task commits with the same token and must not
	// double-count
	require.NoError(t, env.coordinator.process(ctx, task))

	got, err := env.store.Get(ctx, shard.ColorGreen, 2016, 1)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.Total)
}

func TestRunWorkerDrainsQueue(t *testing.T) {
	env := setup(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, env.coordinator.CreateTasks(ctx, shard.ColorGreen, 2016, 1, 2))

	done := make(chan error, 1)
	go func() {
		done <- env.coordinator.RunWorker(ctx)
	}()

	require.Eventually(t, func() bool {
		got, err := env.store.Get(context.Background(), shard.ColorGreen, 2016, 1)
		return err == nil && got.Total == 10
	}, 5*time.Second, 20*time.Millisecond)

	n, err := env.queue.Len(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	cancel()
	require.NoError(t, <-done)
}

func TestRunWorkerLeavesFailedTaskLeased(t *testing.T) {
	env := setup(t, 10)
	ctx := context.Background()

	// a task for a shard that does not exist in the backend
	require.NoError(t, env.queue.Enqueue(ctx, &queue.Task{
		Color:   shard.ColorGreen,
		Year:    2015,
		Month:   6,
		Start:   0,
		End:     10,
		Timeout: queue.DefaultTimeout,
	}))

	task, err := env.queue.Pull(ctx)
	require.NoError(t, err)
	require.Error(t, env.coordinator.process(ctx, task))

	// still leased: the lease expiry path owns the retry
	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
