package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"
	dslog "github.com/grafana/dskit/log"
	"github.com/pkg/errors"

	"github.com/leoloe326/aws-training/internal/backend"
	"github.com/leoloe326/aws-training/internal/backend/local"
	"github.com/leoloe326/aws-training/internal/backend/s3"
	"github.com/leoloe326/aws-training/internal/coordinator"
	"github.com/leoloe326/aws-training/internal/geo"
	"github.com/leoloe326/aws-training/internal/queue"
	"github.com/leoloe326/aws-training/internal/shard"
	"github.com/leoloe326/aws-training/internal/stats"
	"github.com/leoloe326/aws-training/internal/store"
	"github.com/leoloe326/aws-training/pkg/util/log"
)

const appName = "taxi"

type cliOptions struct {
	Src   string `help:"Record source: '-' for stdin, file://<dir> or s3://<bucket>." default:"s3://aws-nyc-taxi-data"`
	Color string `short:"c" help:"Record color." default:"green" enum:"yellow,green"`
	Year  int    `short:"y" help:"Year of the monthly shard." default:"2016"`
	Month int    `short:"m" help:"Month of the monthly shard." default:"1"`
	Start int64  `short:"s" help:"First record index to map." default:"0"`
	End   int64  `short:"e" help:"Record index to stop before. 0 maps the whole shard." default:"0"`
	Procs int    `short:"p" help:"Parallel mappers. 0 uses every CPU." default:"0"`

	Worker      bool          `short:"w" help:"Run as a long-lived task worker."`
	Sleep       time.Duration `help:"Worker sleep when the queue is empty." default:"10s"`
	CreateTasks int           `help:"Cut the shard into N tasks, enqueue them and exit." placeholder:"N"`
	Report      bool          `short:"r" help:"Print the aggregate report after mapping."`

	Districts string `help:"District GeoJSON file." default:"districts.geojson" type:"path"`
	QueueAddr string `help:"Redis address backing the task queue." default:"localhost:6379"`
	StoreAddr string `help:"Redis address backing the result store." default:"localhost:6379"`

	S3Endpoint  string `help:"S3 endpoint." default:"s3.amazonaws.com"`
	S3Region    string `help:"S3 region."`
	S3AccessKey string `help:"S3 access key. Empty falls back to the standard credential chain."`
	S3SecretKey string `help:"S3 secret key."`

	LogLevel string `help:"Log level." default:"info" enum:"debug,info,warn,error"`
}

func main() {
	var cli cliOptions
	kong.Parse(&cli,
		kong.Name(appName),
		kong.Description("Distributed map-reduce over the NYC taxi record shards."),
		kong.UsageOnError(),
	)

	if err := run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", appName, err)
		os.Exit(1)
	}
}

func run(cli *cliOptions) error {
	var lvl dslog.Level
	if err := lvl.Set(cli.LogLevel); err != nil {
		return err
	}
	logger := log.InitLogger(dslog.LogfmtFormat, lvl)

	if err := shard.New(cli.Color, cli.Year, cli.Month).Validate(); err != nil {
		return err
	}

	idx, err := geo.LoadFile(cli.Districts)
	if err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "districts loaded", "file", cli.Districts, "districts", idx.Len())

	reader, stdin, err := newSource(cli)
	if err != nil {
		return err
	}
	if stdin && (cli.Worker || cli.CreateTasks > 0) {
		return errors.Errorf("%s source cannot back a worker or task creation", cli.Src)
	}
	if reader != nil {
		defer reader.Shutdown()
	}

	queueClient := redis.NewClient(&redis.Options{Addr: cli.QueueAddr})
	defer queueClient.Close()
	storeClient := redis.NewClient(&redis.Options{Addr: cli.StoreAddr})
	defer storeClient.Close()

	fs := flag.NewFlagSet(appName, flag.PanicOnError)

	queueCfg := &queue.Config{}
	queueCfg.RegisterFlagsAndApplyDefaults("queue.", fs)
	storeCfg := &store.Config{}
	storeCfg.RegisterFlagsAndApplyDefaults("store.", fs)
	coordCfg := &coordinator.Config{}
	coordCfg.RegisterFlagsAndApplyDefaults("", fs)
	coordCfg.Procs = cli.Procs
	coordCfg.Sleep = cli.Sleep

	c := coordinator.New(coordCfg,
		reader,
		idx,
		queue.NewRedis(queueCfg, queueClient, logger),
		store.NewRedis(storeCfg, storeClient, logger),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case cli.CreateTasks > 0:
		return c.CreateTasks(ctx, cli.Color, cli.Year, cli.Month, cli.CreateTasks)

	case cli.Worker:
		level.Info(logger).Log("msg", "worker started", "src", cli.Src, "queue", cli.QueueAddr)
		return c.RunWorker(ctx)

	default:
		var stat *stats.Stat
		procs := procCount(cli)
		if stdin {
			// streams cannot be partitioned
			procs = 1
			stat, err = c.RunStream(ctx, cli.Color, cli.Year, cli.Month, os.Stdin, cli.Start, cli.End)
		} else {
			stat, err = c.RunOnce(ctx, cli.Color, cli.Year, cli.Month, cli.Start, cli.End)
		}
		if err != nil {
			return err
		}
		if cli.Report {
			stats.Report(os.Stdout, stat, procs)
		}
		return nil
	}
}

// newSource resolves the --src URI. The stdin source has no backend; the
// caller routes it through the stream path.
func newSource(cli *cliOptions) (backend.Reader, bool, error) {
	switch {
	case cli.Src == "-":
		return nil, true, nil

	case strings.HasPrefix(cli.Src, "file://"):
		r, _, err := local.New(&local.Config{Path: strings.TrimPrefix(cli.Src, "file://")})
		return r, false, err

	case strings.HasPrefix(cli.Src, "s3://"):
		cfg := &s3.Config{}
		cfg.RegisterFlagsAndApplyDefaults("s3.", flag.NewFlagSet(appName, flag.PanicOnError))
		cfg.Bucket = strings.TrimPrefix(cli.Src, "s3://")
		cfg.Endpoint = cli.S3Endpoint
		cfg.Region = cli.S3Region
		cfg.AccessKey = cli.S3AccessKey
		cfg.SecretKey = cli.S3SecretKey
		r, _, err := s3.New(cfg)
		return r, false, err

	default:
		return nil, false, errors.Wrap(backend.ErrBadSourceURI, cli.Src)
	}
}

func procCount(cli *cliOptions) int {
	if cli.Procs > 0 {
		return cli.Procs
	}
	return runtime.NumCPU()
}
