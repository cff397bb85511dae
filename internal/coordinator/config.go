package coordinator

import (
	"flag"
	"time"

	"github.com/grafana/dskit/backoff"
)

type Config struct {
	Procs   int            `yaml:"procs"`
	Sleep   time.Duration  `yaml:"sleep"`
	Backoff backoff.Config `yaml:"backoff"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.IntVar(&cfg.Procs, prefix+"procs", 0, "Parallel mappers per task. 0 uses every CPU.")
	f.DurationVar(&cfg.Sleep, prefix+"sleep", 10*time.Second, "How long a worker sleeps when the queue is empty.")
	f.DurationVar(&cfg.Backoff.MinBackoff, prefix+"backoff.min-backoff", 500*time.Millisecond, "Minimum delay after a failed task.")
	f.DurationVar(&cfg.Backoff.MaxBackoff, prefix+"backoff.max-backoff", 30*time.Second, "Maximum delay after a failed task.")
	cfg.Backoff.MaxRetries = 0
}
