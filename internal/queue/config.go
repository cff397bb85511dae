package queue

import (
	"flag"
	"time"
)

type Config struct {
	Address      string        `yaml:"address"`
	Prefix       string        `yaml:"prefix"`
	PollWindow   time.Duration `yaml:"poll_window"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Address, prefix+"address", "localhost:6379", "Redis address backing the task queue.")
	f.StringVar(&cfg.Prefix, prefix+"prefix", "taxi:tasks", "Key prefix for queue state.")
	f.DurationVar(&cfg.PollWindow, prefix+"poll-window", time.Second, "How long one Pull waits for a task before reporting empty.")
	f.DurationVar(&cfg.PollInterval, prefix+"poll-interval", 100*time.Millisecond, "Delay between polls within one Pull.")
}
