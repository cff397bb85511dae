package store

import "flag"

type Config struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Address, prefix+"address", "localhost:6379", "Redis address backing the result store.")
	f.StringVar(&cfg.Prefix, prefix+"prefix", "taxi:stat", "Key prefix for aggregate rows.")
}
