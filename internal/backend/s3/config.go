package s3

import (
	"flag"
	"time"
)

type Config struct {
	Bucket             string        `yaml:"bucket"`
	Endpoint           string        `yaml:"endpoint"`
	Region             string        `yaml:"region"`
	AccessKey          string        `yaml:"access_key"`
	SecretKey          string        `yaml:"secret_key"`
	Insecure           bool          `yaml:"insecure"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	ForcePathStyle     bool          `yaml:"forcepathstyle"`
	HedgeRequestsAt    time.Duration `yaml:"hedge_requests_at"`
	HedgeRequestsUpTo  int           `yaml:"hedge_requests_up_to"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Bucket, prefix+"bucket", "", "Bucket holding shard objects.")
	f.StringVar(&cfg.Endpoint, prefix+"endpoint", "s3.amazonaws.com", "S3 endpoint.")
	f.StringVar(&cfg.Region, prefix+"region", "", "S3 region.")
	f.StringVar(&cfg.AccessKey, prefix+"access-key", "", "S3 access key.")
	f.StringVar(&cfg.SecretKey, prefix+"secret-key", "", "S3 secret key.")
	f.IntVar(&cfg.HedgeRequestsUpTo, prefix+"hedge-requests-up-to", 2, "Maximum hedged requests per range read.")
}
