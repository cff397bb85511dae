package store

import (
	"context"
	"strconv"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/leoloe326/aws-training/internal/stats"
)

// One-letter field prefixes keep write/read volume low on metered
// stores. Must not collide with each other.
const (
	fieldTotal           = "l"
	fieldInvalid         = "i"
	prefixPickups        = "p"
	prefixDropoffs       = "r"
	prefixHour           = "h"
	prefixTripTime       = "t"
	prefixDistance       = "s"
	prefixFare           = "f"
	prefixBoroughPickup  = "k"
	prefixBoroughDropoff = "o"
)

// mergeScript applies one aggregate to its row in a single atomic step.
// The applied-token set rides on the same row key so the dedup check and
// the counter increments cannot be torn apart.
var mergeScript = redis.NewScript(`
local row = KEYS[1]
local applied = KEYS[2]
local token = ARGV[1]
if token ~= '' then
  if redis.call('SISMEMBER', applied, token) == 1 then
    return 0
  end
  redis.call('SADD', applied, token)
end
for i = 2, #ARGV, 2 do
  redis.call('HINCRBY', row, ARGV[i], ARGV[i+1])
end
return 1
`)

type RedisStore struct {
	client *redis.Client
	cfg    *Config
	logger kitlog.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedis(cfg *Config, client *redis.Client, logger kitlog.Logger) *RedisStore {
	return &RedisStore{client: client, cfg: cfg, logger: logger}
}

func (s *RedisStore) rowKey(color string, ym int) string {
	return s.cfg.Prefix + ":" + color + ":" + strconv.Itoa(ym)
}

// Merge implements Store
func (s *RedisStore) Merge(ctx context.Context, stat *stats.Stat, token string) error {
	row := s.rowKey(stat.Color, stat.Shard().YM())

	args := []interface{}{token}
	args = appendField(args, fieldTotal, stat.Total)
	args = appendField(args, fieldInvalid, stat.Invalid)
	args = appendCounter(args, prefixPickups, stat.Pickups)
	args = appendCounter(args, prefixDropoffs, stat.Dropoffs)
	args = appendCounter(args, prefixHour, stat.Hour)
	args = appendCounter(args, prefixTripTime, stat.TripTime)
	args = appendCounter(args, prefixDistance, stat.Distance)
	args = appendCounter(args, prefixFare, stat.Fare)
	args = appendCounter(args, prefixBoroughPickup, stat.BoroughPickups)
	args = appendCounter(args, prefixBoroughDropoff, stat.BoroughDropoffs)

	applied, err := mergeScript.Run(ctx, s.client, []string{row, row + ":applied"}, args...).Int()
	if err != nil {
		return errors.Wrapf(err, "error merging aggregate into %s", row)
	}

	if applied == 0 {
		metricMergesSkipped.Inc()
		level.Info(s.logger).Log("msg", "merge skipped, commit token already applied", "row", row, "token", token)
		return nil
	}

	metricMerges.Inc()
	level.Debug(s.logger).Log("msg", "aggregate merged", "row", row, "total", stat.Total)
	return nil
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, color string, year, month int) (*stats.Stat, error) {
	row := s.rowKey(color, year*100+month)

	values, err := s.client.HGetAll(ctx, row).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading aggregate row %s", row)
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}

	stat := stats.New(color, year, month)
	for field, value := range values {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad counter value %q for field %q in %s", value, field, row)
		}

		switch field {
		case fieldTotal:
			stat.Total = n
			continue
		case fieldInvalid:
			stat.Invalid = n
			continue
		}

		key, err := strconv.Atoi(field[1:])
		if err != nil {
			return nil, errors.Wrapf(err, "bad counter field %q in %s", field, row)
		}
		switch field[:1] {
		case prefixPickups:
			stat.Pickups[key] = n
		case prefixDropoffs:
			stat.Dropoffs[key] = n
		case prefixHour:
			stat.Hour[key] = n
		case prefixTripTime:
			stat.TripTime[key] = n
		case prefixDistance:
			stat.Distance[key] = n
		case prefixFare:
			stat.Fare[key] = n
		case prefixBoroughPickup:
			stat.BoroughPickups[key] = n
		case prefixBoroughDropoff:
			stat.BoroughDropoffs[key] = n
		default:
			return nil, errors.Errorf("unknown counter field %q in %s", field, row)
		}
	}

	return stat, nil
}

func appendField(args []interface{}, field string, value int64) []interface{} {
	if value == 0 {
		return args
	}
	return append(args, field, strconv.FormatInt(value, 10))
}

func appendCounter(args []interface{}, prefix string, counter map[int]int64) []interface{} {
	for key, value := range counter {
		args = appendField(args, prefix+strconv.Itoa(key), value)
	}
	return args
}
