// Package queue holds the persistent work queue: tasks are half-open
// record-index subranges of one monthly shard, leased to workers with a
// visibility timeout. Lease expiry is the sole retry mechanism.
package queue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leoloe326/aws-training/internal/shard"
)

// DefaultTimeout is the visibility lease applied to created tasks. A task
// not acknowledged within this window is redelivered.
const DefaultTimeout = 3600

// Task addresses the records [Start, End) of one shard.
//
// LeaseID and LeaseHandle are queue-assigned tokens, meaningful only
// between Pull and Ack. They are never serialized: the wire format stays
// stable across versions.
type Task struct {
	Color   string
	Year    int
	Month   int
	Start   int64
	End     int64
	Timeout int // visibility lease in seconds

	LeaseID     string
	LeaseHandle string
}

func (t *Task) Shard() shard.Shard {
	return shard.New(t.Color, t.Year, t.Month)
}

// Encode renders the six-field ASCII wire format:
// "<color>,<year>,<month>,<start>,<end>,<timeout>".
func (t *Task) Encode() string {
	return fmt.Sprintf("%s,%d,%d,%d,%d,%d", t.Color, t.Year, t.Month, t.Start, t.End, t.Timeout)
}

func (t *Task) String() string {
	return fmt.Sprintf("%s:%d:%02d:[%d,%d):%d", t.Color, t.Year, t.Month, t.Start, t.End, t.Timeout)
}

// Decode parses the wire format produced by Encode.
func Decode(body string) (*Task, error) {
	fields := strings.Split(body, ",")
	if len(fields) != 6 {
		return nil, fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidTask, len(fields))
	}

	color := fields[0]
	if color != shard.ColorYellow && color != shard.ColorGreen {
		return nil, fmt.Errorf("%w: color %q", ErrInvalidTask, color)
	}

	ints := make([]int64, 5)
	for i, f := range fields[1:] {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %s", ErrInvalidTask, f, err)
		}
		ints[i] = v
	}

	t := &Task{
		Color:   color,
		Year:    int(ints[0]),
		Month:   int(ints[1]),
		Start:   ints[2],
		End:     ints[3],
		Timeout: int(ints[4]),
	}

	if t.Start < 0 || t.End < t.Start {
		return nil, fmt.Errorf("%w: range [%d,%d)", ErrInvalidTask, t.Start, t.End)
	}

	return t, nil
}
