// Package shard addresses the immutable monthly record objects produced
// by the ingest pipeline. A shard holds every normalized trip record for
// one (color, year, month).
package shard

import (
	"errors"
	"fmt"
	"time"
)

const (
	ColorYellow = "yellow"
	ColorGreen  = "green"
)

// Epoch is the base of the record timestamp fields: pickup and dropoff
// times are stored as seconds since this instant.
var Epoch = time.Date(2009, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	ErrBadColor       = errors.New("unknown record color")
	ErrDateOutOfRange = errors.New("date out of range for color")
)

// Date windows covered by the ingest pipeline, inclusive on both ends.
var (
	minDate = map[string]time.Time{
		ColorYellow: time.Date(2009, time.January, 1, 0, 0, 0, 0, time.UTC),
		ColorGreen:  time.Date(2013, time.August, 1, 0, 0, 0, 0, time.UTC),
	}
	maxDate = map[string]time.Time{
		ColorYellow: time.Date(2016, time.June, 1, 0, 0, 0, 0, time.UTC),
		ColorGreen:  time.Date(2016, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
)

type Shard struct {
	Color string
	Year  int
	Month int
}

func New(color string, year, month int) Shard {
	return Shard{Color: color, Year: year, Month: month}
}

// Object returns the shard's object name within its source,
// e.g. "green-2016-01.csv".
func (s Shard) Object() string {
	return fmt.Sprintf("%s-%d-%02d.csv", s.Color, s.Year, s.Month)
}

// YM is the result-store sort key, e.g. 201601.
func (s Shard) YM() int {
	return s.Year*100 + s.Month
}

func (s Shard) String() string {
	return fmt.Sprintf("%s:%d:%02d", s.Color, s.Year, s.Month)
}

// Validate checks the color and the per-color date window.
func (s Shard) Validate() error {
	if s.Color != ColorYellow && s.Color != ColorGreen {
		return fmt.Errorf("%w: %q", ErrBadColor, s.Color)
	}
	if s.Month < 1 || s.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrDateOutOfRange, s.Month)
	}
	d := time.Date(s.Year, time.Month(s.Month), 1, 0, 0, 0, 0, time.UTC)
	if d.Before(minDate[s.Color]) || d.After(maxDate[s.Color]) {
		return fmt.Errorf("%w: %s data covers %s to %s", ErrDateOutOfRange, s.Color,
			minDate[s.Color].Format("2006-01"), maxDate[s.Color].Format("2006-01"))
	}
	return nil
}
