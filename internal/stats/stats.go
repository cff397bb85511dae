// Package stats holds the per-month aggregate counters and their merge
// operator. Merge is element-wise integer addition, commutative and
// associative, so partials can be reduced in any order.
package stats

import (
	"time"

	"github.com/leoloe326/aws-training/internal/shard"
)

// Histogram thresholds, matched by descending first-threshold-≥
// comparison. A value equal to a threshold lands in that bucket.
var (
	DistanceBuckets = []int{0, 1, 2, 5, 10, 20}            // miles
	TripTimeBuckets = []int{0, 300, 600, 900, 1800, 2700, 3600} // seconds
	FareBuckets     = []int{0, 5, 10, 25, 50, 100}         // dollars
)

type Stat struct {
	Color string
	Year  int
	Month int

	Total   int64 // number of records seen
	Invalid int64 // records unparsable or with no locatable endpoint

	Pickups  map[int]int64 // district -> pickups
	Dropoffs map[int]int64 // district -> dropoffs
	Hour     map[int]int64 // pickup hour distribution
	Distance map[int]int64 // trip distance distribution
	TripTime map[int]int64 // trip time distribution
	Fare     map[int]int64 // fare distribution

	BoroughPickups  map[int]int64 // borough -> pickups
	BoroughDropoffs map[int]int64 // borough -> dropoffs

	// Elapsed is in-process bookkeeping only; merged as max, not stored.
	Elapsed time.Duration
}

func New(color string, year, month int) *Stat {
	return &Stat{
		Color:           color,
		Year:            year,
		Month:           month,
		Pickups:         make(map[int]int64),
		Dropoffs:        make(map[int]int64),
		Hour:            make(map[int]int64),
		Distance:        make(map[int]int64),
		TripTime:        make(map[int]int64),
		Fare:            make(map[int]int64),
		BoroughPickups:  make(map[int]int64),
		BoroughDropoffs: make(map[int]int64),
	}
}

// Shard returns the addressing tuple the aggregate is tagged with.
func (s *Stat) Shard() shard.Shard {
	return shard.New(s.Color, s.Year, s.Month)
}

// Merge adds every counter of o into s.
func (s *Stat) Merge(o *Stat) {
	s.Total += o.Total
	s.Invalid += o.Invalid
	addInto(s.Pickups, o.Pickups)
	addInto(s.Dropoffs, o.Dropoffs)
	addInto(s.Hour, o.Hour)
	addInto(s.Distance, o.Distance)
	addInto(s.TripTime, o.TripTime)
	addInto(s.Fare, o.Fare)
	addInto(s.BoroughPickups, o.BoroughPickups)
	addInto(s.BoroughDropoffs, o.BoroughDropoffs)
	if o.Elapsed > s.Elapsed {
		s.Elapsed = o.Elapsed
	}
}

func addInto(dst, src map[int]int64) {
	for k, v := range src {
		dst[k] += v
	}
}

// RollupBoroughs derives the borough counters from the district counters.
// Recomputes from scratch so it can be called after any merge.
func (s *Stat) RollupBoroughs() {
	s.BoroughPickups = make(map[int]int64)
	s.BoroughDropoffs = make(map[int]int64)
	for index, count := range s.Pickups {
		s.BoroughPickups[index/10000] += count
	}
	for index, count := range s.Dropoffs {
		s.BoroughDropoffs[index/10000] += count
	}
}

// DistanceBucket buckets a trip distance in miles.
func DistanceBucket(miles float64) int {
	return bucketFloat(miles, DistanceBuckets)
}

// TripTimeBucket buckets a trip duration in seconds.
func TripTimeBucket(seconds int64) int {
	return bucketInt(seconds, TripTimeBuckets)
}

// FareBucket buckets a fare amount in dollars.
func FareBucket(dollars float64) int {
	return bucketFloat(dollars, FareBuckets)
}

func bucketFloat(v float64, thresholds []int) int {
	for i := len(thresholds) - 1; i > 0; i-- {
		if v >= float64(thresholds[i]) {
			return thresholds[i]
		}
	}
	return thresholds[0]
}

func bucketInt(v int64, thresholds []int) int {
	for i := len(thresholds) - 1; i > 0; i-- {
		if v >= int64(thresholds[i]) {
			return thresholds[i]
		}
	}
	return thresholds[0]
}
