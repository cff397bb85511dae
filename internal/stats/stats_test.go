package stats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leoloe326/aws-training/internal/shard"
)

func sample(total, invalid int64, pickups map[int]int64) *Stat {
	s := New(shard.ColorGreen, 2016, 1)
	s.Total = total
	s.Invalid = invalid
	for k, v := range pickups {
		s.Pickups[k] = v
		s.Dropoffs[k] = v
		s.Hour[8] += v
		s.Distance[1] += v
		s.TripTime[300] += v
		s.Fare[5] += v
	}
	return s
}

func TestMergeCommutative(t *testing.T) {
	a1 := sample(3, 1, map[int]int64{10101: 2})
	b1 := sample(5, 0, map[int]int64{10101: 1, 30201: 4})

	a2 := sample(3, 1, map[int]int64{10101: 2})
	b2 := sample(5, 0, map[int]int64{10101: 1, 30201: 4})

	a1.Merge(b1)
	b2.Merge(a2)

	require.Equal(t, a1.Total, b2.Total)
	require.Equal(t, a1.Invalid, b2.Invalid)
	require.Equal(t, a1.Pickups, b2.Pickups)
	require.Equal(t, a1.Dropoffs, b2.Dropoffs)
	require.Equal(t, a1.Hour, b2.Hour)
	require.Equal(t, a1.Distance, b2.Distance)
	require.Equal(t, a1.TripTime, b2.TripTime)
	require.Equal(t, a1.Fare, b2.Fare)
}

func TestMergeAssociative(t *testing.T) {
	mk := func() (*Stat, *Stat, *Stat) {
		return sample(1, 0, map[int]int64{10101: 1}),
			sample(2, 1, map[int]int64{10102: 2}),
			sample(4, 0, map[int]int64{30201: 4})
	}

	a, b, c := mk()
	a.Merge(b)
	a.Merge(c) // (a+b)+c

	a2, b2, c2 := mk()
	b2.Merge(c2)
	a2.Merge(b2) // a+(b+c)

	require.Equal(t, a.Total, a2.Total)
	require.Equal(t, a.Pickups, a2.Pickups)
	require.Equal(t, a.Hour, a2.Hour)
	require.Equal(t, a.Fare, a2.Fare)
}

func TestMergeCase(t *testing.T) {
	a := sample(3, 0, map[int]int64{10101: 2})
	b := sample(5, 0, map[int]int64{10101: 1, 30201: 4})
	a.Merge(b)

	require.Equal(t, int64(8), a.Total)
	require.Equal(t, int64(3), a.Pickups[10101])
	require.Equal(t, int64(4), a.Pickups[30201])
}

func TestRollupBoroughs(t *testing.T) {
	s := New(shard.ColorGreen, 2016, 1)
	s.Pickups[10101] = 2
	s.Pickups[10203] = 3
	s.Dropoffs[30201] = 4
	s.RollupBoroughs()

	require.Equal(t, int64(5), s.BoroughPickups[1])
	require.Equal(t, int64(4), s.BoroughDropoffs[3])

	var pickupSum, boroughPickupSum int64
	for _, v := range s.Pickups {
		pickupSum += v
	}
	for _, v := range s.BoroughPickups {
		boroughPickupSum += v
	}
	require.Equal(t, pickupSum, boroughPickupSum)

	// calling again must not double
	s.RollupBoroughs()
	require.Equal(t, int64(5), s.BoroughPickups[1])
}

func TestBuckets(t *testing.T) {
	tests := []struct {
		miles float64
		want  int
	}{
		{0, 0}, {0.9, 0}, {1, 1}, {1.5, 1}, {2, 2}, {4.99, 2},
		{5.0, 5}, // boundary assigned to the higher bucket
		{9.9, 5}, {10, 10}, {19.99, 10}, {20, 20}, {100, 20},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, DistanceBucket(tc.miles), "distance %v", tc.miles)
	}

	require.Equal(t, 0, TripTimeBucket(0))
	require.Equal(t, 0, TripTimeBucket(299))
	require.Equal(t, 300, TripTimeBucket(450))
	require.Equal(t, 3600, TripTimeBucket(7200))
	require.Equal(t, 0, TripTimeBucket(-10)) // negative trip time lands in the lowest bucket

	require.Equal(t, 5, FareBucket(7.0))
	require.Equal(t, 100, FareBucket(250))
	require.Equal(t, 0, FareBucket(4.99))
}

func TestReport(t *testing.T) {
	s := sample(10, 1, map[int]int64{10101: 9})
	s.RollupBoroughs()

	var buf bytes.Buffer
	Report(&buf, s, 4)

	out := buf.String()
	require.Contains(t, out, "NYC Green Cab, January 2016")
	require.Contains(t, out, "Manhattan")
	require.Contains(t, out, "using 4 workers")
}
