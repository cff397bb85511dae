// Package mapred turns record streams into aggregates: a Mapper
// classifies and accumulates single records, a Pool fans a task out over
// parallel mappers and reduces their partials.
package mapred

import (
	"strconv"
	"strings"
	"time"

	"github.com/leoloe326/aws-training/internal/geo"
	"github.com/leoloe326/aws-training/internal/records"
	"github.com/leoloe326/aws-training/internal/shard"
	"github.com/leoloe326/aws-training/internal/stats"
)

// Mapper owns its Stat exclusively until the caller takes it; no
// synchronization happens during the map phase.
type Mapper struct {
	geo  *geo.Index
	stat *stats.Stat
}

func NewMapper(g *geo.Index, color string, year, month int) *Mapper {
	return &Mapper{
		geo:  g,
		stat: stats.New(color, year, month),
	}
}

// Stat hands over the accumulated counters.
func (m *Mapper) Stat() *stats.Stat {
	return m.stat
}

// Map accumulates one record. Unparsable records and records with no
// locatable endpoint count as invalid; a record with one locatable
// endpoint is still a valid observation for that endpoint's counters.
func (m *Mapper) Map(line []byte) {
	m.stat.Total++

	trip, err := parseRecord(line)
	if err != nil {
		m.stat.Invalid++
		metricRecordsInvalid.Inc()
		return
	}

	pickupDistrict, dropoffDistrict := m.geo.ClassifyTrip(
		geo.Point{Lon: trip.PickupLon, Lat: trip.PickupLat},
		geo.Point{Lon: trip.DropoffLon, Lat: trip.DropoffLat},
	)

	if pickupDistrict == 0 && dropoffDistrict == 0 {
		m.stat.Invalid++
		metricRecordsInvalid.Inc()
		return
	}

	if pickupDistrict != 0 {
		m.stat.Pickups[pickupDistrict]++
	}
	if dropoffDistrict != 0 {
		m.stat.Dropoffs[dropoffDistrict]++
	}

	pickupHour := shard.Epoch.Add(time.Duration(trip.PickupTime) * time.Second).Hour()
	m.stat.Hour[pickupHour]++

	m.stat.Distance[stats.DistanceBucket(trip.Distance)]++
	m.stat.TripTime[stats.TripTimeBucket(trip.DropoffTime-trip.PickupTime)]++
	m.stat.Fare[stats.FareBucket(trip.Fare)]++

	metricRecordsMapped.Inc()
}

// parseRecord splits the nine comma-separated fields (eight values plus
// padding) and parses the numeric types.
func parseRecord(line []byte) (records.Trip, error) {
	fields := strings.Split(strings.TrimRight(string(line), " \n"), ",")
	if len(fields) != 9 {
		return records.Trip{}, strconv.ErrSyntax
	}

	var trip records.Trip
	var err error

	if trip.PickupTime, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
		return records.Trip{}, err
	}
	if trip.DropoffTime, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return records.Trip{}, err
	}
	if trip.PickupLon, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return records.Trip{}, err
	}
	if trip.PickupLat, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return records.Trip{}, err
	}
	if trip.DropoffLon, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return records.Trip{}, err
	}
	if trip.DropoffLat, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return records.Trip{}, err
	}
	if trip.Distance, err = strconv.ParseFloat(fields[6], 64); err != nil {
		return records.Trip{}, err
	}
	if trip.Fare, err = strconv.ParseFloat(fields[7], 64); err != nil {
		return records.Trip{}, err
	}

	return trip, nil
}
