package records

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Trip is one normalized record: timestamps in seconds since the dataset
// epoch, coordinates in lon/lat, distance in miles, fare in dollars.
type Trip struct {
	PickupTime  int64
	DropoffTime int64
	PickupLon   float64
	PickupLat   float64
	DropoffLon  float64
	DropoffLat  float64
	Distance    float64
	Fare        float64
}

// FormatRecord renders the canonical fixed-width line: nine comma
// separated fields (eight values plus padding), RecordLength bytes
// including the terminator.
func FormatRecord(t Trip) ([]byte, error) {
	fields := strings.Join([]string{
		strconv.FormatInt(t.PickupTime, 10),
		strconv.FormatInt(t.DropoffTime, 10),
		formatFloat(t.PickupLon),
		formatFloat(t.PickupLat),
		formatFloat(t.DropoffLon),
		formatFloat(t.DropoffLat),
		formatFloat(t.Distance),
		formatFloat(t.Fare),
		"", // padding field
	}, ",")

	if len(fields) > RecordLength-1 {
		return nil, errors.Errorf("record %q exceeds %d bytes", fields, RecordLength-1)
	}

	return []byte(fmt.Sprintf("%-*s\n", RecordLength-1, fields)), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
