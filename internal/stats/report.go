package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/leoloe326/aws-training/internal/geo"
)

const reportWidth = 50

var distanceLabels = []struct {
	bucket int
	label  string
}{
	{0, "0 ~ 1"}, {1, "1 ~ 2"}, {2, "2 ~ 5"}, {5, "5 ~ 10"}, {10, "10 ~ 20"}, {20, "> 20"},
}

var tripTimeLabels = []struct {
	bucket int
	label  string
}{
	{0, "0 ~ 5"}, {300, "5 ~ 10"}, {600, "10 ~ 15"}, {900, "15 ~ 30"}, {1800, "30 ~ 45"}, {2700, "45 ~ 60"}, {3600, "> 60"},
}

var fareLabels = []struct {
	bucket int
	label  string
}{
	{0, "0 ~ 5"}, {5, "5 ~ 10"}, {10, "10 ~ 25"}, {25, "25 ~ 50"}, {50, "50 ~ 100"}, {100, "> 100"},
}

// Report pretty-prints the aggregate: borough rollup, hour distribution,
// the three histograms, and a footer with elapsed time and worker count.
func Report(w io.Writer, s *Stat, procs int) {
	date := time.Date(s.Year, time.Month(s.Month), 1, 0, 0, 0, 0, time.UTC)
	title := fmt.Sprintf(" NYC %s Cab, %s ", capitalize(s.Color), date.Format("January 2006"))
	fmt.Fprintln(w, center(title, '='))

	t := newTable(w, []string{"Borough", "Pickups", "Dropoffs"})
	for _, id := range geo.BoroughIDs {
		t.Append([]string{geo.Boroughs[id], count(s.BoroughPickups[id]), count(s.BoroughDropoffs[id])})
	}
	t.Render()

	fmt.Fprintln(w, center(" Pickup Time ", '-'))
	t = newTable(w, []string{"Hour", "Trips"})
	for hour := 0; hour < 24; hour++ {
		if n, ok := s.Hour[hour]; ok {
			t.Append([]string{fmt.Sprintf("%d:00 ~ %d:59", hour, hour), count(n)})
		}
	}
	t.Render()

	fmt.Fprintln(w, center(" Trip Distance (miles) ", '-'))
	t = newTable(w, []string{"Miles", "Trips"})
	for _, dl := range distanceLabels {
		t.Append([]string{dl.label, count(s.Distance[dl.bucket])})
	}
	t.Render()

	fmt.Fprintln(w, center(" Trip Time (minutes) ", '-'))
	t = newTable(w, []string{"Minutes", "Trips"})
	for _, tl := range tripTimeLabels {
		t.Append([]string{tl.label, count(s.TripTime[tl.bucket])})
	}
	t.Render()

	fmt.Fprintln(w, center(" Fare (dollars) ", '-'))
	t = newTable(w, []string{"Dollars", "Trips"})
	for _, fl := range fareLabels {
		t.Append([]string{fl.label, count(s.Fare[fl.bucket])})
	}
	t.Render()

	fmt.Fprintln(w, center("", '='))
	fmt.Fprintf(w, "%d records (%d invalid), took %.2f seconds using %d workers.\n",
		s.Total, s.Invalid, s.Elapsed.Seconds(), procs)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetBorder(false)
	t.SetColumnSeparator(":")
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	return t
}

func count(n int64) string {
	return strconv.FormatInt(n, 10)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func center(s string, pad byte) string {
	if len(s) >= reportWidth {
		return s
	}
	left := (reportWidth - len(s)) / 2
	right := reportWidth - len(s) - left
	return strings.Repeat(string(pad), left) + s + strings.Repeat(string(pad), right)
}
