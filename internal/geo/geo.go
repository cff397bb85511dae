// Package geo classifies trip coordinates against the NYC district
// polygons. Districts carry borough-encoded integer indexes: borough id =
// index / 10000, and the polygons of one feature take successive indexes.
// Classification scans districts in ascending index order; the order is
// the tie-break for points on shared edges, so it must be stable.
package geo

import (
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Boroughs enumerates the five NYC top-level regions.
var Boroughs = map[int]string{
	1: "Manhattan",
	2: "Bronx",
	3: "Brooklyn",
	4: "Queens",
	5: "Staten Island",
}

// BoroughIDs is the fixed report order.
var BoroughIDs = []int{1, 2, 3, 4, 5}

type Point struct {
	Lon float64
	Lat float64
}

// Polygon is one simple polygon: an exterior ring plus optional holes.
type Polygon struct {
	exterior []Point
	holes    [][]Point
}

// Contains reports whether the point lies inside the exterior ring and
// outside every hole, by even-odd ray casting. Points exactly on an edge
// resolve deterministically (half-open edge test), which is all callers
// rely on.
func (p *Polygon) Contains(pt Point) bool {
	if !pointInRing(pt, p.exterior) {
		return false
	}
	for _, h := range p.holes {
		if pointInRing(pt, h) {
			return false
		}
	}
	return true
}

func pointInRing(pt Point, ring []Point) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > pt.Lat) != (b.Lat > pt.Lat) &&
			pt.Lon < (b.Lon-a.Lon)*(pt.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lon {
			inside = !inside
		}
	}
	return inside
}

// District is the unit of geographic aggregation.
type District struct {
	Index   int
	Name    string
	Polygon Polygon
}

func (d *District) Contains(pt Point) bool {
	return d.Polygon.Contains(pt)
}

// Index holds the loaded district set, ordered by district index.
// It is immutable after load and safe for concurrent readers.
type Index struct {
	districts []District
}

type featureCollection struct {
	Features []struct {
		Properties struct {
			BoroName string  `json:"boro_name"`
			BoroCode flexInt `json:"boro_code"`
			BoroCD   flexInt `json:"boro_cd"`
		} `json:"properties"`
		Geometry struct {
			Type        string              `json:"type"`
			Coordinates jsoniter.RawMessage `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// flexInt accepts the integer-ish property encodings found in the
// district files: 1, "1" and "101".
type flexInt int

func (fi *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*fi = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*fi = flexInt(f)
	return nil
}

// LoadFile loads a district feature collection from disk.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open district file %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a GeoJSON feature collection. Borough features (boro_name)
// index as code*10000, community districts (boro_cd) as cd*100.
// MultiPolygons are exploded: patch i of a feature gets base+i+1.
func Load(r io.Reader) (*Index, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, errors.Wrap(err, "error decoding district feature collection")
	}

	var districts []District
	for _, feat := range fc.Features {
		var name string
		var base int
		if feat.Properties.BoroName != "" {
			name = feat.Properties.BoroName
			base = int(feat.Properties.BoroCode) * 10000
		} else {
			name = "Community District " + strconv.Itoa(int(feat.Properties.BoroCD))
			base = int(feat.Properties.BoroCD) * 100
		}

		var patches [][][][]float64
		switch feat.Geometry.Type {
		case "MultiPolygon":
			if err := json.Unmarshal(feat.Geometry.Coordinates, &patches); err != nil {
				return nil, errors.Wrapf(err, "bad MultiPolygon coordinates for %s", name)
			}
		case "Polygon":
			var single [][][]float64
			if err := json.Unmarshal(feat.Geometry.Coordinates, &single); err != nil {
				return nil, errors.Wrapf(err, "bad Polygon coordinates for %s", name)
			}
			patches = [][][][]float64{single}
		default:
			return nil, errors.Errorf("unsupported geometry type %q for %s", feat.Geometry.Type, name)
		}

		for i, rings := range patches {
			poly, err := newPolygon(rings)
			if err != nil {
				return nil, errors.Wrapf(err, "bad patch %d of %s", i, name)
			}
			districts = append(districts, District{
				Index:   base + i + 1,
				Name:    name,
				Polygon: poly,
			})
		}
	}

	sort.Slice(districts, func(i, j int) bool {
		return districts[i].Index < districts[j].Index
	})

	return &Index{districts: districts}, nil
}

func newPolygon(rings [][][]float64) (Polygon, error) {
	if len(rings) == 0 {
		return Polygon{}, errors.New("polygon has no rings")
	}

	conv := func(ring [][]float64) ([]Point, error) {
		pts := make([]Point, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 {
				return nil, errors.New("ring coordinate with fewer than 2 values")
			}
			pts = append(pts, Point{Lon: c[0], Lat: c[1]})
		}
		return pts, nil
	}

	ext, err := conv(rings[0])
	if err != nil {
		return Polygon{}, err
	}

	p := Polygon{exterior: ext}
	for _, h := range rings[1:] {
		hole, err := conv(h)
		if err != nil {
			return Polygon{}, err
		}
		p.holes = append(p.holes, hole)
	}
	return p, nil
}

// Classify returns the index of the first district containing the point,
// scanning in ascending index order.
func (x *Index) Classify(lon, lat float64) (int, bool) {
	pt := Point{Lon: lon, Lat: lat}
	for i := range x.districts {
		if x.districts[i].Contains(pt) {
			return x.districts[i].Index, true
		}
	}
	return 0, false
}

// ClassifyTrip resolves both trip endpoints in a single ordered scan with
// early exit once both are found. A zero index means the endpoint lies
// outside every district.
func (x *Index) ClassifyTrip(pickup, dropoff Point) (pickupDistrict, dropoffDistrict int) {
	for i := range x.districts {
		d := &x.districts[i]
		if pickupDistrict == 0 && d.Contains(pickup) {
			pickupDistrict = d.Index
		}
		if dropoffDistrict == 0 && d.Contains(dropoff) {
			dropoffDistrict = d.Index
		}
		if pickupDistrict != 0 && dropoffDistrict != 0 {
			break
		}
	}
	return pickupDistrict, dropoffDistrict
}

// Districts returns the ordered district set.
func (x *Index) Districts() []District {
	return x.districts
}

func (x *Index) Len() int {
	return len(x.districts)
}
