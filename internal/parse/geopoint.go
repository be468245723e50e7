package parse

import (
	"fmt"
	"regexp"

	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

var (
	geopointDefault = regexp.MustCompile(`^([^, ]+), ?([^ ]+)$`)
	geopointArray   = regexp.MustCompile(`^\s*\[\s*(.+),\s*(.+)\s*\]\s*$`)
	geopointLonLat  = regexp.MustCompile(`^\s*\{\s*"lon":\s*(.+),\s*"lat":\s*(.+)\s*\}\s*$`)
	geopointLatLon  = regexp.MustCompile(`^\s*\{\s*"lat":\s*(.+),\s*"lon":\s*(.+)\s*\}\s*$`)
)

func geopointConverter(format string) (converter, error) {
	switch format {
	case schema.FormatDefault:
		return func(s string) (any, bool) { return matchGeopoint(geopointDefault, s, false) }, nil
	case schema.FormatArray:
		return func(s string) (any, bool) { return matchGeopoint(geopointArray, s, false) }, nil
	case schema.FormatObject:
		return func(s string) (any, bool) {
			if p, ok := matchGeopoint(geopointLonLat, s, false); ok {
				return p, true
			}
			return matchGeopoint(geopointLatLon, s, true)
		}, nil
	}
	return nil, fmt.Errorf("%w: %q for type geopoint", schema.ErrUnknownFormat, format)
}

// matchGeopoint reads the two coordinates captured by re. swap is set when
// latitude is captured first.
func matchGeopoint(re *regexp.Regexp, s string, swap bool) (any, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	a, ok := parseFloat(m[1])
	if !ok {
		return nil, false
	}
	b, ok := parseFloat(m[2])
	if !ok {
		return nil, false
	}
	if swap {
		a, b = b, a
	}
	return table.GeoPoint{Lon: a, Lat: b}, true
}
