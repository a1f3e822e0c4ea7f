package pa

import (
	"fmt"
	"strconv"
	"strings"
)

// Location represents a geographic position parsed from a geo: URI (RFC
// 5870), as used for a printer's geo-location attribute and DNS-SD LOC
// record.
type Location struct {
	Lat, Lon, Alt float64
}

// ParseGeoURI parses a "geo:<lat>,<lon>[,<alt>]" URI into a Location.
func ParseGeoURI(uri string) (Location, error) {
	const scheme = "geo:"
	if !strings.HasPrefix(uri, scheme) {
		return Location{}, fmt.Errorf("geo: uri must start with %q, got %q", scheme, uri)
	}
	body := uri[len(scheme):]
	if semi := strings.IndexByte(body, ';'); semi != -1 {
		body = body[:semi] // strip CRS/uncertainty parameters, we only need coordinates
	}
	parts := strings.Split(body, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Location{}, fmt.Errorf("geo: uri must have 2 or 3 coordinates, got %d", len(parts))
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Location{}, fmt.Errorf("geo: invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Location{}, fmt.Errorf("geo: invalid longitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return Location{}, fmt.Errorf("geo: latitude %f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return Location{}, fmt.Errorf("geo: longitude %f out of range", lon)
	}
	var alt float64
	if len(parts) == 3 {
		alt, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return Location{}, fmt.Errorf("geo: invalid altitude: %w", err)
		}
	}
	return Location{Lat: lat, Lon: lon, Alt: alt}, nil
}

// String renders the Location back into a geo: URI.
func (l Location) String() string {
	if l.Alt != 0 {
		return fmt.Sprintf("geo:%f,%f,%f", l.Lat, l.Lon, l.Alt)
	}
	return fmt.Sprintf("geo:%f,%f", l.Lat, l.Lon)
}
