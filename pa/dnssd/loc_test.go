package dnssd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paprintd/paprintd"
)

func TestDegreesToLOC(t *testing.T) {
	// the equator/prime-meridian offset (2^31) is the zero-degree point.
	assert.Equal(t, uint32(1)<<31, degreesToLOC(0))

	// one degree north is 3600 * 1000 milli-arc-seconds above the offset.
	assert.Equal(t, uint32(1)<<31+3_600_000, degreesToLOC(1))

	// a negative degree moves below the offset.
	assert.Equal(t, uint32(1)<<31-3_600_000, degreesToLOC(-1))
}

func TestMetersToLOCAltitude(t *testing.T) {
	// sea level (0m) sits 100000m above the LOC RR's reference floor,
	// represented in centimeters.
	assert.Equal(t, uint32(100000*100), metersToLOCAltitude(0))
	assert.Equal(t, uint32((100000+35)*100), metersToLOCAltitude(35))
}

func TestBuildLOC(t *testing.T) {
	loc := pa.Location{Lat: 48.858, Lon: 2.294, Alt: 35}
	rr := buildLOC("printer1.local.", loc)

	assert.Equal(t, "printer1.local.", rr.Hdr.Name)
	assert.Equal(t, degreesToLOC(48.858), rr.Latitude)
	assert.Equal(t, degreesToLOC(2.294), rr.Longitude)
	assert.Equal(t, metersToLOCAltitude(35), rr.Altitude)
}
