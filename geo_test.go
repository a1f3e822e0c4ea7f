package pa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeoURI(t *testing.T) {
	loc, err := ParseGeoURI("geo:48.858,2.294,35")
	require.NoError(t, err)
	assert.Equal(t, Location{Lat: 48.858, Lon: 2.294, Alt: 35}, loc)
}

func TestParseGeoURIWithoutAltitude(t *testing.T) {
	loc, err := ParseGeoURI("geo:48.858,2.294")
	require.NoError(t, err)
	assert.Equal(t, Location{Lat: 48.858, Lon: 2.294}, loc)
}

func TestParseGeoURIStripsParameters(t *testing.T) {
	loc, err := ParseGeoURI("geo:48.858,2.294;crs=wgs84;u=10")
	require.NoError(t, err)
	assert.Equal(t, Location{Lat: 48.858, Lon: 2.294}, loc)
}

func TestParseGeoURIRejectsBadScheme(t *testing.T) {
	_, err := ParseGeoURI("48.858,2.294")
	assert.Error(t, err)
}

func TestParseGeoURIRejectsOutOfRangeCoordinates(t *testing.T) {
	_, err := ParseGeoURI("geo:120,2.294")
	assert.Error(t, err)

	_, err = ParseGeoURI("geo:48.858,200")
	assert.Error(t, err)
}

func TestParseGeoURIRejectsWrongPartCount(t *testing.T) {
	_, err := ParseGeoURI("geo:48.858")
	assert.Error(t, err)

	_, err = ParseGeoURI("geo:48.858,2.294,35,1")
	assert.Error(t, err)
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "geo:48.858000,2.294000", Location{Lat: 48.858, Lon: 2.294}.String())
	assert.Equal(t, "geo:48.858000,2.294000,35.000000", Location{Lat: 48.858, Lon: 2.294, Alt: 35}.String())
}
