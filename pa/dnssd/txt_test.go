package dnssd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paprintd/paprintd/pa/driver"
)

func TestBuildTXTMinimal(t *testing.T) {
	info := PrinterInfo{
		Name:         "printer1",
		UUID:         "urn:uuid:1234",
		MakeAndModel: "Dolebo LX-D02",
	}
	txt := buildTXT(info, "")

	assert.Contains(t, txt, "txtvers=1")
	assert.Contains(t, txt, "UUID=1234")
	assert.Contains(t, txt, "ty=Dolebo LX-D02")
	assert.Contains(t, txt, "pdl=application/pdf")
	assert.NotContains(t, txt, "adminurl=")
	assert.NotContains(t, txt, "Color=T")
	assert.NotContains(t, txt, "Duplex=T")
	// note is always present, even with no content to report.
	assert.Contains(t, txt, "note=")
}

func TestBuildTXTKeyOrder(t *testing.T) {
	info := PrinterInfo{
		UUID:         "urn:uuid:1234",
		MakeAndModel: "Dolebo LX-D02",
		Note:         "front office",
		Caps: driver.Capabilities{
			ColorModes: []driver.ColorMode{driver.ColorModeColor},
			Duplex:     true,
		},
	}
	txt := buildTXT(info, "http://printer1.local:8080/")

	var keys []string
	for _, kv := range txt {
		keys = append(keys, kv[:strings.Index(kv, "=")])
	}
	assert.Equal(t, []string{"rp", "ty", "adminurl", "note", "pdl", "kind", "UUID", "URF", "Color", "Duplex", "txtvers", "qtotal", "priority"}, keys)
}

func TestBuildTXTWithCapabilities(t *testing.T) {
	info := PrinterInfo{
		UUID: "urn:uuid:1234",
		Caps: driver.Capabilities{
			Resolutions: []driver.Resolution{{X: 300, Y: 300}},
			ColorModes:  []driver.ColorMode{driver.ColorModeColor},
			RasterTypes: []driver.RasterColorType{driver.RasterSRGB8},
			Duplex:      true,
		},
		Note:     "front office",
		Location: "floor 2",
	}
	txt := buildTXT(info, "http://printer1.local:8080/")

	assert.Contains(t, txt, "adminurl=http://printer1.local:8080/")
	assert.Contains(t, txt, "note=front office")
	assert.Contains(t, txt, "lo=floor 2")
	assert.Contains(t, txt, "Color=T")
	assert.Contains(t, txt, "Duplex=T")
	assert.Contains(t, txt, "pdl=application/pdf,image/pwg-raster")
	assert.Contains(t, txt, "URF=RS300,SRGB24,V1.4,DM1")
}

func TestBuildTXTMonochromeURF(t *testing.T) {
	info := PrinterInfo{
		UUID: "urn:uuid:1234",
		Caps: driver.Capabilities{
			Resolutions: []driver.Resolution{{X: 203, Y: 203}},
			ColorModes:  []driver.ColorMode{driver.ColorModeMonochrome},
		},
	}
	txt := buildTXT(info, "")
	assert.Contains(t, txt, "URF=RS203,W8,V1.4")
}
