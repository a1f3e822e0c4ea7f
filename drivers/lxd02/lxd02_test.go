package lxd02

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paprintd/paprintd/pa/driver"
)

// fakeDevice records every write, with no EnableNotifications method, so
// drivers exercise the plain paced-write path (matches a file or socket
// device in production).
type fakeDevice struct {
	mu      sync.Mutex
	writes  [][]byte
	closed  bool
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = append(d.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (d *fakeDevice) Close() error { d.closed = true; return nil }
func (d *fakeDevice) URI() string  { return "fake://device" }

func TestCapabilities(t *testing.T) {
	drv := New()
	caps := drv.Capabilities()
	assert.Equal(t, "Dolebo LX-D02", caps.MakeAndModel)
	assert.Equal(t, []driver.ColorMode{driver.ColorModeMonochrome}, caps.ColorModes)
}

func TestSerialisePacketsFraming(t *testing.T) {
	line0 := bytes.Repeat([]byte{0xFF}, lineWidthBytes)
	line1 := bytes.Repeat([]byte{0x00}, lineWidthBytes)
	packets := serialisePackets([][]byte{line0, line1})

	require.Len(t, packets, 1)
	pkt := packets[0]
	assert.Equal(t, byte(0x55), pkt[0])
	assert.Equal(t, byte(0x00), pkt[1]) // packet index high byte
	assert.Equal(t, byte(0x00), pkt[2]) // packet index low byte
	assert.Equal(t, line0, pkt[3:3+lineWidthBytes])
	assert.Equal(t, line1, pkt[3+lineWidthBytes:3+2*lineWidthBytes])
	assert.Equal(t, byte(0x00), pkt[len(pkt)-1])
}

func TestSerialisePacketsIndexesMultiplePackets(t *testing.T) {
	lines := make([][]byte, 4)
	for i := range lines {
		lines[i] = make([]byte, lineWidthBytes)
	}
	packets := serialisePackets(lines)
	require.Len(t, packets, 2)
	assert.Equal(t, byte(0x00), packets[0][2])
	assert.Equal(t, byte(0x01), packets[1][2])
}

func TestRasteriseLine(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, lineWidth, 1))
	for x := 0; x < 8; x++ {
		img.SetGray(x, 0, color.Gray{Y: 0}) // black
	}
	for x := 8; x < lineWidth; x++ {
		img.SetGray(x, 0, color.Gray{Y: 255}) // white
	}
	line := rasteriseLine(img, 0)
	require.Len(t, line, lineWidthBytes)
	assert.Equal(t, byte(0xFF), line[0])
	assert.Equal(t, byte(0x00), line[1])
}

func TestParseStatusReasons(t *testing.T) {
	ok := []byte{0x5a, 0x02, 20, 0x00, 0x00}
	assert.Nil(t, parseStatusReasons(ok))

	lowMarker := []byte{0x5a, 0x02, 5, 0x00, 0x00}
	assert.Equal(t, []string{"marker-low"}, parseStatusReasons(lowMarker))

	mediaEmpty := []byte{0x5a, 0x02, 20, 0x01, 0x00}
	assert.Equal(t, []string{"media-empty"}, parseStatusReasons(mediaEmpty))

	assert.Nil(t, parseStatusReasons([]byte{0x5a, 0x02}))
	assert.Nil(t, parseStatusReasons([]byte{0x00, 0x00, 0, 0, 0}))
}

func TestTestPageUnknownPattern(t *testing.T) {
	drv := &Driver{energy: defaultEnergy}
	err := drv.TestPage(context.Background(), &fakeDevice{}, "not-a-pattern")
	assert.Error(t, err)
}

func TestTestPageWritesInitAndPackets(t *testing.T) {
	dev := &fakeDevice{}
	drv := &Driver{energy: defaultEnergy}

	require.NoError(t, drv.TestPage(context.Background(), dev, "millimetres"))

	dev.mu.Lock()
	defer dev.mu.Unlock()
	require.GreaterOrEqual(t, len(dev.writes), 5) // 4 init commands + at least 1 data packet
	assert.Equal(t, byte(0x5a), dev.writes[0][0])
	assert.Equal(t, byte(0x01), dev.writes[0][1])
	assert.Equal(t, byte(0x55), dev.writes[4][0]) // first data packet after the 4 init commands
}
