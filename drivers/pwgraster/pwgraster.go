// Package pwgraster implements a generic pa/driver.Driver over PWG/URF-style
// raster output: any device.Device that accepts a byte stream of packed
// 1-bit or 24-bit RGB scanlines (network raster printers, the "file"
// and "socket" transports, dry-run captures). Adapted from the thermoprint
// Raster type (raster.go) and the bitmap package's dithering/scaling,
// generalized from the LX-D02's fixed packet framing to a plain scanline
// stream driven by the resolution and color mode requested in the job.
package pwgraster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/paprintd/paprintd/bitmap"
	"github.com/paprintd/paprintd/pa/device"
	"github.com/paprintd/paprintd/pa/driver"
)

func init() {
	driver.Register("pwgraster", New)
}

const defaultWidth = 832 // 203dpi, 4.1-inch (104mm) printable width

// Driver rasterises whole page images to packed scanlines and writes them
// straight to the device, with no handshake or flow control: it targets
// dumb raster-over-the-wire printers rather than a specific chipset.
type Driver struct {
	mu    sync.Mutex
	width int
}

// New constructs a pwgraster driver with the default line width.
func New() driver.Driver {
	return &Driver{width: defaultWidth}
}

func (d *Driver) Capabilities() driver.Capabilities {
	return driver.Capabilities{
		MakeAndModel: "Generic PWG Raster Printer",
		Resolutions:  []driver.Resolution{{X: 203, Y: 203}, {X: 300, Y: 300}},
		ColorModes:   []driver.ColorMode{driver.ColorModeMonochrome, driver.ColorModeColor, driver.ColorModeAuto},
		RasterTypes:  []driver.RasterColorType{driver.RasterBlackWhite1, driver.RasterSGray8, driver.RasterSRGB8},
		Media:        []string{"iso_a4_210x297mm", "na_letter_8.5x11in"},
		DefaultMedia: "iso_a4_210x297mm",
		Duplex:       true,
		DefaultFormat: "image/pwg-raster",
	}
}

func (d *Driver) Print(ctx context.Context, dev device.Device, job driver.JobInfo, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("pwgraster: decode page image: %w", err)
	}
	return d.PrintImage(ctx, dev, job, img)
}

// PrintImage satisfies driver.RasterPrinter: it renders an already-decoded
// page directly, skipping the encode/decode round trip Print does for raw
// document bytes.
func (d *Driver) PrintImage(ctx context.Context, dev device.Device, job driver.JobInfo, img image.Image) error {
	if err := d.RStartJob(ctx, dev, job); err != nil {
		return err
	}
	if err := d.RStartPage(ctx, dev, job, 1); err != nil {
		return err
	}

	width := d.lineWidth()
	resized := bitmap.ResizeToFit(img, width)
	rendered := d.render(resized, job)

	bounds := rendered.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.RWriteLine(ctx, dev, y, packLine(rendered, y, job.ColorMode)); err != nil {
			return err
		}
	}

	if err := d.REndPage(ctx, dev, job, 1); err != nil {
		return err
	}
	return d.REndJob(ctx, dev, job)
}

func (d *Driver) lineWidth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.width == 0 {
		return defaultWidth
	}
	return d.width
}

// render applies monochrome dithering unless the job asked for color,
// mirroring the document/photo auto-detection the thermoprint Raster type
// uses to decide whether to dither at all.
func (d *Driver) render(img image.Image, job driver.JobInfo) image.Image {
	if job.ColorMode == driver.ColorModeColor {
		return img
	}
	if bitmap.IsDocument(img, 50, 200) {
		return img
	}
	return bitmap.DitherDefault(img, bitmap.DefaultGamma)
}

// packLine renders one scanline in the PWG raster byte layout: 3 bytes per
// pixel for color, 1 bit per pixel for every other color mode. There is no
// 8-bit grayscale layout.
func packLine(img image.Image, y int, mode driver.ColorMode) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()

	switch mode {
	case driver.ColorModeColor:
		line := make([]byte, width*3)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, y).RGBA()
			line[x*3] = byte(r >> 8)
			line[x*3+1] = byte(g >> 8)
			line[x*3+2] = byte(b >> 8)
		}
		return line
	default:
		line := make([]byte, (width+7)/8)
		for x := 0; x < width; x++ {
			if bitmap.PixelBit(img, x, y, bitmap.DefaultThreshold) {
				line[x/8] |= 1 << (7 - uint(x%8))
			}
		}
		return line
	}
}

func (d *Driver) RStartJob(ctx context.Context, dev device.Device, job driver.JobInfo) error {
	return nil
}

func (d *Driver) RStartPage(ctx context.Context, dev device.Device, job driver.JobInfo, pageNumber int) error {
	return nil
}

func (d *Driver) RWriteLine(ctx context.Context, dev device.Device, y int, line []byte) error {
	_, err := dev.Write(line)
	if err != nil {
		return fmt.Errorf("pwgraster: write line %d: %w", y, err)
	}
	return nil
}

func (d *Driver) REndPage(ctx context.Context, dev device.Device, job driver.JobInfo, pageNumber int) error {
	return nil
}

func (d *Driver) REndJob(ctx context.Context, dev device.Device, job driver.JobInfo) error {
	return nil
}

// Identify has no hardware signal to drive on a generic raster device; it
// does nothing and returns nil.
func (d *Driver) Identify(ctx context.Context, dev device.Device, message string) error {
	return nil
}

// Status has no generic raster feedback channel to query.
func (d *Driver) Status(ctx context.Context, dev device.Device) ([]string, error) {
	return nil, nil
}

func (d *Driver) TestPage(ctx context.Context, dev device.Device, pattern string) error {
	img := testPattern(pattern, d.lineWidth())
	if img == nil {
		return fmt.Errorf("pwgraster: unknown test pattern %q", pattern)
	}
	return d.PrintImage(ctx, dev, driver.JobInfo{ColorMode: driver.ColorModeMonochrome}, img)
}
