// Package driver defines the pluggable printer driver interface: a
// capability descriptor plus the callback set the scheduler invokes while
// running a job through a raster pipeline. Generalizes the teacher's
// single-purpose thermal-printer Driver (ippsrv/printer.go) into the
// capability+callback shape PAPPL-style printer applications expose.
package driver

import (
	"context"
	"image"

	"github.com/paprintd/paprintd/pa/device"
)

// ColorMode enumerates supported color rendering modes.
type ColorMode string

const (
	ColorModeAuto      ColorMode = "auto"
	ColorModeColor     ColorMode = "color"
	ColorModeMonochrome ColorMode = "monochrome"
)

// RasterColorType matches the PWG raster color space identifiers a driver
// can consume.
type RasterColorType string

const (
	RasterBlackWhite1  RasterColorType = "black-1"
	RasterSGray8       RasterColorType = "sgray-8"
	RasterSRGB8        RasterColorType = "srgb-8"
)

// Resolution is a single supported print resolution in dots per inch.
type Resolution struct {
	X, Y int
}

// Capabilities describes what a driver supports: used to answer
// Get-Printer-Attributes and to build DNS-SD TXT records (URF/Color/Duplex).
type Capabilities struct {
	MakeAndModel string
	Resolutions  []Resolution
	ColorModes   []ColorMode
	RasterTypes  []RasterColorType
	Media        []string
	DefaultMedia string
	Duplex       bool

	// DefaultFormat is the document-format this driver falls back to when
	// a job carries no usable format hint (job.ResolveDocumentFormat).
	DefaultFormat string
}

// JobInfo carries the subset of job attributes a driver needs to start
// rendering: requested media, resolution, color mode, and copies.
type JobInfo struct {
	JobID      int32
	Media      string
	Resolution Resolution
	ColorMode  ColorMode
	Copies     int
}

// Driver is implemented by a concrete printer backend. The scheduler calls
// Print for each job; the R* callbacks form the raster pipeline that a
// driver's Print runs in order:
// RStartJob, then for each page RStartPage, RWriteLine* , REndPage, then
// REndJob once the job is done.
type Driver interface {
	Capabilities() Capabilities

	// Print is the simple, whole-document entry point: decode/convert data
	// and drive the raster pipeline internally. Most drivers implement
	// Print in terms of the R* callbacks below.
	Print(ctx context.Context, dev device.Device, job JobInfo, data []byte) error

	RStartJob(ctx context.Context, dev device.Device, job JobInfo) error
	RStartPage(ctx context.Context, dev device.Device, job JobInfo, pageNumber int) error
	RWriteLine(ctx context.Context, dev device.Device, y int, line []byte) error
	REndPage(ctx context.Context, dev device.Device, job JobInfo, pageNumber int) error
	REndJob(ctx context.Context, dev device.Device, job JobInfo) error

	// Identify makes the physical printer identify itself (beep, flash,
	// display a message), for Identify-Printer.
	Identify(ctx context.Context, dev device.Device, message string) error
	// Status reports live printer status (paper out, cover open, etc.) as
	// IPP printer-state-reasons keywords.
	Status(ctx context.Context, dev device.Device) ([]string, error)
	// TestPage prints a named test pattern, used for diagnostics and the
	// CUPS/driverless "print test page" affordance.
	TestPage(ctx context.Context, dev device.Device, pattern string) error
}

// RasterPrinter is satisfied by a Driver that can also render an
// already-decoded page image directly, skipping the decode step of Print.
// The generic pwgraster driver implements it and still streams the page
// line by line through the R* callbacks.
type RasterPrinter interface {
	Driver
	PrintImage(ctx context.Context, dev device.Device, job JobInfo, img image.Image) error
}

// Registry maps driver names (as used in pa.PrinterConfig.Driver) to
// constructors. Concrete driver packages register themselves in their
// init() function.
var Registry = map[string]func() Driver{}

// Register adds a driver constructor under name.
func Register(name string, ctor func() Driver) {
	Registry[name] = ctor
}

// New instantiates a registered driver by name.
func New(name string) (Driver, bool) {
	ctor, ok := Registry[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}
