// Package lxd02 implements a pa/driver.Driver for the Dolebo LX-D02
// Bluetooth thermal receipt printer, adapted from the thermoprint LXD02
// client (lx-d02.go, raster.go) to the driver registry's
// capability+callback shape and pa/device's abstracted transport.
package lxd02

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/paprintd/paprintd/bitmap"
	"github.com/paprintd/paprintd/pa/device"
	"github.com/paprintd/paprintd/pa/driver"
)

func init() {
	driver.Register("lxd02", New)
}

const (
	lineWidth      = 384 // 48 bytes, 58mm paper at 203dpi
	lineWidthBytes = lineWidth / 8
	dpi            = 203
	linesPerPacket = 2

	defaultEnergy    uint8 = 2
	printInterval          = 7 * time.Millisecond
	sendRetryDelay         = 10 * time.Millisecond
	maxSendRetries         = 3
	responseTimeout        = 3 * time.Second
)

// notifier is implemented by device.Device backends that can deliver
// asynchronous printer notifications (the LX-D02's status/retransmit/
// finished/hold messages arrive this way over BLE). Devices that don't
// implement it (a file or socket device used in tests) get packets written
// straight through with fixed pacing and no handshake.
type notifier interface {
	EnableNotifications(fn func([]byte)) error
}

// Driver prints page images on an LX-D02 by rasterising to 1-bit lines and
// framing them in the printer's "55 m n <data> 00" packet format.
type Driver struct {
	mu     sync.Mutex
	energy uint8
	lines  [][]byte // accumulated 1-bit lines for the page in progress
}

// New constructs an LX-D02 driver with the firmware's default energy level.
func New() driver.Driver {
	return &Driver{energy: defaultEnergy}
}

func (d *Driver) Capabilities() driver.Capabilities {
	return driver.Capabilities{
		MakeAndModel: "Dolebo LX-D02",
		Resolutions:  []driver.Resolution{{X: dpi, Y: dpi}},
		ColorModes:   []driver.ColorMode{driver.ColorModeMonochrome},
		RasterTypes:  []driver.RasterColorType{driver.RasterBlackWhite1},
		Media:        []string{"roll_max_58mm"},
		DefaultMedia: "roll_max_58mm",
		Duplex:       false,
		DefaultFormat: "image/urf",
	}
}

// Print decodes data as a page image, rasterises it to the printer's line
// width, and drives it through the R* callback sequence as if the scheduler
// had called them directly.
func (d *Driver) Print(ctx context.Context, dev device.Device, job driver.JobInfo, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("lxd02: decode page image: %w", err)
	}

	if err := d.RStartJob(ctx, dev, job); err != nil {
		return err
	}
	if err := d.RStartPage(ctx, dev, job, 1); err != nil {
		return err
	}

	resized := bitmap.ResizeToFit(img, lineWidth)
	dithered := bitmap.DitherDefault(resized, bitmap.DefaultGamma)
	bounds := dithered.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.RWriteLine(ctx, dev, y, rasteriseLine(dithered, y)); err != nil {
			return err
		}
	}

	if err := d.REndPage(ctx, dev, job, 1); err != nil {
		return err
	}
	return d.REndJob(ctx, dev, job)
}

func rasteriseLine(img image.Image, y int) []byte {
	line := make([]byte, lineWidthBytes)
	for x := 0; x < lineWidth; x++ {
		if bitmap.PixelBit(img, x, y, bitmap.DefaultThreshold) {
			line[x/8] |= 1 << (7 - uint(x%8))
		}
	}
	return line
}

func (d *Driver) RStartJob(ctx context.Context, dev device.Device, job driver.JobInfo) error {
	d.mu.Lock()
	d.lines = d.lines[:0]
	d.mu.Unlock()
	return d.sendInitSequence(ctx, dev)
}

func (d *Driver) RStartPage(ctx context.Context, dev device.Device, job driver.JobInfo, pageNumber int) error {
	d.mu.Lock()
	d.lines = d.lines[:0]
	d.mu.Unlock()
	return nil
}

// RWriteLine buffers one rasterised scanline; the LX-D02 packet format
// carries two lines per packet, so REndPage pads to an even count and
// flushes them all.
func (d *Driver) RWriteLine(ctx context.Context, dev device.Device, y int, line []byte) error {
	d.mu.Lock()
	d.lines = append(d.lines, append([]byte(nil), line...))
	d.mu.Unlock()
	return nil
}

func (d *Driver) REndPage(ctx context.Context, dev device.Device, job driver.JobInfo, pageNumber int) error {
	d.mu.Lock()
	lines := d.lines
	d.lines = nil
	d.mu.Unlock()

	if len(lines)%2 != 0 {
		lines = append(lines, make([]byte, lineWidthBytes))
	}
	packets := serialisePackets(lines)
	return d.sendPackets(ctx, dev, packets)
}

func (d *Driver) REndJob(ctx context.Context, dev device.Device, job driver.JobInfo) error {
	slog.DebugContext(ctx, "lxd02: job complete", "job", job.JobID)
	return nil
}

// serialisePackets frames pairs of scanlines as "55 m n <line0><line1> 00"
// packets, m/n being the big-endian packet index.
func serialisePackets(lines [][]byte) [][]byte {
	packets := make([][]byte, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		idx := i / 2
		packet := make([]byte, 0, 3+2*lineWidthBytes+1)
		packet = append(packet, 0x55, byte(idx>>8), byte(idx))
		packet = append(packet, lines[i]...)
		packet = append(packet, lines[i+1]...)
		packet = append(packet, 0x00)
		packets = append(packets, packet)
	}
	return packets
}

type notification uint16

const (
	ntStatus     notification = 0x5A02
	ntRetransmit notification = 0x5A05
	ntFinished   notification = 0x5A06
	ntCooldown   notification = 0x5A07
	ntHold       notification = 0x5A08
)

// sendInitSequence performs the LX-D02's four-command handshake (three fixed
// magic sequences plus the configured energy level), waiting for each ack
// when the device exposes notifications.
func (d *Driver) sendInitSequence(ctx context.Context, dev device.Device) error {
	init := [][]byte{
		{0x5a, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		{0x5a, 0x0a, 0xB5, 0x7C, 0x4C, 0xB8, 0xAE, 0x70, 0x51, 0xE6, 0xD3, 0x06},
		{0x5a, 0x0b, 0x66, 0x3B, 0x62, 0x8C, 0x1A, 0x69, 0xBF, 0x54, 0x74, 0x4C},
		{0x5a, 0x0c, d.energy},
	}
	n, ok := dev.(notifier)
	if !ok {
		// no feedback channel (file/socket device in tests): send without waiting.
		for _, cmd := range init {
			if err := d.sendOnce(dev, cmd); err != nil {
				return err
			}
		}
		return nil
	}

	ackCh := make(chan []byte, 1)
	if err := n.EnableNotifications(func(v []byte) {
		select {
		case ackCh <- v:
		default:
		}
	}); err != nil {
		return fmt.Errorf("lxd02: enable notifications: %w", err)
	}

	for _, cmd := range init {
		if err := d.sendOnce(dev, cmd); err != nil {
			return err
		}
		select {
		case <-ackCh:
		case <-time.After(responseTimeout):
			return fmt.Errorf("lxd02: timeout waiting for init ack to % X", cmd[:2])
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// sendPackets paces packet delivery and, on devices with a notification
// channel, reacts to retransmit/hold/cooldown signals from the firmware.
func (d *Driver) sendPackets(ctx context.Context, dev device.Device, packets [][]byte) error {
	if len(packets) == 0 {
		return errors.New("lxd02: nothing to print")
	}

	n, ok := dev.(notifier)
	if !ok {
		t := time.NewTicker(printInterval)
		defer t.Stop()
		for _, pkt := range packets {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
			if err := d.sendOnce(dev, pkt); err != nil {
				return err
			}
		}
		return nil
	}

	ntfCh := make(chan []byte, 10)
	if err := n.EnableNotifications(func(v []byte) { ntfCh <- v }); err != nil {
		return fmt.Errorf("lxd02: enable notifications: %w", err)
	}

	t := time.NewTicker(printInterval)
	defer t.Stop()

	i := 0
	for i < len(packets) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := d.sendOnce(dev, packets[i]); err != nil {
				return err
			}
			i++
		case v := <-ntfCh:
			if len(v) < 2 {
				continue
			}
			switch notification(uint16(v[0])<<8 | uint16(v[1])) {
			case ntCooldown:
				time.Sleep(100 * time.Millisecond)
			case ntHold:
				slog.DebugContext(ctx, "lxd02: printer signalled hold")
			case ntRetransmit:
				if len(v) >= 4 {
					i = int(v[2])<<8 | int(v[3])
				}
			case ntFinished:
				return nil
			}
		}
	}

	// all packets sent: wait for the firmware's completion notification.
	select {
	case v := <-ntfCh:
		if len(v) >= 2 && notification(uint16(v[0])<<8|uint16(v[1])) == ntFinished {
			return nil
		}
	case <-time.After(responseTimeout):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (d *Driver) sendOnce(dev device.Device, data []byte) error {
	var err error
	for attempt := 0; attempt < maxSendRetries; attempt++ {
		if _, err = dev.Write(data); err == nil {
			return nil
		}
		time.Sleep(sendRetryDelay)
	}
	return fmt.Errorf("lxd02: write failed after %d attempts: %w", maxSendRetries, err)
}

// Identify flashes the printer by running the running-lines test pattern,
// the closest thing this hardware has to a beep/blink.
func (d *Driver) Identify(ctx context.Context, dev device.Device, message string) error {
	slog.InfoContext(ctx, "lxd02: identify", "message", message)
	return d.TestPage(ctx, dev, "running-lines")
}

// Status reports hardware status via the 0x5A02 notification. Without a
// notification-capable device there is nothing to report.
func (d *Driver) Status(ctx context.Context, dev device.Device) ([]string, error) {
	n, ok := dev.(notifier)
	if !ok {
		return nil, nil
	}
	statusCh := make(chan []byte, 1)
	if err := n.EnableNotifications(func(v []byte) {
		select {
		case statusCh <- v:
		default:
		}
	}); err != nil {
		return nil, fmt.Errorf("lxd02: enable notifications: %w", err)
	}
	if err := d.sendOnce(dev, []byte{0x5a, 0x03}); err != nil {
		return nil, err
	}
	select {
	case v := <-statusCh:
		return parseStatusReasons(v), nil
	case <-time.After(responseTimeout):
		return nil, fmt.Errorf("lxd02: timeout waiting for status")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func parseStatusReasons(data []byte) []string {
	if len(data) < 5 || !bytes.HasPrefix(data, []byte{0x5a, 0x02}) {
		return nil
	}
	var reasons []string
	if data[3] != 0 {
		reasons = append(reasons, "media-empty")
	}
	if data[2] < 10 {
		reasons = append(reasons, "marker-low")
	}
	return reasons
}

func (d *Driver) TestPage(ctx context.Context, dev device.Device, pattern string) error {
	fn, ok := testPatterns[pattern]
	if !ok {
		return fmt.Errorf("lxd02: unknown test pattern %q", pattern)
	}
	img := fn(lineWidth)

	if err := d.RStartJob(ctx, dev, driver.JobInfo{}); err != nil {
		return err
	}
	if err := d.RStartPage(ctx, dev, driver.JobInfo{}, 1); err != nil {
		return err
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := d.RWriteLine(ctx, dev, y, rasteriseLine(img, y)); err != nil {
			return err
		}
	}
	if err := d.REndPage(ctx, dev, driver.JobInfo{}, 1); err != nil {
		return err
	}
	return d.REndJob(ctx, dev, driver.JobInfo{})
}
