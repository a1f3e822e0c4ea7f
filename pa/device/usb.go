package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// EnumerateUSB lists USB printer character devices under /dev/usb (Linux
// usblp driver nodes). Neither the teacher nor the rest of the pack bundle
// a USB host-mode library, so enumeration here is plain directory listing
// and printing happens through the same fileDevice as "file:" URIs — see
// DESIGN.md for why this stays on the standard library.
func EnumerateUSB(ctx context.Context) ([]Info, error) {
	matches, err := filepath.Glob("/dev/usb/lp*")
	if err != nil {
		return nil, fmt.Errorf("device: enumerate usb: %w", err)
	}
	infos := make([]Info, 0, len(matches))
	for _, m := range matches {
		if _, err := os.Stat(m); err != nil {
			continue
		}
		infos = append(infos, Info{URI: "file://" + m, Kind: KindUSB})
	}
	return infos, nil
}
