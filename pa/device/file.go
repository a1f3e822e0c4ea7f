package device

import (
	"fmt"
	"os"
)

// fileDevice writes to a local file or device node (e.g. /dev/usb/lp0).
type fileDevice struct {
	*os.File
	path string
}

// OpenFile opens a "file:" device URI's path for writing.
func OpenFile(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("device: open file %q: %w", path, err)
	}
	return &fileDevice{File: f, path: path}, nil
}

func (d *fileDevice) URI() string {
	return "file://" + d.path
}
