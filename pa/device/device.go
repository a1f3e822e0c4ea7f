// Package device abstracts the transports a driver can print over: local
// files, TCP sockets, USB-attached printers and Bluetooth peripherals.
package device

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Kind is a bitmask used to filter device enumeration, matching spec.md's
// dns-sd/local/network/usb split.
type Kind uint8

const (
	KindDNSSD Kind = 1 << iota
	KindLocal
	KindNetwork
	KindUSB
	KindCustom // Bluetooth and other non-standard transports

	KindAll = KindDNSSD | KindLocal | KindNetwork | KindUSB | KindCustom
)

// Info describes one device discovered by enumeration, before it is opened.
type Info struct {
	URI      string
	Kind     Kind
	MakeModel string
}

// Device is an open, writable connection to a physical or virtual printer.
// Implementations must be safe for a single concurrent writer (the
// scheduler never opens the same device from two goroutines at once).
type Device interface {
	io.WriteCloser
	// URI returns the device URI this instance was opened from.
	URI() string
}

// Enumerator discovers devices of a given Kind without opening them.
type Enumerator func(ctx context.Context, mask Kind) ([]Info, error)

// Open opens a device from its URI. The scheme selects the transport:
// "file:", "socket://host:port" (or "tcp://host:port"), or a scheme added
// with Register (e.g. "bt://" for Bluetooth).
func Open(ctx context.Context, uri string) (Device, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("device: invalid uri %q: %w", uri, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return OpenFile(u.Path)
	case "socket", "tcp":
		return OpenSocket(ctx, u.Host)
	default:
		if open, ok := registry[u.Scheme]; ok {
			return open(ctx, uri)
		}
		return nil, fmt.Errorf("device: unsupported scheme %q", u.Scheme)
	}
}

// OpenFunc opens a device for a custom scheme.
type OpenFunc func(ctx context.Context, uri string) (Device, error)

var registry = map[string]OpenFunc{}

// Register adds support for a custom device URI scheme (e.g. this
// package's Bluetooth transport registers "bt").
func Register(scheme string, fn OpenFunc) {
	registry[strings.ToLower(scheme)] = fn
}
