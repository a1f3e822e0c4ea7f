package device

import (
	"context"
	"fmt"
	"net"
)

// socketDevice writes to a raw TCP socket, the common transport for
// network-attached printers listening on port 9100 (AppSocket/JetDirect).
type socketDevice struct {
	net.Conn
	addr string
}

// OpenSocket dials a TCP printer at addr ("host:port").
func OpenSocket(ctx context.Context, addr string) (Device, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("device: dial %q: %w", addr, err)
	}
	return &socketDevice{Conn: conn, addr: addr}, nil
}

func (d *socketDevice) URI() string {
	return "socket://" + d.addr
}

// EnumerateNetwork is a placeholder for network device discovery (e.g. an
// mDNS browse for _pdl-datastream._tcp); it returns no devices until a
// transport-specific browser is wired in by the caller.
func EnumerateNetwork(ctx context.Context) ([]Info, error) {
	return nil, nil
}
