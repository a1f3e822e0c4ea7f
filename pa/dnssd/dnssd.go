// Package dnssd advertises printers over mDNS/DNS-SD (_ipp._tcp,
// _ipps._tcp), with collision detection and automatic rename-with-serial
// recovery. Two backends are available: zeroconf.go (grounded on
// ippsrv/mdns.go, using grandcat/zeroconf) and mdns.go (grounded on the
// hashicorp/mdns + miekg/dns advertiser from the rest of the pack), chosen
// by pa.DNSSDConfig.Backend.
package dnssd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/paprintd/paprintd/pa/driver"
)

// PrinterInfo is the subset of printer state a DNS-SD backend needs to
// build an instance name and TXT record.
type PrinterInfo struct {
	Name         string
	UUID         string
	MakeAndModel string
	Location     string
	Note         string
	Geo          string // geo: URI, see loc.go
	AdminURL     string
	DeviceURI    string // used for the first-collision serial-suffix rename
	Caps         driver.Capabilities
	Accepting    bool
}

// Advertiser publishes one or more printers on the local network and
// handles name collisions by renaming: first with a hostname, serial or
// UUID qualifier, then with "(2)", "(3)", ... suffixes (see
// collisionResolver.Reserve).
type Advertiser interface {
	// Advertise publishes or updates a printer's records. Called again
	// with the same Name to refresh TXT records after printer-state changes.
	Advertise(ctx context.Context, info PrinterInfo) error
	// Withdraw removes a previously advertised printer.
	Withdraw(name string) error
	// Close shuts the advertiser down entirely.
	Close() error
}

// ErrNameCollision reports that an instance name is already in use on the
// segment. The backends in this package do not return it: they pick a free
// name with collisionResolver.Reserve before publishing.
type ErrNameCollision struct{ Name string }

func (e *ErrNameCollision) Error() string {
	return fmt.Sprintf("dnssd: instance name %q is already advertised", e.Name)
}

// collisionResolver tracks which instance names are in use locally (by
// this process) and proposes the next free name (a qualifier first, then
// "(n)" suffixes, as Reserve describes), mirroring
// the renaming behavior of Bonjour/Avahi name conflict resolution.
type collisionResolver struct {
	mu   sync.Mutex
	used map[string]bool
}

func newCollisionResolver() *collisionResolver {
	return &collisionResolver{used: make(map[string]bool)}
}

// Reserve claims the first available name starting from base. The first
// collision is resolved with a qualifier rather than a bare counter:
// "base (hostname)" if hostname is known, else "base (<serial>)" pulled
// from deviceURI's "serial" query parameter, else "base (<UUID-suffix>)"
// using the last 6 characters of uuid, uppercased. Only the second and
// later collisions fall back to "base (2)", "base (3)", ...
func (c *collisionResolver) Reserve(base, hostname, deviceURI, uuid string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.used[base] {
		c.used[base] = true
		return base
	}
	if qualified := qualifiedName(base, hostname, deviceURI, uuid); qualified != "" && !c.used[qualified] {
		c.used[qualified] = true
		return qualified
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if !c.used[candidate] {
			c.used[candidate] = true
			return candidate
		}
	}
}

// qualifiedName builds the first-collision rename candidate, or "" if none
// of hostname, deviceURI's serial, or uuid is usable.
func qualifiedName(base, hostname, deviceURI, uuid string) string {
	if hostname != "" {
		return fmt.Sprintf("%s (%s)", base, hostname)
	}
	if serial := serialFromDeviceURI(deviceURI); serial != "" {
		return fmt.Sprintf("%s (%s)", base, serial)
	}
	clean := strings.ReplaceAll(uuid, "-", "")
	if len(clean) >= 6 {
		return fmt.Sprintf("%s (%s)", base, strings.ToUpper(clean[len(clean)-6:]))
	}
	return ""
}

func serialFromDeviceURI(deviceURI string) string {
	u, err := url.Parse(deviceURI)
	if err != nil {
		return ""
	}
	return u.Query().Get("serial")
}

// Release frees a name so a future Reserve call for the same base can
// reclaim it.
func (c *collisionResolver) Release(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.used, name)
}

func sanitizeInstanceName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Printer"
	}
	return name
}
