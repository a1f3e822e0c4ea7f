package dnssd

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/mdns"
	"github.com/miekg/dns"

	"github.com/paprintd/paprintd"
)

// dnssdZone implements mdns.Zone over a mutable set of registered
// services, grounded on the other_examples dnssdZone/DNSSDAdvertiser
// pattern: a single long-lived mdns.Server answers for every printer, and
// Records() is rebuilt whenever the printer set changes.
type dnssdZone struct {
	mu       sync.RWMutex
	services []*mdns.MDNSService
	locs     map[string]*dns.LOC // hostname -> LOC record, merged into Records
}

func (z *dnssdZone) set(services []*mdns.MDNSService, locs map[string]*dns.LOC) {
	z.mu.Lock()
	z.services = services
	z.locs = locs
	z.mu.Unlock()
}

func (z *dnssdZone) Records(q dns.Question) []dns.RR {
	z.mu.RLock()
	defer z.mu.RUnlock()

	var out []dns.RR
	for _, svc := range z.services {
		out = append(out, svc.Records(q)...)
	}
	if q.Qtype == dns.TypeLOC || q.Qtype == dns.TypeANY {
		if loc, ok := z.locs[q.Name]; ok {
			out = append(out, loc)
		}
	}
	return out
}

// MDNSAdvertiser publishes printers over hashicorp/mdns + miekg/dns,
// the alternate backend to ZeroconfAdvertiser for environments where
// grandcat/zeroconf's socket handling doesn't fit (e.g. a shared mDNS
// responder serving several unrelated services on the same host).
type MDNSAdvertiser struct {
	host string
	port int

	server   *mdns.Server
	zone     *dnssdZone
	resolver *collisionResolver

	mu       sync.Mutex
	printers map[string]PrinterInfo
	names    map[string]string // printer name -> reserved instance name
}

// NewMDNSAdvertiser starts the shared mDNS responder immediately; printers
// are added and removed with Advertise/Withdraw.
func NewMDNSAdvertiser(host string, port int) (*MDNSAdvertiser, error) {
	zone := &dnssdZone{}
	srv, err := mdns.NewServer(&mdns.Config{Zone: zone, LogEmptyResponses: false})
	if err != nil {
		return nil, fmt.Errorf("dnssd: start mdns server: %w", err)
	}
	return &MDNSAdvertiser{
		host:     host,
		port:     port,
		server:   srv,
		zone:     zone,
		resolver: newCollisionResolver(),
		printers: make(map[string]PrinterInfo),
		names:    make(map[string]string),
	}, nil
}

func (a *MDNSAdvertiser) Advertise(ctx context.Context, info PrinterInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if old, ok := a.names[info.Name]; ok {
		a.resolver.Release(old)
	}
	instance := a.resolver.Reserve(sanitizeInstanceName(info.MakeAndModel), "", info.DeviceURI, info.UUID)
	a.names[info.Name] = instance
	a.printers[info.Name] = info

	return a.rebuildLocked()
}

func (a *MDNSAdvertiser) Withdraw(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if old, ok := a.names[name]; ok {
		a.resolver.Release(old)
		delete(a.names, name)
	}
	delete(a.printers, name)
	return a.rebuildLocked()
}

func (a *MDNSAdvertiser) rebuildLocked() error {
	var services []*mdns.MDNSService
	locs := make(map[string]*dns.LOC)
	adminURL := fmt.Sprintf("http://%s:%d/", a.host, a.port)

	for name, info := range a.printers {
		instance := a.names[name]
		txt := buildTXT(info, adminURL)

		svc, err := mdns.NewMDNSService(instance, "_ipp._tcp", "", a.host, a.port, nil, txt)
		if err != nil {
			return fmt.Errorf("dnssd: build mdns service for %q: %w", name, err)
		}
		services = append(services, svc)

		if info.Geo != "" {
			loc, err := pa.ParseGeoURI(info.Geo)
			if err != nil {
				continue // a malformed geo attribute shouldn't break advertising
			}
			locs[dns.Fqdn(a.host)] = buildLOC(a.host, loc)
		}
	}
	a.zone.set(services, locs)
	return nil
}

func (a *MDNSAdvertiser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server.Shutdown()
}
