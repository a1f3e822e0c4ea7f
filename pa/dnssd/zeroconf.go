package dnssd

import (
	"context"
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"
)

// ZeroconfAdvertiser publishes printers using grandcat/zeroconf, grounded
// on ippsrv/mdns.go's newMDSN helper, generalized from one fixed printer to
// an arbitrary set, each registered as its own zeroconf.Server.
type ZeroconfAdvertiser struct {
	domain string
	port   int
	host   string

	resolver *collisionResolver

	mu   sync.Mutex
	srvs map[string]*zeroconf.Server // printer name -> registered service
}

// NewZeroconfAdvertiser creates an advertiser bound to the given admin
// host:port (used to compose each printer's adminurl TXT entry).
func NewZeroconfAdvertiser(host string, port int, domain string) *ZeroconfAdvertiser {
	if domain == "" {
		domain = "local."
	}
	return &ZeroconfAdvertiser{
		domain:   domain,
		port:     port,
		host:     host,
		resolver: newCollisionResolver(),
		srvs:     make(map[string]*zeroconf.Server),
	}
}

func (a *ZeroconfAdvertiser) Advertise(ctx context.Context, info PrinterInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if old, ok := a.srvs[info.Name]; ok {
		old.Shutdown()
		delete(a.srvs, info.Name)
	}

	instance := a.resolver.Reserve(sanitizeInstanceName(info.MakeAndModel), "", info.DeviceURI, info.UUID)
	adminURL := fmt.Sprintf("http://%s:%d/", a.host, a.port)
	txt := buildTXT(info, adminURL)

	srv, err := zeroconf.Register(instance, "_ipp._tcp", a.domain, a.port, txt, nil)
	if err != nil {
		a.resolver.Release(instance)
		return fmt.Errorf("dnssd: zeroconf register %q: %w", instance, err)
	}
	a.srvs[info.Name] = srv
	return nil
}

func (a *ZeroconfAdvertiser) Withdraw(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	srv, ok := a.srvs[name]
	if !ok {
		return nil
	}
	srv.Shutdown()
	delete(a.srvs, name)
	return nil
}

func (a *ZeroconfAdvertiser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for name, srv := range a.srvs {
		srv.Shutdown()
		delete(a.srvs, name)
	}
	return nil
}
