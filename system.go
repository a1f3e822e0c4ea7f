package pa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/google/uuid"
	"github.com/rusq/httpex"

	"github.com/paprintd/paprintd/pa/dnssd"
	"github.com/paprintd/paprintd/pa/driver"
	"github.com/paprintd/paprintd/pa/event"
	"github.com/paprintd/paprintd/pa/printer"
	"github.com/paprintd/paprintd/pa/router"
)

// MaxDocumentSize bounds how much of a Print-Job/Send-Document body the
// HTTP handler will buffer before handing it to the router.
var MaxDocumentSize int64 = 256 << 20

const basePath = "/ipp/print/"

// System is the top-level object owning the printer set, the IPP router,
// the DNS-SD advertiser, and the HTTP listener they're all served through.
// Generalizes ippsrv.Server (http.go) from a single fixed printer list to
// a set driven by Config, with DNS-SD wired in rather than bolted on.
type System struct {
	cfg  *Config
	uuid string
	bus  *event.Bus

	mu       sync.RWMutex
	printers map[string]*printer.Printer

	router     *router.Router
	advertiser dnssd.Advertiser
	httpServer *http.Server
}

// NewSystem builds printers and the router from cfg, but does not start
// listening or advertising; call Run for that.
func NewSystem(cfg *Config) (*System, error) {
	if cfg.System.Name == "" {
		return nil, errors.New("pa: system.name is required")
	}
	sysUUID := cfg.System.UUID
	if sysUUID == "" {
		sysUUID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(cfg.System.Name)).String()
	}

	bus := event.New()
	s := &System{
		cfg:      cfg,
		uuid:     sysUUID,
		bus:      bus,
		printers: make(map[string]*printer.Printer),
	}

	for _, pc := range cfg.Printers {
		p, err := s.buildPrinter(pc)
		if err != nil {
			return nil, fmt.Errorf("pa: printer %q: %w", pc.Name, err)
		}
		s.printers[p.Name()] = p
	}

	printers := make([]*printer.Printer, 0, len(s.printers))
	for _, p := range s.printers {
		printers = append(printers, p)
	}
	s.router = router.New(basePath, s.uuid, bus, printers...)

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+basePath+"{name}", s.handleIPP)
	mux.HandleFunc("GET /", s.handleStatus)
	s.httpServer = &http.Server{
		Handler: httpex.LogMiddleware(mux, log.Default()),
	}

	return s, nil
}

func (s *System) buildPrinter(pc PrinterConfig) (*printer.Printer, error) {
	drv, ok := driver.New(pc.Driver)
	if !ok {
		return nil, fmt.Errorf("unknown driver %q", pc.Driver)
	}
	return printer.New(printer.Config{
		Name:          pc.Name,
		DeviceURI:     pc.DeviceURI,
		Driver:        drv,
		Retention:     time.Duration(s.cfg.System.JobRetention),
		Bus:           s.bus,
		MaxActiveJobs: pc.MaxActiveJobs,
	})
}

// Printer returns a registered printer by name.
func (s *System) Printer(name string) (*printer.Printer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.printers[name]
	return p, ok
}

// Events returns the system's event bus, for subscribers that want to
// react to job/printer lifecycle changes (logging, external notifiers).
func (s *System) Events() *event.Bus { return s.bus }

// Run starts the HTTP listener and, if enabled, DNS-SD advertising. It
// blocks until ctx is canceled or the listener fails.
func (s *System) Run(ctx context.Context, addr string) error {
	if s.cfg.DNSSD.Enabled {
		if err := s.startDNSSD(ctx, addr); err != nil {
			slog.ErrorContext(ctx, "dnssd: failed to start, continuing without advertising", "error", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.httpServer.Addr = addr
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

func (s *System) startDNSSD(ctx context.Context, addr string) error {
	host, port := hostPort(addr)

	var adv dnssd.Advertiser
	var err error
	switch s.cfg.DNSSD.Backend {
	case "mdns":
		adv, err = dnssd.NewMDNSAdvertiser(host, port)
	default:
		adv = dnssd.NewZeroconfAdvertiser(host, port, s.cfg.DNSSD.Domain)
	}
	if err != nil {
		return err
	}
	s.advertiser = adv

	for _, pc := range s.cfg.Printers {
		p, ok := s.Printer(pc.Name)
		if !ok {
			continue
		}
		info := dnssd.PrinterInfo{
			Name:         p.Name(),
			UUID:         p.UUID(),
			MakeAndModel: p.MakeAndModel(),
			Location:     pc.Location,
			Note:         pc.Note,
			Geo:          pc.Geo,
			DeviceURI:    p.DeviceURI(),
			Caps:         p.Driver().Capabilities(),
			Accepting:    p.Ready(),
		}
		if err := adv.Advertise(ctx, info); err != nil {
			slog.ErrorContext(ctx, "dnssd: advertise failed", "printer", p.Name(), "error", err)
		}
	}
	return nil
}

func (s *System) handleIPP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var msg goipp.Message
	if err := msg.Decode(r.Body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxDocumentSize))
	if err != nil {
		slog.WarnContext(r.Context(), "failed to read document body", "error", err)
	}

	resp := s.router.ServeIPP(r.Context(), &msg, body)
	w.Header().Set("Content-Type", "application/ipp")
	if err := resp.Encode(w); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode ipp response", "error", err)
	}
}

func (s *System) handleStatus(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "paprintd system %s\n", s.cfg.System.Name)
	for _, p := range s.router.Printers() {
		fmt.Fprintf(w, "  printer %-20s state=%-10s accepting=%v\n", p.Name(), p.State(), p.Ready())
	}
}

// Shutdown stops DNS-SD advertising, the HTTP listener, and every
// printer's scheduler loop.
func (s *System) Shutdown(ctx context.Context) error {
	var errs error
	if s.advertiser != nil {
		if err := s.advertiser.Close(); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(sctx); err != nil {
		errs = errors.Join(errs, err)
	}

	s.mu.RLock()
	for _, p := range s.printers {
		p.Close()
	}
	s.mu.RUnlock()

	s.bus.Close()
	return errs
}

// hostPort splits a "host:port" listen address, defaulting host to
// "localhost" when it's blank (as it is for ":8080"-style addresses).
func hostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "localhost", 8080
	}
	if host == "" {
		host = "localhost"
	}
	port := 8080
	if p, err := strconv.Atoi(portStr); err == nil {
		port = p
	}
	return host, port
}
