// Package printer implements the per-printer scheduler: job queueing, the
// single-active-job invariant, and periodic retention cleanup. Generalizes
// ippsrv/spool.go (one spool per process) and ippsrv/printer.go (one fixed
// driver) into a scheduler owned by a System that may run several printers.
package printer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paprintd/paprintd/pa/device"
	"github.com/paprintd/paprintd/pa/driver"
	"github.com/paprintd/paprintd/pa/event"
	"github.com/paprintd/paprintd/pa/job"
)

// State is the printer-state attribute value, RFC 2911 §4.4.11.
type State int32

const (
	Idle State = iota + 3
	Processing
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var startTime = time.Now()

// Printer owns one device/driver pair, its job queue, and the scheduler
// loop that enforces at most one job printing at a time.
type Printer struct {
	id            string
	uuid          string
	makeAndModel  string
	deviceURI     string
	drv           driver.Driver
	retention     time.Duration
	maxActiveJobs int
	bus           *event.Bus

	mu          sync.RWMutex
	state       State
	accepting   bool
	deleted     bool
	jobs        map[job.ID]*job.Job
	order       []job.ID
	nextID      job.ID
	activeJobID job.ID // zero when no job is active

	workC  chan struct{}
	doneC  chan struct{}
	closed bool
}

// Config configures a new Printer.
type Config struct {
	Name      string
	DeviceURI string
	Driver    driver.Driver
	Retention time.Duration
	Bus       *event.Bus

	// MaxActiveJobs bounds how many not-yet-completed jobs this printer
	// will hold at once (its create() quota, spec.md §4.4). Zero means
	// unbounded.
	MaxActiveJobs int
}

var (
	ErrNoActiveJob    = errors.New("printer: no active job")
	ErrJobNotFound    = errors.New("printer: job not found")
	ErrAlreadyActive  = errors.New("printer: a job is already processing")
	ErrQuotaExceeded  = errors.New("printer: too many active jobs")
	ErrPrinterDeleted = errors.New("printer: printer has been deleted")
)

// New creates a Printer and starts its scheduler loop.
func New(cfg Config) (*Printer, error) {
	if cfg.Name == "" {
		return nil, errors.New("printer: name cannot be empty")
	}
	if cfg.Driver == nil {
		return nil, errors.New("printer: driver cannot be nil")
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	p := &Printer{
		id:            cfg.Name,
		uuid:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(cfg.Name)).String(),
		makeAndModel:  cfg.Driver.Capabilities().MakeAndModel,
		deviceURI:     cfg.DeviceURI,
		drv:           cfg.Driver,
		retention:     retention,
		maxActiveJobs: cfg.MaxActiveJobs,
		bus:           cfg.Bus,
		state:         Idle,
		accepting:     true,
		jobs:          make(map[job.ID]*job.Job),
		nextID:        1,
		workC:         make(chan struct{}, 1),
		doneC:         make(chan struct{}),
	}
	go p.worker()
	return p, nil
}

// Name returns the printer's URI-safe identifier (printer-name attribute).
func (p *Printer) Name() string { return p.id }

// UUID returns the printer-uuid attribute.
func (p *Printer) UUID() string { return p.uuid }

// MakeAndModel returns printer-make-and-model.
func (p *Printer) MakeAndModel() string { return p.makeAndModel }

// UpTime returns seconds since process start (printer-up-time).
func (p *Printer) UpTime() int {
	return int(time.Since(startTime).Seconds())
}

// DeviceURI returns the device URI this printer prints through.
func (p *Printer) DeviceURI() string { return p.deviceURI }

// Driver returns the underlying driver.
func (p *Printer) Driver() driver.Driver { return p.drv }

// State returns the current printer-state.
func (p *Printer) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SetState updates printer-state and notifies the event bus.
func (p *Printer) SetState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.publish(event.PrinterStateChanged, 0, s.String())
}

// Ready reports printer-is-accepting-jobs.
func (p *Printer) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.accepting
}

// Pause stops the scheduler from starting queued jobs and makes Ready
// report false (Pause-Printer). Submit still queues new jobs.
func (p *Printer) Pause() {
	p.mu.Lock()
	p.accepting = false
	p.mu.Unlock()
	p.SetState(Stopped)
}

// Resume re-enables job acceptance (Resume-Printer).
func (p *Printer) Resume() {
	p.mu.Lock()
	p.accepting = true
	p.mu.Unlock()
	p.SetState(Idle)
	p.kick()
}

// Submit enqueues a newly created job and assigns it the next job ID. It
// fails with ErrQuotaExceeded if the printer already holds MaxActiveJobs
// not-yet-completed jobs, and with ErrPrinterDeleted once the printer has
// been administratively deleted.
func (p *Printer) Submit(j *job.Job) error {
	p.mu.Lock()
	if p.deleted {
		p.mu.Unlock()
		return ErrPrinterDeleted
	}
	if p.maxActiveJobs > 0 && p.activeJobCountLocked() >= p.maxActiveJobs {
		p.mu.Unlock()
		return ErrQuotaExceeded
	}
	j.ID = p.nextID
	p.nextID++
	p.jobs[j.ID] = j
	p.order = append(p.order, j.ID)
	p.mu.Unlock()

	p.publish(event.JobCreated, j.ID, "")
	p.kick()
	return nil
}

// activeJobCountLocked counts jobs that have not yet reached a terminal
// state. Callers must hold p.mu.
func (p *Printer) activeJobCountLocked() int {
	n := 0
	for _, id := range p.order {
		if !p.jobs[id].IsCompleted() {
			n++
		}
	}
	return n
}

// Delete marks the printer deleted (spec.md §3's lazy is_deleted): it stops
// accepting new jobs but leaves existing jobs to finish or be queried.
func (p *Printer) Delete() {
	p.mu.Lock()
	p.deleted = true
	p.accepting = false
	p.mu.Unlock()
}

// IsDeleted reports whether Delete has been called.
func (p *Printer) IsDeleted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.deleted
}

// Job returns a job by ID.
func (p *Printer) Job(id job.ID) (*job.Job, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	j, ok := p.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j, nil
}

// Jobs returns all known jobs for this printer, in submission order.
func (p *Printer) Jobs() []*job.Job {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*job.Job, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.jobs[id])
	}
	return out
}

// kick wakes the scheduler loop without blocking the caller.
func (p *Printer) kick() {
	select {
	case p.workC <- struct{}{}:
	default:
	}
}

func (p *Printer) publish(kind event.Kind, jobID job.ID, reason string) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(event.Event{Kind: kind, PrinterName: p.id, JobID: int32(jobID), Reason: reason})
}

// worker is the scheduler loop. It never holds p.mu while a job is
// printing: Print (called from job's FSM callback) does its own device
// I/O, so the system/printer lock hierarchy (spec.md §5) is never held
// across blocking device writes.
func (p *Printer) worker() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.doneC:
			return
		case <-p.workC:
			p.runNext()
		case <-ticker.C:
			p.prune()
		}
	}
}

func (p *Printer) runNext() {
	next := p.pickNext()
	if next == nil {
		return
	}
	ctx := context.Background()
	if err := next.Start(ctx); err != nil {
		slog.Error("scheduler: job start failed", "printer", p.id, "job", next.ID, "error", err)
	}
	p.mu.Lock()
	p.activeJobID = 0
	p.mu.Unlock()
	p.publish(event.JobStateChanged, next.ID, next.State().String())
	if next.IsCompleted() {
		p.publish(event.JobCompleted, next.ID, next.State().String())
	}
	p.kick() // more jobs may be waiting
}

// pickNext returns the next pending job to run, enforcing the
// single-active-job-per-printer invariant, or nil if none is ready.
func (p *Printer) pickNext() *job.Job {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.activeJobID != 0 || !p.accepting {
		return nil
	}
	now := time.Now()
	for _, id := range p.order {
		j := p.jobs[id]
		if j.State() != job.Pending {
			continue
		}
		if rel := jobHoldReleaseTime(j, now); !rel.IsZero() && rel.After(now) {
			continue
		}
		p.activeJobID = id
		return j
	}
	return nil
}

func (p *Printer) prune() {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.order[:0]
	for _, id := range p.order {
		j := p.jobs[id]
		if j.IsCompleted() && time.Since(j.Completed) > p.retention {
			slog.Info("scheduler: pruning retained job", "printer", p.id, "job", id)
			delete(p.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	p.order = kept
}

// Print drives the job's documents through the driver. Called from the
// job's FSM "process" callback; it does not take p.mu while writing to the
// device, only while flipping printer-state.
func (p *Printer) Print(ctx context.Context, j *job.Job) error {
	p.SetState(Processing)
	defer p.SetState(Idle)

	dev, err := device.Open(ctx, p.deviceURI)
	if err != nil {
		return fmt.Errorf("printer: open device: %w", err)
	}
	defer dev.Close()

	info := driver.JobInfo{JobID: int32(j.ID), Copies: 1}
	if err := p.drv.Print(ctx, dev, info, j.Data()); err != nil {
		return fmt.Errorf("printer: print job %d: %w", j.ID, err)
	}
	return nil
}

// Close stops the scheduler loop.
func (p *Printer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	close(p.doneC)
}

func jobHoldReleaseTime(j *job.Job, now time.Time) time.Time {
	if j.HoldUntil == "" {
		return time.Time{}
	}
	return job.NextReleaseTime(j.HoldUntil, now)
}
