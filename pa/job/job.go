// Package job implements the per-job lifecycle state machine and the
// document model a job carries, generalizing ippsrv/job.go's single-buffer,
// single-printer job into a multi-document job usable against any printer
// registered with the system.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/looplab/fsm"

	"github.com/paprintd/paprintd/pa/ippattr"
)

// ID identifies a job, unique within one printer (Printer.Submit assigns it).
type ID int32

// State is the job lifecycle state, matching RFC 2911 §4.3.7 job-state.
//
//go:generate stringer -trimprefix State -type State
type State int32

const (
	Pending State = iota + 3
	PendingHeld
	Processing
	ProcessingStopped
	Canceled
	Aborted
	Completed
)

// fsm event names for job state transitions.
const (
	evtHeld     = "held"
	evtResume   = "resume"
	evtProcess  = "process"
	evtStop     = "stop"
	evtAbort    = "abort"
	evtComplete = "complete"
	evtCancel   = "cancel"
)

/*
https://datatracker.ietf.org/doc/html/rfc8011#page-128

                                                      +----> canceled
                                                     /
       +----> pending  -------> processing ---------+------> completed
       |         ^                   ^               \
   --->+         |                   |                +----> aborted
       |         v                   v               /
       +----> pending-held    processing-stopped ---+
*/

var fsmEvents = []fsm.EventDesc{
	{Name: evtHeld, Src: []string{Pending.String()}, Dst: PendingHeld.String()},
	{Name: evtResume, Src: []string{PendingHeld.String()}, Dst: Pending.String()},
	{Name: evtProcess, Src: []string{Pending.String()}, Dst: Processing.String()},
	{Name: evtStop, Src: []string{Processing.String()}, Dst: ProcessingStopped.String()},
	{Name: evtResume, Src: []string{ProcessingStopped.String()}, Dst: Processing.String()},
	{Name: evtCancel, Src: []string{Processing.String(), Pending.String(), PendingHeld.String()}, Dst: Canceled.String()},
	{Name: evtComplete, Src: []string{Processing.String()}, Dst: Completed.String()},
	{Name: evtAbort, Src: []string{Processing.String(), ProcessingStopped.String()}, Dst: Aborted.String()},
}

// StateReason is a job-state-reasons keyword, RFC 2911 §4.3.8 / RFC 3380.
type StateReason string

const (
	ReasonNone                      StateReason = "none"
	ReasonJobIncoming               StateReason = "job-incoming"
	ReasonJobDataInsufficient       StateReason = "job-data-insufficient"
	ReasonDocumentAccessError       StateReason = "document-access-error"
	ReasonSubmissionInterrupted     StateReason = "submission-interrupted"
	ReasonJobOutgoing               StateReason = "job-outgoing"
	ReasonJobHeldUntilSpecified     StateReason = "job-held-until-specified"
	ReasonResourcesAreNotReady      StateReason = "resources-are-not-ready"
	ReasonJobQueued                 StateReason = "job-queued"
	ReasonJobTransforming           StateReason = "job-transforming"
	ReasonJobPrinting               StateReason = "job-printing"
	ReasonJobCancelledByUser        StateReason = "job-canceled-by-user"
	ReasonJobCancelledByOperator    StateReason = "job-canceled-by-operator"
	ReasonJobCancelledAtDevice      StateReason = "job-canceled-at-device"
	ReasonAbortedBySystem           StateReason = "aborted-by-system"
	ReasonUnsupportedCompression    StateReason = "unsupported-compression"
	ReasonUnsupportedDocumentFormat StateReason = "unsupported-document-format"
	ReasonDocumentFormatError       StateReason = "document-format-error"
	ReasonProcessingToStopPoint     StateReason = "processing-to-stop-point"
	ReasonServiceOffline            StateReason = "service-offline"
	ReasonJobCompletedSuccessfully  StateReason = "job-completed-successfully"
	ReasonJobCompletedWithWarnings  StateReason = "job-completed-with-warnings"
	ReasonJobCompletedWithErrors    StateReason = "job-completed-with-errors"
	ReasonJobRestartable            StateReason = "job-restartable"
	ReasonQueuedInDevice            StateReason = "queued-in-device"
	ReasonJobFetchable              StateReason = "job-fetchable"
	ReasonOther                     StateReason = "other"
)

// Document is one file within a job. A job is usually a single document
// (Print-Job) but Create-Job/Send-Document sessions may add more than one.
type Document struct {
	Format string // document-format, e.g. "application/pdf"
	Name   string
	Data   []byte
	Last   bool // true once Send-Document's last-document flag closes the job
}

// Printer is the narrow view of a printer a job needs: enough to render
// its attributes and to hand data off for printing. pa/printer.Printer
// satisfies this.
type Printer interface {
	Name() string
	UUID() string
	UpTime() int
	Print(ctx context.Context, j *Job) error
}

// Job is a single print job and its lifecycle state machine.
//
// State and StateReasons are read from multiple goroutines (the printer's
// scheduler loop running Start, and IPP handlers reading Attributes/State
// concurrently from the router's goroutine), so they are only ever touched
// through the accessor methods below, guarded by mu. The fsm.FSM itself
// serializes concurrent Event calls, but that doesn't protect plain field
// reads against the field writes its callbacks make.
type Job struct {
	ID         ID
	Printer    Printer
	Name       string
	Created    time.Time
	Processing time.Time
	Completed  time.Time
	Username   string
	JobURI     string
	PrinterURI string
	HoldUntil  string // hold-until keyword, see holduntil.go

	mu           sync.RWMutex
	state        State
	stateReasons []StateReason
	cancel       context.CancelFunc // set while Start's Print call is in flight

	sm        *fsm.FSM
	documents []Document
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// StateReasons returns a copy of the job's current job-state-reasons.
func (j *Job) StateReasons() []StateReason {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]StateReason, len(j.stateReasons))
	copy(out, j.stateReasons)
	return out
}

func (j *Job) setState(s State, reasons []StateReason) {
	j.mu.Lock()
	j.state = s
	j.stateReasons = reasons
	j.mu.Unlock()
}

// FromRequest builds a Job from an IPP request's operation attributes,
// generalizing ippsrv/job.go's createJobFromRequest to not assume a single
// global printer.
func FromRequest(p Printer, baseURL string, id ID, req *goipp.Message) (*Job, error) {
	op := req.Operation()
	name := ippattr.OperationAttr(*op, "job-name", fmt.Sprintf("Job-%d", id))
	username := ippattr.OperationAttr(*op, "requesting-user-name", "unknown")
	printerURI, err := ippattr.ExtractValue[goipp.String](*op, "printer-uri")
	if err != nil {
		return nil, fmt.Errorf("job: extract printer-uri: %w", err)
	}
	holdUntil := ippattr.OperationAttr(*op, "job-hold-until", "no-hold")

	jobURL := path.Join(baseURL, p.Name(), fmt.Sprintf("%d", id))
	return New(p, id, printerURI.String(), jobURL, name, username, holdUntil), nil
}

// New creates a Job in the Pending state, ready to receive documents.
func New(p Printer, id ID, printerURI, jobURL, name, username, holdUntil string) *Job {
	j := &Job{
		ID:           id,
		state:        Pending,
		stateReasons: []StateReason{ReasonJobIncoming, ReasonJobDataInsufficient},
		Printer:      p,
		Name:         name,
		Created:      time.Now(),
		Username:     username,
		JobURI:       jobURL,
		PrinterURI:   printerURI,
		HoldUntil:    holdUntil,
	}
	j.sm = makeFSM(j)
	return j
}

// AddDocument appends a document to the job.
func (j *Job) AddDocument(d Document) {
	j.documents = append(j.documents, d)
}

// Documents returns the job's documents in submission order.
func (j *Job) Documents() []Document {
	return j.documents
}

// Data returns the concatenation of all document payloads, for drivers
// that don't care about document boundaries.
func (j *Job) Data() []byte {
	if len(j.documents) == 1 {
		return j.documents[0].Data
	}
	var total int
	for _, d := range j.documents {
		total += len(d.Data)
	}
	out := make([]byte, 0, total)
	for _, d := range j.documents {
		out = append(out, d.Data...)
	}
	return out
}

// Hold fires the "held" transition; if reasons is empty it defaults to
// job-held-until-specified, matching the hold-until keyword table.
func (j *Job) Hold(ctx context.Context, reasons ...StateReason) error {
	return j.event(ctx, evtHeld, reasonArgs(reasons)...)
}

// Release fires the "resume" transition from pending-held or
// processing-stopped back to an active state.
func (j *Job) Release(ctx context.Context) error {
	return j.event(ctx, evtResume)
}

// Start fires the "process" transition, which runs the job to completion
// synchronously (the scheduler calls this from its own goroutine so the
// caller does not block the system lock). The context passed to Print and
// the driver's raster callbacks is derived from ctx and canceled by a
// concurrent Cancel call, so a driver polling ctx.Done() at line granularity
// stops mid-job instead of running the print to completion regardless.
func (j *Job) Start(ctx context.Context) error {
	cctx, cancel := context.WithCancel(ctx)
	j.mu.Lock()
	j.cancel = cancel
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.cancel = nil
		j.mu.Unlock()
		cancel()
	}()
	return j.event(cctx, evtProcess)
}

// Stop fires the "stop" transition (processing-stopped), used when a
// printer goes offline mid-job.
func (j *Job) Stop(ctx context.Context, reasons ...StateReason) error {
	return j.event(ctx, evtStop, reasonArgs(reasons)...)
}

// Cancel fires the "cancel" transition. If the job is currently printing,
// it first cancels Start's context so the driver's write loop can notice
// and return early; the fsm serializes this against Start's own event call,
// so the transition always lands on whatever state Print actually stopped
// at, not a race between the two.
func (j *Job) Cancel(ctx context.Context, reasons ...StateReason) error {
	j.mu.RLock()
	cancel := j.cancel
	j.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	return j.event(ctx, evtCancel, reasonArgs(reasons)...)
}

func (j *Job) event(ctx context.Context, name string, args ...interface{}) error {
	if err := j.sm.Event(ctx, name, args...); err != nil {
		return fmt.Errorf("job: %s: %w", name, err)
	}
	return nil
}

func reasonArgs(reasons []StateReason) []interface{} {
	args := make([]interface{}, len(reasons))
	for i, r := range reasons {
		args[i] = r
	}
	return args
}

func makeFSM(j *Job) *fsm.FSM {
	lg := slog.With("job_id", j.ID, "job_name", j.Name, "printer", j.Printer.Name())
	return fsm.NewFSM(
		Pending.String(),
		fsmEvents,
		fsm.Callbacks{
			evtHeld: func(ctx context.Context, e *fsm.Event) {
				lg.InfoContext(ctx, "job held")
				j.setState(PendingHeld, reasonsOrDefault(e.Args, ReasonJobHeldUntilSpecified))
			},
			evtResume: func(ctx context.Context, e *fsm.Event) {
				lg.InfoContext(ctx, "job resumed")
				j.setState(Pending, []StateReason{ReasonJobQueued})
			},
			evtProcess: func(ctx context.Context, e *fsm.Event) {
				lg.InfoContext(ctx, "job processing started")
				j.setState(Processing, []StateReason{ReasonJobPrinting, ReasonJobTransforming})
				j.Processing = time.Now()

				err := j.Printer.Print(ctx, j)
				if err == nil {
					if err := e.FSM.Event(ctx, evtComplete); err != nil {
						lg.ErrorContext(ctx, "failed to send complete event", "error", err)
					}
					return
				}
				if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
					// Print stopped because Cancel canceled our context; Cancel's
					// own event call (queued behind this one on the fsm) will
					// land the "canceled" transition, so don't also fire abort.
					lg.InfoContext(ctx, "job print stopped by cancellation")
					return
				}
				lg.ErrorContext(ctx, "job failed to print", "error", err)
				if err := e.FSM.Event(ctx, evtAbort, ReasonDocumentFormatError, ReasonAbortedBySystem); err != nil {
					lg.ErrorContext(ctx, "failed to send abort event", "error", err)
				}
			},
			evtStop: func(ctx context.Context, e *fsm.Event) {
				lg.InfoContext(ctx, "job processing stopped")
				j.setState(ProcessingStopped, reasonsOrDefault(e.Args, ReasonProcessingToStopPoint))
			},
			evtAbort: func(ctx context.Context, e *fsm.Event) {
				lg.InfoContext(ctx, "job aborted")
				j.setState(Aborted, reasonsOrDefault(e.Args, ReasonAbortedBySystem))
			},
			evtComplete: func(ctx context.Context, e *fsm.Event) {
				lg.InfoContext(ctx, "job completed")
				j.setState(Completed, []StateReason{ReasonJobCompletedSuccessfully})
				j.Completed = time.Now()
			},
			evtCancel: func(ctx context.Context, e *fsm.Event) {
				lg.InfoContext(ctx, "job canceled")
				j.setState(Canceled, reasonsOrDefault(e.Args, ReasonJobCancelledByUser))
			},
		},
	)
}

func reasonsOrDefault(args []interface{}, def StateReason) []StateReason {
	if len(args) == 0 {
		return []StateReason{def}
	}
	reasons := make([]StateReason, 0, len(args))
	for _, arg := range args {
		if r, ok := arg.(StateReason); ok {
			reasons = append(reasons, r)
		} else {
			slog.Warn("invalid job state reason argument", "arg", arg)
		}
	}
	if len(reasons) == 0 {
		return []StateReason{def}
	}
	return reasons
}

// Attributes renders the job's IPP job-attributes group, per RFC 2911
// §4.3 table 8 and RFC 3380.
func (j *Job) Attributes() goipp.Attributes {
	noValue := goipp.String("no-value")
	nulltime := func(t time.Time) goipp.Value {
		if t.IsZero() {
			return noValue
		}
		return goipp.Integer(int32(t.Unix()))
	}

	var attrs goipp.Attributes
	add := ippattr.Adder(&attrs)
	add("job-id", goipp.TagInteger, goipp.Integer(j.ID))
	add("job-name", goipp.TagName, goipp.String(j.Name))
	add("job-uri", goipp.TagURI, goipp.String(j.JobURI))
	add("job-state", goipp.TagEnum, goipp.Integer(j.State()))
	add("job-state-reasons", goipp.TagKeyword, j.reasonValues()...)
	add("job-printer-uri", goipp.TagURI, goipp.String(j.PrinterURI))
	add("job-originating-user-name", goipp.TagName, goipp.String(j.Username))
	add("time-at-creation", goipp.TagDateTime, nulltime(j.Created))
	add("time-at-processing", goipp.TagDateTime, nulltime(j.Processing))
	add("time-at-completed", goipp.TagDateTime, nulltime(j.Completed))
	add("job-printer-up-time", goipp.TagInteger, goipp.Integer(j.Printer.UpTime()))
	return attrs
}

func (j *Job) reasonValues() []goipp.Value {
	return ippattr.StringsToValues(j.StateReasons())
}

// IsCompleted reports whether the job has reached a terminal state.
func (j *Job) IsCompleted() bool {
	s := j.State()
	return s == Completed || s == Canceled || s == Aborted
}

// IsActive reports whether the job is in the scheduler's live set.
func (j *Job) IsActive() bool {
	return !j.IsCompleted() && j.State() != Pending
}
