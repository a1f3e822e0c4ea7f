// Package router implements the IPP request/response engine: it decodes
// operation attributes, resolves the target printer and/or job from the
// request URI, dispatches to an operation handler, and renders the
// response attribute groups. Generalizes ippsrv/ipp.go's basicIPPServer
// (one fixed printer set, six operations) to an arbitrary, rename-able
// printer set and the fuller IPP/2.0 "Everywhere" operation set.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/OpenPrinting/goipp"

	"github.com/paprintd/paprintd/pa/device"
	"github.com/paprintd/paprintd/pa/driver"
	"github.com/paprintd/paprintd/pa/event"
	"github.com/paprintd/paprintd/pa/ippattr"
	"github.com/paprintd/paprintd/pa/job"
	"github.com/paprintd/paprintd/pa/printer"
)

// Handler processes a decoded IPP request and returns the response
// message to encode back to the client.
type Handler func(ctx context.Context, req *goipp.Message, body []byte) (*goipp.Message, error)

// Router dispatches IPP requests across a named set of printers.
type Router struct {
	baseURL   string
	systemUUID string
	started   time.Time
	bus       *event.Bus

	mu       sync.RWMutex
	printers map[string]*printer.Printer

	pendingMu sync.Mutex
	pending   map[job.ID]*job.Job // Create-Job jobs awaiting Send-Document
}

// New builds a Router over an initial printer set. baseURL is the path
// prefix printer-uri/job-uri values are resolved against, e.g. "/ipp/print/".
func New(baseURL, systemUUID string, bus *event.Bus, printers ...*printer.Printer) *Router {
	r := &Router{
		baseURL:    baseURL,
		systemUUID: systemUUID,
		started:    time.Now(),
		bus:        bus,
		printers:   make(map[string]*printer.Printer, len(printers)),
		pending:    make(map[job.ID]*job.Job),
	}
	for _, p := range printers {
		r.printers[p.Name()] = p
	}
	return r
}

// AddPrinter registers a printer with the router after construction
// (System-Set-Printer-Attributes style additions).
func (r *Router) AddPrinter(p *printer.Printer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printers[p.Name()] = p
}

// RemovePrinter deregisters a printer by name.
func (r *Router) RemovePrinter(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.printers, name)
}

// Printers returns the currently registered printers.
func (r *Router) Printers() []*printer.Printer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*printer.Printer, 0, len(r.printers))
	for _, p := range r.printers {
		out = append(out, p)
	}
	return out
}

func (r *Router) printerByName(name string) (*printer.Printer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.printers[name]
	return p, ok
}

// ServeIPP decodes the operation, dispatches it, and returns the response.
// Any handler error is turned into a well-formed client/server-error
// response rather than propagated, since an IPP client always expects a
// message back.
func (r *Router) ServeIPP(ctx context.Context, req *goipp.Message, body []byte) *goipp.Message {
	lg := slog.With("op", goipp.Op(req.Code), "request_id", req.RequestID)
	lg.InfoContext(ctx, "ipp request received")

	handlers := map[goipp.Op]Handler{
		goipp.OpPrintJob:             r.handlePrintJob,
		goipp.OpValidateJob:          r.handleValidateJob,
		goipp.OpCreateJob:            r.handleCreateJob,
		goipp.OpSendDocument:         r.handleSendDocument,
		goipp.OpCancelJob:            r.handleCancelJob,
		goipp.OpHoldJob:              r.handleHoldJob,
		goipp.OpReleaseJob:           r.handleReleaseJob,
		goipp.OpGetJobAttributes:     r.handleGetJobAttributes,
		goipp.OpGetJobs:              r.handleGetJobs,
		goipp.OpGetPrinterAttributes: r.handleGetPrinterAttributes,
		goipp.OpPausePrinter:         r.handlePausePrinter,
		goipp.OpResumePrinter:        r.handleResumePrinter,
		goipp.OpIdentifyPrinter:      r.handleIdentifyPrinter,
		goipp.OpCupsGetPrinters:      r.handleGetPrinterAttributes,
		goipp.OpCupsGetDefault:       r.handleGetPrinterAttributes,
		goipp.OpGetSystemAttributes:  r.handleGetSystemAttributes,
		goipp.OpGetPrinters:          r.handleGetPrinters,
		goipp.OpCreatePrinter:        r.handleCreatePrinter,
		goipp.OpDeletePrinter:        r.handleDeletePrinter,
		goipp.OpShutdownAllPrinters:  r.handleShutdownSystem,
	}

	next, ok := handlers[goipp.Op(req.Code)]
	if !ok {
		lg.WarnContext(ctx, "unsupported operation")
		return ippattr.NewResponse(goipp.StatusErrorOperationNotSupported, req.RequestID)
	}
	resp, err := next(ctx, req, body)
	if err != nil {
		lg.ErrorContext(ctx, "ipp handler failed", "error", err)
		return errorResponse(err, req.RequestID)
	}
	return resp
}

// errorResponse maps a handler error to the closest client/server-error
// status; callers that need a specific status wrap it in statusError.
func errorResponse(err error, requestID uint32) *goipp.Message {
	status := goipp.StatusErrorInternal
	var se *statusError
	if errors.As(err, &se) {
		status = se.status
	}
	resp := ippattr.NewResponse(status, requestID)
	add := ippattr.Adder(resp.Operation())
	add("status-message", goipp.TagText, goipp.String(err.Error()))
	return resp
}

type statusError struct {
	status goipp.Status
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func newStatusError(status goipp.Status, format string, args ...interface{}) error {
	return &statusError{status: status, err: fmt.Errorf(format, args...)}
}

func (r *Router) printerFromRequest(req *goipp.Message) (*printer.Printer, error) {
	uriVal, err := ippattr.ExtractValue[goipp.String](*req.Operation(), "printer-uri")
	if err != nil {
		return nil, newStatusError(goipp.StatusErrorBadRequest, "missing printer-uri: %w", err)
	}
	u, err := url.Parse(uriVal.String())
	if err != nil {
		return nil, newStatusError(goipp.StatusErrorBadRequest, "invalid printer-uri %q: %w", uriVal, err)
	}
	name := strings.Trim(strings.TrimPrefix(u.Path, r.baseURL), "/")
	if name == "" {
		return nil, newStatusError(goipp.StatusErrorBadRequest, "printer-uri %q names no printer", uriVal)
	}
	p, ok := r.printerByName(name)
	if !ok {
		return nil, newStatusError(goipp.StatusErrorNotFound, "printer %q not found", name)
	}
	return p, nil
}

func jobIDFromRequest(req *goipp.Message) (job.ID, error) {
	v, err := ippattr.ExtractValue[goipp.Integer](*req.Operation(), "job-id")
	if err != nil {
		return 0, newStatusError(goipp.StatusErrorBadRequest, "missing job-id: %w", err)
	}
	return job.ID(v), nil
}

func (r *Router) jobFromRequest(req *goipp.Message) (*printer.Printer, *job.Job, error) {
	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, nil, err
	}
	id, err := jobIDFromRequest(req)
	if err != nil {
		return nil, nil, err
	}
	j, err := p.Job(id)
	if err != nil {
		return nil, nil, newStatusError(goipp.StatusErrorNotFound, "job %d: %w", id, err)
	}
	return p, j, nil
}

func (r *Router) handlePrintJob(ctx context.Context, req *goipp.Message, body []byte) (*goipp.Message, error) {
	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	j, err := job.FromRequest(p, r.baseURL, 0, req)
	if err != nil {
		return nil, newStatusError(goipp.StatusErrorBadRequest, "create job: %w", err)
	}
	name := ippattr.OperationAttr(*req.Operation(), "document-name", "")
	format := r.resolveFormat(req, p, name, body)
	if format == "" {
		return nil, newStatusError(goipp.StatusErrorDocumentFormatError, "document format could not be determined")
	}
	j.AddDocument(job.Document{Format: format, Name: name, Data: body, Last: true})
	if err := p.Submit(j); err != nil {
		return nil, submitError(err, j.ID)
	}
	return jobCreatedResponse(req.RequestID, j), nil
}

// resolveFormat runs the document-format auto-detection chain: the
// client-supplied document-format attribute wins outright unless it's the
// generic default clients send when they don't actually know the format, in
// which case magic bytes, then name's filename suffix, then the printer's
// driver default are tried in turn.
func (r *Router) resolveFormat(req *goipp.Message, p *printer.Printer, name string, data []byte) string {
	client := ippattr.OperationAttr(*req.Operation(), "document-format", "application/octet-stream")
	return job.ResolveDocumentFormat(client, name, data, p.Driver().Capabilities().DefaultFormat)
}

// submitError maps a printer.Submit failure to the IPP status it implies.
func submitError(err error, jobID job.ID) error {
	switch {
	case errors.Is(err, printer.ErrQuotaExceeded):
		return newStatusError(goipp.StatusErrorTooManyJobs, "too many active jobs: %w", err)
	case errors.Is(err, printer.ErrPrinterDeleted):
		return newStatusError(goipp.StatusErrorNotAcceptingJobs, "printer deleted: %w", err)
	default:
		return newStatusError(goipp.StatusErrorInternal, "submit job %d: %w", jobID, err)
	}
}

func (r *Router) handleValidateJob(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	if _, err := r.printerFromRequest(req); err != nil {
		return nil, err
	}
	return ippattr.NewResponse(goipp.StatusOk, req.RequestID), nil
}

func (r *Router) handleCreateJob(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	j, err := job.FromRequest(p, r.baseURL, 0, req)
	if err != nil {
		return nil, newStatusError(goipp.StatusErrorBadRequest, "create job: %w", err)
	}
	if err := p.Submit(j); err != nil {
		return nil, submitError(err, j.ID)
	}

	r.pendingMu.Lock()
	r.pending[j.ID] = j
	r.pendingMu.Unlock()

	return jobCreatedResponse(req.RequestID, j), nil
}

func (r *Router) handleSendDocument(ctx context.Context, req *goipp.Message, body []byte) (*goipp.Message, error) {
	id, err := jobIDFromRequest(req)
	if err != nil {
		return nil, err
	}
	r.pendingMu.Lock()
	j, ok := r.pending[id]
	r.pendingMu.Unlock()
	if !ok {
		return nil, newStatusError(goipp.StatusErrorNotFound, "job %d has no pending Create-Job session", id)
	}

	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	name := ippattr.OperationAttr(*req.Operation(), "document-name", "")
	format := r.resolveFormat(req, p, name, body)
	if format == "" {
		return nil, newStatusError(goipp.StatusErrorDocumentFormatError, "document format could not be determined")
	}
	last, _ := ippattr.ExtractValue[goipp.Boolean](*req.Operation(), "last-document")
	j.AddDocument(job.Document{Format: format, Name: name, Data: body, Last: bool(last)})

	if bool(last) {
		r.pendingMu.Lock()
		delete(r.pending, id)
		r.pendingMu.Unlock()
	}

	resp := ippattr.NewResponse(goipp.StatusOk, req.RequestID)
	add := ippattr.Adder(resp.Job())
	add("job-id", goipp.TagInteger, goipp.Integer(j.ID))
	add("job-state", goipp.TagEnum, goipp.Integer(j.State()))
	return resp, nil
}

func (r *Router) handleCancelJob(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	_, j, err := r.jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := j.Cancel(ctx, job.ReasonJobCancelledByUser); err != nil {
		return nil, newStatusError(goipp.StatusErrorNotPossible, "cancel job %d: %w", j.ID, err)
	}
	return ippattr.NewResponse(goipp.StatusOk, req.RequestID), nil
}

func (r *Router) handleHoldJob(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	_, j, err := r.jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	if keyword := ippattr.OperationAttr(*req.Operation(), "job-hold-until", ""); keyword != "" {
		j.HoldUntil = keyword
	}
	if err := j.Hold(ctx, job.ReasonJobHeldUntilSpecified); err != nil {
		return nil, newStatusError(goipp.StatusErrorNotPossible, "hold job %d: %w", j.ID, err)
	}
	return ippattr.NewResponse(goipp.StatusOk, req.RequestID), nil
}

func (r *Router) handleReleaseJob(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, j, err := r.jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	j.HoldUntil = string(job.HoldNone)
	if err := j.Release(ctx); err != nil {
		return nil, newStatusError(goipp.StatusErrorNotPossible, "release job %d: %w", j.ID, err)
	}
	_ = p // job is already queued on p; releasing just flips its state
	return ippattr.NewResponse(goipp.StatusOk, req.RequestID), nil
}

func (r *Router) handleGetJobAttributes(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	_, j, err := r.jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	resp := ippattr.NewResponse(goipp.StatusOk, req.RequestID)
	*resp.Job() = j.Attributes()
	return resp, nil
}

func (r *Router) handleGetJobs(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	username := ippattr.OperationAttr(*req.Operation(), "requesting-user-name", "")

	resp := ippattr.NewResponse(goipp.StatusOk, req.RequestID)
	for _, j := range p.Jobs() {
		if username != "" && j.Username != username {
			continue
		}
		group := &goipp.AttributeGroup{Tag: goipp.TagJobGroup, Attrs: j.Attributes()}
		resp.Groups = append(resp.Groups, group)
	}
	return resp, nil
}

func (r *Router) handleGetPrinterAttributes(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	return r.printerAttributesResponse(req.RequestID, p), nil
}

func (r *Router) handlePausePrinter(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.Pause()
	return ippattr.NewResponse(goipp.StatusOk, req.RequestID), nil
}

func (r *Router) handleResumePrinter(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.Resume()
	return ippattr.NewResponse(goipp.StatusOk, req.RequestID), nil
}

func (r *Router) handleIdentifyPrinter(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	message := ippattr.OperationAttr(*req.Operation(), "message", "identify")
	dev, err := device.Open(ctx, p.DeviceURI())
	if err != nil {
		return nil, newStatusError(goipp.StatusErrorInternal, "open device: %w", err)
	}
	defer dev.Close()
	if err := p.Driver().Identify(ctx, dev, message); err != nil {
		return nil, newStatusError(goipp.StatusErrorInternal, "identify: %w", err)
	}
	return ippattr.NewResponse(goipp.StatusOk, req.RequestID), nil
}

func (r *Router) handleGetSystemAttributes(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	resp := ippattr.NewResponse(goipp.StatusOk, req.RequestID)
	add := ippattr.Adder(resp.System())
	add("system-uuid", goipp.TagURI, goipp.String(r.systemUUID))
	add("system-up-time", goipp.TagInteger, goipp.Integer(int(time.Since(r.started).Seconds())))
	names := make([]goipp.Value, 0, len(r.printers))
	for _, p := range r.Printers() {
		names = append(names, goipp.String(p.Name()))
	}
	add("printer-name", goipp.TagName, names...)
	return resp, nil
}

// handleGetPrinters answers the system-uri scope's Get-Printers: one
// printer-attributes group per registered printer. Delete-Printer
// unregisters a printer, so deleted printers are not listed.
func (r *Router) handleGetPrinters(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	resp := ippattr.NewResponse(goipp.StatusOk, req.RequestID)
	for _, p := range r.Printers() {
		resp.Groups = append(resp.Groups, &goipp.AttributeGroup{
			Tag:   goipp.TagPrinterGroup,
			Attrs: r.printerAttrs(p),
		})
	}
	return resp, nil
}

// handleCreatePrinter builds and registers a new printer at runtime, the
// system-uri scope's Create-Printer. printer-name, printer-driver and
// device-uri are required operation attributes; max-active-jobs is
// optional.
func (r *Router) handleCreatePrinter(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	op := *req.Operation()
	name := ippattr.OperationAttr(op, "printer-name", "")
	if name == "" {
		return nil, newStatusError(goipp.StatusErrorBadRequest, "create-printer: missing printer-name")
	}
	if _, exists := r.printerByName(name); exists {
		return nil, newStatusError(goipp.StatusErrorNotPossible, "printer %q already exists", name)
	}
	driverName := ippattr.OperationAttr(op, "printer-driver", "")
	drv, ok := driver.New(driverName)
	if !ok {
		return nil, newStatusError(goipp.StatusErrorBadRequest, "create-printer: unknown driver %q", driverName)
	}
	deviceURI := ippattr.OperationAttr(op, "device-uri", "")
	if deviceURI == "" {
		return nil, newStatusError(goipp.StatusErrorBadRequest, "create-printer: missing device-uri")
	}
	maxActiveJobs := 0
	if v, err := ippattr.ExtractValue[goipp.Integer](op, "max-active-jobs"); err == nil {
		maxActiveJobs = int(v)
	}

	p, err := printer.New(printer.Config{
		Name:          name,
		DeviceURI:     deviceURI,
		Driver:        drv,
		Bus:           r.bus,
		MaxActiveJobs: maxActiveJobs,
	})
	if err != nil {
		return nil, newStatusError(goipp.StatusErrorInternal, "create-printer: %w", err)
	}
	r.AddPrinter(p)
	return r.printerAttributesResponse(req.RequestID, p), nil
}

// handleDeletePrinter implements the system-uri scope's Delete-Printer:
// lazily marks the printer deleted (spec.md §3's is_deleted) so its
// in-flight job can finish, then unregisters it from the router so no new
// requests resolve to it.
func (r *Router) handleDeletePrinter(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, err := r.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.Delete()
	r.RemovePrinter(p.Name())
	return ippattr.NewResponse(goipp.StatusOk, req.RequestID), nil
}

// handleShutdownSystem answers Shutdown-All-Printers, the closest real IPP
// System-service operation to a literal Shutdown-System: it pauses every
// registered printer rather than terminating the process, since an IPP
// client has no business killing the server that's answering it.
func (r *Router) handleShutdownSystem(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	for _, p := range r.Printers() {
		p.Pause()
	}
	return ippattr.NewResponse(goipp.StatusOk, req.RequestID), nil
}

func (r *Router) printerAttributesResponse(requestID uint32, p *printer.Printer) *goipp.Message {
	m := ippattr.NewResponse(goipp.StatusOk, requestID)
	*m.Printer() = r.printerAttrs(p)
	return m
}

// printerAttrs renders one printer's Get-Printer-Attributes group, shared
// by Get-Printer-Attributes (one printer) and Get-Printers (one group per
// registered printer).
func (r *Router) printerAttrs(p *printer.Printer) goipp.Attributes {
	var attrs goipp.Attributes
	add := ippattr.Adder(&attrs)
	caps := p.Driver().Capabilities()

	add("printer-uri-supported", goipp.TagURI, goipp.String(r.baseURL+p.Name()))
	add("uri-authentication-supported", goipp.TagKeyword, ippattr.None)
	add("uri-security-supported", goipp.TagKeyword, ippattr.None)
	add("printer-name", goipp.TagName, goipp.String(p.Name()))
	add("printer-make-and-model", goipp.TagText, goipp.String(caps.MakeAndModel))
	add("printer-state", goipp.TagEnum, goipp.Integer(p.State()))
	add("printer-state-reasons", goipp.TagKeyword, ippattr.None)
	add("printer-is-accepting-jobs", goipp.TagBoolean, goipp.Boolean(p.Ready()))
	add("printer-up-time", goipp.TagInteger, goipp.Integer(p.UpTime()))
	add("printer-uuid", goipp.TagURI, goipp.String(p.UUID()))
	add("ipp-versions-supported", goipp.TagKeyword, goipp.String("1.1"), goipp.String("2.0"))
	add("operations-supported", goipp.TagEnum,
		goipp.Integer(goipp.OpPrintJob), goipp.Integer(goipp.OpValidateJob),
		goipp.Integer(goipp.OpCreateJob), goipp.Integer(goipp.OpSendDocument),
		goipp.Integer(goipp.OpCancelJob), goipp.Integer(goipp.OpHoldJob),
		goipp.Integer(goipp.OpReleaseJob), goipp.Integer(goipp.OpGetJobs),
		goipp.Integer(goipp.OpGetJobAttributes), goipp.Integer(goipp.OpGetPrinterAttributes),
		goipp.Integer(goipp.OpPausePrinter), goipp.Integer(goipp.OpResumePrinter),
		goipp.Integer(goipp.OpIdentifyPrinter),
	)
	add("multiple-document-jobs-supported", goipp.TagBoolean, goipp.Boolean(true))
	add("charset-configured", goipp.TagCharset, ippattr.UTF8)
	add("charset-supported", goipp.TagCharset, ippattr.UTF8)
	add("natural-language-configured", goipp.TagLanguage, ippattr.EnUS)
	add("generated-natural-language-supported", goipp.TagLanguage, ippattr.EnUS)
	add("document-format-default", goipp.TagMimeType, ippattr.ApplicationPDF)
	add("document-format-supported", goipp.TagMimeType, ippattr.ApplicationPDF, ippattr.ImageURF, ippattr.ImagePWG)
	add("media-supported", goipp.TagKeyword, ippattr.StringsToValues(caps.Media)...)
	add("media-default", goipp.TagKeyword, goipp.String(caps.DefaultMedia))
	add("color-supported", goipp.TagBoolean, goipp.Boolean(hasColor(caps)))
	add("sides-supported", goipp.TagKeyword, sidesSupported(caps.Duplex)...)
	return attrs
}

func hasColor(caps driver.Capabilities) bool {
	for _, m := range caps.ColorModes {
		if m == driver.ColorModeColor || m == driver.ColorModeAuto {
			return true
		}
	}
	return false
}

func sidesSupported(duplex bool) []goipp.Value {
	out := []goipp.Value{goipp.String("one-sided")}
	if duplex {
		out = append(out, goipp.String("two-sided-long-edge"), goipp.String("two-sided-short-edge"))
	}
	return out
}

func jobCreatedResponse(requestID uint32, j *job.Job) *goipp.Message {
	resp := ippattr.NewResponse(goipp.StatusOk, requestID)
	add := ippattr.Adder(resp.Job())
	add("job-id", goipp.TagInteger, goipp.Integer(j.ID))
	add("job-uri", goipp.TagURI, goipp.String(j.JobURI))
	add("job-state", goipp.TagEnum, goipp.Integer(j.State()))
	add("job-state-reasons", goipp.TagKeyword, ippattr.StringsToValues(reasonStrings(j.StateReasons()))...)
	return resp
}

func reasonStrings(rr []job.StateReason) []string {
	out := make([]string, len(rr))
	for i, r := range rr {
		out[i] = string(r)
	}
	return out
}

