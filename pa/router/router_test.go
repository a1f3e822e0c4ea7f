package router

import (
	"context"
	"fmt"
	"testing"

	"github.com/OpenPrinting/goipp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paprintd/paprintd/pa/device"
	"github.com/paprintd/paprintd/pa/driver"
	"github.com/paprintd/paprintd/pa/ippattr"
	"github.com/paprintd/paprintd/pa/job"
	"github.com/paprintd/paprintd/pa/printer"

	_ "github.com/paprintd/paprintd/drivers/pwgraster"
)

type fakeDriver struct{}

func (fakeDriver) Capabilities() driver.Capabilities {
	return driver.Capabilities{MakeAndModel: "Fake", Media: []string{"na_letter_8.5x11in"}, DefaultMedia: "na_letter_8.5x11in"}
}
func (fakeDriver) Print(context.Context, device.Device, driver.JobInfo, []byte) error { return nil }
func (fakeDriver) RStartJob(context.Context, device.Device, driver.JobInfo) error      { return nil }
func (fakeDriver) RStartPage(context.Context, device.Device, driver.JobInfo, int) error {
	return nil
}
func (fakeDriver) RWriteLine(context.Context, device.Device, int, []byte) error { return nil }
func (fakeDriver) REndPage(context.Context, device.Device, driver.JobInfo, int) error {
	return nil
}
func (fakeDriver) REndJob(context.Context, device.Device, driver.JobInfo) error { return nil }
func (fakeDriver) Identify(context.Context, device.Device, string) error       { return nil }
func (fakeDriver) Status(context.Context, device.Device) ([]string, error)     { return nil, nil }
func (fakeDriver) TestPage(context.Context, device.Device, string) error       { return nil }

const testBaseURL = "/ipp/print/"

func newTestRouter(t *testing.T, names ...string) (*Router, map[string]*printer.Printer) {
	t.Helper()
	printers := make(map[string]*printer.Printer, len(names))
	var list []*printer.Printer
	for _, name := range names {
		p, err := printer.New(printer.Config{
			Name:      name,
			DeviceURI: "file://" + t.TempDir() + "/out.bin",
			Driver:    fakeDriver{},
		})
		require.NoError(t, err)
		t.Cleanup(p.Close)
		printers[name] = p
		list = append(list, p)
	}
	return New(testBaseURL, "urn:uuid:system-1", nil, list...), printers
}

func newRequest(op goipp.Op, printerName string, extra func(attrs *goipp.Attributes)) *goipp.Message {
	req := goipp.NewRequest(goipp.DefaultVersion, op, 1)
	add := ippattr.Adder(req.Operation())
	add("attributes-charset", goipp.TagCharset, ippattr.UTF8)
	add("attributes-natural-language", goipp.TagLanguage, ippattr.EnUS)
	if printerName != "" {
		add("printer-uri", goipp.TagURI, goipp.String(testBaseURL+printerName))
	}
	if extra != nil {
		extra(req.Operation())
	}
	return req
}

func TestServeIPPUnsupportedOperation(t *testing.T) {
	r, _ := newTestRouter(t, "printer1")
	req := goipp.NewRequest(goipp.DefaultVersion, goipp.Op(0x9999), 1)
	resp := r.ServeIPP(context.Background(), req, nil)
	assert.Equal(t, goipp.Code(goipp.StatusErrorOperationNotSupported), resp.Code)
}

func TestServeIPPPrintJobUnknownPrinter(t *testing.T) {
	r, _ := newTestRouter(t)
	req := newRequest(goipp.OpPrintJob, "no-such-printer", nil)
	resp := r.ServeIPP(context.Background(), req, []byte("data"))
	assert.Equal(t, goipp.Code(goipp.StatusErrorNotFound), resp.Code)
}

func TestServeIPPPrintJobHappyPath(t *testing.T) {
	r, printers := newTestRouter(t, "printer1")
	req := newRequest(goipp.OpPrintJob, "printer1", func(attrs *goipp.Attributes) {
		ippattr.Adder(attrs)("document-format", goipp.TagMimeType, goipp.String("application/pdf"))
	})
	resp := r.ServeIPP(context.Background(), req, []byte("document body"))

	require.Equal(t, goipp.Code(goipp.StatusOk), resp.Code)
	id, err := ippattr.ExtractValue[goipp.Integer](*resp.Job(), "job-id")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	p := printers["printer1"]
	require.Len(t, p.Jobs(), 1)
	assert.Equal(t, "document body", string(p.Jobs()[0].Data()))
}

func TestServeIPPValidateJob(t *testing.T) {
	r, _ := newTestRouter(t, "printer1")
	req := newRequest(goipp.OpValidateJob, "printer1", nil)
	resp := r.ServeIPP(context.Background(), req, nil)
	assert.Equal(t, goipp.Code(goipp.StatusOk), resp.Code)
}

func TestCreateJobThenSendDocument(t *testing.T) {
	r, printers := newTestRouter(t, "printer1")

	createResp := r.ServeIPP(context.Background(), newRequest(goipp.OpCreateJob, "printer1", nil), nil)
	require.Equal(t, goipp.Code(goipp.StatusOk), createResp.Code)
	id, err := ippattr.ExtractValue[goipp.Integer](*createResp.Job(), "job-id")
	require.NoError(t, err)

	sendReq := newRequest(goipp.OpSendDocument, "printer1", func(attrs *goipp.Attributes) {
		ippattr.Adder(attrs)("job-id", goipp.TagInteger, id)
		ippattr.Adder(attrs)("last-document", goipp.TagBoolean, goipp.Boolean(true))
	})
	sendResp := r.ServeIPP(context.Background(), sendReq, []byte("page bytes"))
	require.Equal(t, goipp.Code(goipp.StatusOk), sendResp.Code)

	p := printers["printer1"]
	j, err := p.Job(job.ID(id))
	require.NoError(t, err)
	assert.Equal(t, "page bytes", string(j.Data()))
}

func TestSendDocumentWithoutCreateJobFails(t *testing.T) {
	r, _ := newTestRouter(t, "printer1")
	req := newRequest(goipp.OpSendDocument, "printer1", func(attrs *goipp.Attributes) {
		ippattr.Adder(attrs)("job-id", goipp.TagInteger, goipp.Integer(99))
	})
	resp := r.ServeIPP(context.Background(), req, []byte("x"))
	assert.Equal(t, goipp.Code(goipp.StatusErrorNotFound), resp.Code)
}

func TestGetPrinterAttributes(t *testing.T) {
	r, _ := newTestRouter(t, "printer1")
	req := newRequest(goipp.OpGetPrinterAttributes, "printer1", nil)
	resp := r.ServeIPP(context.Background(), req, nil)

	require.Equal(t, goipp.Code(goipp.StatusOk), resp.Code)
	name, err := ippattr.ExtractValue[goipp.String](*resp.Printer(), "printer-name")
	require.NoError(t, err)
	assert.Equal(t, "printer1", string(name))
}

func TestGetSystemAttributes(t *testing.T) {
	r, _ := newTestRouter(t, "printer1", "printer2")
	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetSystemAttributes, 1)
	resp := r.ServeIPP(context.Background(), req, nil)

	require.Equal(t, goipp.Code(goipp.StatusOk), resp.Code)
	names, err := ippattr.ExtractValues[goipp.String](*resp.System(), "printer-name")
	require.NoError(t, err)
	assert.ElementsMatch(t, []goipp.String{"printer1", "printer2"}, names)
}

func TestPauseAndResumePrinter(t *testing.T) {
	r, printers := newTestRouter(t, "printer1")
	p := printers["printer1"]

	pauseResp := r.ServeIPP(context.Background(), newRequest(goipp.OpPausePrinter, "printer1", nil), nil)
	require.Equal(t, goipp.Code(goipp.StatusOk), pauseResp.Code)
	assert.False(t, p.Ready())

	resumeResp := r.ServeIPP(context.Background(), newRequest(goipp.OpResumePrinter, "printer1", nil), nil)
	require.Equal(t, goipp.Code(goipp.StatusOk), resumeResp.Code)
	assert.True(t, p.Ready())
}

func TestHoldAndReleaseJob(t *testing.T) {
	r, printers := newTestRouter(t, "printer1")
	p := printers["printer1"]
	p.Pause() // keep the job pending so hold/release has something to act on

	createResp := r.ServeIPP(context.Background(), newRequest(goipp.OpCreateJob, "printer1", nil), nil)
	id, err := ippattr.ExtractValue[goipp.Integer](*createResp.Job(), "job-id")
	require.NoError(t, err)

	holdReq := newRequest(goipp.OpHoldJob, "printer1", func(attrs *goipp.Attributes) {
		ippattr.Adder(attrs)("job-id", goipp.TagInteger, id)
		ippattr.Adder(attrs)("job-hold-until", goipp.TagKeyword, goipp.String("indefinite"))
	})
	holdResp := r.ServeIPP(context.Background(), holdReq, nil)
	require.Equal(t, goipp.Code(goipp.StatusOk), holdResp.Code, fmt.Sprintf("hold response: %+v", holdResp))

	releaseReq := newRequest(goipp.OpReleaseJob, "printer1", func(attrs *goipp.Attributes) {
		ippattr.Adder(attrs)("job-id", goipp.TagInteger, id)
	})
	releaseResp := r.ServeIPP(context.Background(), releaseReq, nil)
	assert.Equal(t, goipp.Code(goipp.StatusOk), releaseResp.Code)
}

func TestGetPrinters(t *testing.T) {
	r, _ := newTestRouter(t, "printer1", "printer2")
	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetPrinters, 1)
	resp := r.ServeIPP(context.Background(), req, nil)

	require.Equal(t, goipp.Code(goipp.StatusOk), resp.Code)
	require.Len(t, resp.Groups, 2)
}

func TestCreatePrinterThenDelete(t *testing.T) {
	r, _ := newTestRouter(t)

	createReq := goipp.NewRequest(goipp.DefaultVersion, goipp.OpCreatePrinter, 1)
	add := ippattr.Adder(createReq.Operation())
	add("printer-name", goipp.TagName, goipp.String("printer3"))
	add("printer-driver", goipp.TagKeyword, goipp.String("pwgraster"))
	add("device-uri", goipp.TagURI, goipp.String("file://"+t.TempDir()+"/out.bin"))

	createResp := r.ServeIPP(context.Background(), createReq, nil)
	require.Equal(t, goipp.Code(goipp.StatusOk), createResp.Code)
	name, err := ippattr.ExtractValue[goipp.String](*createResp.Printer(), "printer-name")
	require.NoError(t, err)
	assert.Equal(t, "printer3", string(name))

	deleteReq := newRequest(goipp.OpDeletePrinter, "printer3", nil)
	deleteResp := r.ServeIPP(context.Background(), deleteReq, nil)
	require.Equal(t, goipp.Code(goipp.StatusOk), deleteResp.Code)

	getReq := newRequest(goipp.OpGetPrinterAttributes, "printer3", nil)
	getResp := r.ServeIPP(context.Background(), getReq, nil)
	assert.Equal(t, goipp.Code(goipp.StatusErrorNotFound), getResp.Code)
}

func TestCreatePrinterRejectsDuplicateName(t *testing.T) {
	r, _ := newTestRouter(t, "printer1")

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpCreatePrinter, 1)
	add := ippattr.Adder(req.Operation())
	add("printer-name", goipp.TagName, goipp.String("printer1"))
	add("printer-driver", goipp.TagKeyword, goipp.String("pwgraster"))
	add("device-uri", goipp.TagURI, goipp.String("file://"+t.TempDir()+"/out.bin"))

	resp := r.ServeIPP(context.Background(), req, nil)
	assert.Equal(t, goipp.Code(goipp.StatusErrorNotPossible), resp.Code)
}

func TestShutdownSystemPausesEveryPrinter(t *testing.T) {
	r, printers := newTestRouter(t, "printer1", "printer2")

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpShutdownAllPrinters, 1)
	resp := r.ServeIPP(context.Background(), req, nil)

	require.Equal(t, goipp.Code(goipp.StatusOk), resp.Code)
	assert.False(t, printers["printer1"].Ready())
	assert.False(t, printers["printer2"].Ready())
}

func TestPrintJobRejectsUnresolvableFormat(t *testing.T) {
	r, _ := newTestRouter(t, "printer1")
	req := newRequest(goipp.OpPrintJob, "printer1", func(attrs *goipp.Attributes) {
		ippattr.Adder(attrs)("document-format", goipp.TagMimeType, goipp.String("application/octet-stream"))
	})
	resp := r.ServeIPP(context.Background(), req, []byte{0x00, 0x01, 0x02})
	assert.Equal(t, goipp.Code(goipp.StatusErrorDocumentFormatError), resp.Code)
}

func TestPrintJobRejectsOverQuota(t *testing.T) {
	printers := make(map[string]*printer.Printer, 1)
	p, err := printer.New(printer.Config{
		Name:          "printer1",
		DeviceURI:     "file://" + t.TempDir() + "/out.bin",
		Driver:        fakeDriver{},
		MaxActiveJobs: 1,
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	printers["printer1"] = p
	p.Pause() // keep jobs pending so the quota isn't drained before the second request lands
	r := New(testBaseURL, "urn:uuid:system-1", nil, p)

	withFormat := func(attrs *goipp.Attributes) {
		ippattr.Adder(attrs)("document-format", goipp.TagMimeType, goipp.String("application/pdf"))
	}
	first := r.ServeIPP(context.Background(), newRequest(goipp.OpPrintJob, "printer1", withFormat), []byte("a"))
	require.Equal(t, goipp.Code(goipp.StatusOk), first.Code)

	second := r.ServeIPP(context.Background(), newRequest(goipp.OpPrintJob, "printer1", withFormat), []byte("b"))
	assert.Equal(t, goipp.Code(goipp.StatusErrorTooManyJobs), second.Code)
}
