package job

import "testing"

func TestResolveDocumentFormatClientWins(t *testing.T) {
	got := ResolveDocumentFormat("image/jpeg", "file.pdf", []byte("%PDF-1.4"), "")
	if got != "image/jpeg" {
		t.Fatalf("got %q, want image/jpeg", got)
	}
}

func TestResolveDocumentFormatSniffsMagicOverSuffix(t *testing.T) {
	got := ResolveDocumentFormat("application/octet-stream", "report.prn", []byte("%PDF-1.4\n..."), "")
	if got != "application/pdf" {
		t.Fatalf("got %q, want application/pdf", got)
	}
}

func TestResolveDocumentFormatSniffsPWGRaster(t *testing.T) {
	got := ResolveDocumentFormat("", "job.bin", []byte("RaS2PwgR"+"\x00\x00\x00"), "")
	if got != "image/pwg-raster" {
		t.Fatalf("got %q, want image/pwg-raster", got)
	}
}

func TestResolveDocumentFormatFallsBackToSuffix(t *testing.T) {
	got := ResolveDocumentFormat("application/octet-stream", "photo.jpg", []byte{0x00, 0x01, 0x02}, "")
	if got != "image/jpeg" {
		t.Fatalf("got %q, want image/jpeg", got)
	}
}

func TestResolveDocumentFormatFallsBackToDriverDefault(t *testing.T) {
	got := ResolveDocumentFormat("", "noext", []byte{0x00, 0x01, 0x02}, "image/urf")
	if got != "image/urf" {
		t.Fatalf("got %q, want image/urf", got)
	}
}

func TestResolveDocumentFormatEmptyWhenNothingMatches(t *testing.T) {
	got := ResolveDocumentFormat("", "noext", []byte{0x00, 0x01, 0x02}, "")
	if got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}

func TestResolveDocumentFormatSniffsJPEG(t *testing.T) {
	got := ResolveDocumentFormat("", "data", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}, "")
	if got != "image/jpeg" {
		t.Fatalf("got %q, want image/jpeg", got)
	}
}
