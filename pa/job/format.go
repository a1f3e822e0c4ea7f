package job

import (
	"bytes"
	"path/filepath"
	"strings"
)

// magicSignature pairs a byte prefix with the MIME type it identifies.
type magicSignature struct {
	prefix []byte
	format string
}

// magicTable is checked in order against the start of the document data.
var magicTable = []magicSignature{
	{[]byte("%PDF"), "application/pdf"},
	{[]byte("%!"), "application/postscript"},
	{[]byte("RaS2PwgR"), "image/pwg-raster"},
	{[]byte("UNIRAST"), "image/urf"},
	{[]byte{0x89, 0x50, 0x4e, 0x47}, "image/png"},
}

// jpegSOI is the JPEG start-of-image marker; the third byte selects an
// APPn segment (0xE0-0xEF) rather than a fixed fourth byte.
var jpegSOI = []byte{0xff, 0xd8, 0xff}

var suffixTable = map[string]string{
	".pdf":  "application/pdf",
	".ps":   "application/postscript",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pwg":  "image/pwg-raster",
	".ras":  "image/pwg-raster",
	".urf":  "image/urf",
}

// sniff returns the MIME type identified by data's leading bytes, or "" if
// none of the known magic signatures match.
func sniff(data []byte) string {
	for _, sig := range magicTable {
		if bytes.HasPrefix(data, sig.prefix) {
			return sig.format
		}
	}
	if len(data) >= 4 && bytes.HasPrefix(data, jpegSOI) && data[3] >= 0xe0 && data[3] <= 0xef {
		return "image/jpeg"
	}
	return ""
}

// formatFromSuffix maps a filename's extension to a MIME type, or "" if the
// suffix is unrecognized or name has none.
func formatFromSuffix(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return suffixTable[ext]
}

// ResolveDocumentFormat determines a document's MIME type following the
// auto-detection chain: magic bytes in data, then name's filename suffix,
// then driverDefault, then the empty string if none apply. clientFormat, if
// it's anything other than the generic "application/octet-stream" fallback
// IPP clients send by default, wins outright — auto-detection only kicks in
// when the client didn't actually know the format.
func ResolveDocumentFormat(clientFormat, name string, data []byte, driverDefault string) string {
	if clientFormat != "" && clientFormat != "application/octet-stream" {
		return clientFormat
	}
	if format := sniff(data); format != "" {
		return format
	}
	if format := formatFromSuffix(name); format != "" {
		return format
	}
	return driverDefault
}
