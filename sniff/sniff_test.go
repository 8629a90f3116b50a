package sniff

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestDetectMagicBytes(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{"pdf", []byte("%PDF-1.7\n...."), FormatPDF},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}, FormatPNG},
		{"jpeg jfif", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}, FormatJPEG},
		{"jpeg exif", []byte{0xff, 0xd8, 0xff, 0xe1, 0x00, 0x10}, FormatJPEG},
		{"jpeg dqt", []byte{0xff, 0xd8, 0xff, 0xdb, 0x00, 0x10}, FormatJPEG},
		{"tiff little-endian", []byte{'I', 'I', '*', 0x00, 1, 2}, FormatTIFF},
		{"tiff big-endian", []byte{'M', 'M', 0x00, '*', 1, 2}, FormatTIFF},
		{"bmp", []byte("BM\x36\x00\x00\x00"), FormatBMP},
		{"rtf", []byte(`{\rtf1\ansi hello}`), FormatRTF},
	}

	for _, tt := range tests {
		det := Detect(tt.data, "file.bin", Thresholds{})
		if det.Format != tt.format {
			t.Errorf("%s: Detect = %q, want %q (reason: %s)", tt.name, det.Format, tt.format, det.Reason)
		}
		if !strings.Contains(det.Reason, "magic bytes") {
			t.Errorf("%s: reason should cite the signature, got %q", tt.name, det.Reason)
		}
	}
}

func TestDetectTooSmall(t *testing.T) {
	for _, data := range [][]byte{nil, {}, {0x25}, {0x25, 0x50}, {0x25, 0x50, 0x44}} {
		det := Detect(data, "file.pdf", Thresholds{})
		if det.Format != FormatUnknown {
			t.Errorf("Detect(%d bytes) = %q, want unknown", len(data), det.Format)
		}
	}
}

// buildZip creates an in-memory ZIP whose first entry carries the given path.
func buildZip(t *testing.T, entry string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create(entry)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("<xml/>"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectOfficeZip(t *testing.T) {
	tests := []struct {
		entry  string
		format Format
	}{
		{"word/document.xml", FormatDocx},
		{"xl/workbook.xml", FormatXlsx},
		{"ppt/presentation.xml", FormatPptx},
	}
	for _, tt := range tests {
		det := Detect(buildZip(t, tt.entry), "upload.bin", Thresholds{})
		if det.Format != tt.format {
			t.Errorf("zip with %s: Detect = %q, want %q", tt.entry, det.Format, tt.format)
		}
	}
}

func TestDetectOfficeZipExtensionFallback(t *testing.T) {
	// No recognizable internal path: the declared extension decides.
	data := buildZip(t, "mimetype")
	det := Detect(data, "sheet.xlsx", Thresholds{})
	if det.Format != FormatXlsx {
		t.Errorf("Detect = %q, want xlsx via extension", det.Format)
	}

	// Undecidable and no extension: defaults to docx.
	det = Detect(data, "blob", Thresholds{})
	if det.Format != FormatDocx {
		t.Errorf("Detect = %q, want docx default", det.Format)
	}
}

func TestDetectLegacyOffice(t *testing.T) {
	ole2 := append([]byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}, make([]byte, 64)...)
	tests := []struct {
		filename string
		format   Format
	}{
		{"report.doc", FormatDoc},
		{"sheet.xls", FormatXls},
		{"deck.ppt", FormatPpt},
		{"mystery", FormatDoc},
	}
	for _, tt := range tests {
		det := Detect(ole2, tt.filename, Thresholds{})
		if det.Format != tt.format {
			t.Errorf("Detect(%s) = %q, want %q", tt.filename, det.Format, tt.format)
		}
	}
}

func TestDetectHTML(t *testing.T) {
	page := []byte(`<!DOCTYPE html><html><head><title>x</title></head><body><p>hi</p></body></html>`)
	det := Detect(page, "page.html", Thresholds{})
	if det.Format != FormatHTML {
		t.Fatalf("Detect = %q, want html (reason: %s)", det.Format, det.Reason)
	}
	if det.ContentType != "text/html" {
		t.Errorf("ContentType = %q, want text/html", det.ContentType)
	}
}

func TestDetectHTMLSavedAsPDF(t *testing.T) {
	// WHAT: An HTML page mislabeled .pdf still detects as HTML.
	// WHY: mislabeled uploads are the whole point of byte-level sniffing.
	page := []byte(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>t</title>` +
		`<link rel="stylesheet" href="a.css"></head><body><div><p>content</p></div></body></html>`)
	det := Detect(page, "page.pdf", Thresholds{})
	if det.Format != FormatHTML {
		t.Fatalf("Detect = %q, want html (reason: %s)", det.Format, det.Reason)
	}
}

func TestDetectHTMLStrictThreshold(t *testing.T) {
	// A file claiming .pdf with only weak HTML evidence must not flip to HTML.
	weak := []byte("random <div data with a single href= token and padding to pass four bytes")
	det := Detect(weak, "file.pdf", Thresholds{})
	if det.Format == FormatHTML {
		t.Fatalf("weak evidence classified as HTML under strict threshold (reason: %s)", det.Reason)
	}
}

func TestDetectJSON(t *testing.T) {
	det := Detect([]byte(`{"key": "value", "n": [1, 2, 3]}`), "data.pdf", Thresholds{})
	if det.Format != FormatJSON {
		t.Fatalf("Detect = %q, want json", det.Format)
	}

	det = Detect([]byte(`[1, 2, 3]`), "arr.txt", Thresholds{})
	if det.Format != FormatJSON {
		t.Fatalf("Detect = %q, want json for array", det.Format)
	}
}

func TestDetectXML(t *testing.T) {
	det := Detect([]byte(`<?xml version="1.0"?><root><a>1</a></root>`), "d.xml", Thresholds{})
	if det.Format != FormatXML {
		t.Fatalf("Detect = %q, want xml", det.Format)
	}

	det = Detect([]byte(`<root xmlns="urn:x"><a>1</a></root>`), "d.bin", Thresholds{})
	if det.Format != FormatXML {
		t.Fatalf("Detect = %q, want xml via xmlns", det.Format)
	}
}

func TestDetectPlainText(t *testing.T) {
	det := Detect([]byte("just a plain sentence with nothing special about it at all"), "notes", Thresholds{})
	if det.Format != FormatTXT {
		t.Fatalf("Detect = %q, want txt", det.Format)
	}
	if det.ContentType != "text/plain" {
		t.Errorf("ContentType = %q, want text/plain", det.ContentType)
	}
}

func TestDetectSmallTextWithTagsPrefersHTML(t *testing.T) {
	det := Detect([]byte("see <here> for details"), "note", Thresholds{})
	if det.Format != FormatHTML {
		t.Fatalf("Detect = %q, want html for small tagged text", det.Format)
	}
}

func TestDetectDeclaredExtensionRescue(t *testing.T) {
	// Binary garbage with a declared .pdf extension: trust the extension with
	// a low-confidence reason instead of returning unknown.
	garbage := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0xfe, 0xff, 0x00, 0x9c, 0x8d}
	det := Detect(garbage, "scan.pdf", Thresholds{})
	if det.Format != FormatPDF {
		t.Fatalf("Detect = %q, want pdf via declared extension", det.Format)
	}
	if !strings.Contains(det.Reason, "low confidence") {
		t.Errorf("reason should flag low confidence, got %q", det.Reason)
	}

	det = Detect(garbage, "blob", Thresholds{})
	if det.Format != FormatUnknown {
		t.Fatalf("Detect = %q, want unknown without declared extension", det.Format)
	}
}

func TestSupported(t *testing.T) {
	for _, f := range []Format{FormatPDF, FormatDocx, FormatXlsx, FormatPptx, FormatPNG, FormatJPEG, FormatTIFF, FormatBMP, FormatHTML} {
		if !Supported(f) {
			t.Errorf("Supported(%s) = false, want true", f)
		}
	}
	for _, f := range []Format{FormatDoc, FormatXls, FormatPpt, FormatTXT, FormatJSON, FormatXML, FormatRTF, FormatUnknown} {
		if Supported(f) {
			t.Errorf("Supported(%s) = true, want false", f)
		}
	}
}

func TestContentTypeMapping(t *testing.T) {
	tests := []struct {
		format Format
		ct     string
	}{
		{FormatPDF, "application/pdf"},
		{FormatDocx, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{FormatXlsx, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{FormatPptx, "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		{FormatPNG, "image/png"},
		{FormatUnknown, "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentType(tt.format); got != tt.ct {
			t.Errorf("ContentType(%s) = %q, want %q", tt.format, got, tt.ct)
		}
	}
}
