// Package extract is the local fallback: given raw bytes and a detected
// format, it produces plain text without any remote call. Invoked when
// remote analysis fails, is unavailable, or is intentionally skipped.
//
// Extraction is a pure function of the input bytes. A successful extraction
// always synthesizes a single-page result with no figures; local extraction
// never recovers images.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/docsift/docsift/analysis"
	"github.com/docsift/docsift/sniff"
)

// ErrTooSmall signals that post-extraction content fell below the minimum
// useful length. Callers treat it as extraction failure, not as an
// empty-but-valid document.
var ErrTooSmall = errors.New("extracted content below minimum length")

// minContentBytes is the smallest post-extraction content considered a real
// document. Anything shorter would create zero-value chunks downstream.
const minContentBytes = 10

// Method labels results so downstream consumers know provenance.
const Method = "fallback_text"

// Extract produces a single-page result from raw bytes, dispatching on the
// detected format.
func Extract(ctx context.Context, data []byte, filename string, det sniff.Detection) (*analysis.Result, error) {
	var (
		text string
		err  error
	)

	switch det.Format {
	case sniff.FormatHTML:
		text, err = extractHTML(data)
	case sniff.FormatXML:
		text = stripMarkup(string(data))
	case sniff.FormatJSON:
		text = indentJSON(data)
	case sniff.FormatPDF:
		text, err = extractPDF(ctx, data)
	case sniff.FormatDocx:
		text, err = extractZipXML(data, "word/document.xml")
	case sniff.FormatPptx:
		text, err = extractZipXML(data, "ppt/slides/")
	case sniff.FormatPNG, sniff.FormatJPEG, sniff.FormatTIFF, sniff.FormatBMP:
		// No local OCR: a raster image has no text to fall back to.
		err = errors.New("no local text extraction for raster images")
	default:
		text = decodeText(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s (%s): %w", filename, det.Format, err)
	}

	text = strings.TrimSpace(text)
	if len(text) < minContentBytes {
		return nil, ErrTooSmall
	}

	return &analysis.Result{
		Content: text,
		Pages:   []analysis.Page{{Number: 1, Content: text}},
	}, nil
}

// decodeText is a best-effort UTF-8 decode with invalid-byte replacement.
func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// indentJSON re-serializes JSON with stable indentation. This is a pure text
// projection; invalid JSON degrades to a plain decode.
func indentJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return decodeText(data)
	}
	return buf.String()
}
