package analysis

import (
	"path/filepath"
	"strings"

	"github.com/docsift/docsift/sniff"
)

// Strategy is one request variant: a content type and a body encoding.
// Strategies are tried in order; the first accepted submission wins.
type Strategy struct {
	Name        string
	ContentType string
	Multipart   bool
}

// BuildStrategies returns the ordered request variants for one document.
// The service accepts the same bytes through one upload path and rejects
// them through another, so the list walks from the most specific guess to
// octet-stream auto-detection:
//
//  1. detected content type, raw binary body
//  2. detected-format override when it contradicts the declared extension
//  3. the declared extension's canonical MIME type when it differs
//  4. the same three as multipart/form-data
//  5. application/octet-stream raw, last resort
//
// Duplicates (same content type and encoding) are pruned.
func BuildStrategies(det sniff.Detection, filename string) []Strategy {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")

	var candidates []Strategy

	add := func(name, ct string, multipart bool) {
		if ct == "" {
			return
		}
		for _, s := range candidates {
			if s.ContentType == ct && s.Multipart == multipart {
				return
			}
		}
		candidates = append(candidates, Strategy{Name: name, ContentType: ct, Multipart: multipart})
	}

	detectedCT := det.ContentType

	// Canonical MIME of the declared extension, when it is a known format.
	declaredCT := ""
	if ext != "" {
		if f := sniff.Format(ext); sniff.ContentType(f) != "application/octet-stream" {
			declaredCT = sniff.ContentType(f)
		} else if ext == "jpg" {
			declaredCT = sniff.ContentType(sniff.FormatJPEG)
		} else if ext == "tif" {
			declaredCT = sniff.ContentType(sniff.FormatTIFF)
		} else if ext == "htm" {
			declaredCT = sniff.ContentType(sniff.FormatHTML)
		}
	}

	for _, multipart := range []bool{false, true} {
		enc := "binary"
		if multipart {
			enc = "multipart"
		}
		add("detected/"+enc, detectedCT, multipart)
		if string(det.Format) != ext && sniff.Supported(det.Format) {
			add("detected-override/"+enc, sniff.ContentType(det.Format), multipart)
		}
		if declaredCT != "" && declaredCT != detectedCT {
			add("declared-canonical/"+enc, declaredCT, multipart)
		}
	}

	add("octet-stream", "application/octet-stream", false)

	return candidates
}
