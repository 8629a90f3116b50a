// Package sniff classifies a byte blob's true document format independent of
// its claimed filename extension.
//
// Detection order: binary magic-byte signatures first, then ZIP-based Office
// disambiguation, then markup/JSON heuristics, then a printable-ratio text
// check. On total ambiguity the detector returns FormatUnknown with a reason
// string; it never returns an error.
//
// Usage:
//
//	det := sniff.Detect(data, "report.pdf", sniff.Thresholds{})
//	fmt.Println(det.Format, det.ContentType, det.Reason)
package sniff

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Format identifies a document type.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDocx    Format = "docx"
	FormatXlsx    Format = "xlsx"
	FormatPptx    Format = "pptx"
	FormatDoc     Format = "doc"
	FormatXls     Format = "xls"
	FormatPpt     Format = "ppt"
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatTIFF    Format = "tiff"
	FormatBMP     Format = "bmp"
	FormatRTF     Format = "rtf"
	FormatHTML    Format = "html"
	FormatXML     Format = "xml"
	FormatJSON    Format = "json"
	FormatTXT     Format = "txt"
	FormatUnknown Format = "unknown"
)

// Detection is the result of sniffing one blob.
type Detection struct {
	Format      Format `json:"format"`
	ContentType string `json:"content_type"`
	// Reason explains which signature or heuristic decided the format.
	Reason string `json:"reason"`
}

// Thresholds tunes the text/markup heuristics. The zero value gets defaults.
// Keeping these in one place (instead of per-call-site constants) makes them
// tunable against a real corpus.
type Thresholds struct {
	// HTMLScore is the tag-token count needed to classify as HTML when the
	// declared extension is not a binary type. Default: 2.
	HTMLScore int `yaml:"html_score"`
	// HTMLScoreStrict applies when the declared extension claims a binary
	// format; incidental <...> substrings in a binary-looking file must not
	// flip it to HTML. Default: 4.
	HTMLScoreStrict int `yaml:"html_score_strict"`
	// PrintableRatio is the minimum printable-or-whitespace character ratio
	// for the plain-text classification. Default: 0.85.
	PrintableRatio float64 `yaml:"printable_ratio"`
	// SmallFileBytes is the size under which a file containing <...> pairs
	// is preferred as HTML over plain text. Default: 5000.
	SmallFileBytes int `yaml:"small_file_bytes"`
	// SampleBytes is how much of the blob the markup heuristics inspect.
	// Default: 2048.
	SampleBytes int `yaml:"sample_bytes"`
}

func (t *Thresholds) defaults() {
	if t.HTMLScore <= 0 {
		t.HTMLScore = 2
	}
	if t.HTMLScoreStrict <= 0 {
		t.HTMLScoreStrict = 4
	}
	if t.PrintableRatio <= 0 {
		t.PrintableRatio = 0.85
	}
	if t.SmallFileBytes <= 0 {
		t.SmallFileBytes = 5000
	}
	if t.SampleBytes <= 0 {
		t.SampleBytes = 2048
	}
}

// signature is one magic-byte rule checked against the head of the blob.
type signature struct {
	prefix []byte
	format Format
}

// Checked in order against the first 32 bytes. JPEG and OLE2 are handled
// separately because they need more than a plain prefix match.
var signatures = []signature{
	{[]byte("%PDF-"), FormatPDF},
	{[]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, FormatPNG},
	{[]byte{'I', 'I', '*', 0x00}, FormatTIFF},
	{[]byte{'M', 'M', 0x00, '*'}, FormatTIFF},
	{[]byte("BM"), FormatBMP},
	{[]byte(`{\rtf`), FormatRTF},
}

var (
	zipHeader  = []byte{'P', 'K', 0x03, 0x04}
	ole2Header = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}
)

// jpegMarkers are valid fourth bytes after the ff d8 ff SOI sequence.
var jpegMarkers = []byte{0xe0, 0xe1, 0xe2, 0xe3, 0xe8, 0xdb}

// htmlTokens are scored against the lowercased head of the blob.
var htmlTokens = []string{
	"<!doctype html", "<html", "<head", "<body", "<meta", "<title",
	"<div", "<p>", "<p ", "<br", "<span", "<script", "<style", "<link",
	"href=", "<table", "<ul", "<li", "<h1", "<img",
}

// binaryExtensions maps declared extensions that imply a binary format.
var binaryExtensions = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDocx,
	".xlsx": FormatXlsx,
	".pptx": FormatPptx,
	".doc":  FormatDoc,
	".xls":  FormatXls,
	".ppt":  FormatPpt,
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
}

// Detect classifies data independent of the filename. The filename is only
// consulted to disambiguate container formats (ZIP, OLE2) and as a
// low-confidence rescue when no heuristic matches a declared binary type.
func Detect(data []byte, filename string, th Thresholds) Detection {
	th.defaults()

	if len(data) < 4 {
		return Detection{
			Format:      FormatUnknown,
			ContentType: ContentType(FormatUnknown),
			Reason:      fmt.Sprintf("too small: %d bytes", len(data)),
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))

	// 1. Binary magic-byte signatures.
	head := data
	if len(head) > 32 {
		head = head[:32]
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(head, sig.prefix) {
			return Detection{
				Format:      sig.format,
				ContentType: ContentType(sig.format),
				Reason:      fmt.Sprintf("magic bytes %q", sig.prefix),
			}
		}
	}
	if len(head) >= 4 && head[0] == 0xff && head[1] == 0xd8 && head[2] == 0xff {
		for _, m := range jpegMarkers {
			if head[3] == m {
				return Detection{
					Format:      FormatJPEG,
					ContentType: ContentType(FormatJPEG),
					Reason:      fmt.Sprintf("magic bytes JPEG SOI, marker 0x%02x", head[3]),
				}
			}
		}
	}
	if bytes.HasPrefix(head, ole2Header) {
		f := legacyOfficeFormat(ext)
		return Detection{
			Format:      f,
			ContentType: ContentType(f),
			Reason:      "magic bytes OLE2 compound document",
		}
	}

	// 2. ZIP container: disambiguate Office Open XML sub-type.
	if bytes.HasPrefix(head, zipHeader) {
		f, why := officeFormat(data, ext, th.SampleBytes)
		return Detection{
			Format:      f,
			ContentType: ContentType(f),
			Reason:      "magic bytes ZIP, " + why,
		}
	}

	sample := data
	if len(sample) > th.SampleBytes {
		sample = sample[:th.SampleBytes]
	}
	lower := strings.ToLower(string(sample))

	// 3. HTML evidence scoring. A file claiming a binary extension needs
	// stronger evidence than one that already failed every signature check.
	need := th.HTMLScore
	if _, claimed := binaryExtensions[ext]; claimed {
		need = th.HTMLScoreStrict
	}
	if score := htmlScore(lower); score >= need {
		return Detection{
			Format:      FormatHTML,
			ContentType: ContentType(FormatHTML),
			Reason:      fmt.Sprintf("html token score %d (threshold %d)", score, need),
		}
	}

	// 4. XML and JSON.
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(lower, "<?xml") ||
		(strings.Contains(lower, "xmlns") && strings.HasPrefix(trimmed, "<")) {
		return Detection{
			Format:      FormatXML,
			ContentType: ContentType(FormatXML),
			Reason:      "xml declaration or xmlns attribute",
		}
	}
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		return Detection{
			Format:      FormatJSON,
			ContentType: ContentType(FormatJSON),
			Reason:      "json bracket boundaries",
		}
	}

	// 5. Printable-ratio plain text.
	if ratio := printableRatio(string(data)); ratio >= th.PrintableRatio {
		// Small files with tag-like pairs go out as HTML: analysis services
		// commonly refuse bare text/plain uploads.
		if len(data) < th.SmallFileBytes && strings.Contains(trimmed, "<") && strings.Contains(trimmed, ">") {
			return Detection{
				Format:      FormatHTML,
				ContentType: ContentType(FormatHTML),
				Reason:      fmt.Sprintf("printable text %.2f with tag pairs, small file", ratio),
			}
		}
		return Detection{
			Format:      FormatTXT,
			ContentType: ContentType(FormatTXT),
			Reason:      fmt.Sprintf("printable ratio %.2f", ratio),
		}
	}

	// 6. Declared binary extension as a low-confidence rescue: rejecting a
	// valid-but-atypical binary is worse than attempting remote analysis.
	if f, claimed := binaryExtensions[ext]; claimed {
		return Detection{
			Format:      f,
			ContentType: ContentType(f),
			Reason:      fmt.Sprintf("no signature matched, trusting declared extension %s (low confidence)", ext),
		}
	}

	return Detection{
		Format:      FormatUnknown,
		ContentType: ContentType(FormatUnknown),
		Reason:      "no signature or heuristic matched",
	}
}

// officeFormat scans the head of a ZIP blob for Office Open XML path
// fragments, falls back to the declared extension, and defaults to docx.
func officeFormat(data []byte, ext string, sampleBytes int) (Format, string) {
	sample := data
	if len(sample) > sampleBytes {
		sample = sample[:sampleBytes]
	}
	switch {
	case bytes.Contains(sample, []byte("word/")) || bytes.Contains(sample, []byte("wordprocessingml")):
		return FormatDocx, "word/ entry"
	case bytes.Contains(sample, []byte("xl/")) || bytes.Contains(sample, []byte("spreadsheetml")):
		return FormatXlsx, "xl/ entry"
	case bytes.Contains(sample, []byte("ppt/")) || bytes.Contains(sample, []byte("presentationml")):
		return FormatPptx, "ppt/ entry"
	}
	switch ext {
	case ".docx":
		return FormatDocx, "extension .docx"
	case ".xlsx":
		return FormatXlsx, "extension .xlsx"
	case ".pptx":
		return FormatPptx, "extension .pptx"
	}
	return FormatDocx, "undecidable, defaulting to docx"
}

// legacyOfficeFormat picks the OLE2 sub-type from the declared extension.
// The header alone cannot tell doc, xls, and ppt apart.
func legacyOfficeFormat(ext string) Format {
	switch ext {
	case ".xls":
		return FormatXls
	case ".ppt":
		return FormatPpt
	default:
		return FormatDoc
	}
}

func htmlScore(lower string) int {
	score := 0
	for _, tok := range htmlTokens {
		score += strings.Count(lower, tok)
	}
	return score
}

// printableRatio returns the ratio of printable-or-whitespace runes after a
// best-effort UTF-8 decode with invalid-byte replacement.
func printableRatio(s string) float64 {
	if s == "" {
		return 1.0
	}
	total := 0
	printable := 0
	for _, r := range s {
		total++
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}
