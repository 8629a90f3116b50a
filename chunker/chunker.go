// Package chunker turns one raw document into page-grouped chunks ready for
// downstream indexing. A factory dispatches per file type to a transcript,
// JSON, spreadsheet, document-analysis, multimodal, or generic text handler;
// all handlers feed the same page-grouping assembler.
package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/docsift/docsift/analysis"
	"github.com/docsift/docsift/extract"
	"github.com/docsift/docsift/multimodal"
	"github.com/docsift/docsift/sniff"
)

// Chunk is the final emitted unit: one page-group of text plus its images.
type Chunk struct {
	ID               string   `json:"id"`
	PageNumber       int      `json:"page_number"`
	Text             string   `json:"text"`
	RelatedImages    []string `json:"related_images,omitempty"`
	ImageCaptions    string   `json:"image_captions,omitempty"`
	IsMultimodal     bool     `json:"is_multimodal"`
	ExtractionMethod string   `json:"extraction_method"`
	SourceFile       string   `json:"source_file"`
}

// Segment is one strictly-typed unit of extracted text anchored to a page.
// Anything produced upstream is converted to this shape at the handler
// boundary; the assembler never coerces types.
type Segment struct {
	Page int
	Text string
}

// EmptyDocumentError reports a document whose every extraction path yielded
// no usable content. The caller gets zero chunks plus this error, never a
// silent empty list.
type EmptyDocumentError struct {
	Filename string
	Warnings []string
}

func (e *EmptyDocumentError) Error() string {
	return fmt.Sprintf("document %s yielded no content (%d warnings)", e.Filename, len(e.Warnings))
}

// Options configures the factory.
type Options struct {
	// Multimodal enables image extraction/captioning for page-description
	// and raster formats.
	Multimodal bool
	// Sniff tunes format detection.
	Sniff sniff.Thresholds
	// Split tunes the generic text splitter.
	Split SplitOptions

	Logger *slog.Logger
}

// Factory selects the extraction path per document. Dependencies are
// explicit: a nil orchestrator means the remote service is unconfigured and
// page-description formats silently downgrade to the generic text handler.
type Factory struct {
	orc    *analysis.Orchestrator
	proc   *multimodal.Processor
	opts   Options
	logger *slog.Logger
}

// NewFactory wires a Factory. proc is required only when opts.Multimodal is
// set and orc is non-nil.
func NewFactory(orc *analysis.Orchestrator, proc *multimodal.Processor, opts Options) *Factory {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Factory{orc: orc, proc: proc, opts: opts, logger: opts.Logger}
}

// Chunks runs detection, dispatch, extraction, and assembly for one
// document. Warnings collect the non-fatal failures hit along the way.
func (f *Factory) Chunks(ctx context.Context, data []byte, filename string) ([]Chunk, []string, error) {
	det := sniff.Detect(data, filename, f.opts.Sniff)
	ext := strings.ToLower(filepath.Ext(filename))

	f.logger.Debug("dispatching document",
		"file", filename, "format", det.Format, "reason", det.Reason)

	switch {
	case ext == ".vtt":
		return f.transcriptChunks(data, filename)
	case ext == ".json" || det.Format == sniff.FormatJSON:
		return f.jsonChunks(data, filename)
	case ext == ".xlsx" || ext == ".xls" || det.Format == sniff.FormatXlsx:
		return f.spreadsheetChunks(data, filename)
	case analysisTarget(det, ext):
		switch {
		case f.orc != nil && f.opts.Multimodal && f.proc != nil:
			return f.multimodalChunks(ctx, data, filename, det)
		case f.orc != nil:
			return f.analysisChunks(ctx, data, filename, det)
		default:
			// Remote service unconfigured: degrade to local text rather
			// than failing the document.
			return f.textChunks(ctx, data, filename, det)
		}
	default:
		return f.textChunks(ctx, data, filename, det)
	}
}

// analysisTarget reports whether the document should go through the remote
// analysis path: page-description binaries, Office Open XML, and raster
// images, by detected format or by declared extension.
func analysisTarget(det sniff.Detection, ext string) bool {
	switch det.Format {
	case sniff.FormatPDF, sniff.FormatDocx, sniff.FormatPptx,
		sniff.FormatPNG, sniff.FormatJPEG, sniff.FormatTIFF, sniff.FormatBMP,
		sniff.FormatHTML:
		// HTML only counts when mislabeled as a binary upload; native .html
		// files take the generic text path.
		if det.Format == sniff.FormatHTML && (ext == ".html" || ext == ".htm" || ext == "") {
			return false
		}
		return true
	}
	switch ext {
	case ".pdf", ".docx", ".pptx", ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

// analysisChunks extracts text through the orchestrator with local fallback,
// no image handling.
func (f *Factory) analysisChunks(ctx context.Context, data []byte, filename string, det sniff.Detection) ([]Chunk, []string, error) {
	var warnings []string
	method := "document_analysis"

	result, errs := f.orc.Analyze(ctx, data, filename, det)
	if result == nil {
		for _, e := range errs {
			warnings = append(warnings, e.Error())
		}
		var err error
		result, err = extract.Extract(ctx, data, filename, det)
		if err != nil {
			warnings = append(warnings, err.Error())
			return nil, warnings, &EmptyDocumentError{Filename: filename, Warnings: warnings}
		}
		method = extract.Method
	}

	chunks := assemble(segmentsFromResult(result), nil, method, filename)
	if len(chunks) == 0 {
		return nil, warnings, &EmptyDocumentError{Filename: filename, Warnings: warnings}
	}
	return chunks, warnings, nil
}

// multimodalChunks runs the full text+images pipeline.
func (f *Factory) multimodalChunks(ctx context.Context, data []byte, filename string, det sniff.Detection) ([]Chunk, []string, error) {
	doc, err := f.proc.Process(ctx, data, filename, det)
	if err != nil {
		return nil, nil, &EmptyDocumentError{Filename: filename, Warnings: []string{err.Error()}}
	}

	chunks := assemble(segmentsFromResult(doc.Result), doc.Images, doc.Method, filename)
	if len(chunks) == 0 {
		return nil, doc.Warnings, &EmptyDocumentError{Filename: filename, Warnings: doc.Warnings}
	}
	return chunks, doc.Warnings, nil
}

// textChunks is the generic handler: local extraction followed by
// paragraph-aware splitting with estimated page numbers.
func (f *Factory) textChunks(ctx context.Context, data []byte, filename string, det sniff.Detection) ([]Chunk, []string, error) {
	text, err := f.plainText(ctx, data, filename, det)
	if err != nil {
		warnings := []string{err.Error()}
		return nil, warnings, &EmptyDocumentError{Filename: filename, Warnings: warnings}
	}

	var segments []Segment
	for i, piece := range Split(text, f.opts.Split) {
		segments = append(segments, Segment{Page: i + 1, Text: piece.Text})
	}

	chunks := assemble(segments, nil, extract.Method, filename)
	if len(chunks) == 0 {
		return nil, nil, &EmptyDocumentError{Filename: filename}
	}
	return chunks, nil, nil
}

// segmentsFromResult converts an analysis result's pages into strict
// segments. A page without a number anchors to page 1.
func segmentsFromResult(result *analysis.Result) []Segment {
	var segments []Segment
	for _, p := range result.Pages {
		page := p.Number
		if page <= 0 {
			page = 1
		}
		segments = append(segments, Segment{Page: page, Text: p.Content})
	}
	if len(segments) == 0 && result.Content != "" {
		segments = append(segments, Segment{Page: 1, Text: result.Content})
	}
	return segments
}

func newChunkID() string {
	return uuid.Must(uuid.NewV7()).String()
}
