// Package multimodal coordinates text extraction with embedded-image
// recovery: remote analysis (with local fallback) for text, pdfcpu for raw
// image bytes, object storage for persistence, and a vision model for
// captions. Per-image failures are logged and never abort the batch.
package multimodal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docsift/docsift/analysis"
	"github.com/docsift/docsift/blobstore"
	"github.com/docsift/docsift/extract"
	"github.com/docsift/docsift/sniff"
	"github.com/docsift/docsift/vision"
)

// Image is one recovered image asset. URL is populated only after a
// successful upload; Caption stays empty until a vision call succeeds.
type Image struct {
	ID      string `json:"id"`
	Page    int    `json:"page"`
	URL     string `json:"url,omitempty"`
	Caption string `json:"caption,omitempty"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Doc is the multimodal extraction result: normalized text plus images.
type Doc struct {
	Result *analysis.Result
	Images []Image
	// Method records how the text was obtained: "document_analysis" or
	// the local fallback label.
	Method string
	// Warnings accumulates the non-fatal failures hit along the way
	// (rejected strategies, captioning errors, upload errors).
	Warnings []string
}

// Processor holds the explicit dependencies of one multimodal pipeline.
// Vision and blobs may be nil: captions stay empty, images are dropped.
type Processor struct {
	orc    *analysis.Orchestrator
	vis    *vision.Client
	blobs  blobstore.Store
	logger *slog.Logger
}

// New wires a Processor. orc may be nil when remote analysis is
// unconfigured; text then comes from local extraction only.
func New(orc *analysis.Orchestrator, vis *vision.Client, blobs blobstore.Store, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{orc: orc, vis: vis, blobs: blobs, logger: logger}
}

// Process extracts text and images from one document.
func (p *Processor) Process(ctx context.Context, data []byte, filename string, det sniff.Detection) (*Doc, error) {
	doc := &Doc{}

	result, method, warnings, err := p.extractText(ctx, data, filename, det)
	if err != nil {
		if !sniff.Image(det.Format) {
			return nil, err
		}
		// A raster document has no text to extract; the image itself is
		// still worth recovering.
		result = &analysis.Result{}
		method = extract.Method
		warnings = append(warnings, err.Error())
	}
	doc.Result = result
	doc.Warnings = warnings
	doc.Method = method

	switch {
	case sniff.PageDescription(det.Format):
		doc.Images = p.processImages(ctx, extractPDFImages(data, p.logger), filename, doc)
	case sniff.Image(det.Format):
		// The document itself is the image.
		doc.Images = p.processImages(ctx, []rawImage{{page: 1, data: data}}, filename, doc)
	}

	return doc, nil
}

// extractText runs the orchestrator and falls back to local extraction when
// every strategy is exhausted or no remote service is configured.
func (p *Processor) extractText(ctx context.Context, data []byte, filename string, det sniff.Detection) (*analysis.Result, string, []string, error) {
	var warnings []string

	if p.orc != nil {
		result, errs := p.orc.Analyze(ctx, data, filename, det)
		if result != nil {
			return result, "document_analysis", nil, nil
		}
		for _, e := range errs {
			warnings = append(warnings, e.Error())
		}
		p.logger.Warn("remote analysis exhausted, trying local extraction",
			"file", filename, "errors", len(errs))
	}

	result, err := extract.Extract(ctx, data, filename, det)
	if err != nil {
		return nil, "", warnings, fmt.Errorf("local extraction after %d remote errors: %w", len(warnings), err)
	}
	return result, extract.Method, warnings, nil
}

// processImages normalizes, uploads, and captions each raw image. Individual
// failures downgrade the image (no URL / empty caption) instead of dropping
// the batch.
func (p *Processor) processImages(ctx context.Context, raws []rawImage, filename string, doc *Doc) []Image {
	var images []Image
	for _, raw := range raws {
		pngData, width, height, err := normalizePNG(raw.data)
		if err != nil {
			p.logger.Warn("skipping undecodable image", "file", filename, "page", raw.page, "error", err)
			continue
		}

		img := Image{
			ID:     uuid.Must(uuid.NewV7()).String(),
			Page:   raw.page,
			Width:  width,
			Height: height,
		}

		if p.blobs != nil {
			url, err := p.blobs.Upload(ctx, "img-"+img.ID+".png", pngData, "image/png")
			if err != nil {
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("upload image %s: %v", img.ID, err))
				p.logger.Warn("image upload failed, keeping image without URL",
					"file", filename, "image", img.ID, "error", err)
			} else {
				img.URL = url
			}
		}

		if p.vis != nil {
			caption, err := p.vis.Caption(ctx, pngData, "image/png")
			if err != nil {
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("caption image %s: %v", img.ID, err))
				p.logger.Warn("captioning failed, keeping empty caption",
					"file", filename, "image", img.ID, "error", err)
			} else {
				img.Caption = caption
			}
		}

		images = append(images, img)
	}
	return images
}
