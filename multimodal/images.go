package multimodal

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// rawImage is one undecoded image extracted from a document.
type rawImage struct {
	page int
	data []byte
}

// extractPDFImages pulls raw embedded-image bytes per page. Extraction
// failures yield an empty list: a PDF without recoverable images is still a
// valid text document.
func extractPDFImages(data []byte, logger *slog.Logger) []rawImage {
	conf := model.NewDefaultConfiguration()
	pageImages, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, conf)
	if err != nil {
		logger.Debug("pdf image extraction failed", "error", err)
		return nil
	}

	var raws []rawImage
	for _, byObj := range pageImages {
		for _, img := range byObj {
			imgData, err := io.ReadAll(img)
			if err != nil || len(imgData) == 0 {
				continue
			}
			page := img.PageNr
			if page <= 0 {
				page = 1
			}
			raws = append(raws, rawImage{page: page, data: imgData})
		}
	}
	return raws
}

// normalizePNG decodes any supported raster format and re-encodes it as PNG,
// returning the encoded bytes and pixel dimensions.
func normalizePNG(data []byte) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	bounds := img.Bounds()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
