package chunker

import (
	"sort"
	"strings"

	"github.com/docsift/docsift/multimodal"
)

// assemble groups segments and images by page and builds one Chunk per
// page-group: newline-joined text, the page's image URLs, space-joined
// non-empty captions, and IsMultimodal true iff at least one image landed on
// the page.
func assemble(segments []Segment, images []multimodal.Image, method, filename string) []Chunk {
	textByPage := map[int][]string{}
	for _, s := range segments {
		page := s.Page
		if page <= 0 {
			page = 1
		}
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		textByPage[page] = append(textByPage[page], s.Text)
	}

	imagesByPage := map[int][]multimodal.Image{}
	for _, img := range images {
		page := img.Page
		if page <= 0 {
			page = 1
		}
		imagesByPage[page] = append(imagesByPage[page], img)
	}

	pageSet := map[int]bool{}
	for p := range textByPage {
		pageSet[p] = true
	}
	for p := range imagesByPage {
		pageSet[p] = true
	}
	pages := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var chunks []Chunk
	for _, page := range pages {
		var urls []string
		var captions []string
		for _, img := range imagesByPage[page] {
			if img.URL != "" {
				urls = append(urls, img.URL)
			}
			if strings.TrimSpace(img.Caption) != "" {
				captions = append(captions, img.Caption)
			}
		}

		text := strings.Join(textByPage[page], "\n")
		if strings.TrimSpace(text) == "" && len(urls) == 0 {
			// A page with neither text nor a persisted image contributes
			// nothing downstream.
			continue
		}

		chunks = append(chunks, Chunk{
			ID:               newChunkID(),
			PageNumber:       page,
			Text:             text,
			RelatedImages:    urls,
			ImageCaptions:    strings.Join(captions, " "),
			IsMultimodal:     len(urls) > 0,
			ExtractionMethod: method,
			SourceFile:       filename,
		})
	}
	return chunks
}
