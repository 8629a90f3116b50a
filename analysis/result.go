// Package analysis wraps a remote document-analysis service: submit a
// document, poll the asynchronous operation to a terminal state, and
// normalize the answer into {content, pages, figures}. The orchestrator
// drives the client through an ordered table of request strategies because
// the service accepts the same bytes through one upload path and rejects
// them through another.
package analysis

import (
	"encoding/json"
	"fmt"
)

// Result is the normalized output of one successful analysis, remote or
// locally synthesized.
type Result struct {
	Content string   `json:"content"`
	Pages   []Page   `json:"pages"`
	Figures []Figure `json:"figures"`
}

// Page is one page of extracted content.
type Page struct {
	Number  int    `json:"page_number"`
	Content string `json:"content"`
}

// Figure is a detected figure region with its page anchor.
type Figure struct {
	Page    int    `json:"page"`
	Caption string `json:"caption"`
}

// flexString decodes a wire value that is either a plain JSON string or an
// object carrying a "content" key. The service has produced both shapes for
// the same field; everything past this boundary sees only strings.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*f = flexString(obj.Content)
		return nil
	}
	return fmt.Errorf("segment is neither string nor {content} object: %s", truncate(string(data), 120))
}

// operationStatus is the poll endpoint's wire shape.
type operationStatus struct {
	Status        string      `json:"status"`
	Error         *wireError  `json:"error"`
	AnalyzeResult *wireResult `json:"analyzeResult"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wireResult struct {
	Content flexString `json:"content"`
	Pages   []struct {
		PageNumber int        `json:"pageNumber"`
		Content    flexString `json:"content"`
		Lines      []struct {
			Content flexString `json:"content"`
		} `json:"lines"`
	} `json:"pages"`
	Figures []struct {
		Caption         flexString `json:"caption"`
		BoundingRegions []struct {
			PageNumber int `json:"pageNumber"`
		} `json:"boundingRegions"`
	} `json:"figures"`
}

// normalize converts the wire result to the stable Result shape. A non-empty
// content always yields at least one page.
func (w *wireResult) normalize() *Result {
	r := &Result{Content: string(w.Content)}

	for _, p := range w.Pages {
		content := string(p.Content)
		if content == "" && len(p.Lines) > 0 {
			for i, l := range p.Lines {
				if i > 0 {
					content += "\n"
				}
				content += string(l.Content)
			}
		}
		n := p.PageNumber
		if n <= 0 {
			n = len(r.Pages) + 1
		}
		r.Pages = append(r.Pages, Page{Number: n, Content: content})
	}

	for _, f := range w.Figures {
		page := 1
		if len(f.BoundingRegions) > 0 && f.BoundingRegions[0].PageNumber > 0 {
			page = f.BoundingRegions[0].PageNumber
		}
		r.Figures = append(r.Figures, Figure{Page: page, Caption: string(f.Caption)})
	}

	if len(r.Pages) == 0 && r.Content != "" {
		r.Pages = []Page{{Number: 1, Content: r.Content}}
	}
	return r
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
