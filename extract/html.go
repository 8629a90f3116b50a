package extract

import (
	htmlesc "html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var stripPolicy = bluemonday.StrictPolicy()

// extractHTML walks the DOM, skipping script/style/head noise, and joins the
// visible text. When the parser chokes, the strict sanitizer strips tags
// instead.
func extractHTML(data []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return stripMarkup(string(data)), nil
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Head:
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return normalizeWhitespace(sb.String()), nil
}

// stripMarkup removes every tag via the strict sanitizer, unescapes
// entities, and collapses whitespace. Used for XML and as the HTML
// last-resort path; no schema awareness.
func stripMarkup(s string) string {
	stripped := stripPolicy.Sanitize(s)
	return normalizeWhitespace(htmlesc.UnescapeString(stripped))
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
