package chunker

import (
	"bytes"
	"encoding/json"
	"strings"
)

// jsonChunks re-serializes JSON with stable indentation and emits it as one
// single-page chunk. This is a text projection for indexing, not a semantic
// parse.
func (f *Factory) jsonChunks(data []byte, filename string) ([]Chunk, []string, error) {
	var buf bytes.Buffer
	text := ""
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err == nil {
		text = buf.String()
	} else {
		text = strings.TrimSpace(string(data))
	}

	if len(strings.TrimSpace(text)) < 10 {
		return nil, nil, &EmptyDocumentError{Filename: filename}
	}

	chunks := assemble([]Segment{{Page: 1, Text: text}}, nil, "json", filename)
	return chunks, nil, nil
}
