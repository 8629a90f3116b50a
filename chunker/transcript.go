package chunker

import (
	"strings"
)

// transcriptChunks handles WebVTT transcripts: cue numbers, timestamps, and
// the header are stripped; the spoken text is joined in order.
func (f *Factory) transcriptChunks(data []byte, filename string) ([]Chunk, []string, error) {
	text := vttText(string(data))
	if strings.TrimSpace(text) == "" {
		return nil, nil, &EmptyDocumentError{Filename: filename}
	}

	var segments []Segment
	for i, piece := range Split(text, f.opts.Split) {
		segments = append(segments, Segment{Page: i + 1, Text: piece.Text})
	}

	chunks := assemble(segments, nil, "transcript", filename)
	if len(chunks) == 0 {
		return nil, nil, &EmptyDocumentError{Filename: filename}
	}
	return chunks, nil, nil
}

// vttText strips WebVTT structure down to the spoken lines.
func vttText(raw string) string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "WEBVTT"):
			continue
		case strings.HasPrefix(line, "NOTE"):
			continue
		case strings.Contains(line, "-->"):
			continue
		case isCueNumber(line):
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func isCueNumber(line string) bool {
	if line == "" {
		return false
	}
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
