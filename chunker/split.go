package chunker

import "strings"

// SplitOptions configures the generic text splitter.
type SplitOptions struct {
	// MaxTokens is the maximum number of word tokens per piece. Default: 512.
	MaxTokens int `yaml:"max_tokens"`
	// OverlapTokens carried from the end of one piece into the next. Default: 64.
	OverlapTokens int `yaml:"overlap_tokens"`
	// MinTokens below which a trailing piece is merged into its
	// predecessor. Default: 32.
	MinTokens int `yaml:"min_tokens"`
}

func (o *SplitOptions) defaults() {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 512
	}
	if o.OverlapTokens <= 0 {
		o.OverlapTokens = 64
	}
	if o.MinTokens <= 0 {
		o.MinTokens = 32
	}
}

// Piece is one splitter output fragment.
type Piece struct {
	Index      int
	Text       string
	TokenCount int
}

// Split divides text into pieces, preferring paragraph boundaries and
// falling back to a sliding word window for oversized paragraphs.
func Split(text string, opts SplitOptions) []Piece {
	opts.defaults()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	words := strings.Fields(text)
	if len(words) <= opts.MaxTokens {
		return []Piece{{Index: 0, Text: text, TokenCount: len(words)}}
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) <= 1 {
		return slidingWindow(words, opts)
	}

	var pieces []Piece
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		t := strings.TrimSpace(current.String())
		current.Reset()
		currentTokens = 0
		if t == "" {
			return
		}
		tc := len(strings.Fields(t))
		if tc < opts.MinTokens && len(pieces) > 0 {
			prev := &pieces[len(pieces)-1]
			prev.Text += "\n\n" + t
			prev.TokenCount += tc
			return
		}
		pieces = append(pieces, Piece{Index: len(pieces), Text: t, TokenCount: tc})
	}

	for _, para := range paragraphs {
		paraTokens := len(strings.Fields(para))

		if paraTokens > opts.MaxTokens {
			flush()
			for _, p := range slidingWindow(strings.Fields(para), opts) {
				p.Index = len(pieces)
				pieces = append(pieces, p)
			}
			continue
		}

		if currentTokens+paraTokens > opts.MaxTokens {
			tail := lastTokens(current.String(), opts.OverlapTokens)
			flush()
			if tail != "" {
				current.WriteString(tail)
				currentTokens = len(strings.Fields(tail))
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}
	flush()

	return pieces
}

func splitParagraphs(text string) []string {
	var parts []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func slidingWindow(words []string, opts SplitOptions) []Piece {
	var pieces []Piece
	stride := opts.MaxTokens - opts.OverlapTokens
	if stride <= 0 {
		stride = opts.MaxTokens/2 + 1
	}

	for start := 0; start < len(words); start += stride {
		end := start + opts.MaxTokens
		if end > len(words) {
			end = len(words)
		}
		tc := end - start
		text := strings.Join(words[start:end], " ")

		if tc < opts.MinTokens && len(pieces) > 0 {
			prev := &pieces[len(pieces)-1]
			prev.Text += " " + text
			prev.TokenCount += tc
			break
		}

		pieces = append(pieces, Piece{Index: len(pieces), Text: text, TokenCount: tc})
		if end >= len(words) {
			break
		}
	}
	return pieces
}

// lastTokens returns the trailing n word tokens of text.
func lastTokens(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[len(words)-n:], " ")
}
