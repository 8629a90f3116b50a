package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// corruptedPDFLabel marks content recovered by raw-decoding bytes that could
// not be opened as a PDF, so downstream consumers know provenance.
const corruptedPDFLabel = "[decoded from corrupted PDF]"

// extractPDF pulls embedded text per page. If the file cannot be opened as a
// PDF at all, or has no text layer, it degrades to a labeled raw decode
// rather than dropping the document.
func extractPDF(ctx context.Context, data []byte) (string, error) {
	pctx, err := openPDF(data)
	if err != nil {
		return corruptedPDFText(data), nil
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text := pageText(pctx, pageNr)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Page %d:\n%s", pageNr, text)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return corruptedPDFText(data), nil
	}
	return sb.String(), nil
}

// openPDF tries the in-memory path first, then a temp-file copy. Some
// damaged cross-reference tables only open through the file-backed reader.
func openPDF(data []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err == nil {
		return pctx, nil
	}

	tmp, terr := os.CreateTemp("", "docsift-*.pdf")
	if terr != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, werr := tmp.Write(data); werr != nil {
		tmp.Close()
		return nil, err
	}
	if _, serr := tmp.Seek(0, io.SeekStart); serr != nil {
		tmp.Close()
		return nil, err
	}
	defer tmp.Close()

	return api.ReadValidateAndOptimize(tmp, conf)
}

func pageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return streamText(data)
}

// pdfStringRe matches PDF string literals in parentheses.
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// streamText parses PDF content-stream operators for text runs.
func streamText(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return collapsePrintable(sb.String())
}

// decodePDFString handles the basic PDF literal-string escapes.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// collapsePrintable keeps printable runes and collapses whitespace runs.
func collapsePrintable(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// corruptedPDFText raw-decodes bytes that failed PDF parsing and prefixes
// the provenance label. Only printable content survives the decode.
func corruptedPDFText(data []byte) string {
	text := collapsePrintable(decodeText(data))
	if text == "" {
		return ""
	}
	return corruptedPDFLabel + "\n" + text
}
