package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// maxXMLDepth bounds element nesting. Billion-laughs style documents get
// rejected instead of exhausting the stack.
const maxXMLDepth = 256

// extractZipXML reads XML parts from a ZIP-based Office document and strips
// them to text. entry is either an exact part name (word/document.xml) or a
// directory prefix (ppt/slides/) matched against every .xml part under it.
func extractZipXML(data []byte, entry string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var parts []string
	for _, f := range zr.File {
		if f.Name == entry ||
			(strings.HasSuffix(entry, "/") && strings.HasPrefix(f.Name, entry) && strings.HasSuffix(f.Name, ".xml")) {
			parts = append(parts, f.Name)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no %s part in archive", entry)
	}
	sort.Strings(parts)

	var sb strings.Builder
	for _, name := range parts {
		text, err := readZipPartText(zr, name)
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func readZipPartText(zr *zip.Reader, name string) (string, error) {
	f, err := zr.Open(name)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return xmlText(data)
}

// xmlText collects character data from an XML document, inserting a space at
// every element boundary so adjacent runs do not fuse.
func xmlText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sb strings.Builder
	depth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("xml decode: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return "", fmt.Errorf("xml nesting depth exceeds %d", maxXMLDepth)
			}
		case xml.EndElement:
			depth--
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case xml.CharData:
			sb.Write(t)
		}
	}
	return normalizeWhitespace(sb.String()), nil
}
