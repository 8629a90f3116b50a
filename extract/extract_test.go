package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docsift/docsift/sniff"
)

func det(f sniff.Format) sniff.Detection {
	return sniff.Detection{Format: f, ContentType: sniff.ContentType(f)}
}

func TestExtractHTMLStripsTags(t *testing.T) {
	page := []byte(`<!DOCTYPE html><html><head><title>T</title>
<script>var hidden = "should not appear";</script>
<style>.x { color: red }</style></head>
<body><h1>Heading</h1><p>Body paragraph with content.</p></body></html>`)

	result, err := Extract(context.Background(), page, "page.html", det(sniff.FormatHTML))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(result.Content, "should not appear") {
		t.Error("script content leaked into extracted text")
	}
	if strings.Contains(result.Content, "color: red") {
		t.Error("style content leaked into extracted text")
	}
	if !strings.Contains(result.Content, "Body paragraph") {
		t.Errorf("visible text missing: %q", result.Content)
	}
	if len(result.Pages) != 1 || result.Pages[0].Number != 1 {
		t.Fatalf("expected one synthetic page, got %+v", result.Pages)
	}
	if len(result.Figures) != 0 {
		t.Fatal("local extraction must not produce figures")
	}
}

func TestExtractIdempotent(t *testing.T) {
	// WHAT: Identical bytes yield byte-identical extracted text.
	data := []byte(`<html><body><p>alpha</p><p>beta</p></body></html>`)
	a, err := Extract(context.Background(), data, "f.html", det(sniff.FormatHTML))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Extract(context.Background(), data, "f.html", det(sniff.FormatHTML))
	if err != nil {
		t.Fatal(err)
	}
	if a.Content != b.Content {
		t.Fatalf("extraction not idempotent: %q vs %q", a.Content, b.Content)
	}
}

func TestExtractJSONReindents(t *testing.T) {
	result, err := Extract(context.Background(), []byte(`{"a":1,"b":[2,3]}`), "d.pdf", det(sniff.FormatJSON))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Content, "  \"a\": 1") {
		t.Fatalf("expected re-indented JSON, got %q", result.Content)
	}
}

func TestExtractJSONInvalidDegradesToText(t *testing.T) {
	result, err := Extract(context.Background(), []byte(`{"broken": without quotes}`), "d.json", det(sniff.FormatJSON))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Content, "broken") {
		t.Fatalf("plain decode should survive, got %q", result.Content)
	}
}

func TestExtractXMLStripsTags(t *testing.T) {
	result, err := Extract(context.Background(),
		[]byte(`<?xml version="1.0"?><root><item>first value</item><item>second value</item></root>`),
		"d.xml", det(sniff.FormatXML))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(result.Content, "<item>") {
		t.Error("tags survived stripping")
	}
	if !strings.Contains(result.Content, "first value") || !strings.Contains(result.Content, "second value") {
		t.Errorf("character data missing: %q", result.Content)
	}
}

func TestExtractTooSmall(t *testing.T) {
	_, err := Extract(context.Background(), []byte("tiny"), "t.txt", det(sniff.FormatTXT))
	if !errors.Is(err, ErrTooSmall) {
		t.Fatalf("expected ErrTooSmall, got %v", err)
	}

	// Exactly at the boundary: 10 bytes pass.
	result, err := Extract(context.Background(), []byte("0123456789"), "t.txt", det(sniff.FormatTXT))
	if err != nil {
		t.Fatalf("10 bytes should pass: %v", err)
	}
	if result.Content != "0123456789" {
		t.Fatalf("got %q", result.Content)
	}
}

func TestExtractTextInvalidUTF8Replaced(t *testing.T) {
	data := []byte("valid text \xff\xfe more valid text")
	result, err := Extract(context.Background(), data, "t.txt", det(sniff.FormatTXT))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Content, "more valid text") {
		t.Fatalf("got %q", result.Content)
	}
}

func TestExtractCorruptedPDFLabeled(t *testing.T) {
	// Not a parseable PDF: content degrades to a labeled raw decode.
	data := []byte("%PDF-1.4 this is not really a pdf but has plenty of readable text inside it")
	result, err := Extract(context.Background(), data, "bad.pdf", det(sniff.FormatPDF))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(result.Content, corruptedPDFLabel) {
		t.Fatalf("expected provenance label, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "readable text") {
		t.Fatalf("raw decode missing content: %q", result.Content)
	}
}

func buildOfficeZip(t *testing.T, entry, xmlBody string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create(entry)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(xmlBody))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	data := buildOfficeZip(t, "word/document.xml",
		`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`+
			`<w:body><w:p><w:r><w:t>Document body text here.</w:t></w:r></w:p></w:body></w:document>`)

	result, err := Extract(context.Background(), data, "d.docx", det(sniff.FormatDocx))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Content, "Document body text here.") {
		t.Fatalf("got %q", result.Content)
	}
}

func TestExtractPptxMultipleSlides(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, slide := range []struct{ name, text string }{
		{"ppt/slides/slide1.xml", "First slide content"},
		{"ppt/slides/slide2.xml", "Second slide content"},
	} {
		fw, _ := w.Create(slide.name)
		fw.Write([]byte(`<?xml version="1.0"?><p:sld xmlns:p="urn:p"><p:txBody><a:t xmlns:a="urn:a">` +
			slide.text + `</a:t></p:txBody></p:sld>`))
	}
	w.Close()

	result, err := Extract(context.Background(), buf.Bytes(), "deck.pptx", det(sniff.FormatPptx))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Content, "First slide content") || !strings.Contains(result.Content, "Second slide content") {
		t.Fatalf("got %q", result.Content)
	}
}

func TestExtractDocxXMLBomb(t *testing.T) {
	// WHAT: Deep nesting is rejected with a depth error.
	var xmlB strings.Builder
	xmlB.WriteString(`<?xml version="1.0"?><root>`)
	for i := 0; i < 300; i++ {
		xmlB.WriteString("<d>")
	}
	xmlB.WriteString("deep")
	for i := 0; i < 300; i++ {
		xmlB.WriteString("</d>")
	}
	xmlB.WriteString("</root>")

	data := buildOfficeZip(t, "word/document.xml", xmlB.String())
	_, err := Extract(context.Background(), data, "bomb.docx", det(sniff.FormatDocx))
	if err == nil || !strings.Contains(err.Error(), "nesting depth") {
		t.Fatalf("expected nesting depth error, got %v", err)
	}
}
