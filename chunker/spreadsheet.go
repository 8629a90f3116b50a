package chunker

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// spreadsheetChunks emits one chunk per sheet: tab-separated cells, one row
// per line, headed by the sheet name. Sheet order maps to page numbers.
func (f *Factory) spreadsheetChunks(data []byte, filename string) ([]Chunk, []string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		warnings := []string{fmt.Sprintf("open workbook: %v", err)}
		return nil, warnings, &EmptyDocumentError{Filename: filename, Warnings: warnings}
	}
	defer wb.Close()

	var segments []Segment
	var warnings []string

	for i, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("read sheet %s: %v", sheet, err))
			continue
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Sheet: %s\n", sheet)
		empty := true
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			empty = false
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		if empty {
			continue
		}
		segments = append(segments, Segment{Page: i + 1, Text: strings.TrimSpace(sb.String())})
	}

	chunks := assemble(segments, nil, "spreadsheet", filename)
	if len(chunks) == 0 {
		return nil, warnings, &EmptyDocumentError{Filename: filename, Warnings: warnings}
	}
	return chunks, warnings, nil
}
