// Package extract turns raw PDF bytes into ordered, page-attributed text
// spans with document boilerplate already filtered out.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"aeroassist/internal/domain"
	"aeroassist/internal/normalize"
)

// ParseError indicates the input bytes could not be parsed as a document.
// Nothing extracted up to that point is usable.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("document parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Pages extracts one LocalizedText per physical page that still has content
// after normalization. Page numbers are zero-based and reflect the physical
// page index; pages yielding no text are skipped without renumbering.
func Pages(documentData []byte) (result []domain.LocalizedText, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &ParseError{Err: fmt.Errorf("%v", r)}
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(documentData), int64(len(documentData)))
	if rerr != nil {
		return nil, &ParseError{Err: rerr}
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, rowsErr := page.GetTextByRow()
		if rowsErr != nil {
			// A single undecodable page does not invalidate the document.
			continue
		}
		var sb strings.Builder
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			if text, ok := normalize.Line(line.String()); ok {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		if sb.Len() > 0 {
			result = append(result, domain.LocalizedText{
				Text:        sb.String(),
				StartPageNo: i - 1,
				EndPageNo:   i - 1,
			})
		}
	}
	return result, nil
}
