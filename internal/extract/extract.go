// Package extract turns source documents into the extraction input consumed
// by structural analysis: the full linear text, a total page count, and
// optional explicit page-break offsets. OCR output with embedded page
// markers is accepted verbatim; PDFs are read directly with page breaks
// inserted as form feeds.
package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// FromPDF extracts the text of a PDF, joining pages with form feed
// characters so downstream offset-to-page mapping stays exact. Pages that
// fail text extraction contribute an empty page rather than aborting the
// document.
func FromPDF(path string) (types.Extraction, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return types.Extraction{}, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	var sb strings.Builder
	var breaks []int

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		if pageNum > 1 {
			breaks = append(breaks, sb.Len())
			sb.WriteByte('\f')
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
	}

	return types.Extraction{
		Text:             sb.String(),
		TotalPages:       totalPages,
		PageBreakOffsets: breaks,
	}, nil
}

// FromText wraps already-extracted text, typically OCR output carrying
// "--- Page N ---" markers. Page boundaries are recovered downstream from
// the markers or form feeds in the text itself.
func FromText(text string, totalPages int) types.Extraction {
	return types.Extraction{Text: text, TotalPages: totalPages}
}

// FromFile loads an extraction from a file, dispatching on extension:
// .pdf is parsed directly, .json is decoded as a serialized extraction,
// anything else is read as plain text.
func FromFile(path string) (types.Extraction, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FromPDF(path)
	case ".json":
		return fromJSONFile(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return types.Extraction{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return FromText(string(data), 0), nil
	}
}

func fromJSONFile(path string) (types.Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Extraction{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var ex types.Extraction
	if err := json.Unmarshal(data, &ex); err != nil {
		return types.Extraction{}, fmt.Errorf("failed to decode extraction %s: %w", path, err)
	}
	if ex.Text == "" {
		return types.Extraction{}, fmt.Errorf("extraction %s has no text", path)
	}
	return ex, nil
}
