// Package pages maps linear text offsets to page numbers. Page boundaries
// come from explicit break offsets supplied by the extraction collaborator,
// from OCR page markers embedded in the text, or from form feed characters.
package pages

import (
	"regexp"
	"sort"
)

// ocrMarkerRe matches the literal OCR page marker format "--- Page <N> ---".
var ocrMarkerRe = regexp.MustCompile(`(?m)^--- Page \d+ ---`)

// Index resolves offsets to 1-based page numbers. The break table always
// contains 0 and len(text) as sentinels, so every lookup is total.
type Index struct {
	breaks  []int
	textLen int
}

// NewIndex builds an Index for text. Explicit break offsets take priority
// when supplied; otherwise the text is scanned for OCR page markers, and
// failing that for form feed page breaks. A document with no detectable
// breaks is a single page.
func NewIndex(text string, explicit []int) *Index {
	if len(explicit) > 0 {
		return newFromOffsets(text, explicit)
	}
	return newFromOffsets(text, scanBreaks(text))
}

// NewSyntheticIndex divides text into totalPages evenly sized pages. Used
// when the extraction reports a page count but no break information survived
// in the text, so page arithmetic stays approximate instead of collapsing the
// whole document onto a single page.
func NewSyntheticIndex(text string, totalPages int) *Index {
	if totalPages < 2 || len(text) < 2 {
		return newFromOffsets(text, nil)
	}
	size := len(text) / totalPages
	if size < 1 {
		size = 1
	}
	offsets := make([]int, 0, totalPages-1)
	for i := 1; i < totalPages; i++ {
		offsets = append(offsets, i*size)
	}
	return newFromOffsets(text, offsets)
}

// scanBreaks locates page-break offsets in raw text. OCR markers take
// priority over generic form feed breaks when both are present.
func scanBreaks(text string) []int {
	if locs := ocrMarkerRe.FindAllStringIndex(text, -1); len(locs) > 0 {
		offsets := make([]int, 0, len(locs))
		for _, loc := range locs {
			offsets = append(offsets, loc[0])
		}
		return offsets
	}

	var offsets []int
	for i := 0; i < len(text); i++ {
		if text[i] == '\f' {
			offsets = append(offsets, i)
		}
	}
	return offsets
}

func newFromOffsets(text string, offsets []int) *Index {
	breaks := make([]int, 0, len(offsets)+2)
	breaks = append(breaks, 0)
	for _, off := range offsets {
		if off > 0 && off < len(text) {
			breaks = append(breaks, off)
		}
	}
	breaks = append(breaks, len(text))

	sort.Ints(breaks)
	breaks = dedupe(breaks)

	return &Index{breaks: breaks, textLen: len(text)}
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// TotalPages returns the number of pages covered by the index, at least 1.
func (x *Index) TotalPages() int {
	if len(x.breaks) < 2 {
		return 1
	}
	return len(x.breaks) - 1
}

// PageForOffset returns the 1-based page whose half-open offset range
// [break[i], break[i+1]) contains offset. Offsets past the last break resolve
// to the last page; negative offsets resolve to page 1. Never fails.
func (x *Index) PageForOffset(offset int) int {
	if offset < 0 {
		return 1
	}
	if offset >= x.textLen {
		return x.TotalPages()
	}
	// First break strictly greater than offset; its index is the 1-based page.
	page := sort.Search(len(x.breaks), func(i int) bool {
		return x.breaks[i] > offset
	})
	if page < 1 {
		page = 1
	}
	if page > x.TotalPages() {
		page = x.TotalPages()
	}
	return page
}

// OffsetForPage returns the start offset of the given 1-based page, clamped
// to [0, len(text)] for out-of-range pages.
func (x *Index) OffsetForPage(page int) int {
	if page < 1 {
		return 0
	}
	if page > x.TotalPages() {
		return x.textLen
	}
	return x.breaks[page-1]
}
