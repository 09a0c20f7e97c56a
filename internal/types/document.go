// Package types provides shared types used across multiple packages.
// This package has no dependencies on other quill-bot packages to avoid import cycles.
package types

// StructureSource indicates which detection strategy produced a chapter list.
type StructureSource string

const (
	// SourceToc indicates chapters derived from a parsed Table of Contents.
	SourceToc StructureSource = "toc"
	// SourceHeadings indicates chapters derived from semantic heading detection.
	SourceHeadings StructureSource = "headings"
	// SourceNone indicates both strategies failed and no chapters exist.
	SourceNone StructureSource = "none"
)

// ConfidenceLevel tags a heading pattern with how reliable it is.
// Used for documentation and tuning, not branching logic.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Extraction is the boundary input produced by an external PDF-to-text or
// OCR collaborator. If OCR was used, page markers in Text follow the literal
// format "--- Page <N> ---"; otherwise a form feed delimits pages.
type Extraction struct {
	Text             string `json:"text"`
	TotalPages       int    `json:"total_pages"`
	PageBreakOffsets []int  `json:"page_break_offsets,omitempty"`
}

// TocEntry is one parsed Table of Contents line.
type TocEntry struct {
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	Page          int    `json:"page"`
}

// Heading is a chapter heading found by scanning body text.
// Offset is the exact position of the heading line in the full text.
type Heading struct {
	ChapterNumber int             `json:"chapter_number"`
	Title         string          `json:"title"`
	Offset        int             `json:"offset"`
	Confidence    ConfidenceLevel `json:"confidence"`
}

// Chapter is an assembled chapter with resolved offset and page boundaries.
// ChapterNumber is strictly sequential 1..N after assembly; any numbering
// parsed from the source survives only inside Title. Chapters are contiguous
// and non-overlapping in both offset and page space.
type Chapter struct {
	ID            string `json:"id,omitempty"`
	DocumentID    string `json:"document_id,omitempty"`
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	StartOffset   int    `json:"start_offset"`
	EndOffset     int    `json:"end_offset"`
	StartPage     int    `json:"start_page"`
	EndPage       int    `json:"end_page"`
	Content       string `json:"content,omitempty"`
}

// Topic is a sub-section of a chapter. TopicNumber is unique within its
// chapter; topics are never mutated after creation (a reprocess replaces
// the whole set).
type Topic struct {
	ChapterID            string `json:"chapter_id,omitempty"`
	TopicNumber          int    `json:"topic_number"`
	Title                string `json:"title"`
	Content              string `json:"content"`
	EstimatedTimeMinutes int    `json:"estimated_time_minutes"`
}
