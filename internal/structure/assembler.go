// Package structure assembles detected chapters into a contiguous,
// strictly renumbered chapter list with resolved offsets, pages, and content.
package structure

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rajyashhh/quill-bot/internal/pages"
	"github.com/rajyashhh/quill-bot/internal/types"
)

// leadingNumberingRe strips the numbering token from the front of a title:
// digits (with dot/dash levels), a single capital letter, or a roman numeral,
// plus trailing separators.
var leadingNumberingRe = regexp.MustCompile(`^\s*(?:\d+(?:[.\-]\d+)*|[A-Z]|[IVXLC]+)[.):\-\s]+`)

// Config tunes assembly.
type Config struct {
	// TitleSnapChars is how far into a page to search for the chapter title
	// when refining a ToC-derived start offset. Default 1000.
	TitleSnapChars int
}

func (c Config) withDefaults() Config {
	if c.TitleSnapChars == 0 {
		c.TitleSnapChars = 1000
	}
	return c
}

// Assembler computes chapter boundaries and extracts content.
type Assembler struct {
	cfg Config
}

// NewAssembler creates an Assembler.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{cfg: cfg.withDefaults()}
}

// FromToc assembles chapters from parsed ToC entries. ToC entries carry only
// page numbers; each start offset is refined by searching the opening of that
// page for the cleaned title, falling back to the page's start offset.
func (a *Assembler) FromToc(fullText string, idx *pages.Index, entries []types.TocEntry) []types.Chapter {
	drafts := make([]draft, 0, len(entries))
	for _, e := range entries {
		start := idx.OffsetForPage(e.Page)
		if snapped, ok := a.snapToTitle(fullText, start, e.Title); ok {
			start = snapped
		}
		drafts = append(drafts, draft{title: e.Title, start: start})
	}
	return a.finalize(fullText, idx, drafts)
}

// FromHeadings assembles chapters from detected headings, whose offsets are
// already exact.
func (a *Assembler) FromHeadings(fullText string, idx *pages.Index, found []types.Heading) []types.Chapter {
	drafts := make([]draft, 0, len(found))
	for _, h := range found {
		drafts = append(drafts, draft{title: h.Title, start: h.Offset})
	}
	return a.finalize(fullText, idx, drafts)
}

type draft struct {
	title string
	start int
}

// snapToTitle searches up to TitleSnapChars past the page start for a literal
// occurrence of the cleaned title, snapping the start offset onto the actual
// heading.
func (a *Assembler) snapToTitle(fullText string, pageStart int, title string) (int, bool) {
	cleaned := CleanTitle(title)
	if cleaned == "" {
		return 0, false
	}

	end := pageStart + a.cfg.TitleSnapChars
	if end > len(fullText) {
		end = len(fullText)
	}
	if pageStart >= end {
		return 0, false
	}

	window := strings.ToLower(fullText[pageStart:end])
	pos := strings.Index(window, strings.ToLower(cleaned))
	if pos < 0 {
		return 0, false
	}
	return pageStart + pos, true
}

// finalize sorts drafts by start offset, infers sequential boundaries, and
// renumbers chapters 1..N. Source numbering survives only inside the title;
// renumbering avoids duplicate or non-monotonic numbers when a book restarts
// numbering across parts.
func (a *Assembler) finalize(fullText string, idx *pages.Index, drafts []draft) []types.Chapter {
	if len(drafts) == 0 {
		return nil
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].start < drafts[j].start
	})

	chapters := make([]types.Chapter, 0, len(drafts))
	for i, d := range drafts {
		end := len(fullText)
		if i < len(drafts)-1 {
			end = drafts[i+1].start - 1
		}
		if end < d.start {
			end = d.start
		}

		chapters = append(chapters, types.Chapter{
			ChapterNumber: i + 1,
			Title:         d.title,
			StartOffset:   d.start,
			EndOffset:     end,
			StartPage:     idx.PageForOffset(d.start),
			EndPage:       idx.PageForOffset(end),
			Content:       ExtractContent(fullText, d.start, end),
		})
	}

	return chapters
}

// ExtractContent returns the trimmed chapter slice of the full text.
func ExtractContent(fullText string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(fullText) {
		end = len(fullText)
	}
	if start >= end {
		return ""
	}
	return strings.TrimSpace(fullText[start:end])
}

// CleanTitle strips the leading numbering token from a title.
func CleanTitle(title string) string {
	return strings.TrimSpace(leadingNumberingRe.ReplaceAllString(title, ""))
}
