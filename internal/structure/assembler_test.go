package structure

import (
	"strings"
	"testing"

	"github.com/rajyashhh/quill-bot/internal/pages"
	"github.com/rajyashhh/quill-bot/internal/types"
)

// TestFromHeadings_TwoChapterSpans verifies boundary inference for
// heading-derived chapters: chapter 1 spans [0, 4999], chapter 2 spans
// [5000, len-1] in a 12000-character document.
func TestFromHeadings_TwoChapterSpans(t *testing.T) {
	head1 := "Chapter 1: Flight Basics\n"
	head2 := "Chapter 2: Weather\n"

	var b strings.Builder
	b.WriteString(head1)
	b.WriteString(strings.Repeat("a", 5000-b.Len()))
	b.WriteString(head2)
	b.WriteString(strings.Repeat("b", 12000-b.Len()))
	text := b.String()

	found := []types.Heading{
		{ChapterNumber: 1, Title: "Chapter 1: Flight Basics", Offset: 0},
		{ChapterNumber: 2, Title: "Chapter 2: Weather", Offset: 5000},
	}

	idx := pages.NewIndex(text, nil)
	chapters := NewAssembler(Config{}).FromHeadings(text, idx, found)

	if len(chapters) != 2 {
		t.Fatalf("FromHeadings() returned %d chapters, want 2", len(chapters))
	}
	if chapters[0].StartOffset != 0 || chapters[0].EndOffset != 4999 {
		t.Errorf("chapter 1 spans [%d, %d], want [0, 4999]", chapters[0].StartOffset, chapters[0].EndOffset)
	}
	if chapters[1].StartOffset != 5000 || chapters[1].EndOffset != 12000 {
		t.Errorf("chapter 2 spans [%d, %d], want [5000, 12000]", chapters[1].StartOffset, chapters[1].EndOffset)
	}
}

// TestFinalize_ContiguousAndRenumbered verifies the contiguity and strict
// 1..N renumbering invariants regardless of source numbering.
func TestFinalize_ContiguousAndRenumbered(t *testing.T) {
	text := "PART 7: Alpha\n" + strings.Repeat("x", 200) +
		"\nPART 7: Beta\n" + strings.Repeat("y", 200) +
		"\nPART 2: Gamma\n" + strings.Repeat("z", 200)

	// Duplicate and non-monotonic source numbers, offsets out of order.
	found := []types.Heading{
		{ChapterNumber: 7, Title: "PART 7: Beta", Offset: strings.Index(text, "PART 7: Beta")},
		{ChapterNumber: 7, Title: "PART 7: Alpha", Offset: 0},
		{ChapterNumber: 2, Title: "PART 2: Gamma", Offset: strings.Index(text, "PART 2: Gamma")},
	}

	idx := pages.NewIndex(text, nil)
	chapters := NewAssembler(Config{}).FromHeadings(text, idx, found)

	if len(chapters) != 3 {
		t.Fatalf("FromHeadings() returned %d chapters, want 3", len(chapters))
	}

	for i, ch := range chapters {
		if ch.ChapterNumber != i+1 {
			t.Errorf("chapters[%d].ChapterNumber = %d, want %d", i, ch.ChapterNumber, i+1)
		}
		if i < len(chapters)-1 && ch.EndOffset+1 != chapters[i+1].StartOffset {
			t.Errorf("chapters[%d].EndOffset+1 = %d, want %d (contiguity)",
				i, ch.EndOffset+1, chapters[i+1].StartOffset)
		}
	}
	if last := chapters[len(chapters)-1]; last.EndOffset != len(text) {
		t.Errorf("last chapter EndOffset = %d, want %d", last.EndOffset, len(text))
	}

	// Source numbering survives only in the title.
	if chapters[0].Title != "PART 7: Alpha" {
		t.Errorf("chapters[0].Title = %q, want source title preserved", chapters[0].Title)
	}
}

// TestFromToc_TitleSnap verifies that a ToC-derived start offset snaps onto
// the actual heading text within the page.
func TestFromToc_TitleSnap(t *testing.T) {
	page1 := "front matter filler\n"
	page2 := "running header\nIntroduction\nThe first chapter begins here. " + strings.Repeat("w ", 100)
	page3 := "Basic Aerodynamics\nLift is produced by the wing. " + strings.Repeat("v ", 100)
	text := page1 + "\f" + page2 + "\f" + page3

	idx := pages.NewIndex(text, nil)
	entries := []types.TocEntry{
		{ChapterNumber: 1, Title: "Introduction", Page: 2},
		{ChapterNumber: 2, Title: "Basic Aerodynamics", Page: 3},
	}

	chapters := NewAssembler(Config{}).FromToc(text, idx, entries)
	if len(chapters) != 2 {
		t.Fatalf("FromToc() returned %d chapters, want 2", len(chapters))
	}

	wantStart := strings.Index(text, "Introduction")
	if chapters[0].StartOffset != wantStart {
		t.Errorf("chapter 1 StartOffset = %d, want %d (snapped to title)", chapters[0].StartOffset, wantStart)
	}
	if !strings.HasPrefix(chapters[0].Content, "Introduction") {
		t.Errorf("chapter 1 content starts %q, want the snapped heading", chapters[0].Content[:20])
	}
	if chapters[0].StartPage != 2 || chapters[1].StartPage != 3 {
		t.Errorf("start pages = %d, %d, want 2, 3", chapters[0].StartPage, chapters[1].StartPage)
	}
}

// TestFromToc_SnapFallsBackToPageStart verifies the page start offset is used
// when the title cannot be found within the snap window.
func TestFromToc_SnapFallsBackToPageStart(t *testing.T) {
	text := "page one text\fpage two has no matching heading at all " + strings.Repeat("q ", 50)
	idx := pages.NewIndex(text, nil)

	entries := []types.TocEntry{
		{ChapterNumber: 1, Title: "Completely Absent Title", Page: 2},
		{ChapterNumber: 2, Title: "Also Missing", Page: 2},
		{ChapterNumber: 3, Title: "Missing Too", Page: 2},
	}

	chapters := NewAssembler(Config{}).FromToc(text, idx, entries)
	if chapters[0].StartOffset != idx.OffsetForPage(2) {
		t.Errorf("StartOffset = %d, want page 2 start %d", chapters[0].StartOffset, idx.OffsetForPage(2))
	}
}

// TestExtractContent_RoundTrip verifies content equals the trimmed slice of
// the full text exactly.
func TestExtractContent_RoundTrip(t *testing.T) {
	text := "Chapter 1: One\nbody one\nChapter 2: Two\nbody two\n"
	found := []types.Heading{
		{ChapterNumber: 1, Title: "Chapter 1: One", Offset: 0},
		{ChapterNumber: 2, Title: "Chapter 2: Two", Offset: strings.Index(text, "Chapter 2")},
	}

	idx := pages.NewIndex(text, nil)
	chapters := NewAssembler(Config{}).FromHeadings(text, idx, found)

	for _, ch := range chapters {
		want := strings.TrimSpace(text[ch.StartOffset:min(ch.EndOffset, len(text))])
		if ch.Content != want {
			t.Errorf("chapter %d content %q, want %q", ch.ChapterNumber, ch.Content, want)
		}
	}
}

// TestCleanTitle verifies numbering token stripping.
func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"numbered dot", "1. Introduction", "Introduction"},
		{"multi level", "2.1 Lift and Drag", "Lift and Drag"},
		{"dashed", "3-2 Stability", "Stability"},
		{"lettered", "A. Checklists", "Checklists"},
		{"roman", "IV. Navigation", "Navigation"},
		{"no numbering", "Weather", "Weather"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.input); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
