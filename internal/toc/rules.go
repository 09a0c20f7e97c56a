package toc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// MatchContext carries document-level facts a line rule may need.
type MatchContext struct {
	TotalPages int
}

// LineRule is one layout heuristic for a single ToC line. Rules are tried in
// order; the first match wins. New layouts are added here without touching
// the scan loop.
type LineRule interface {
	Name() string
	Match(line string, ctx MatchContext) (types.TocEntry, bool)
}

// dotLeaderRe matches "N. Title ..... page" including multi-level numbering
// such as "2.1" or "2-1". The chapter number is the leading component.
var dotLeaderRe = regexp.MustCompile(`^(\d+)(?:[.\-]\d+)*[.)]?\s+(.+?)\s*\.{3,}\s*(\d+)\s*$`)

// dotLeaderRule parses the classic dot-leader ToC layout.
type dotLeaderRule struct{}

func (dotLeaderRule) Name() string { return "dot_leader" }

func (dotLeaderRule) Match(line string, ctx MatchContext) (types.TocEntry, bool) {
	return matchLayout(dotLeaderRe, line, ctx)
}

// wideGapRe matches layouts where 3+ consecutive spaces separate the title
// from the page number instead of dot leaders.
var wideGapRe = regexp.MustCompile(`^(\d+)(?:[.\-]\d+)*[.)]?\s+(.+?)\s{3,}(\d+)\s*$`)

// wideGapRule parses the wide-gap ToC layout.
type wideGapRule struct{}

func (wideGapRule) Name() string { return "wide_gap" }

func (wideGapRule) Match(line string, ctx MatchContext) (types.TocEntry, bool) {
	return matchLayout(wideGapRe, line, ctx)
}

// matchLayout converts a layout regex match into a validated entry.
// Out-of-range page numbers and non-positive chapter numbers are expected
// noise from body text; the line is simply skipped.
func matchLayout(re *regexp.Regexp, line string, ctx MatchContext) (types.TocEntry, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return types.TocEntry{}, false
	}

	num, err := strconv.Atoi(m[1])
	if err != nil || num <= 0 {
		return types.TocEntry{}, false
	}
	page, err := strconv.Atoi(m[3])
	if err != nil || page <= 0 || page > ctx.TotalPages {
		return types.TocEntry{}, false
	}

	title := strings.TrimSpace(m[2])
	if title == "" {
		return types.TocEntry{}, false
	}

	return types.TocEntry{ChapterNumber: num, Title: title, Page: page}, true
}

// defaultRules returns the layout rules in priority order.
func defaultRules() []LineRule {
	return []LineRule{
		dotLeaderRule{},
		wideGapRule{},
	}
}
