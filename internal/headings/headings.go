// Package headings is the fallback chapter-detection strategy: when no
// usable Table of Contents exists, every line of the full text is scanned
// for heading-like patterns and scored by isolation heuristics.
package headings

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// pattern binds a heading regex to its confidence tag. The tag documents how
// reliable the pattern has proven in tuning; it does not branch logic.
type pattern struct {
	name       string
	re         *regexp.Regexp
	confidence types.ConfidenceLevel
	// requireCapital rejects matches whose title does not start with a
	// capital letter. Guards the bare-numbered form against ordinary list
	// items like "1. rate of decompression".
	requireCapital bool
}

var headingPatterns = []pattern{
	{name: "chapter", re: regexp.MustCompile(`(?i)^chapter\s+(\d+)\s*[:.\-]?\s*(.*)$`), confidence: types.ConfidenceHigh},
	{name: "unit", re: regexp.MustCompile(`(?i)^unit\s+(\d+)\s*[:.\-]?\s*(.*)$`), confidence: types.ConfidenceHigh},
	{name: "module", re: regexp.MustCompile(`(?i)^module\s+(\d+)\s*[:.\-]?\s*(.*)$`), confidence: types.ConfidenceHigh},
	{name: "section", re: regexp.MustCompile(`(?i)^section\s+(\d+)\s*[:.\-]?\s*(.*)$`), confidence: types.ConfidenceMedium},
	{name: "part", re: regexp.MustCompile(`^PART\s+(\d+)\s*[:.\-]?\s*(.*)$`), confidence: types.ConfidenceMedium},
	{name: "bare_number", re: regexp.MustCompile(`^(\d+)\.\s+(.+)$`), confidence: types.ConfidenceLow, requireCapital: true},
}

// backRefPrefixes mark lines that reference a chapter rather than start one
// ("see Chapter 3", "in Chapter 5 we saw...").
var backRefPrefixes = []string{"see", "refer to", "in", "read", "shown in"}

// shortNeighborMax is the length under which a neighboring line counts as
// "very short", a proxy for surrounding whitespace around a real heading.
const shortNeighborMax = 20

// Detector scans full text for chapter headings.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns chapter headings with exact text offsets, sorted by chapter
// number. Duplicate chapter numbers (running headers repeating "Chapter 3" on
// every page) are suppressed: the first occurrence wins.
func (d *Detector) Detect(text string) []types.Heading {
	lines := strings.Split(text, "\n")

	// Precompute line start offsets.
	offsets := make([]int, len(lines))
	off := 0
	for i, line := range lines {
		offsets[i] = off
		off += len(line) + 1
	}

	seen := make(map[int]bool)
	var found []types.Heading

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		num, title, conf, ok := matchPattern(line)
		if !ok {
			continue
		}
		if seen[num] {
			continue
		}
		if !isStrongHeader(lines, i) {
			continue
		}

		seen[num] = true
		found = append(found, types.Heading{
			ChapterNumber: num,
			Title:         title,
			Offset:        offsets[i] + indexOfTrimmed(raw),
			Confidence:    conf,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].ChapterNumber < found[j].ChapterNumber
	})
	return found
}

// matchPattern tries each heading pattern in order and returns the parsed
// chapter number and the full heading line as the title.
func matchPattern(line string) (int, string, types.ConfidenceLevel, bool) {
	for _, p := range headingPatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if p.requireCapital {
			rest := strings.TrimSpace(m[2])
			if rest == "" || rest[0] < 'A' || rest[0] > 'Z' {
				continue
			}
		}
		num, err := strconv.Atoi(m[1])
		if err != nil || num <= 0 {
			continue
		}
		// Source numbering is preserved inside the title; renumbering to a
		// strict 1..N sequence happens at assembly.
		return num, line, p.confidence, true
	}
	return 0, "", "", false
}

// isStrongHeader accepts a candidate line only if it is not a back-reference
// and is either visually isolated or free of clause-continuing punctuation.
func isStrongHeader(lines []string, i int) bool {
	line := strings.TrimSpace(lines[i])
	lower := strings.ToLower(line)

	for _, prefix := range backRefPrefixes {
		if strings.HasPrefix(lower, prefix+" ") {
			return false
		}
	}

	if isIsolated(lines, i) {
		return true
	}
	return !strings.ContainsAny(line[len(line)-1:], ".,;:")
}

// isIsolated reports whether the nearest non-empty neighbor above or below is
// itself very short. Linearized PDF text loses vertical whitespace, so a
// short neighbor is the best available proxy for it.
func isIsolated(lines []string, i int) bool {
	if prev, ok := nearestNonEmpty(lines, i, -1); ok && len(prev) < shortNeighborMax {
		return true
	}
	if next, ok := nearestNonEmpty(lines, i, +1); ok && len(next) < shortNeighborMax {
		return true
	}
	// No neighbors at all means the line stands alone.
	_, hasPrev := nearestNonEmpty(lines, i, -1)
	_, hasNext := nearestNonEmpty(lines, i, +1)
	return !hasPrev && !hasNext
}

// nearestNonEmpty walks from line i in the given direction and returns the
// first non-empty trimmed line.
func nearestNonEmpty(lines []string, i, dir int) (string, bool) {
	for j := i + dir; j >= 0 && j < len(lines); j += dir {
		if s := strings.TrimSpace(lines[j]); s != "" {
			return s, true
		}
	}
	return "", false
}

// indexOfTrimmed returns the offset of the first non-space byte within raw.
func indexOfTrimmed(raw string) int {
	return len(raw) - len(strings.TrimLeft(raw, " \t\f\r"))
}
