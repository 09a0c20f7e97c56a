// Package toc locates and parses a Table of Contents block inside the front
// matter of linearized PDF text. Parsing is purely heuristic: there is no
// access to PDF layout or geometry, only text pattern matching.
package toc

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/rajyashhh/quill-bot/internal/pages"
	"github.com/rajyashhh/quill-bot/internal/types"
)

// ErrNotFound is returned when no ToC heading exists in the search window.
var ErrNotFound = errors.New("table of contents not found")

// headingRe locates a ToC heading line, anchored at end-of-line.
var headingRe = regexp.MustCompile(`(?im)(?:table of contents|contents|index|content)[ \t]*\r?$`)

// blobRe recovers entries from a ToC whose newlines were lost during text
// linearization: number, title, dot-leader run of 3+ dots, page number,
// repeated across a single blob.
var blobRe = regexp.MustCompile(`(\d+)(?:\.\d+)*[.)]?\s+([^.]+?)\s*\.{3,}\s*(\d+)`)

// stopPrefixes end the scan once enough chapters have been found; back-matter
// sections routinely follow the chapter list.
var stopPrefixes = []string{"glossary", "index", "appendix"}

// Config tunes the parser. Zero values fall back to the documented defaults.
type Config struct {
	WindowPages int // search window in pages from document start (default 30)
	BlockChars  int // candidate block size after the heading (default 8000)
	MinLines    int // below this line count the blob strategy kicks in (default 5)
	MinEntries  int // blob acceptance threshold (default 2, exclusive)
	MissLimit   int // consecutive non-matching lines before early stop (default 25)
	MissAfter   int // chapters required before the miss limit applies (default 5)
	StopAfter   int // chapters required before stop prefixes apply (default 3)
}

func (c Config) withDefaults() Config {
	if c.WindowPages == 0 {
		c.WindowPages = 30
	}
	if c.BlockChars == 0 {
		c.BlockChars = 8000
	}
	if c.MinLines == 0 {
		c.MinLines = 5
	}
	if c.MinEntries == 0 {
		c.MinEntries = 2
	}
	if c.MissLimit == 0 {
		c.MissLimit = 25
	}
	if c.MissAfter == 0 {
		c.MissAfter = 5
	}
	if c.StopAfter == 0 {
		c.StopAfter = 3
	}
	return c
}

// Parser finds and parses a ToC block.
type Parser struct {
	cfg   Config
	rules []LineRule
}

// NewParser creates a Parser with the given config and the default layout rules.
func NewParser(cfg Config) *Parser {
	return &Parser{cfg: cfg.withDefaults(), rules: defaultRules()}
}

// Usable reports whether a parse result clears the acceptance threshold.
// A ToC heading with only 1-2 parsed lines is more likely a false positive
// than a real short ToC.
func (p *Parser) Usable(entries []types.TocEntry) bool {
	return len(entries) > p.cfg.MinEntries
}

// Find locates the ToC heading within the first WindowPages pages and parses
// the block that follows. Returns ErrNotFound when no heading exists; a found
// heading with unparseable contents yields an empty (unusable) list, not an
// error.
func (p *Parser) Find(text string, idx *pages.Index) ([]types.TocEntry, error) {
	windowEnd := idx.OffsetForPage(p.cfg.WindowPages + 1)
	if windowEnd > len(text) {
		windowEnd = len(text)
	}
	window := text[:windowEnd]

	loc := headingRe.FindStringIndex(window)
	if loc == nil {
		return nil, ErrNotFound
	}

	// The block may continue past the search window; only the heading is
	// required to sit inside it.
	blockEnd := loc[1] + p.cfg.BlockChars
	if blockEnd > len(text) {
		blockEnd = len(text)
	}
	block := text[loc[1]:blockEnd]

	ctx := MatchContext{TotalPages: idx.TotalPages()}

	lines := strings.Split(block, "\n")
	if len(lines) < p.cfg.MinLines {
		// Newlines were lost during linearization; fall back to scanning the
		// whole blob for repeated entry shapes.
		if entries := p.parseBlob(block, ctx); len(entries) > p.cfg.MinEntries {
			return entries, nil
		}
		return nil, nil
	}

	return p.parseLines(lines, ctx), nil
}

// parseLines scans the block line by line with the layout rules.
func (p *Parser) parseLines(lines []string, ctx MatchContext) []types.TocEntry {
	var entries []types.TocEntry
	misses := 0

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if isStopLine(line) && len(entries) >= p.cfg.StopAfter {
			break
		}

		entry, ok := p.matchLine(line, ctx)
		if !ok {
			misses++
			// Guards against runaway scanning into body text that merely
			// contains numbers. Only applies once a sequence of real
			// entries has been collected.
			if len(entries) >= p.cfg.MissAfter && misses > p.cfg.MissLimit {
				break
			}
			continue
		}

		misses = 0
		entries = append(entries, entry)
	}

	return entries
}

// matchLine tries the layout rules in order.
func (p *Parser) matchLine(line string, ctx MatchContext) (types.TocEntry, bool) {
	if line == "" {
		return types.TocEntry{}, false
	}
	for _, rule := range p.rules {
		if entry, ok := rule.Match(line, ctx); ok {
			return entry, true
		}
	}
	return types.TocEntry{}, false
}

// parseBlob extracts entries from a single-line ToC block.
func (p *Parser) parseBlob(block string, ctx MatchContext) []types.TocEntry {
	var entries []types.TocEntry
	for _, m := range blobRe.FindAllStringSubmatch(block, -1) {
		num, err := strconv.Atoi(m[1])
		if err != nil || num <= 0 {
			continue
		}
		page, err := strconv.Atoi(m[3])
		if err != nil || page <= 0 || page > ctx.TotalPages {
			continue
		}
		title := strings.TrimSpace(m[2])
		if title == "" {
			continue
		}
		entries = append(entries, types.TocEntry{ChapterNumber: num, Title: title, Page: page})
	}
	return entries
}

func isStopLine(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range stopPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
