// Package topics splits a chapter's text into topics by detecting
// sub-heading boundaries, with an estimated reading time per topic.
package topics

import (
	"math"
	"regexp"
	"strings"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// fallbackTitle is used when a chapter yields no boundaries at all.
const fallbackTitle = "Main Content"

// preambleTitle names text that precedes the first detected boundary.
const preambleTitle = "Overview"

// boundaryRule is one sub-heading shape. Numbered rules carry an explicit
// numbering token, which lets a boundary stand without a preceding blank line.
type boundaryRule struct {
	name     string
	re       *regexp.Regexp
	numbered bool
}

var boundaryRules = []boundaryRule{
	{name: "numbered_subsection", re: regexp.MustCompile(`^\d+\.\d+\.?\s+\S.*$`), numbered: true},
	{name: "lettered", re: regexp.MustCompile(`^[A-Z]\.\s+\S.*$`), numbered: true},
	{name: "section_label", re: regexp.MustCompile(`(?i)^(?:section|topic)\s+\d+\s*[:.]\s*\S.*$`), numbered: true},
	{name: "markdown", re: regexp.MustCompile(`^#{1,3}\s+\S.*$`)},
	{name: "roman", re: regexp.MustCompile(`^[IVX]+\.\s+\S.*$`), numbered: true},
}

// titleStrips remove the boundary token from a topic title. Tried in order;
// the first match strips once. Roman numerals go before the single-letter
// form so "IV." is not read as the letter I.
var titleStrips = []*regexp.Regexp{
	regexp.MustCompile(`^#{1,3}\s+`),
	regexp.MustCompile(`(?i)^(?:section|topic)\s+\d+\s*[:.]\s*`),
	regexp.MustCompile(`^\d+(?:\.\d+)*\.?\s+`),
	regexp.MustCompile(`^[IVX]+\.\s+`),
	regexp.MustCompile(`^[A-Z]\.\s+`),
}

// Config tunes segmentation.
type Config struct {
	// MaxLineChars is the maximum length of a boundary line. Default 80.
	MaxLineChars int
	// ReadingWPM is the reading-speed assumption. Default 200.
	ReadingWPM int
}

func (c Config) withDefaults() Config {
	if c.MaxLineChars == 0 {
		c.MaxLineChars = 80
	}
	if c.ReadingWPM == 0 {
		c.ReadingWPM = 200
	}
	return c
}

// Segmenter splits chapter content into topics.
type Segmenter struct {
	cfg Config
}

// NewSegmenter creates a Segmenter.
func NewSegmenter(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg.withDefaults()}
}

// Segment scans content line by line for topic boundaries. Text between
// recognized boundaries accumulates as the current topic's content; a chapter
// with no boundaries becomes a single topic.
func (s *Segmenter) Segment(content string) []types.Topic {
	lines := strings.Split(content, "\n")

	var built []types.Topic
	var title string
	var body []string
	started := false

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if !started && text == "" {
			body = body[:0]
			return
		}
		name := title
		if name == "" {
			name = preambleTitle
		}
		built = append(built, types.Topic{
			TopicNumber:          len(built) + 1,
			Title:                name,
			Content:              text,
			EstimatedTimeMinutes: s.estimateMinutes(text),
		})
		body = body[:0]
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		if s.isBoundary(lines, i, line) {
			if started || strings.TrimSpace(strings.Join(body, "\n")) != "" {
				flush()
			}
			title = cleanTopicTitle(line)
			body = body[:0]
			started = true
			continue
		}
		body = append(body, raw)
	}
	flush()

	if len(built) == 0 {
		text := strings.TrimSpace(content)
		return []types.Topic{{
			TopicNumber:          1,
			Title:                fallbackTitle,
			Content:              text,
			EstimatedTimeMinutes: s.estimateMinutes(text),
		}}
	}
	return built
}

// isBoundary accepts a candidate line only if it is short and either preceded
// by a blank line or itself carrying explicit numbering. This keeps
// mid-sentence numeric references from fragmenting the chapter.
func (s *Segmenter) isBoundary(lines []string, i int, line string) bool {
	if line == "" || len(line) >= s.cfg.MaxLineChars {
		return false
	}

	for _, rule := range boundaryRules {
		if !rule.re.MatchString(line) {
			continue
		}
		if rule.numbered {
			return true
		}
		return i == 0 || strings.TrimSpace(lines[i-1]) == ""
	}
	return false
}

// estimateMinutes converts a word count to reading minutes, at least 1.
func (s *Segmenter) estimateMinutes(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / float64(s.cfg.ReadingWPM)))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// cleanTopicTitle strips the leading numbering token before storage.
func cleanTopicTitle(line string) string {
	for _, re := range titleStrips {
		if re.MatchString(line) {
			if cleaned := strings.TrimSpace(re.ReplaceAllString(line, "")); cleaned != "" {
				return cleaned
			}
			break
		}
	}
	return line
}
