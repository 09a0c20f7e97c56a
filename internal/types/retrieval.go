package types

// Passage is one retrieved excerpt from the external semantic index.
type Passage struct {
	Text       string  `json:"text"`
	PageNumber int     `json:"page_number"`
	Score      float64 `json:"score"`
	SourceTag  string  `json:"source_tag,omitempty"`
}
