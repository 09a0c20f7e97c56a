package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// questionSetSchema is the contract generated question sets are validated
// against before anything is persisted. CorrectAnswer must be repeated
// verbatim from options; that is checked separately because JSON Schema
// cannot express it.
const questionSetSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["question", "options", "correct_answer"],
        "properties": {
          "question": {"type": "string", "minLength": 1},
          "options": {
            "type": "array",
            "minItems": 2,
            "items": {"type": "string", "minLength": 1}
          },
          "correct_answer": {"type": "string", "minLength": 1},
          "explanation": {"type": "string"},
          "difficulty": {"type": "string", "enum": ["easy", "medium", "hard"]},
          "topic_covered": {"type": "string"}
        }
      }
    }
  }
}`

var compiledQuestionSchema = jsonschema.MustCompileString("questions.json", questionSetSchema)

// generatedQuestion mirrors the schema above.
type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	TopicCovered  string   `json:"topic_covered,omitempty"`
}

type generatedQuestionSet struct {
	Questions []generatedQuestion `json:"questions"`
}

// parseQuestionSet parses and validates a model response. It tolerates
// markdown code fences and prose around the JSON body.
func parseQuestionSet(content string) (generatedQuestionSet, error) {
	raw, err := parseStructuredJSON(content)
	if err != nil {
		return generatedQuestionSet{}, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return generatedQuestionSet{}, fmt.Errorf("failed to decode question set: %w", err)
	}
	if err := compiledQuestionSchema.Validate(doc); err != nil {
		return generatedQuestionSet{}, fmt.Errorf("question set does not match schema: %w", err)
	}

	var set generatedQuestionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return generatedQuestionSet{}, fmt.Errorf("failed to decode question set: %w", err)
	}

	for i, q := range set.Questions {
		if !containsOption(q.Options, q.CorrectAnswer) {
			return generatedQuestionSet{}, fmt.Errorf("question %d: correct_answer %q is not one of the options", i+1, q.CorrectAnswer)
		}
	}
	return set, nil
}

func containsOption(options []string, answer string) bool {
	for _, opt := range options {
		if opt == answer {
			return true
		}
	}
	return false
}

// parseStructuredJSON parses JSON from model output, with lightweight
// recovery for markdown code fences and surrounding text.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty model output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, fmt.Errorf("failed to parse JSON from model output")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop the opening fence line, then a trailing fence if present.
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(trimmed, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}
