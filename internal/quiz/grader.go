// Package quiz grades chapter quizzes and obtains quiz questions from the
// external generation collaborator.
package quiz

import (
	"github.com/rajyashhh/quill-bot/internal/types"
)

// Grading defaults: pass requires 6 of an assumed 10 questions. The threshold
// is a fixed policy, not a percentage; when an attempt's total differs from
// the assumed count it is reinterpreted proportionally (at least 60%).
const (
	DefaultPassScore     = 6
	DefaultQuestionCount = 10
)

// GraderConfig tunes grading. Zero values fall back to the defaults above.
type GraderConfig struct {
	PassScore     int
	QuestionCount int
}

func (c GraderConfig) withDefaults() GraderConfig {
	if c.PassScore == 0 {
		c.PassScore = DefaultPassScore
	}
	if c.QuestionCount == 0 {
		c.QuestionCount = DefaultQuestionCount
	}
	return c
}

// Result is the outcome of grading one submission.
type Result struct {
	Score          int
	TotalQuestions int
	Passed         bool
	WeakTopics     []string
	Answers        []types.GradedAnswer
}

// Grader grades submitted answers against stored questions.
type Grader struct {
	cfg GraderConfig
}

// NewGrader creates a Grader.
func NewGrader(cfg GraderConfig) *Grader {
	return &Grader{cfg: cfg.withDefaults()}
}

// Grade checks each submitted answer against its question by ID. Correctness
// is exact string equality: the option text itself is the canonical identity
// of a choice, so no normalization is applied. A submitted question ID with
// no stored question grades as incorrect with the correct answer left
// unresolved; it never aborts grading of the remaining answers.
func (g *Grader) Grade(questions []types.QuizQuestion, submitted []types.SubmittedAnswer) Result {
	byID := make(map[string]types.QuizQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	res := Result{TotalQuestions: len(submitted)}
	seenWeak := make(map[string]bool)

	for _, ans := range submitted {
		graded := types.GradedAnswer{
			QuestionID:     ans.QuestionID,
			SelectedAnswer: ans.SelectedAnswer,
		}

		if q, ok := byID[ans.QuestionID]; ok {
			graded.CorrectAnswer = q.CorrectAnswer
			graded.TopicCovered = q.TopicCovered
			graded.IsCorrect = ans.SelectedAnswer == q.CorrectAnswer
		}

		if graded.IsCorrect {
			res.Score++
		} else if graded.TopicCovered != "" && !seenWeak[graded.TopicCovered] {
			// Weak topics keep first-occurrence order.
			seenWeak[graded.TopicCovered] = true
			res.WeakTopics = append(res.WeakTopics, graded.TopicCovered)
		}

		res.Answers = append(res.Answers, graded)
	}

	res.Passed = g.passed(res.Score, res.TotalQuestions)
	return res
}

// passed applies the threshold. For the assumed question count the fixed
// score applies; any other total uses the equivalent proportion.
func (g *Grader) passed(score, total int) bool {
	if total <= 0 {
		return false
	}
	if total == g.cfg.QuestionCount {
		return score >= g.cfg.PassScore
	}
	return score*g.cfg.QuestionCount >= g.cfg.PassScore*total
}
