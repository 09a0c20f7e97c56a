package quiz

import (
	"fmt"
	"testing"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// tenQuestions builds a 10-question set where the correct answer to question
// qN is "right-N".
func tenQuestions() []types.QuizQuestion {
	qs := make([]types.QuizQuestion, 0, 10)
	for i := 1; i <= 10; i++ {
		correct := fmt.Sprintf("right-%d", i)
		qs = append(qs, types.QuizQuestion{
			ID:            fmt.Sprintf("q%d", i),
			Question:      fmt.Sprintf("question %d", i),
			Options:       []string{correct, "wrong-a", "wrong-b", "wrong-c"},
			CorrectAnswer: correct,
			TopicCovered:  fmt.Sprintf("topic-%d", (i-1)/2+1),
		})
	}
	return qs
}

// answersWithCorrect submits answers where the first n are correct.
func answersWithCorrect(n int) []types.SubmittedAnswer {
	subs := make([]types.SubmittedAnswer, 0, 10)
	for i := 1; i <= 10; i++ {
		selected := "wrong-a"
		if i <= n {
			selected = fmt.Sprintf("right-%d", i)
		}
		subs = append(subs, types.SubmittedAnswer{
			QuestionID:     fmt.Sprintf("q%d", i),
			SelectedAnswer: selected,
		})
	}
	return subs
}

// TestGrade_PassThreshold verifies 6/10 passes and 5/10 fails.
func TestGrade_PassThreshold(t *testing.T) {
	g := NewGrader(GraderConfig{})
	qs := tenQuestions()

	tests := []struct {
		name       string
		correct    int
		wantPassed bool
	}{
		{"six of ten passes", 6, true},
		{"five of ten fails", 5, false},
		{"ten of ten passes", 10, true},
		{"zero of ten fails", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Grade(qs, answersWithCorrect(tt.correct))
			if res.Score != tt.correct {
				t.Errorf("Score = %d, want %d", res.Score, tt.correct)
			}
			if res.TotalQuestions != 10 {
				t.Errorf("TotalQuestions = %d, want 10", res.TotalQuestions)
			}
			if res.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v", res.Passed, tt.wantPassed)
			}
		})
	}
}

// TestGrade_ProportionalThreshold verifies the 60% reinterpretation when the
// total differs from the assumed 10.
func TestGrade_ProportionalThreshold(t *testing.T) {
	g := NewGrader(GraderConfig{})

	tests := []struct {
		name       string
		total      int
		correct    int
		wantPassed bool
	}{
		{"3 of 5 passes", 5, 3, true},
		{"2 of 5 fails", 5, 2, false},
		{"12 of 20 passes", 20, 12, true},
		{"11 of 20 fails", 20, 11, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var qs []types.QuizQuestion
			var subs []types.SubmittedAnswer
			for i := 1; i <= tt.total; i++ {
				correct := fmt.Sprintf("c-%d", i)
				qs = append(qs, types.QuizQuestion{
					ID:            fmt.Sprintf("q%d", i),
					Options:       []string{correct, "x", "y", "z"},
					CorrectAnswer: correct,
				})
				selected := "x"
				if i <= tt.correct {
					selected = correct
				}
				subs = append(subs, types.SubmittedAnswer{QuestionID: fmt.Sprintf("q%d", i), SelectedAnswer: selected})
			}

			res := g.Grade(qs, subs)
			if res.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v (%d/%d)", res.Passed, tt.wantPassed, tt.correct, tt.total)
			}
		})
	}
}

// TestGrade_WeakTopics verifies deduplicated weak topics in first-occurrence
// order.
func TestGrade_WeakTopics(t *testing.T) {
	g := NewGrader(GraderConfig{})
	qs := tenQuestions() // topics: q1,q2 -> topic-1; q3,q4 -> topic-2; ...

	// Miss q3, q4 (topic-2) and q9 (topic-5).
	subs := answersWithCorrect(10)
	subs[2].SelectedAnswer = "wrong-a"
	subs[3].SelectedAnswer = "wrong-a"
	subs[8].SelectedAnswer = "wrong-a"

	res := g.Grade(qs, subs)
	if res.Score != 7 {
		t.Fatalf("Score = %d, want 7", res.Score)
	}
	want := []string{"topic-2", "topic-5"}
	if len(res.WeakTopics) != len(want) {
		t.Fatalf("WeakTopics = %v, want %v", res.WeakTopics, want)
	}
	for i := range want {
		if res.WeakTopics[i] != want[i] {
			t.Errorf("WeakTopics[%d] = %q, want %q", i, res.WeakTopics[i], want[i])
		}
	}
}

// TestGrade_UnknownQuestionID verifies an unknown ID grades as incorrect with
// the correct answer left unresolved, without aborting the rest.
func TestGrade_UnknownQuestionID(t *testing.T) {
	g := NewGrader(GraderConfig{})
	qs := tenQuestions()

	subs := answersWithCorrect(10)
	subs[0].QuestionID = "missing-question"

	res := g.Grade(qs, subs)
	if res.Score != 9 {
		t.Errorf("Score = %d, want 9", res.Score)
	}
	if res.Answers[0].IsCorrect {
		t.Error("unknown question graded correct, want incorrect")
	}
	if res.Answers[0].CorrectAnswer != "" {
		t.Errorf("CorrectAnswer = %q, want unresolved", res.Answers[0].CorrectAnswer)
	}
	if len(res.Answers) != 10 {
		t.Errorf("graded %d answers, want all 10", len(res.Answers))
	}
}

// TestGrade_ExactStringEquality verifies no normalization is applied to
// answer comparison.
func TestGrade_ExactStringEquality(t *testing.T) {
	g := NewGrader(GraderConfig{})
	qs := []types.QuizQuestion{{
		ID:            "q1",
		Options:       []string{"Bernoulli's principle", "newton", "magnus", "coanda"},
		CorrectAnswer: "Bernoulli's principle",
	}}

	res := g.Grade(qs, []types.SubmittedAnswer{{QuestionID: "q1", SelectedAnswer: "bernoulli's principle"}})
	if res.Answers[0].IsCorrect {
		t.Error("case-differing answer graded correct, want exact equality")
	}
}
