package types

import "time"

// Phase is the tutoring phase within the current chapter.
type Phase string

const (
	// PhaseIntroduction is a single-turn orientation for a newly entered chapter.
	PhaseIntroduction Phase = "introduction"
	// PhaseLearning is the default teaching phase for the current topic.
	PhaseLearning Phase = "learning"
	// PhaseReview is entered after a failed quiz; the only way forward is re-taking it.
	PhaseReview Phase = "review"
	// PhaseQuizReady means the chapter is fully taught and gated on the quiz.
	PhaseQuizReady Phase = "quiz-ready"
)

// ParsePhase converts a string to a Phase.
// Returns PhaseIntroduction if the string is not recognized.
func ParsePhase(s string) Phase {
	switch s {
	case string(PhaseLearning):
		return PhaseLearning
	case string(PhaseReview):
		return PhaseReview
	case string(PhaseQuizReady):
		return PhaseQuizReady
	case string(PhaseIntroduction):
		return PhaseIntroduction
	default:
		return PhaseIntroduction
	}
}

// LearningState is the per-session tutoring state. One record exists per
// opaque session key supplied by the client; it is created lazily on first
// access and mutated by every tutoring interaction and quiz submission.
// Version supports optimistic compare-and-update at the store boundary.
type LearningState struct {
	SessionKey        string    `json:"session_key"`
	DocumentID        string    `json:"document_id"`
	CurrentChapter    int       `json:"current_chapter"`
	CurrentTopic      int       `json:"current_topic"`
	Phase             Phase     `json:"phase"`
	MessageCount      int       `json:"message_count"`
	ChaptersCompleted []int     `json:"chapters_completed"`
	QuizzesPassed     []int     `json:"quizzes_passed"`
	NeedsReview       bool      `json:"needs_review"`
	ReviewTopics      []string  `json:"review_topics"`
	LastInteraction   time.Time `json:"last_interaction"`
	Version           int64     `json:"-"`
}

// StudentProgress is the longer-lived per-document position record, keyed by
// document only. It lets a new session resume where a prior one left off.
type StudentProgress struct {
	DocumentID  string    `json:"document_id"`
	LastChapter int       `json:"last_chapter"`
	LastTopic   int       `json:"last_topic"`
	UpdatedAt   time.Time `json:"updated_at"`
}
