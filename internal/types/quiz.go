package types

import "time"

// QuizQuestion is a multiple-choice question for one chapter. Questions are
// produced by an external generation collaborator and cached per
// (documentID, chapterNumber); regeneration happens only on explicit retry.
// CorrectAnswer equals one of Options verbatim: the option text itself is the
// canonical identity of a choice.
type QuizQuestion struct {
	ID            string   `json:"id"`
	DocumentID    string   `json:"document_id"`
	ChapterNumber int      `json:"chapter_number"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	TopicCovered  string   `json:"topic_covered,omitempty"`
}

// SubmittedAnswer is one answer in a quiz submission.
type SubmittedAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
}

// GradedAnswer is the grading outcome for a single submitted answer.
// CorrectAnswer is left empty when the question ID did not resolve.
type GradedAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	CorrectAnswer  string `json:"correct_answer,omitempty"`
	IsCorrect      bool   `json:"is_correct"`
	TopicCovered   string `json:"topic_covered,omitempty"`
}

// QuizAttempt is one graded quiz submission. Attempts are immutable and
// append-only per (sessionKey, chapterNumber); the attempt record is
// authoritative for replaying the state transition after a crash.
type QuizAttempt struct {
	ID             string         `json:"id"`
	DocumentID     string         `json:"document_id"`
	ChapterNumber  int            `json:"chapter_number"`
	SessionKey     string         `json:"session_key"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Answers        []GradedAnswer `json:"answers"`
	WeakTopics     []string       `json:"weak_topics"`
	Passed         bool           `json:"passed"`
	CreatedAt      time.Time      `json:"created_at"`
}
