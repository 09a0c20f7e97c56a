package store

import (
	"encoding/json"
	"time"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// chapterRecord is the persisted chapter row.
type chapterRecord struct {
	ID            string `gorm:"primaryKey"`
	DocumentID    string `gorm:"uniqueIndex:idx_doc_chapter;index"`
	ChapterNumber int    `gorm:"uniqueIndex:idx_doc_chapter"`
	Title         string
	StartOffset   int
	EndOffset     int
	StartPage     int
	EndPage       int
	Content       string
}

// topicRecord is the persisted topic row, owned by exactly one chapter.
type topicRecord struct {
	ID                   uint   `gorm:"primaryKey;autoIncrement"`
	ChapterID            string `gorm:"uniqueIndex:idx_chapter_topic;index"`
	TopicNumber          int    `gorm:"uniqueIndex:idx_chapter_topic"`
	Title                string
	Content              string
	EstimatedTimeMinutes int
}

// learningStateRecord is the persisted per-session state. List fields are
// stored as JSON text; Version backs the optimistic compare-and-update.
type learningStateRecord struct {
	SessionKey        string `gorm:"primaryKey"`
	DocumentID        string `gorm:"index"`
	CurrentChapter    int
	CurrentTopic      int
	Phase             string
	MessageCount      int
	ChaptersCompleted string
	QuizzesPassed     string
	NeedsReview       bool
	ReviewTopics      string
	LastInteraction   time.Time
	Version           int64
}

// progressRecord is the long-lived per-document position.
type progressRecord struct {
	DocumentID  string `gorm:"primaryKey"`
	LastChapter int
	LastTopic   int
	UpdatedAt   time.Time
}

// questionRecord is a cached generated quiz question.
type questionRecord struct {
	ID            string `gorm:"primaryKey"`
	DocumentID    string `gorm:"index:idx_doc_chapter_q"`
	ChapterNumber int    `gorm:"index:idx_doc_chapter_q"`
	Question      string
	Options       string
	CorrectAnswer string
	Explanation   string
	Difficulty    string
	TopicCovered  string
	Position      int
}

// attemptRecord is an immutable, append-only quiz attempt.
type attemptRecord struct {
	ID             string `gorm:"primaryKey"`
	DocumentID     string `gorm:"index"`
	ChapterNumber  int    `gorm:"index:idx_session_chapter"`
	SessionKey     string `gorm:"index:idx_session_chapter"`
	Score          int
	TotalQuestions int
	Answers        string
	WeakTopics     string
	Passed         bool
	CreatedAt      time.Time
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func unmarshalInts(s string) []int {
	var out []int
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func unmarshalStrings(s string) []string {
	var out []string
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func toStateRecord(s types.LearningState) learningStateRecord {
	return learningStateRecord{
		SessionKey:        s.SessionKey,
		DocumentID:        s.DocumentID,
		CurrentChapter:    s.CurrentChapter,
		CurrentTopic:      s.CurrentTopic,
		Phase:             string(s.Phase),
		MessageCount:      s.MessageCount,
		ChaptersCompleted: marshalJSON(s.ChaptersCompleted),
		QuizzesPassed:     marshalJSON(s.QuizzesPassed),
		NeedsReview:       s.NeedsReview,
		ReviewTopics:      marshalJSON(s.ReviewTopics),
		LastInteraction:   s.LastInteraction,
		Version:           s.Version,
	}
}

func fromStateRecord(r learningStateRecord) types.LearningState {
	return types.LearningState{
		SessionKey:        r.SessionKey,
		DocumentID:        r.DocumentID,
		CurrentChapter:    r.CurrentChapter,
		CurrentTopic:      r.CurrentTopic,
		Phase:             types.ParsePhase(r.Phase),
		MessageCount:      r.MessageCount,
		ChaptersCompleted: unmarshalInts(r.ChaptersCompleted),
		QuizzesPassed:     unmarshalInts(r.QuizzesPassed),
		NeedsReview:       r.NeedsReview,
		ReviewTopics:      unmarshalStrings(r.ReviewTopics),
		LastInteraction:   r.LastInteraction,
		Version:           r.Version,
	}
}

func toQuestionRecord(q types.QuizQuestion, position int) questionRecord {
	return questionRecord{
		ID:            q.ID,
		DocumentID:    q.DocumentID,
		ChapterNumber: q.ChapterNumber,
		Question:      q.Question,
		Options:       marshalJSON(q.Options),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Difficulty:    q.Difficulty,
		TopicCovered:  q.TopicCovered,
		Position:      position,
	}
}

func fromQuestionRecord(r questionRecord) types.QuizQuestion {
	return types.QuizQuestion{
		ID:            r.ID,
		DocumentID:    r.DocumentID,
		ChapterNumber: r.ChapterNumber,
		Question:      r.Question,
		Options:       unmarshalStrings(r.Options),
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Difficulty:    r.Difficulty,
		TopicCovered:  r.TopicCovered,
	}
}

func toAttemptRecord(a types.QuizAttempt) attemptRecord {
	return attemptRecord{
		ID:             a.ID,
		DocumentID:     a.DocumentID,
		ChapterNumber:  a.ChapterNumber,
		SessionKey:     a.SessionKey,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		Answers:        marshalJSON(a.Answers),
		WeakTopics:     marshalJSON(a.WeakTopics),
		Passed:         a.Passed,
		CreatedAt:      a.CreatedAt,
	}
}

func fromAttemptRecord(r attemptRecord) types.QuizAttempt {
	var answers []types.GradedAnswer
	if r.Answers != "" {
		_ = json.Unmarshal([]byte(r.Answers), &answers)
	}
	return types.QuizAttempt{
		ID:             r.ID,
		DocumentID:     r.DocumentID,
		ChapterNumber:  r.ChapterNumber,
		SessionKey:     r.SessionKey,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Answers:        answers,
		WeakTopics:     unmarshalStrings(r.WeakTopics),
		Passed:         r.Passed,
		CreatedAt:      r.CreatedAt,
	}
}
