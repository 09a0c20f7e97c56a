package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rajyashhh/quill-bot/internal/types"
)

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "quill.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

// TestGormStructureRoundTrip verifies chapters and topics survive a
// replace-then-read through sqlite, including topic ordering.
func TestGormStructureRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	chapters := []types.Chapter{
		{ChapterNumber: 2, Title: "Aerodynamics", StartOffset: 5000, EndOffset: 12000, StartPage: 15, EndPage: 40, Content: "lift and drag"},
		{ChapterNumber: 1, Title: "Introduction", StartOffset: 0, EndOffset: 4999, StartPage: 1, EndPage: 14, Content: "welcome"},
	}
	topics := map[int][]types.Topic{
		2: {
			{TopicNumber: 1, Title: "Lift", Content: "lift", EstimatedTimeMinutes: 3},
			{TopicNumber: 2, Title: "Drag", Content: "drag", EstimatedTimeMinutes: 2},
		},
	}
	if err := s.ReplaceStructure(ctx, "doc-1", chapters, topics); err != nil {
		t.Fatalf("ReplaceStructure: %v", err)
	}

	got, err := s.Chapters(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if len(got) != 2 || got[0].ChapterNumber != 1 || got[1].ChapterNumber != 2 {
		t.Fatalf("expected chapters ordered 1,2, got %+v", got)
	}
	if got[1].StartOffset != 5000 || got[1].EndOffset != 12000 {
		t.Errorf("chapter 2 offsets did not round-trip: %+v", got[1])
	}

	topicList, err := s.Topics(ctx, "doc-1", 2)
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	if len(topicList) != 2 || topicList[0].Title != "Lift" || topicList[1].Title != "Drag" {
		t.Errorf("expected topics [Lift Drag], got %+v", topicList)
	}

	counts, err := s.TopicCounts(ctx, "doc-1")
	if err != nil {
		t.Fatalf("TopicCounts: %v", err)
	}
	if counts[2] != 2 {
		t.Errorf("expected 2 topics in chapter 2, got %v", counts)
	}
}

// TestGormLearningStateConflict verifies the compare-and-update semantics
// hold through the database, not just the in-memory store.
func TestGormLearningStateConflict(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := s.CreateLearningState(ctx, types.LearningState{
		SessionKey:     "sess-1",
		DocumentID:     "doc-1",
		CurrentChapter: 1,
		CurrentTopic:   1,
		Phase:          types.PhaseIntroduction,
		ReviewTopics:   []string{"Lift"},
	})
	if err != nil {
		t.Fatalf("CreateLearningState: %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("expected version 1, got %d", created.Version)
	}

	loaded, err := s.LearningState(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LearningState: %v", err)
	}
	if len(loaded.ReviewTopics) != 1 || loaded.ReviewTopics[0] != "Lift" {
		t.Errorf("review topics did not round-trip: %+v", loaded.ReviewTopics)
	}

	loaded.Phase = types.PhaseLearning
	updated, err := s.UpdateLearningState(ctx, loaded)
	if err != nil {
		t.Fatalf("UpdateLearningState: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}

	stale := created
	if _, err := s.UpdateLearningState(ctx, stale); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict for stale update, got %v", err)
	}
}

// TestGormAttempts verifies attempt append-only semantics and graded-answer
// round-tripping through the JSON columns.
func TestGormAttempts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	attempt := types.QuizAttempt{
		ID:             "a1",
		DocumentID:     "doc-1",
		ChapterNumber:  1,
		SessionKey:     "sess-1",
		Score:          4,
		TotalQuestions: 10,
		Answers: []types.GradedAnswer{
			{QuestionID: "q1", SelectedAnswer: "B", CorrectAnswer: "A", IsCorrect: false, TopicCovered: "Lift"},
		},
		WeakTopics: []string{"Lift"},
		Passed:     false,
	}
	if err := s.CreateAttempt(ctx, attempt); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}

	latest, err := s.LatestAttempt(ctx, "sess-1", 1)
	if err != nil {
		t.Fatalf("LatestAttempt: %v", err)
	}
	if latest.Score != 4 || latest.Passed {
		t.Errorf("attempt fields did not round-trip: %+v", latest)
	}
	if len(latest.Answers) != 1 || latest.Answers[0].CorrectAnswer != "A" {
		t.Errorf("graded answers did not round-trip: %+v", latest.Answers)
	}
	if len(latest.WeakTopics) != 1 || latest.WeakTopics[0] != "Lift" {
		t.Errorf("weak topics did not round-trip: %+v", latest.WeakTopics)
	}
}
