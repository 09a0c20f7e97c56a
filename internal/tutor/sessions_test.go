package tutor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rajyashhh/quill-bot/internal/quiz"
	"github.com/rajyashhh/quill-bot/internal/retrieval"
	"github.com/rajyashhh/quill-bot/internal/store"
	"github.com/rajyashhh/quill-bot/internal/types"
)

// fixedGenerator returns two questions about the chapter it is asked for.
type fixedGenerator struct{}

func (fixedGenerator) Generate(ctx context.Context, req quiz.GenerateRequest) ([]types.QuizQuestion, error) {
	return []types.QuizQuestion{
		{
			ID:            "q1",
			DocumentID:    req.DocumentID,
			ChapterNumber: req.ChapterNumber,
			Question:      "What generates lift?",
			Options:       []string{"Pressure differential", "Gravity"},
			CorrectAnswer: "Pressure differential",
			TopicCovered:  "Lift",
		},
		{
			ID:            "q2",
			DocumentID:    req.DocumentID,
			ChapterNumber: req.ChapterNumber,
			Question:      "What is drag?",
			Options:       []string{"Resistance to motion", "Forward thrust"},
			CorrectAnswer: "Resistance to motion",
			TopicCovered:  "Drag",
		},
	}, nil
}

func newTestManager(t *testing.T, st *store.Memory, retriever retrieval.Retriever) *Manager {
	t.Helper()
	quizzes := quiz.NewService(st, fixedGenerator{}, 2, nil)
	grader := quiz.NewGrader(quiz.GraderConfig{PassScore: 6, QuestionCount: 10})
	return NewManager(st, quizzes, grader, retriever, nil)
}

func seedStructure(t *testing.T, st *store.Memory) {
	t.Helper()
	chapters := []types.Chapter{
		{ChapterNumber: 1, Title: "Introduction", StartPage: 1, EndPage: 14, Content: "welcome"},
		{ChapterNumber: 2, Title: "Basic Aerodynamics", StartPage: 15, EndPage: 40, Content: "lift and drag"},
	}
	topics := map[int][]types.Topic{
		1: {
			{TopicNumber: 1, Title: "Overview", Content: "overview text"},
			{TopicNumber: 2, Title: "How to Use This Book", Content: "usage text"},
		},
		2: {
			{TopicNumber: 1, Title: "Lift", Content: "lift text"},
		},
	}
	if err := st.ReplaceStructure(context.Background(), "doc-1", chapters, topics); err != nil {
		t.Fatalf("ReplaceStructure: %v", err)
	}
}

// TestSessionBootstrap verifies first access creates a fresh session and a
// later session for the same document resumes from stored progress.
func TestSessionBootstrap(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedStructure(t, st)
	m := newTestManager(t, st, nil)

	state, err := m.Session(ctx, "sess-1", "doc-1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if state.CurrentChapter != 1 || state.CurrentTopic != 1 || state.Phase != types.PhaseIntroduction {
		t.Fatalf("expected fresh session at 1/1 introduction, got %+v", state)
	}

	// Make some progress, then open a brand-new session key.
	if _, err := m.CompleteTopic(ctx, "sess-1", "doc-1"); err != nil {
		t.Fatalf("CompleteTopic: %v", err)
	}

	resumed, err := m.Session(ctx, "sess-2", "doc-1")
	if err != nil {
		t.Fatalf("Session (resumed): %v", err)
	}
	if resumed.CurrentTopic != 2 {
		t.Errorf("expected resumed session at topic 2, got %+v", resumed)
	}
	if resumed.Phase != types.PhaseLearning {
		t.Errorf("expected resumed session to skip the introduction, got phase %s", resumed.Phase)
	}
}

// TestTurnAndPrompt verifies a turn leaves the introduction, persists the
// bumped message count, and builds a prompt with retrieval passages merged.
func TestTurnAndPrompt(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedStructure(t, st)
	retriever := retrieval.NewMockRetriever(types.Passage{Text: "Welcome to flight.", PageNumber: 2, Score: 0.9})
	m := newTestManager(t, st, retriever)

	res, err := m.Turn(ctx, "sess-1", "doc-1")
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if res.State.Phase != types.PhaseLearning {
		t.Errorf("expected introduction to end after one turn, got %s", res.State.Phase)
	}
	if res.State.MessageCount != 1 {
		t.Errorf("expected message count 1, got %d", res.State.MessageCount)
	}
	if !strings.Contains(res.Prompt, "[page 2] Welcome to flight.") {
		t.Errorf("prompt missing retrieved passage:\n%s", res.Prompt)
	}

	q := retriever.LastQuery()
	if q == nil || q.EndPage != 14 {
		t.Errorf("expected retrieval scoped to chapter pages, got %+v", q)
	}

	stored, err := st.LearningState(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LearningState: %v", err)
	}
	if stored.MessageCount != 1 || stored.LastInteraction.IsZero() {
		t.Errorf("expected persisted state with interaction time, got %+v", stored)
	}
}

// TestSkipRefusedWithoutError verifies a skip request surfaces guidance and
// changes nothing.
func TestSkipRefusedWithoutError(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedStructure(t, st)
	m := newTestManager(t, st, nil)

	res, err := m.RequestSkip(ctx, "sess-1", "doc-1")
	if err != nil {
		t.Fatalf("RequestSkip: %v", err)
	}
	if res.Refusal != RefusalTopicsRemain {
		t.Errorf("expected topics_remain refusal, got %q", res.Refusal)
	}
	if res.State.CurrentTopic != 1 || res.State.Phase != types.PhaseIntroduction {
		t.Errorf("skip changed the state: %+v", res.State)
	}
	if !strings.Contains(res.Prompt, "Decline gently") {
		t.Errorf("prompt missing refusal guidance:\n%s", res.Prompt)
	}
}

// TestQuizLifecycle runs the full gate: finish the chapter's topics, take
// the quiz, fail into review, then pass into the next chapter.
func TestQuizLifecycle(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedStructure(t, st)
	m := newTestManager(t, st, nil)

	// Chapter 1 has two topics.
	if _, err := m.CompleteTopic(ctx, "sess-1", "doc-1"); err != nil {
		t.Fatalf("CompleteTopic: %v", err)
	}
	res, err := m.CompleteTopic(ctx, "sess-1", "doc-1")
	if err != nil {
		t.Fatalf("CompleteTopic (last): %v", err)
	}
	if res.State.Phase != types.PhaseQuizReady {
		t.Fatalf("expected quiz-ready after last topic, got %s", res.State.Phase)
	}

	questions, err := m.Quiz(ctx, "sess-1", "doc-1", false)
	if err != nil {
		t.Fatalf("Quiz: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	// Both answers wrong: 0/2 is below the proportional threshold.
	fail, err := m.SubmitQuiz(ctx, "sess-1", "doc-1", []types.SubmittedAnswer{
		{QuestionID: "q1", SelectedAnswer: "Gravity"},
		{QuestionID: "q2", SelectedAnswer: "Forward thrust"},
	})
	if err != nil {
		t.Fatalf("SubmitQuiz (fail): %v", err)
	}
	if fail.Attempt.Passed {
		t.Fatal("expected failing attempt")
	}
	if fail.State.Phase != types.PhaseReview || !fail.State.NeedsReview {
		t.Errorf("expected review phase after failure, got %+v", fail.State)
	}
	if len(fail.State.ReviewTopics) != 2 || fail.State.ReviewTopics[0] != "Lift" {
		t.Errorf("expected weak topics [Lift Drag], got %v", fail.State.ReviewTopics)
	}

	// Advancing out of review is refused.
	blocked, err := m.RequestAdvance(ctx, "sess-1", "doc-1")
	if err != nil {
		t.Fatalf("RequestAdvance: %v", err)
	}
	if blocked.Refusal != RefusalReviewRequired {
		t.Errorf("expected review_required refusal, got %q", blocked.Refusal)
	}

	// Re-take and pass: 2/2 clears the proportional threshold.
	pass, err := m.SubmitQuiz(ctx, "sess-1", "doc-1", []types.SubmittedAnswer{
		{QuestionID: "q1", SelectedAnswer: "Pressure differential"},
		{QuestionID: "q2", SelectedAnswer: "Resistance to motion"},
	})
	if err != nil {
		t.Fatalf("SubmitQuiz (pass): %v", err)
	}
	if !pass.Attempt.Passed {
		t.Fatal("expected passing attempt")
	}
	if pass.State.CurrentChapter != 2 || pass.State.CurrentTopic != 1 || pass.State.Phase != types.PhaseIntroduction {
		t.Errorf("expected chapter 2 introduction after pass, got %+v", pass.State)
	}
	if pass.State.NeedsReview || len(pass.State.ReviewTopics) != 0 {
		t.Errorf("expected review flags cleared after pass, got %+v", pass.State)
	}

	attempts, err := st.Attempts(ctx, "sess-1", 1)
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Errorf("expected both attempts recorded, got %d", len(attempts))
	}
}

// TestSubmitQuizDeclinedWhileLearning verifies an early submission is refused
// by phase policy without grading or recording an attempt.
func TestSubmitQuizDeclinedWhileLearning(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedStructure(t, st)
	m := newTestManager(t, st, nil)

	// One turn in: learning phase, topic 1 of 2 still untaught.
	if _, err := m.Turn(ctx, "sess-1", "doc-1"); err != nil {
		t.Fatalf("Turn: %v", err)
	}

	res, err := m.SubmitQuiz(ctx, "sess-1", "doc-1", []types.SubmittedAnswer{
		{QuestionID: "q1", SelectedAnswer: "Pressure differential"},
		{QuestionID: "q2", SelectedAnswer: "Resistance to motion"},
	})
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if res.Refusal != RefusalTopicsRemain {
		t.Errorf("Refusal = %q, want %q", res.Refusal, RefusalTopicsRemain)
	}
	if res.State.CurrentChapter != 1 || res.State.Phase != types.PhaseLearning {
		t.Errorf("state changed on declined submission: %+v", res.State)
	}

	attempts, err := st.Attempts(ctx, "sess-1", 1)
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("recorded %d attempts for a declined submission, want 0", len(attempts))
	}
}

// TestReplayAttempt verifies crash recovery: an attempt recorded without its
// state transition replays exactly once.
func TestReplayAttempt(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedStructure(t, st)
	m := newTestManager(t, st, nil)

	if _, err := m.Session(ctx, "sess-1", "doc-1"); err != nil {
		t.Fatalf("Session: %v", err)
	}

	// Simulate a crash after the attempt write but before the state write.
	orphan := types.QuizAttempt{
		ID:             "orphan",
		DocumentID:     "doc-1",
		ChapterNumber:  1,
		SessionKey:     "sess-1",
		Score:          8,
		TotalQuestions: 10,
		Passed:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := st.CreateAttempt(ctx, orphan); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}

	replayed, err := m.ReplayAttempt(ctx, "sess-1", "doc-1", 1)
	if err != nil {
		t.Fatalf("ReplayAttempt: %v", err)
	}
	if replayed.CurrentChapter != 2 {
		t.Fatalf("expected replay to unlock chapter 2, got %+v", replayed)
	}

	// A second replay is a no-op.
	again, err := m.ReplayAttempt(ctx, "sess-1", "doc-1", 1)
	if err != nil {
		t.Fatalf("ReplayAttempt (again): %v", err)
	}
	if again.CurrentChapter != 2 || len(again.QuizzesPassed) != 1 {
		t.Errorf("expected idempotent replay, got %+v", again)
	}
}
