package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajyashhh/quill-bot/internal/quiz"
	"github.com/rajyashhh/quill-bot/internal/retrieval"
	"github.com/rajyashhh/quill-bot/internal/store"
	"github.com/rajyashhh/quill-bot/internal/types"
)

// casAttempts bounds the optimistic-update retry loop. The per-key mutex
// serializes writers in this process; the loop covers concurrent processes
// sharing one database.
const casAttempts = 3

// retrievalLimit is how many passages a turn merges into its prompt.
const retrievalLimit = 5

// Manager coordinates tutoring sessions: it loads or bootstraps state,
// applies events through the state machine, persists the result, and builds
// the per-turn prompt.
type Manager struct {
	store     store.Store
	quizzes   *quiz.Service
	grader    *quiz.Grader
	retriever retrieval.Retriever // optional
	logger    *slog.Logger

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

// NewManager creates a Manager. retriever may be nil; prompts then carry no
// retrieved passages.
func NewManager(st store.Store, quizzes *quiz.Service, grader *quiz.Grader, retriever retrieval.Retriever, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     st,
		quizzes:   quizzes,
		grader:    grader,
		retriever: retriever,
		logger:    logger,
		keys:      make(map[string]*sync.Mutex),
	}
}

// TurnResult is the outcome of one interaction: the persisted state, the
// prompt for the model call, and any policy refusal that shaped it.
type TurnResult struct {
	State   types.LearningState
	Prompt  string
	Refusal Refusal
}

// QuizResult is the outcome of a quiz submission. A non-empty Refusal means
// the submission was declined by phase policy and no attempt was recorded.
type QuizResult struct {
	Attempt types.QuizAttempt
	State   types.LearningState
	Refusal Refusal
}

// sessionLock returns the mutex serializing one session key.
func (m *Manager) sessionLock(sessionKey string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.keys[sessionKey]
	if !ok {
		lock = &sync.Mutex{}
		m.keys[sessionKey] = lock
	}
	return lock
}

// Session returns the state for a session key, creating it on first access.
// A brand-new session with prior per-document progress resumes from that
// position in the learning phase; otherwise it starts at chapter 1 in the
// introduction.
func (m *Manager) Session(ctx context.Context, sessionKey, documentID string) (types.LearningState, error) {
	lock := m.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()
	return m.loadOrBootstrap(ctx, sessionKey, documentID)
}

func (m *Manager) loadOrBootstrap(ctx context.Context, sessionKey, documentID string) (types.LearningState, error) {
	state, err := m.store.LearningState(ctx, sessionKey)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.LearningState{}, fmt.Errorf("failed to load session: %w", err)
	}

	fresh := NewState(sessionKey, documentID)
	progress, err := m.store.Progress(ctx, documentID)
	if err == nil {
		fresh = ResumeState(sessionKey, documentID, progress)
		m.logger.Info("resuming session from prior progress",
			"session_key", sessionKey,
			"chapter", fresh.CurrentChapter,
			"topic", fresh.CurrentTopic)
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.LearningState{}, fmt.Errorf("failed to load progress: %w", err)
	}

	created, err := m.store.CreateLearningState(ctx, fresh)
	if err != nil {
		return types.LearningState{}, fmt.Errorf("failed to create session: %w", err)
	}
	return created, nil
}

// Turn applies one tutoring exchange and returns the prompt for it.
func (m *Manager) Turn(ctx context.Context, sessionKey, documentID string) (TurnResult, error) {
	return m.apply(ctx, sessionKey, documentID, Event{Type: EventTurn})
}

// CompleteTopic marks the current topic as mastered, advancing to the next
// topic or to quiz-ready on the chapter's last topic.
func (m *Manager) CompleteTopic(ctx context.Context, sessionKey, documentID string) (TurnResult, error) {
	return m.apply(ctx, sessionKey, documentID, Event{Type: EventTopicComplete})
}

// RequestSkip records a skip-ahead request. It never changes phase; the
// result carries the refusal guidance for the prompt.
func (m *Manager) RequestSkip(ctx context.Context, sessionKey, documentID string) (TurnResult, error) {
	return m.apply(ctx, sessionKey, documentID, Event{Type: EventSkipRequest})
}

// RequestAdvance records a next-chapter request. Like skips it is refused by
// policy, never an error.
func (m *Manager) RequestAdvance(ctx context.Context, sessionKey, documentID string) (TurnResult, error) {
	return m.apply(ctx, sessionKey, documentID, Event{Type: EventAdvanceRequest})
}

func (m *Manager) apply(ctx context.Context, sessionKey, documentID string, ev Event) (TurnResult, error) {
	lock := m.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	shape, err := m.shape(ctx, documentID)
	if err != nil {
		return TurnResult{}, err
	}

	var outcome Outcome
	for attempt := 0; ; attempt++ {
		state, err := m.loadOrBootstrap(ctx, sessionKey, documentID)
		if err != nil {
			return TurnResult{}, err
		}

		outcome = Apply(state, ev, shape)
		outcome.State.LastInteraction = time.Now().UTC()

		saved, err := m.store.UpdateLearningState(ctx, outcome.State)
		if err == nil {
			outcome.State = saved
			break
		}
		if !errors.Is(err, store.ErrVersionConflict) || attempt+1 >= casAttempts {
			return TurnResult{}, fmt.Errorf("failed to save session: %w", err)
		}
	}

	if err := m.saveProgress(ctx, outcome.State); err != nil {
		return TurnResult{}, err
	}

	prompt, err := m.buildPrompt(ctx, outcome)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{State: outcome.State, Prompt: prompt, Refusal: outcome.Refusal}, nil
}

// Quiz returns the question set for the session's current chapter,
// generating it on first use. retryGen forces regeneration.
func (m *Manager) Quiz(ctx context.Context, sessionKey, documentID string, retryGen bool) ([]types.QuizQuestion, error) {
	lock := m.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.loadOrBootstrap(ctx, sessionKey, documentID)
	if err != nil {
		return nil, err
	}
	chapter, err := m.chapterFor(ctx, documentID, state.CurrentChapter)
	if err != nil {
		return nil, err
	}
	return m.quizzes.QuestionsFor(ctx, chapter, retryGen)
}

// SubmitQuiz grades a submission against the current chapter's cached
// questions, records the attempt, and applies the pass/fail transition. The
// attempt is persisted before the state so a crash between the two is
// recoverable via ReplayAttempt.
func (m *Manager) SubmitQuiz(ctx context.Context, sessionKey, documentID string, answers []types.SubmittedAnswer) (QuizResult, error) {
	lock := m.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.loadOrBootstrap(ctx, sessionKey, documentID)
	if err != nil {
		return QuizResult{}, err
	}

	// Submissions are only admitted once the chapter is fully taught; a
	// declined submission records no attempt.
	if state.Phase != types.PhaseQuizReady && state.Phase != types.PhaseReview {
		m.logger.Info("quiz submission declined",
			"session_key", sessionKey,
			"chapter", state.CurrentChapter,
			"phase", state.Phase)
		return QuizResult{State: state, Refusal: refusalFor(state.Phase)}, nil
	}

	questions, err := m.store.Questions(ctx, documentID, state.CurrentChapter)
	if err != nil {
		return QuizResult{}, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return QuizResult{}, fmt.Errorf("no quiz exists for chapter %d", state.CurrentChapter)
	}

	graded := m.grader.Grade(questions, answers)
	attempt := types.QuizAttempt{
		ID:             uuid.New().String(),
		DocumentID:     documentID,
		ChapterNumber:  state.CurrentChapter,
		SessionKey:     sessionKey,
		Score:          graded.Score,
		TotalQuestions: graded.TotalQuestions,
		Answers:        graded.Answers,
		WeakTopics:     graded.WeakTopics,
		Passed:         graded.Passed,
		CreatedAt:      time.Now().UTC(),
	}
	if err := m.store.CreateAttempt(ctx, attempt); err != nil {
		return QuizResult{}, fmt.Errorf("failed to record attempt: %w", err)
	}

	m.logger.Info("quiz graded",
		"session_key", sessionKey,
		"chapter", attempt.ChapterNumber,
		"score", attempt.Score,
		"total", attempt.TotalQuestions,
		"passed", attempt.Passed)

	shape, err := m.shape(ctx, documentID)
	if err != nil {
		return QuizResult{}, err
	}
	saved, err := m.applyAttempt(ctx, state, attempt, shape, false)
	if err != nil {
		return QuizResult{}, err
	}
	return QuizResult{Attempt: attempt, State: saved}, nil
}

// ReplayAttempt re-applies the latest recorded attempt for a chapter to the
// session state. It is idempotent: a transition the state already reflects
// is a no-op, so recovery after a crash between attempt write and state
// write can always replay safely.
func (m *Manager) ReplayAttempt(ctx context.Context, sessionKey, documentID string, chapterNumber int) (types.LearningState, error) {
	lock := m.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.loadOrBootstrap(ctx, sessionKey, documentID)
	if err != nil {
		return types.LearningState{}, err
	}

	attempt, err := m.store.LatestAttempt(ctx, sessionKey, chapterNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return state, nil
		}
		return types.LearningState{}, fmt.Errorf("failed to load attempt: %w", err)
	}

	if attemptReflected(state, attempt) {
		return state, nil
	}

	shape, err := m.shape(ctx, documentID)
	if err != nil {
		return types.LearningState{}, err
	}
	return m.applyAttempt(ctx, state, attempt, shape, true)
}

// attemptReflected reports whether the state already includes the attempt's
// transition.
func attemptReflected(state types.LearningState, attempt types.QuizAttempt) bool {
	if attempt.Passed {
		for _, ch := range state.QuizzesPassed {
			if ch == attempt.ChapterNumber {
				return true
			}
		}
		return false
	}
	return state.Phase == types.PhaseReview && state.CurrentChapter == attempt.ChapterNumber
}

func (m *Manager) applyAttempt(ctx context.Context, state types.LearningState, attempt types.QuizAttempt, shape Shape, replay bool) (types.LearningState, error) {
	for casTry := 0; ; casTry++ {
		outcome := Apply(state, Event{Type: EventQuizResult, Attempt: &attempt, Replay: replay}, shape)
		outcome.State.LastInteraction = time.Now().UTC()

		saved, err := m.store.UpdateLearningState(ctx, outcome.State)
		if err == nil {
			if perr := m.saveProgress(ctx, saved); perr != nil {
				return types.LearningState{}, perr
			}
			return saved, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) || casTry+1 >= casAttempts {
			return types.LearningState{}, fmt.Errorf("failed to save session: %w", err)
		}
		state, err = m.store.LearningState(ctx, state.SessionKey)
		if err != nil {
			return types.LearningState{}, fmt.Errorf("failed to reload session: %w", err)
		}
	}
}

func (m *Manager) saveProgress(ctx context.Context, state types.LearningState) error {
	err := m.store.UpsertProgress(ctx, types.StudentProgress{
		DocumentID:  state.DocumentID,
		LastChapter: state.CurrentChapter,
		LastTopic:   state.CurrentTopic,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// shape loads the document's chapter/topic structure.
func (m *Manager) shape(ctx context.Context, documentID string) (Shape, error) {
	chapters, err := m.store.Chapters(ctx, documentID)
	if err != nil {
		return Shape{}, fmt.Errorf("failed to load chapters: %w", err)
	}
	if len(chapters) == 0 {
		return Shape{}, fmt.Errorf("document %s has no structure; analyze it first", documentID)
	}
	counts, err := m.store.TopicCounts(ctx, documentID)
	if err != nil {
		return Shape{}, fmt.Errorf("failed to load topic counts: %w", err)
	}
	return Shape{TotalChapters: len(chapters), TopicsByChapter: counts}, nil
}

func (m *Manager) chapterFor(ctx context.Context, documentID string, chapterNumber int) (types.Chapter, error) {
	chapters, err := m.store.Chapters(ctx, documentID)
	if err != nil {
		return types.Chapter{}, fmt.Errorf("failed to load chapters: %w", err)
	}
	for _, ch := range chapters {
		if ch.ChapterNumber == chapterNumber {
			return ch, nil
		}
	}
	return types.Chapter{}, fmt.Errorf("chapter %d not found in document %s", chapterNumber, documentID)
}

// buildPrompt assembles the prompt for the outcome's state, merging the
// current topic and retrieval passages. Retrieval failures degrade the
// prompt rather than failing the interaction.
func (m *Manager) buildPrompt(ctx context.Context, outcome Outcome) (string, error) {
	state := outcome.State

	// A finished document has no chapter to point at.
	chapter, err := m.chapterFor(ctx, state.DocumentID, state.CurrentChapter)
	if err != nil {
		chapters, cerr := m.store.Chapters(ctx, state.DocumentID)
		if cerr == nil && len(chapters) > 0 && state.CurrentChapter > chapters[len(chapters)-1].ChapterNumber {
			return "The student has completed every chapter. Congratulate them and offer to review any chapter on request.", nil
		}
		return "", err
	}

	var topic types.Topic
	topics, err := m.store.Topics(ctx, state.DocumentID, state.CurrentChapter)
	if err == nil {
		for _, t := range topics {
			if t.TopicNumber == state.CurrentTopic {
				topic = t
				break
			}
		}
	}

	var passages []types.Passage
	if m.retriever != nil {
		query := chapter.Title
		if topic.Title != "" {
			query = topic.Title
		}
		passages, err = m.retriever.Retrieve(ctx, retrieval.Query{
			DocumentID: state.DocumentID,
			Text:       query,
			StartPage:  chapter.StartPage,
			EndPage:    chapter.EndPage,
			Limit:      retrievalLimit,
		})
		if err != nil {
			m.logger.Warn("retrieval failed; continuing without passages", "error", err)
			passages = nil
		}
	}

	return BuildPrompt(PromptInput{
		State:    state,
		Chapter:  chapter,
		Topic:    topic,
		Passages: passages,
		Refusal:  outcome.Refusal,
	}), nil
}
