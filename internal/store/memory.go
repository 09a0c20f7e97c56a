package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// Memory is an in-memory Store for tests and throwaway runs. It enforces the
// same version semantics as the sqlite store.
type Memory struct {
	mu        sync.Mutex
	chapters  map[string][]types.Chapter          // documentID -> chapters
	topics    map[string]map[int][]types.Topic    // documentID -> chapterNumber -> topics
	states    map[string]types.LearningState      // sessionKey -> state
	progress  map[string]types.StudentProgress    // documentID -> progress
	questions map[string][]types.QuizQuestion     // documentID/chapter -> questions
	attempts  map[string][]types.QuizAttempt      // sessionKey/chapter -> attempts
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		chapters:  make(map[string][]types.Chapter),
		topics:    make(map[string]map[int][]types.Topic),
		states:    make(map[string]types.LearningState),
		progress:  make(map[string]types.StudentProgress),
		questions: make(map[string][]types.QuizQuestion),
		attempts:  make(map[string][]types.QuizAttempt),
	}
}

func chapterKey(documentID string, chapterNumber int) string {
	return fmt.Sprintf("%s/%d", documentID, chapterNumber)
}

func (m *Memory) ReplaceStructure(ctx context.Context, documentID string, chapters []types.Chapter, topics map[int][]types.Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]types.Chapter, len(chapters))
	copy(stored, chapters)
	for i := range stored {
		if stored[i].ID == "" {
			stored[i].ID = uuid.New().String()
		}
		stored[i].DocumentID = documentID
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].ChapterNumber < stored[j].ChapterNumber })

	copied := make(map[int][]types.Topic, len(topics))
	for num, list := range topics {
		copied[num] = append([]types.Topic(nil), list...)
	}

	m.chapters[documentID] = stored
	m.topics[documentID] = copied
	return nil
}

func (m *Memory) Chapters(ctx context.Context, documentID string) ([]types.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Chapter(nil), m.chapters[documentID]...), nil
}

func (m *Memory) Topics(ctx context.Context, documentID string, chapterNumber int) ([]types.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byChapter, ok := m.topics[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]types.Topic(nil), byChapter[chapterNumber]...), nil
}

func (m *Memory) TopicCounts(ctx context.Context, documentID string) (map[int]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[int]int)
	for num, list := range m.topics[documentID] {
		counts[num] = len(list)
	}
	return counts, nil
}

func (m *Memory) LearningState(ctx context.Context, sessionKey string) (types.LearningState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[sessionKey]
	if !ok {
		return types.LearningState{}, ErrNotFound
	}
	return state, nil
}

func (m *Memory) CreateLearningState(ctx context.Context, state types.LearningState) (types.LearningState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state.Version = 1
	m.states[state.SessionKey] = state
	return state, nil
}

func (m *Memory) UpdateLearningState(ctx context.Context, state types.LearningState) (types.LearningState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.states[state.SessionKey]
	if !ok || current.Version != state.Version {
		return types.LearningState{}, ErrVersionConflict
	}
	state.Version++
	m.states[state.SessionKey] = state
	return state, nil
}

func (m *Memory) Progress(ctx context.Context, documentID string) (types.StudentProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	progress, ok := m.progress[documentID]
	if !ok {
		return types.StudentProgress{}, ErrNotFound
	}
	return progress, nil
}

func (m *Memory) UpsertProgress(ctx context.Context, progress types.StudentProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[progress.DocumentID] = progress
	return nil
}

func (m *Memory) ReplaceQuestions(ctx context.Context, documentID string, chapterNumber int, questions []types.QuizQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[chapterKey(documentID, chapterNumber)] = append([]types.QuizQuestion(nil), questions...)
	return nil
}

func (m *Memory) Questions(ctx context.Context, documentID string, chapterNumber int) ([]types.QuizQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.QuizQuestion(nil), m.questions[chapterKey(documentID, chapterNumber)]...), nil
}

func (m *Memory) CreateAttempt(ctx context.Context, attempt types.QuizAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chapterKey(attempt.SessionKey, attempt.ChapterNumber)
	m.attempts[key] = append(m.attempts[key], attempt)
	return nil
}

func (m *Memory) Attempts(ctx context.Context, sessionKey string, chapterNumber int) ([]types.QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chapterKey(sessionKey, chapterNumber)
	return append([]types.QuizAttempt(nil), m.attempts[key]...), nil
}

func (m *Memory) LatestAttempt(ctx context.Context, sessionKey string, chapterNumber int) (types.QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chapterKey(sessionKey, chapterNumber)
	list := m.attempts[key]
	if len(list) == 0 {
		return types.QuizAttempt{}, ErrNotFound
	}
	return list[len(list)-1], nil
}
