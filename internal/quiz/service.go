package quiz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rajyashhh/quill-bot/internal/store"
	"github.com/rajyashhh/quill-bot/internal/types"
)

// Service caches generated question sets in the store. A chapter's set is
// generated once and reused for every subsequent quiz; regeneration happens
// only on an explicit retry request.
type Service struct {
	store     store.Store
	generator Generator
	count     int
	logger    *slog.Logger
}

// NewService creates a Service. count is the number of questions requested
// per chapter; zero falls back to the default.
func NewService(st store.Store, gen Generator, count int, logger *slog.Logger) *Service {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, generator: gen, count: count, logger: logger}
}

// QuestionsFor returns the question set for a chapter, generating and
// caching it on first use. retry forces regeneration and replaces the
// cached set.
func (s *Service) QuestionsFor(ctx context.Context, chapter types.Chapter, retryGen bool) ([]types.QuizQuestion, error) {
	if !retryGen {
		cached, err := s.store.Questions(ctx, chapter.DocumentID, chapter.ChapterNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to load cached questions: %w", err)
		}
		if len(cached) > 0 {
			return cached, nil
		}
	}

	s.logger.Info("generating quiz questions",
		"document_id", chapter.DocumentID,
		"chapter", chapter.ChapterNumber,
		"retry", retryGen)

	generated, err := s.generator.Generate(ctx, GenerateRequest{
		DocumentID:    chapter.DocumentID,
		ChapterNumber: chapter.ChapterNumber,
		ChapterTitle:  chapter.Title,
		Content:       chapter.Content,
		Count:         s.count,
	})
	if err != nil {
		return nil, err
	}

	for i := range generated {
		if generated[i].ID == "" {
			generated[i].ID = uuid.New().String()
		}
	}

	if err := s.store.ReplaceQuestions(ctx, chapter.DocumentID, chapter.ChapterNumber, generated); err != nil {
		return nil, fmt.Errorf("failed to cache questions: %w", err)
	}
	return generated, nil
}
