package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// GormStore implements Store on sqlite via gorm.
type GormStore struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite database at path and migrates
// the schema.
func Open(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}

	if err := db.AutoMigrate(
		&chapterRecord{},
		&topicRecord{},
		&learningStateRecord{},
		&progressRecord{},
		&questionRecord{},
		&attemptRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate store schema: %w", err)
	}

	return &GormStore{db: db}, nil
}

// ReplaceStructure atomically swaps a document's chapters and topics inside
// one transaction.
func (s *GormStore) ReplaceStructure(ctx context.Context, documentID string, chapters []types.Chapter, topics map[int][]types.Topic) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldIDs []string
		if err := tx.Model(&chapterRecord{}).Where("document_id = ?", documentID).Pluck("id", &oldIDs).Error; err != nil {
			return err
		}
		if len(oldIDs) > 0 {
			if err := tx.Where("chapter_id IN ?", oldIDs).Delete(&topicRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Where("document_id = ?", documentID).Delete(&chapterRecord{}).Error; err != nil {
				return err
			}
		}

		for _, ch := range chapters {
			id := ch.ID
			if id == "" {
				id = uuid.New().String()
			}
			rec := chapterRecord{
				ID:            id,
				DocumentID:    documentID,
				ChapterNumber: ch.ChapterNumber,
				Title:         ch.Title,
				StartOffset:   ch.StartOffset,
				EndOffset:     ch.EndOffset,
				StartPage:     ch.StartPage,
				EndPage:       ch.EndPage,
				Content:       ch.Content,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}

			for _, topic := range topics[ch.ChapterNumber] {
				trec := topicRecord{
					ChapterID:            id,
					TopicNumber:          topic.TopicNumber,
					Title:                topic.Title,
					Content:              topic.Content,
					EstimatedTimeMinutes: topic.EstimatedTimeMinutes,
				}
				if err := tx.Create(&trec).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Chapters returns a document's chapters ordered by chapter number.
func (s *GormStore) Chapters(ctx context.Context, documentID string) ([]types.Chapter, error) {
	var recs []chapterRecord
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chapter_number asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	chapters := make([]types.Chapter, 0, len(recs))
	for _, r := range recs {
		chapters = append(chapters, types.Chapter{
			ID:            r.ID,
			DocumentID:    r.DocumentID,
			ChapterNumber: r.ChapterNumber,
			Title:         r.Title,
			StartOffset:   r.StartOffset,
			EndOffset:     r.EndOffset,
			StartPage:     r.StartPage,
			EndPage:       r.EndPage,
			Content:       r.Content,
		})
	}
	return chapters, nil
}

// Topics returns one chapter's topics ordered by topic number.
func (s *GormStore) Topics(ctx context.Context, documentID string, chapterNumber int) ([]types.Topic, error) {
	var ch chapterRecord
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND chapter_number = ?", documentID, chapterNumber).
		First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var recs []topicRecord
	err = s.db.WithContext(ctx).
		Where("chapter_id = ?", ch.ID).
		Order("topic_number asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	topics := make([]types.Topic, 0, len(recs))
	for _, r := range recs {
		topics = append(topics, types.Topic{
			ChapterID:            r.ChapterID,
			TopicNumber:          r.TopicNumber,
			Title:                r.Title,
			Content:              r.Content,
			EstimatedTimeMinutes: r.EstimatedTimeMinutes,
		})
	}
	return topics, nil
}

// TopicCounts returns the number of topics per chapter number.
func (s *GormStore) TopicCounts(ctx context.Context, documentID string) (map[int]int, error) {
	var rows []struct {
		ChapterNumber int
		N             int
	}
	err := s.db.WithContext(ctx).
		Model(&topicRecord{}).
		Select("chapter_records.chapter_number as chapter_number, count(*) as n").
		Joins("JOIN chapter_records ON chapter_records.id = topic_records.chapter_id").
		Where("chapter_records.document_id = ?", documentID).
		Group("chapter_records.chapter_number").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.ChapterNumber] = row.N
	}
	return counts, nil
}

// LearningState returns the state for a session key.
func (s *GormStore) LearningState(ctx context.Context, sessionKey string) (types.LearningState, error) {
	var rec learningStateRecord
	err := s.db.WithContext(ctx).Where("session_key = ?", sessionKey).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.LearningState{}, ErrNotFound
	}
	if err != nil {
		return types.LearningState{}, err
	}
	return fromStateRecord(rec), nil
}

// CreateLearningState inserts a fresh state at version 1.
func (s *GormStore) CreateLearningState(ctx context.Context, state types.LearningState) (types.LearningState, error) {
	state.Version = 1
	rec := toStateRecord(state)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return types.LearningState{}, err
	}
	return state, nil
}

// UpdateLearningState performs the optimistic compare-and-update. The WHERE
// clause pins the expected version; zero affected rows means the stored
// record moved (or vanished) underneath the caller.
func (s *GormStore) UpdateLearningState(ctx context.Context, state types.LearningState) (types.LearningState, error) {
	rec := toStateRecord(state)
	res := s.db.WithContext(ctx).
		Model(&learningStateRecord{}).
		Where("session_key = ? AND version = ?", state.SessionKey, state.Version).
		Updates(map[string]any{
			"document_id":        rec.DocumentID,
			"current_chapter":    rec.CurrentChapter,
			"current_topic":      rec.CurrentTopic,
			"phase":              rec.Phase,
			"message_count":      rec.MessageCount,
			"chapters_completed": rec.ChaptersCompleted,
			"quizzes_passed":     rec.QuizzesPassed,
			"needs_review":       rec.NeedsReview,
			"review_topics":      rec.ReviewTopics,
			"last_interaction":   rec.LastInteraction,
			"version":            state.Version + 1,
		})
	if res.Error != nil {
		return types.LearningState{}, res.Error
	}
	if res.RowsAffected == 0 {
		return types.LearningState{}, ErrVersionConflict
	}
	state.Version++
	return state, nil
}

// Progress returns the per-document progress record.
func (s *GormStore) Progress(ctx context.Context, documentID string) (types.StudentProgress, error) {
	var rec progressRecord
	err := s.db.WithContext(ctx).Where("document_id = ?", documentID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.StudentProgress{}, ErrNotFound
	}
	if err != nil {
		return types.StudentProgress{}, err
	}
	return types.StudentProgress{
		DocumentID:  rec.DocumentID,
		LastChapter: rec.LastChapter,
		LastTopic:   rec.LastTopic,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

// UpsertProgress creates or overwrites the per-document progress record.
func (s *GormStore) UpsertProgress(ctx context.Context, progress types.StudentProgress) error {
	rec := progressRecord{
		DocumentID:  progress.DocumentID,
		LastChapter: progress.LastChapter,
		LastTopic:   progress.LastTopic,
		UpdatedAt:   progress.UpdatedAt,
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

// ReplaceQuestions swaps the cached question set for a chapter.
func (s *GormStore) ReplaceQuestions(ctx context.Context, documentID string, chapterNumber int, questions []types.QuizQuestion) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("document_id = ? AND chapter_number = ?", documentID, chapterNumber).
			Delete(&questionRecord{}).Error
		if err != nil {
			return err
		}
		for i, q := range questions {
			rec := toQuestionRecord(q, i)
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Questions returns the cached question set for a chapter.
func (s *GormStore) Questions(ctx context.Context, documentID string, chapterNumber int) ([]types.QuizQuestion, error) {
	var recs []questionRecord
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND chapter_number = ?", documentID, chapterNumber).
		Order("position asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	questions := make([]types.QuizQuestion, 0, len(recs))
	for _, r := range recs {
		questions = append(questions, fromQuestionRecord(r))
	}
	return questions, nil
}

// CreateAttempt appends an immutable quiz attempt.
func (s *GormStore) CreateAttempt(ctx context.Context, attempt types.QuizAttempt) error {
	rec := toAttemptRecord(attempt)
	return s.db.WithContext(ctx).Create(&rec).Error
}

// Attempts returns a session's attempts for a chapter, oldest first.
func (s *GormStore) Attempts(ctx context.Context, sessionKey string, chapterNumber int) ([]types.QuizAttempt, error) {
	var recs []attemptRecord
	err := s.db.WithContext(ctx).
		Where("session_key = ? AND chapter_number = ?", sessionKey, chapterNumber).
		Order("created_at asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	attempts := make([]types.QuizAttempt, 0, len(recs))
	for _, r := range recs {
		attempts = append(attempts, fromAttemptRecord(r))
	}
	return attempts, nil
}

// LatestAttempt returns the most recent attempt for a session and chapter.
func (s *GormStore) LatestAttempt(ctx context.Context, sessionKey string, chapterNumber int) (types.QuizAttempt, error) {
	var rec attemptRecord
	err := s.db.WithContext(ctx).
		Where("session_key = ? AND chapter_number = ?", sessionKey, chapterNumber).
		Order("created_at desc").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.QuizAttempt{}, ErrNotFound
	}
	if err != nil {
		return types.QuizAttempt{}, err
	}
	return fromAttemptRecord(rec), nil
}
