// Package store is the persistence boundary: chapters, topics, learning
// states, quiz questions, and quiz attempts behind a generic record store
// with atomic create/update/find-by-key operations.
package store

import (
	"context"
	"errors"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// Sentinel errors for the store package.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when an optimistic update lost the race;
	// the caller re-reads and re-applies.
	ErrVersionConflict = errors.New("version conflict")
)

// Store is the record store consumed by ingestion and tutoring.
// Uniqueness is enforced on (documentID, chapterNumber), (chapterID,
// topicNumber), and sessionKey.
type Store interface {
	// ReplaceStructure atomically replaces a document's chapters and topics.
	// Old records are discarded; structure is re-derived wholly on reprocess.
	ReplaceStructure(ctx context.Context, documentID string, chapters []types.Chapter, topics map[int][]types.Topic) error

	// Chapters returns a document's chapters ordered by chapter number.
	Chapters(ctx context.Context, documentID string) ([]types.Chapter, error)

	// Topics returns one chapter's topics ordered by topic number.
	Topics(ctx context.Context, documentID string, chapterNumber int) ([]types.Topic, error)

	// TopicCounts returns the number of topics per chapter number.
	TopicCounts(ctx context.Context, documentID string) (map[int]int, error)

	// LearningState returns the state for a session key, or ErrNotFound.
	LearningState(ctx context.Context, sessionKey string) (types.LearningState, error)

	// CreateLearningState inserts a fresh state at version 1.
	CreateLearningState(ctx context.Context, state types.LearningState) (types.LearningState, error)

	// UpdateLearningState applies a compare-and-update keyed on the state's
	// Version; returns ErrVersionConflict when the stored version moved.
	UpdateLearningState(ctx context.Context, state types.LearningState) (types.LearningState, error)

	// Progress returns the per-document progress record, or ErrNotFound.
	Progress(ctx context.Context, documentID string) (types.StudentProgress, error)

	// UpsertProgress creates or overwrites the per-document progress record.
	UpsertProgress(ctx context.Context, progress types.StudentProgress) error

	// ReplaceQuestions swaps the cached question set for a chapter.
	ReplaceQuestions(ctx context.Context, documentID string, chapterNumber int, questions []types.QuizQuestion) error

	// Questions returns the cached question set for a chapter; an empty
	// result is not an error.
	Questions(ctx context.Context, documentID string, chapterNumber int) ([]types.QuizQuestion, error)

	// CreateAttempt appends an immutable quiz attempt.
	CreateAttempt(ctx context.Context, attempt types.QuizAttempt) error

	// Attempts returns a session's attempts for a chapter, oldest first.
	Attempts(ctx context.Context, sessionKey string, chapterNumber int) ([]types.QuizAttempt, error)

	// LatestAttempt returns the most recent attempt for a session and
	// chapter, or ErrNotFound.
	LatestAttempt(ctx context.Context, sessionKey string, chapterNumber int) (types.QuizAttempt, error)
}
