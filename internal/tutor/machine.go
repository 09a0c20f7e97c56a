// Package tutor implements the learning-session state machine: it tracks a
// student's position in a document, gates chapter progression behind quizzes,
// and shapes the per-phase tutoring prompt.
package tutor

import (
	"github.com/rajyashhh/quill-bot/internal/types"
)

// EventType identifies a student interaction event.
type EventType string

const (
	// EventTurn is one tutoring exchange in the current phase.
	EventTurn EventType = "turn"
	// EventTopicComplete marks the current topic as mastered. The signal
	// itself is opaque to the machine; it may come from the surrounding
	// service or an explicit user request.
	EventTopicComplete EventType = "topic_complete"
	// EventSkipRequest is a request to skip ahead while topics remain.
	EventSkipRequest EventType = "skip_request"
	// EventAdvanceRequest is a request to move to the next chapter.
	EventAdvanceRequest EventType = "advance_request"
	// EventQuizResult carries a graded quiz attempt.
	EventQuizResult EventType = "quiz_result"
)

// Event is a single input to the state machine.
type Event struct {
	Type    EventType
	Attempt *types.QuizAttempt // required for EventQuizResult
	// Replay marks a recovery re-application of a recorded attempt. The
	// attempt record is authoritative, so the phase gate does not apply.
	Replay bool
}

// Refusal explains why an event could not advance the session. Refusals are
// policy guidance surfaced to the prompt-construction layer, never errors.
type Refusal string

const (
	// RefusalNone means the event was applied.
	RefusalNone Refusal = ""
	// RefusalTopicsRemain: topics in the current chapter are not yet complete.
	RefusalTopicsRemain Refusal = "topics_remain"
	// RefusalQuizRequired: the chapter quiz must be passed first.
	RefusalQuizRequired Refusal = "quiz_required"
	// RefusalReviewRequired: a failed quiz must be re-taken after review.
	RefusalReviewRequired Refusal = "review_required"
)

// Shape describes the document the session is working through.
type Shape struct {
	TotalChapters   int
	TopicsByChapter map[int]int
}

// TopicsIn returns the topic count for a chapter, at least 1.
func (s Shape) TopicsIn(chapter int) int {
	if n, ok := s.TopicsByChapter[chapter]; ok && n > 0 {
		return n
	}
	return 1
}

// Outcome is the result of applying an event.
type Outcome struct {
	State   types.LearningState
	Refusal Refusal
}

// NewState returns a fresh session state at chapter 1, topic 1,
// phase introduction.
func NewState(sessionKey, documentID string) types.LearningState {
	return types.LearningState{
		SessionKey:     sessionKey,
		DocumentID:     documentID,
		CurrentChapter: 1,
		CurrentTopic:   1,
		Phase:          types.PhaseIntroduction,
	}
}

// ResumeState returns a session state seeded from a prior-session progress
// record. Resumed sessions skip the introduction.
func ResumeState(sessionKey, documentID string, progress types.StudentProgress) types.LearningState {
	chapter := progress.LastChapter
	if chapter < 1 {
		chapter = 1
	}
	topic := progress.LastTopic
	if topic < 1 {
		topic = 1
	}
	return types.LearningState{
		SessionKey:     sessionKey,
		DocumentID:     documentID,
		CurrentChapter: chapter,
		CurrentTopic:   topic,
		Phase:          types.PhaseLearning,
	}
}

// Apply is the deterministic transition function (state, event) -> state.
// It never mutates its input and performs no I/O; persistence and prompt
// construction live elsewhere.
func Apply(state types.LearningState, ev Event, shape Shape) Outcome {
	next := cloneState(state)

	switch ev.Type {
	case EventTurn:
		next.MessageCount++
		// The introduction is a single-turn orientation, not gated by any
		// condition.
		if next.Phase == types.PhaseIntroduction {
			next.Phase = types.PhaseLearning
		}
		return Outcome{State: next}

	case EventTopicComplete:
		if next.Phase != types.PhaseLearning && next.Phase != types.PhaseIntroduction {
			return Outcome{State: next}
		}
		if next.CurrentTopic >= shape.TopicsIn(next.CurrentChapter) {
			next.Phase = types.PhaseQuizReady
			next.MessageCount = 0
			return Outcome{State: next}
		}
		next.CurrentTopic++
		next.Phase = types.PhaseLearning
		next.MessageCount = 0
		return Outcome{State: next}

	case EventSkipRequest:
		// Never a phase change; surfaced as guidance only.
		if next.Phase == types.PhaseLearning || next.Phase == types.PhaseIntroduction {
			return Outcome{State: next, Refusal: RefusalTopicsRemain}
		}
		return Outcome{State: next, Refusal: refusalFor(next.Phase)}

	case EventAdvanceRequest:
		return Outcome{State: next, Refusal: refusalFor(next.Phase)}

	case EventQuizResult:
		if ev.Attempt == nil {
			return Outcome{State: next}
		}
		// The quiz transition is defined only from quiz-ready or review; a
		// pass submitted mid-chapter must not bypass the topic sequence.
		if !ev.Replay && next.Phase != types.PhaseQuizReady && next.Phase != types.PhaseReview {
			return Outcome{State: next, Refusal: refusalFor(next.Phase)}
		}
		if ev.Attempt.Passed {
			return Outcome{State: applyQuizPass(next, ev.Attempt.ChapterNumber)}
		}
		return Outcome{State: applyQuizFail(next, ev.Attempt.WeakTopics)}
	}

	return Outcome{State: next}
}

// applyQuizPass unlocks the next chapter. Passing from review behaves
// identically to passing from quiz-ready.
func applyQuizPass(state types.LearningState, chapter int) types.LearningState {
	state.ChaptersCompleted = append(state.ChaptersCompleted, chapter)
	state.QuizzesPassed = append(state.QuizzesPassed, chapter)
	state.CurrentChapter++
	state.CurrentTopic = 1
	state.Phase = types.PhaseIntroduction
	state.NeedsReview = false
	state.ReviewTopics = nil
	state.MessageCount = 0
	return state
}

// applyQuizFail enters review with the attempt's weak topics. Chapter and
// topic pointers are unchanged; the only forward path is re-taking the quiz.
func applyQuizFail(state types.LearningState, weakTopics []string) types.LearningState {
	state.Phase = types.PhaseReview
	state.NeedsReview = true
	state.ReviewTopics = append([]string(nil), weakTopics...)
	return state
}

// Completed reports whether every chapter's quiz has been passed.
func Completed(state types.LearningState, shape Shape) bool {
	return shape.TotalChapters > 0 && len(state.QuizzesPassed) >= shape.TotalChapters
}

func refusalFor(phase types.Phase) Refusal {
	switch phase {
	case types.PhaseQuizReady:
		return RefusalQuizRequired
	case types.PhaseReview:
		return RefusalReviewRequired
	default:
		return RefusalTopicsRemain
	}
}

// cloneState deep-copies the slices so Apply never aliases its input.
func cloneState(s types.LearningState) types.LearningState {
	s.ChaptersCompleted = append([]int(nil), s.ChaptersCompleted...)
	s.QuizzesPassed = append([]int(nil), s.QuizzesPassed...)
	s.ReviewTopics = append([]string(nil), s.ReviewTopics...)
	return s
}
