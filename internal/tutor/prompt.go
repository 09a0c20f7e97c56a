package tutor

import (
	"fmt"
	"strings"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// PromptInput carries everything the prompt builder needs. Chapter and Topic
// describe the session's current position; Passages are retrieval results
// already scoped to the chapter. A non-empty Refusal reshapes the frame into
// redirect guidance.
type PromptInput struct {
	State    types.LearningState
	Chapter  types.Chapter
	Topic    types.Topic
	Passages []types.Passage
	Refusal  Refusal
}

// BuildPrompt assembles the per-phase system prompt. It is pure string
// building so the phase policies stay testable without a model call.
func BuildPrompt(in PromptInput) string {
	var sb strings.Builder

	sb.WriteString("You are a patient tutor working through a textbook with a student.\n")
	fmt.Fprintf(&sb, "Current position: chapter %d (%s), topic %d",
		in.State.CurrentChapter, in.Chapter.Title, in.State.CurrentTopic)
	if in.Topic.Title != "" {
		fmt.Fprintf(&sb, " (%s)", in.Topic.Title)
	}
	sb.WriteString(".\n\n")

	switch in.State.Phase {
	case types.PhaseIntroduction:
		sb.WriteString("The student just entered this chapter. Give a short orientation: ")
		sb.WriteString("what the chapter covers, how its topics build on each other, and what the student will be able to do afterwards. ")
		sb.WriteString("Keep it to a few sentences and end by starting the first topic.\n")

	case types.PhaseLearning:
		sb.WriteString("Teach the current topic. Explain concepts from the material below, ")
		sb.WriteString("check understanding with short questions, and use concrete examples. ")
		sb.WriteString("Stay on this topic; the student moves forward by demonstrating mastery, not by asking.\n")

	case types.PhaseReview:
		sb.WriteString("The student failed this chapter's quiz. Focus the review on the topics they missed")
		if len(in.State.ReviewTopics) > 0 {
			sb.WriteString(":\n")
			for _, topic := range in.State.ReviewTopics {
				fmt.Fprintf(&sb, "- %s\n", topic)
			}
		} else {
			sb.WriteString(".\n")
		}
		sb.WriteString("Re-teach these before anything else. The only way forward is re-taking the quiz.\n")

	case types.PhaseQuizReady:
		sb.WriteString("Every topic in this chapter is complete. Do not teach new material; ")
		sb.WriteString("encourage the student to take the chapter quiz, and answer clarifying questions about material already covered.\n")
	}

	if guidance := refusalGuidance(in.Refusal); guidance != "" {
		sb.WriteString("\n")
		sb.WriteString(guidance)
		sb.WriteString("\n")
	}

	if in.Topic.Content != "" {
		sb.WriteString("\nTopic material:\n")
		sb.WriteString(in.Topic.Content)
		sb.WriteString("\n")
	}

	if len(in.Passages) > 0 {
		sb.WriteString("\nRelevant passages from the book:\n")
		for _, p := range in.Passages {
			fmt.Fprintf(&sb, "[page %d] %s\n", p.PageNumber, p.Text)
		}
	}

	return sb.String()
}

// refusalGuidance turns a policy refusal into redirect instructions. The
// student is never shown an error; the tutor explains the gate instead.
func refusalGuidance(r Refusal) string {
	switch r {
	case RefusalTopicsRemain:
		return "The student asked to skip ahead. Decline gently: topics in this chapter are not finished yet. Explain that each topic builds on the previous one, then continue the current topic."
	case RefusalQuizRequired:
		return "The student asked to move to the next chapter. Decline gently: the chapter quiz must be passed first. Point them to the quiz."
	case RefusalReviewRequired:
		return "The student asked to move on, but their last quiz attempt did not pass. Decline gently: review the missed topics, then re-take the quiz."
	default:
		return ""
	}
}
