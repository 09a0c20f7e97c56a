package quiz

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/rajyashhh/quill-bot/internal/types"
)

const generatorDefaultModel = "gpt-4o-mini"

// GenerateRequest describes the chapter to generate questions for.
type GenerateRequest struct {
	DocumentID    string
	ChapterNumber int
	ChapterTitle  string
	Content       string
	Count         int
}

// Generator produces a question set for one chapter.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]types.QuizQuestion, error)
}

// OpenAIGeneratorConfig holds configuration for the OpenAI-backed generator.
type OpenAIGeneratorConfig struct {
	APIKey     string
	Model      string
	MaxRetries int           // Retry attempts for SDK transport
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAIGenerator implements Generator using the official OpenAI SDK.
type OpenAIGenerator struct {
	model      string
	maxRetries int
	client     openai.Client
}

// NewOpenAIGenerator creates a generator from config, applying defaults.
func NewOpenAIGenerator(cfg OpenAIGeneratorConfig) *OpenAIGenerator {
	if cfg.Model == "" {
		cfg.Model = generatorDefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		client:     openai.NewClient(opts...),
	}
}

// Generate asks the model for a question set and validates the response
// against the question schema. A response that parses but fails validation
// gets one repair round-trip carrying the validation error back to the
// model; transport failures retry with backoff.
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) ([]types.QuizQuestion, error) {
	if req.Count <= 0 {
		req.Count = DefaultQuestionCount
	}

	var set generatedQuestionSet
	err := retry.Do(
		func() error {
			content, err := g.complete(ctx, buildGenerationPrompt(req), "")
			if err != nil {
				return err
			}

			set, err = parseQuestionSet(content)
			if err == nil {
				return nil
			}

			// One repair attempt: hand the validation error back to the
			// model with its previous output.
			repaired, rerr := g.complete(ctx, buildGenerationPrompt(req), repairPrompt(content, err))
			if rerr != nil {
				return rerr
			}
			set, err = parseQuestionSet(repaired)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(g.maxRetries)),
		retry.Delay(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions for chapter %d: %w", req.ChapterNumber, err)
	}

	questions := make([]types.QuizQuestion, 0, len(set.Questions))
	for _, q := range set.Questions {
		questions = append(questions, types.QuizQuestion{
			DocumentID:    req.DocumentID,
			ChapterNumber: req.ChapterNumber,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Difficulty:    q.Difficulty,
			TopicCovered:  q.TopicCovered,
		})
	}
	return questions, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, userPrompt, repairNote string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a quiz author for a tutoring system. Respond with JSON only."),
		openai.UserMessage(userPrompt),
	}
	if repairNote != "" {
		messages = append(messages, openai.UserMessage(repairNote))
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildGenerationPrompt frames the chapter content and the required output
// shape. The schema is rendered inline so the model sees the exact contract
// it is validated against.
func buildGenerationPrompt(req GenerateRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write %d multiple-choice questions covering the chapter below.\n\n", req.Count)
	fmt.Fprintf(&sb, "Chapter %d: %s\n\n", req.ChapterNumber, req.ChapterTitle)
	sb.WriteString(req.Content)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- Each question has 4 options and exactly one correct answer.\n")
	sb.WriteString("- correct_answer must repeat one option verbatim.\n")
	sb.WriteString("- topic_covered names the chapter topic the question tests.\n")
	sb.WriteString("- difficulty is easy, medium, or hard.\n\n")
	sb.WriteString("Respond with a JSON object matching this schema, no other text:\n")
	sb.WriteString(questionSetSchema)
	return sb.String()
}

func repairPrompt(previous string, parseErr error) string {
	var sb strings.Builder
	sb.WriteString("Your previous response was rejected:\n")
	sb.WriteString(parseErr.Error())
	sb.WriteString("\n\nPrevious response:\n")
	sb.WriteString(previous)
	sb.WriteString("\n\nRespond again with only the corrected JSON object.")
	return sb.String()
}
