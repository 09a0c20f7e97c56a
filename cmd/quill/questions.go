package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rajyashhh/quill-bot/internal/api"
	"github.com/rajyashhh/quill-bot/internal/config"
	"github.com/rajyashhh/quill-bot/internal/quiz"
	"github.com/rajyashhh/quill-bot/internal/types"
)

var questionsRetry bool

var questionsCmd = &cobra.Command{
	Use:   "questions <doc-id> <chapter>",
	Short: "Show or generate a chapter's quiz questions",
	Long: `Questions prints the cached quiz question set for a chapter,
generating it first if none exists. --retry discards the cached set and
regenerates.

Generation uses the configured model; set generation.api_key in the config
file or the OPENAI_API_KEY environment variable.

Examples:
  quill questions my-book 2
  quill questions my-book 2 --retry`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chapterNumber, err := strconv.Atoi(args[1])
		if err != nil || chapterNumber < 1 {
			return fmt.Errorf("invalid chapter number %q", args[1])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}

		chapters, err := st.Chapters(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var chapter *types.Chapter
		for i := range chapters {
			if chapters[i].ChapterNumber == chapterNumber {
				chapter = &chapters[i]
				break
			}
		}
		if chapter == nil {
			return fmt.Errorf("chapter %d not found in document %s; run analyze first", chapterNumber, args[0])
		}

		gen := quiz.NewOpenAIGenerator(quiz.OpenAIGeneratorConfig{
			APIKey:     config.ResolveEnvVars(cfg.Generation.APIKey),
			Model:      cfg.Generation.Model,
			BaseURL:    cfg.Generation.BaseURL,
			MaxRetries: cfg.Generation.MaxRetries,
			Timeout:    time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
		})
		svc := quiz.NewService(st, gen, cfg.Quiz.QuestionCount, newLogger())

		questions, err := svc.QuestionsFor(cmd.Context(), *chapter, questionsRetry)
		if err != nil {
			return err
		}
		return api.Output(questions)
	},
}

func init() {
	questionsCmd.Flags().BoolVar(&questionsRetry, "retry", false, "discard the cached set and regenerate")

	rootCmd.AddCommand(questionsCmd)
}
