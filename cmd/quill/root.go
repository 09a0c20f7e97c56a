package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rajyashhh/quill-bot/internal/api"
	"github.com/rajyashhh/quill-bot/internal/config"
	"github.com/rajyashhh/quill-bot/internal/store"
	"github.com/rajyashhh/quill-bot/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Tutoring layer over PDF textbooks",
	Long: `Quill turns a PDF textbook into a structured, quiz-gated tutoring
experience.

The pipeline includes:
  - Table of contents parsing and semantic heading detection
  - Chapter assembly with exact offset and page boundaries
  - Topic segmentation with reading-time estimates
  - Chapter quizzes generated from the material, gating progression`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.quill/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the text logger commands share.
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// loadConfig loads configuration from the --config flag or the default
// search paths.
func loadConfig() (*config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	return mgr.Get(), nil
}

// openStore opens the sqlite record store from config.
func openStore(cfg *config.Config) (*store.GormStore, error) {
	return store.Open(cfg.Store.Path)
}
