package main

import (
	"github.com/spf13/cobra"

	"github.com/rajyashhh/quill-bot/internal/api"
	"github.com/rajyashhh/quill-bot/internal/extract"
	"github.com/rajyashhh/quill-bot/internal/ingest"
)

var analyzeDocID string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Derive chapter and topic structure from a document",
	Long: `Analyze extracts text from a document and derives its structure:
chapters from the table of contents (or detected headings when no usable
ToC exists) and topics within each chapter.

The input may be a PDF, a plain-text file (OCR output with
"--- Page N ---" markers is recognized), or a JSON extraction with
explicit page-break offsets.

Re-analyzing a document replaces its stored structure wholesale.

Examples:
  quill analyze book.pdf
  quill analyze ocr-output.txt --doc-id my-book
  quill analyze extraction.json -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}

		ex, err := extract.FromFile(args[0])
		if err != nil {
			return err
		}

		analyzer := ingest.NewAnalyzer(st, cfg.Structure)
		res, err := analyzer.Analyze(cmd.Context(), ingest.Request{
			DocumentID: analyzeDocID,
			Extraction: ex,
			Logger:     newLogger(),
		})
		if err != nil {
			return err
		}
		return api.Output(res)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDocID, "doc-id", "", "document ID (generated if empty)")

	rootCmd.AddCommand(analyzeCmd)
}
