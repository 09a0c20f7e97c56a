// Package ingest runs structural analysis over an extracted document:
// page indexing, ToC parsing or heading detection, chapter assembly, topic
// segmentation, and a store write that replaces any prior structure.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rajyashhh/quill-bot/internal/config"
	"github.com/rajyashhh/quill-bot/internal/headings"
	"github.com/rajyashhh/quill-bot/internal/pages"
	"github.com/rajyashhh/quill-bot/internal/store"
	"github.com/rajyashhh/quill-bot/internal/structure"
	"github.com/rajyashhh/quill-bot/internal/toc"
	"github.com/rajyashhh/quill-bot/internal/topics"
	"github.com/rajyashhh/quill-bot/internal/types"
)

// Request contains the parameters for analyzing a document.
type Request struct {
	DocumentID string           // optional; generated if empty
	Extraction types.Extraction // extracted text and page information
	Logger     *slog.Logger     // optional logger for progress updates
}

// Result describes the derived structure.
type Result struct {
	DocumentID string
	Source     types.StructureSource
	Chapters   []types.Chapter
	TopicCount int
}

// Analyzer derives and persists document structure.
type Analyzer struct {
	store     store.Store
	toc       *toc.Parser
	headings  *headings.Detector
	assembler *structure.Assembler
	topics    *topics.Segmenter
}

// NewAnalyzer builds an Analyzer from the structure configuration.
func NewAnalyzer(st store.Store, cfg config.StructureCfg) *Analyzer {
	return &Analyzer{
		store: st,
		toc: toc.NewParser(toc.Config{
			WindowPages: cfg.TocWindowPages,
			BlockChars:  cfg.TocBlockChars,
			MinEntries:  cfg.TocMinEntries,
			MissLimit:   cfg.TocMissLimit,
			MissAfter:   cfg.TocMissAfter,
			StopAfter:   cfg.TocStopAfter,
		}),
		headings:  headings.NewDetector(),
		assembler: structure.NewAssembler(structure.Config{TitleSnapChars: cfg.TitleSnapChars}),
		topics: topics.NewSegmenter(topics.Config{
			MaxLineChars: cfg.TopicMaxLineChars,
			ReadingWPM:   cfg.ReadingWPM,
		}),
	}
}

// Analyze derives chapters and topics for a document and replaces its stored
// structure. A usable ToC wins over heading detection even when heading
// detection would find more chapters; when neither yields anything the result
// carries an empty chapter list and tutoring degrades to whole-document mode.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	text := req.Extraction.Text
	if text == "" {
		return nil, fmt.Errorf("document has no text")
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.New().String()
	}

	idx := pages.NewIndex(text, req.Extraction.PageBreakOffsets)
	// Plain extractor output often reports a page count while no break
	// information survives in the text; an even split keeps ToC page
	// validation and page-to-offset mapping usable.
	if tp := req.Extraction.TotalPages; tp > 1 && idx.TotalPages() == 1 {
		idx = pages.NewSyntheticIndex(text, tp)
	}
	log.Info("analyzing document", "document_id", documentID, "pages", idx.TotalPages(), "chars", len(text))

	// A detection miss is not an error: the result carries an empty chapter
	// list and downstream tutoring degrades to whole-document mode.
	chapters, source := a.deriveChapters(text, idx, log)
	if len(chapters) == 0 {
		log.Warn("no structure detected", "document_id", documentID)
	}

	topicsByChapter := make(map[int][]types.Topic, len(chapters))
	topicCount := 0
	for _, ch := range chapters {
		segs := a.topics.Segment(ch.Content)
		topicsByChapter[ch.ChapterNumber] = segs
		topicCount += len(segs)
	}

	if err := a.store.ReplaceStructure(ctx, documentID, chapters, topicsByChapter); err != nil {
		return nil, fmt.Errorf("failed to store structure: %w", err)
	}

	log.Info("analysis complete",
		"document_id", documentID,
		"source", source,
		"chapters", len(chapters),
		"topics", topicCount)

	return &Result{
		DocumentID: documentID,
		Source:     source,
		Chapters:   chapters,
		TopicCount: topicCount,
	}, nil
}

func (a *Analyzer) deriveChapters(text string, idx *pages.Index, log *slog.Logger) ([]types.Chapter, types.StructureSource) {
	entries, err := a.toc.Find(text, idx)
	if err != nil && !errors.Is(err, toc.ErrNotFound) {
		log.Warn("toc search failed; falling back to heading detection", "error", err)
	}
	if a.toc.Usable(entries) {
		log.Debug("using table of contents", "entries", len(entries))
		return a.assembler.FromToc(text, idx, entries), types.SourceToc
	}

	found := a.headings.Detect(text)
	if len(found) == 0 {
		return nil, types.SourceNone
	}
	log.Debug("using detected headings", "headings", len(found))
	return a.assembler.FromHeadings(text, idx, found), types.SourceHeadings
}
