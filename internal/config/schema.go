package config

// Config holds quill-bot configuration.
// Loaded from config.yaml with QUILL_-prefixed environment overrides.
type Config struct {
	Structure  StructureCfg  `mapstructure:"structure" yaml:"structure"`
	Quiz       QuizCfg       `mapstructure:"quiz" yaml:"quiz"`
	Generation GenerationCfg `mapstructure:"generation" yaml:"generation"`
	Store      StoreCfg      `mapstructure:"store" yaml:"store"`
}

// StructureCfg tunes the chapter/topic extraction heuristics.
// The TOC thresholds are empirically tuned; treat them as configurable,
// not load-bearing.
type StructureCfg struct {
	// TocWindowPages restricts the ToC search to the first N pages.
	TocWindowPages int `mapstructure:"toc_window_pages" yaml:"toc_window_pages"`
	// TocBlockChars caps the candidate ToC block after the heading.
	TocBlockChars int `mapstructure:"toc_block_chars" yaml:"toc_block_chars"`
	// TocMinEntries is the minimum parsed-entry count for a usable ToC.
	// A heading with only 1-2 parsed lines is more likely a false positive
	// than a real short ToC.
	TocMinEntries int `mapstructure:"toc_min_entries" yaml:"toc_min_entries"`
	// TocMissLimit stops scanning after this many consecutive non-matching
	// lines, but only once TocMissAfter chapters have been found.
	TocMissLimit int `mapstructure:"toc_miss_limit" yaml:"toc_miss_limit"`
	TocMissAfter int `mapstructure:"toc_miss_after" yaml:"toc_miss_after"`
	// TocStopAfter enables the Glossary/Index/Appendix hard stop once this
	// many chapters have been found.
	TocStopAfter int `mapstructure:"toc_stop_after" yaml:"toc_stop_after"`
	// TitleSnapChars is how far into a page the assembler searches for the
	// chapter title when refining a ToC-derived start offset.
	TitleSnapChars int `mapstructure:"title_snap_chars" yaml:"title_snap_chars"`
	// TopicMaxLineChars is the maximum length of a topic boundary line.
	TopicMaxLineChars int `mapstructure:"topic_max_line_chars" yaml:"topic_max_line_chars"`
	// ReadingWPM is the words-per-minute assumption behind estimated
	// reading times.
	ReadingWPM int `mapstructure:"reading_wpm" yaml:"reading_wpm"`
}

// QuizCfg tunes quiz grading.
type QuizCfg struct {
	// QuestionCount is the number of questions requested per chapter quiz.
	QuestionCount int `mapstructure:"question_count" yaml:"question_count"`
	// PassScore is the fixed pass threshold against QuestionCount questions.
	// When a graded attempt has a different total, the threshold is
	// reinterpreted proportionally (at least PassScore/QuestionCount).
	PassScore int `mapstructure:"pass_score" yaml:"pass_score"`
}

// GenerationCfg configures the quiz question generation collaborator.
type GenerationCfg struct {
	Model          string `mapstructure:"model" yaml:"model"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// StoreCfg configures the record store.
type StoreCfg struct {
	// Path is the sqlite database file path.
	Path string `mapstructure:"path" yaml:"path"`
}
