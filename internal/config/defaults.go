package config

// DefaultConfig returns configuration with documented defaults:
// pass threshold 6/10, reading speed 200 wpm, ToC scan window
// 30 pages / 8000 chars.
func DefaultConfig() *Config {
	return &Config{
		Structure: StructureCfg{
			TocWindowPages:    30,
			TocBlockChars:     8000,
			TocMinEntries:     2,
			TocMissLimit:      25,
			TocMissAfter:      5,
			TocStopAfter:      3,
			TitleSnapChars:    1000,
			TopicMaxLineChars: 80,
			ReadingWPM:        200,
		},
		Quiz: QuizCfg{
			QuestionCount: 10,
			PassScore:     6,
		},
		Generation: GenerationCfg{
			Model:          "gpt-4o-mini",
			APIKey:         "${OPENAI_API_KEY}",
			MaxRetries:     3,
			TimeoutSeconds: 120,
		},
		Store: StoreCfg{
			Path: "quill.db",
		},
	}
}
