package app

import "time"

// Config holds runtime configuration for a check run.
type Config struct {
	InputPath string
	OutputDir string

	// Reference parser
	AnystylePath  string
	ParserTimeout time.Duration

	// Template is EDM or JEDM; empty means detect from the document.
	Template string
	Tex      bool
	// CatalogPath points at a JSON or YAML warning catalog merged over the
	// built-in one.
	CatalogPath string
	// NameWords are extra lowercase surname words such as "van" or "de".
	NameWords []string

	// Parse cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxEntries  int
	CacheMaxBytes    int64
	CacheClear       bool
	CacheStrictPerms bool

	// Outputs
	EnablePDF    bool
	MarkupOutput string
	LedgerPath   string

	Verbose bool
}
