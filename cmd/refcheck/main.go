// Package main provides the refcheck CLI entry point.
package main

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/refcheck/internal/app"
	"github.com/hyperifyio/refcheck/internal/citation"
)

// Exit codes. Warnings about the paper are not failures.
const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitTemplate = 2 // template unsupported or not detectable
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, citation.ErrUnsupportedTemplate), errors.Is(err, app.ErrTemplateNotDetected):
		return ExitTemplate
	default:
		return ExitError
	}
}

var rootCmd = &cobra.Command{
	Use:   "refcheck",
	Short: "Check citations against references in converted papers",
	Long: `refcheck reads the HTML of a converted conference or journal paper, matches
its in-text citations against its reference list and flags references that
look incomplete. Findings are written to conversion_warnings.csv alongside a
Markdown summary and a JSON manifest.

Settings are read from flags, then the environment (including .env files),
then an optional YAML or JSON config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Path to YAML or JSON config file (default: $REFCHECK_CONFIG)")
	f.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files to load; later files override earlier ones")
	f.StringVarP(&opts.outputDir, "out", "o", app.DefaultOutputDir, "Directory for warnings, summary and manifest")
	f.StringVar(&opts.anystylePath, "anystyle", app.DefaultAnystylePath, "Path to the anystyle executable")
	f.DurationVar(&opts.parserTimeout, "anystyle.timeout", 0, "Time limit for one anystyle run (0 = none)")
	f.StringVarP(&opts.template, "template", "t", "", "Paper template: EDM or JEDM (default: detect)")
	f.BoolVar(&opts.tex, "tex", false, "Paper was converted from LaTeX; use LaTeX wording in warnings")
	f.StringVar(&opts.catalogPath, "catalog", "", "Warning catalog (JSON or YAML) merged over the built-in one")
	f.StringSliceVar(&opts.nameWords, "name-word", nil, "Extra lowercase surname word, such as van or de (repeatable)")
	f.StringVar(&opts.cacheDir, "cache.dir", app.DefaultCacheDir, "Parse cache directory")
	f.DurationVar(&opts.cacheMaxAge, "cache.maxAge", 0, "Purge parse cache entries older than this")
	f.IntVar(&opts.cacheMaxEntries, "cache.maxEntries", 0, "Keep at most this many parse cache entries (0 = unlimited)")
	f.Int64Var(&opts.cacheMaxBytes, "cache.maxBytes", 0, "Keep the parse cache under this many bytes (0 = unlimited)")
	f.BoolVar(&opts.cacheClear, "cache.clear", false, "Clear the parse cache before running")
	f.BoolVar(&opts.cacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions to the current user")
	f.BoolVar(&opts.pdf, "pdf", false, "Also write summary.pdf")
	f.StringVar(&opts.markupOutput, "markup", "", "Write the HTML with citation links marked up to this path")
	f.StringVar(&opts.ledgerPath, "ledger", "", "SQLite ledger recording every run")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.Version = app.VersionString()
}
