package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/hyperifyio/refcheck/internal/app"
)

type options struct {
	configPath       string
	envFiles         []string
	outputDir        string
	anystylePath     string
	parserTimeout    time.Duration
	template         string
	tex              bool
	catalogPath      string
	nameWords        []string
	cacheDir         string
	cacheMaxAge      time.Duration
	cacheMaxEntries  int
	cacheMaxBytes    int64
	cacheClear       bool
	cacheStrictPerms bool
	pdf              bool
	markupOutput     string
	ledgerPath       string
	verbose          bool
}

var opts options

// resolveConfig builds the run configuration: defaults, then the config
// file, then the environment, then flags the user set explicitly.
func resolveConfig(flags *pflag.FlagSet, input string) (app.Config, error) {
	if err := app.LoadEnvFiles(opts.envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("load env: %w", err)
	}
	cfg := app.Config{
		OutputDir:    app.DefaultOutputDir,
		AnystylePath: app.DefaultAnystylePath,
		CacheDir:     app.DefaultCacheDir,
	}
	if path := configFilePath(flags); path != "" {
		fc, err := app.LoadConfigFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	applyFlags(flags, &cfg)
	if input != "" {
		cfg.InputPath = input
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return cfg, nil
}

// configFilePath returns the --config flag, or REFCHECK_CONFIG when the flag
// was not given. Call it after the env files are loaded.
func configFilePath(flags *pflag.FlagSet) string {
	if flags.Changed("config") {
		return opts.configPath
	}
	return strings.TrimSpace(os.Getenv("REFCHECK_CONFIG"))
}

func applyFlags(flags *pflag.FlagSet, cfg *app.Config) {
	set := flags.Changed
	if set("out") {
		cfg.OutputDir = opts.outputDir
	}
	if set("anystyle") {
		cfg.AnystylePath = opts.anystylePath
	}
	if set("anystyle.timeout") {
		cfg.ParserTimeout = opts.parserTimeout
	}
	if set("template") {
		cfg.Template = opts.template
	}
	if set("tex") {
		cfg.Tex = opts.tex
	}
	if set("catalog") {
		cfg.CatalogPath = opts.catalogPath
	}
	if set("name-word") {
		cfg.NameWords = append([]string{}, opts.nameWords...)
	}
	if set("cache.dir") {
		cfg.CacheDir = opts.cacheDir
	}
	if set("cache.maxAge") {
		cfg.CacheMaxAge = opts.cacheMaxAge
	}
	if set("cache.maxEntries") {
		cfg.CacheMaxEntries = opts.cacheMaxEntries
	}
	if set("cache.maxBytes") {
		cfg.CacheMaxBytes = opts.cacheMaxBytes
	}
	if set("cache.clear") {
		cfg.CacheClear = opts.cacheClear
	}
	if set("cache.strictPerms") {
		cfg.CacheStrictPerms = opts.cacheStrictPerms
	}
	if set("pdf") {
		cfg.EnablePDF = opts.pdf
	}
	if set("markup") {
		cfg.MarkupOutput = opts.markupOutput
	}
	if set("ledger") {
		cfg.LedgerPath = opts.ledgerPath
	}
	if set("verbose") {
		cfg.Verbose = opts.verbose
	}
}
