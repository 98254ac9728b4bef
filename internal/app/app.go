// Package app wires the reference checker into a single run over one paper:
// it resolves configuration, runs the checks and writes the run's artifacts.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/refcheck/internal/anystyle"
	"github.com/hyperifyio/refcheck/internal/bib"
	"github.com/hyperifyio/refcheck/internal/cache"
	"github.com/hyperifyio/refcheck/internal/check"
	"github.com/hyperifyio/refcheck/internal/citation"
	"github.com/hyperifyio/refcheck/internal/document"
	"github.com/hyperifyio/refcheck/internal/ledger"
	"github.com/hyperifyio/refcheck/internal/markup"
	"github.com/hyperifyio/refcheck/internal/refs"
	"github.com/hyperifyio/refcheck/internal/report"
	"github.com/hyperifyio/refcheck/internal/warn"
)

// Artifact names written to the output directory.
const (
	WarningsFile = "conversion_warnings.csv"
	SummaryFile  = "summary.md"
	PDFFile      = "summary.pdf"
	ManifestFile = "refcheck.manifest.json"
)

// WarnTemplateNotDetected is recorded when no template is configured and none
// can be detected from the document.
const WarnTemplateNotDetected = "template_not_detected"

// ErrTemplateNotDetected is returned when the template is neither configured
// nor detectable.
var ErrTemplateNotDetected = markup.ErrTemplateNotDetected

type App struct {
	cfg     Config
	catalog warn.Catalog
	cache   *cache.ParseCache
	ledger  *ledger.DB
}

// Outcome describes a finished run and where its artifacts went.
type Outcome struct {
	Template     citation.Template
	Result       check.Result
	Warnings     []warn.Entry
	WarningsPath string
	SummaryPath  string
	PDFPath      string
	ManifestPath string
	MarkupPath   string
}

func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, catalog: warn.DefaultCatalog()}
	if cfg.CatalogPath != "" {
		c, err := warn.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		a.catalog = c
	}
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale parse cache entries")
			}
		}
		if cfg.CacheMaxEntries > 0 || cfg.CacheMaxBytes > 0 {
			if n, err := cache.EnforceLimits(cfg.CacheDir, cfg.CacheMaxBytes, cfg.CacheMaxEntries); err != nil {
				log.Warn().Err(err).Msg("cache limit enforcement failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("evicted parse cache entries over limit")
			}
		}
		a.cache = &cache.ParseCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	if cfg.LedgerPath != "" {
		db, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		a.ledger = db
	}
	return a, nil
}

// Close releases the ledger, if one is open.
func (a *App) Close() error {
	if a.ledger == nil {
		return nil
	}
	return a.ledger.Close()
}

func (a *App) load() ([]byte, *document.Document, error) {
	raw, err := os.ReadFile(a.cfg.InputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	doc, err := document.FromBytes(raw)
	if err != nil {
		return nil, nil, err
	}
	return raw, doc, nil
}

// template returns the configured template, or the detected one when none is
// configured.
func (a *App) template(raw []byte) (citation.Template, error) {
	if strings.TrimSpace(a.cfg.Template) != "" {
		return citation.ParseTemplate(a.cfg.Template)
	}
	t, err := markup.DetectTemplate(raw)
	if err != nil {
		return "", err
	}
	log.Debug().Str("template", string(t)).Msg("detected template")
	return t, nil
}

func (a *App) parser() *anystyle.Runner {
	return &anystyle.Runner{
		Path:    a.cfg.AnystylePath,
		WorkDir: a.cfg.OutputDir,
		Timeout: a.cfg.ParserTimeout,
		Cache:   a.cache,
	}
}

// Run checks the configured paper and writes the run's artifacts. Problems in
// the paper are reported as warnings, not errors.
func (a *App) Run(ctx context.Context) (Outcome, error) {
	var out Outcome
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return out, fmt.Errorf("create output dir: %w", err)
	}
	raw, doc, err := a.load()
	if err != nil {
		return out, err
	}

	out.WarningsPath = filepath.Join(a.cfg.OutputDir, WarningsFile)
	reporter, err := warn.NewReporter(out.WarningsPath, a.catalog, log.Logger)
	if err != nil {
		return out, err
	}

	tmpl, err := a.template(raw)
	if err != nil {
		if errors.Is(err, ErrTemplateNotDetected) {
			if werr := reporter.Warn(WarnTemplateNotDetected, "", a.cfg.Tex); werr != nil {
				return out, werr
			}
			out.Warnings = reporter.Entries()
		}
		return out, err
	}
	out.Template = tmpl

	checker := check.Checker{
		Parser:    a.parser(),
		Reporter:  reporter,
		Template:  tmpl,
		Tex:       a.cfg.Tex,
		NameWords: a.cfg.NameWords,
	}
	res, err := checker.Run(ctx, doc)
	if err != nil {
		return out, err
	}
	out.Result = res
	out.Warnings = reporter.Entries()
	log.Info().Str("template", string(tmpl)).Int("references", len(res.References)).
		Int("citations", len(res.Citations)).Int("warnings", len(out.Warnings)).Msg("check finished")

	now := time.Now().UTC()
	if err := a.writeArtifacts(ctx, raw, &out, now); err != nil {
		return out, err
	}
	return out, nil
}

func (a *App) writeArtifacts(ctx context.Context, raw []byte, out *Outcome, now time.Time) error {
	counts := map[string]int{}
	names := make([]string, 0, len(out.Warnings))
	for _, w := range out.Warnings {
		counts[w.Name]++
		names = append(names, w.Name)
	}
	manifest := report.Manifest{
		Input:       a.cfg.InputPath,
		InputSHA256: report.SHA256Hex(raw),
		Template:    string(out.Template),
		Tex:         a.cfg.Tex,
		Parser:      a.cfg.AnystylePath,
		ParseCache:  a.cache != nil,
		References:  len(out.Result.References),
		Citations:   len(out.Result.Citations),
		Warnings:    counts,
		Version:     BuildVersion,
		GeneratedAt: now,
	}
	summary := report.Summary{
		Input:       a.cfg.InputPath,
		Title:       markup.Title(raw),
		Template:    string(out.Template),
		Tex:         a.cfg.Tex,
		References:  len(out.Result.References),
		Citations:   len(out.Result.Citations),
		Mismatches:  out.Result.Mismatches,
		Incomplete:  out.Result.Incomplete,
		Warnings:    out.Warnings,
		GeneratedAt: now,
	}
	md := report.AppendManifest(summary.Markdown(), manifest)

	out.SummaryPath = filepath.Join(a.cfg.OutputDir, SummaryFile)
	if err := os.WriteFile(out.SummaryPath, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if a.cfg.EnablePDF {
		out.PDFPath = filepath.Join(a.cfg.OutputDir, PDFFile)
		if err := report.WritePDF(md, out.PDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	out.ManifestPath = filepath.Join(a.cfg.OutputDir, ManifestFile)
	if err := report.WriteManifest(out.ManifestPath, manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	if a.cfg.MarkupOutput != "" {
		marked, n, err := markup.MarkUpCitations(raw, out.Template)
		if err != nil {
			return fmt.Errorf("mark up citations: %w", err)
		}
		if err := os.WriteFile(a.cfg.MarkupOutput, marked, 0o644); err != nil {
			return fmt.Errorf("write marked-up html: %w", err)
		}
		out.MarkupPath = a.cfg.MarkupOutput
		log.Debug().Int("links", n).Str("path", out.MarkupPath).Msg("marked up citations")
	}

	if a.ledger != nil {
		_, err := a.ledger.Record(ctx, ledger.Run{
			Input:       a.cfg.InputPath,
			InputSHA256: manifest.InputSHA256,
			Template:    string(out.Template),
			References:  manifest.References,
			Citations:   manifest.Citations,
			Warnings:    names,
			At:          now,
		})
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}
	return nil
}

// Citations returns the in-text citations of the configured paper without
// parsing its reference list. Only the built-in and configured surname words
// feed the author-year grammar.
func (a *App) Citations() (citation.Template, []string, error) {
	raw, doc, err := a.load()
	if err != nil {
		return "", nil, err
	}
	tmpl, err := a.template(raw)
	if err != nil {
		return "", nil, err
	}
	words := citation.Words([][]string{bib.DefaultNameWords, a.cfg.NameWords})
	cites, err := citation.Extract(doc, tmpl, words)
	return tmpl, cites, err
}

// References parses the configured paper's reference list.
func (a *App) References(ctx context.Context) ([]bib.Record, error) {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	_, doc, err := a.load()
	if err != nil {
		return nil, err
	}
	return refs.Extract(ctx, doc, a.parser())
}
