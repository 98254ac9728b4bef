// Package anystyle runs the external anystyle command-line parser over
// reference lines and decodes its JSON output into bibliographic records.
package anystyle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/refcheck/internal/bib"
	"github.com/hyperifyio/refcheck/internal/cache"
)

const (
	inputName  = "extracted_refs.txt"
	outputName = "extracted_refs.json"
	stderrTail = 512
)

var (
	// ErrParserFailed is returned when the parser cannot be started or exits
	// with a non-zero status.
	ErrParserFailed = errors.New("anystyle: parser failed")
	// ErrMalformedOutput is returned when the parser's JSON cannot be decoded.
	ErrMalformedOutput = errors.New("anystyle: malformed output")
)

// Runner invokes anystyle. WorkDir receives the input and output files.
type Runner struct {
	Path    string
	WorkDir string
	// Timeout bounds a single parser run; zero means no limit beyond ctx.
	Timeout time.Duration
	// Cache, when set, is consulted before running the parser.
	Cache *cache.ParseCache
}

// Parse writes lines to the work directory, one reference per line, runs the
// parser and returns one record per reference.
func (r *Runner) Parse(ctx context.Context, lines []string) ([]bib.Record, error) {
	if strings.TrimSpace(r.Path) == "" {
		return nil, fmt.Errorf("%w: no executable configured", ErrParserFailed)
	}
	var key string
	if r.Cache != nil {
		key = cache.KeyFrom(r.Path, lines)
		if raw, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			if recs, derr := bib.Decode(raw); derr == nil {
				log.Debug().Str("key", key).Int("references", len(recs)).Msg("parse cache hit")
				return recs, nil
			}
		}
	}
	raw, err := r.run(ctx, lines)
	if err != nil {
		return nil, err
	}
	recs, err := bib.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if r.Cache != nil {
		if err := r.Cache.Save(ctx, key, raw); err != nil {
			log.Warn().Err(err).Msg("parse cache save failed")
		}
	}
	return recs, nil
}

func (r *Runner) run(ctx context.Context, lines []string) ([]byte, error) {
	dir := r.WorkDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare work dir: %w", err)
	}
	in := filepath.Join(dir, inputName)
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(in, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write references: %w", err)
	}
	out := filepath.Join(dir, outputName)
	// A stale file from an earlier run must not pass for this run's output.
	_ = os.Remove(out)

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, r.Path, "-f", "json", "--overwrite", "parse", in, dir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrParserFailed, err, tail(stderr.String()))
	}
	log.Debug().Str("parser", r.Path).Int("lines", len(lines)).Dur("took", time.Since(start)).Msg("reference parser finished")
	raw, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrMalformedOutput, err)
	}
	return raw, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) > stderrTail {
		s = s[len(s)-stderrTail:]
	}
	return ": " + s
}
