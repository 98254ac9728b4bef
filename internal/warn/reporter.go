// Package warn records conversion warnings: one CSV row per warning in a
// run-scoped file, plus a human-readable log line.
package warn

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrNoOutputPath is returned when a Reporter is built without a CSV path.
	ErrNoOutputPath = errors.New("warn: output path is required")
	// ErrUnknownWarning is returned for names missing from the catalog.
	ErrUnknownWarning = errors.New("warn: unknown warning")
)

// Header is the first CSV row.
var Header = []string{"warning_name", "extra_info", "is_tex"}

// Entry is one recorded warning.
type Entry struct {
	Name    string `json:"name"`
	Extra   string `json:"extra,omitempty"`
	Tex     bool   `json:"tex"`
	Message string `json:"message"`
}

// Reporter appends warnings to a CSV file. It is not safe for concurrent use;
// one Reporter serves one document.
type Reporter struct {
	path    string
	catalog Catalog
	log     zerolog.Logger
	entries []Entry
}

// NewReporter builds a Reporter writing to path. A nil catalog means the default one.
func NewReporter(path string, catalog Catalog, logger zerolog.Logger) (*Reporter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoOutputPath
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Reporter{path: path, catalog: catalog, log: logger}, nil
}

// Path returns the CSV path.
func (r *Reporter) Path() string { return r.path }

// Warn records a warning. extra carries instance details, such as which
// reference is affected; tex selects the LaTeX wording of the message.
func (r *Reporter) Warn(name, extra string, tex bool) error {
	def, ok := r.catalog[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWarning, name)
	}
	if err := r.appendRow(name, extra, tex); err != nil {
		return fmt.Errorf("record warning %s: %w", name, err)
	}
	msg := def.MessageFor(tex)
	r.entries = append(r.entries, Entry{Name: name, Extra: extra, Tex: tex, Message: msg})
	ev := r.log.Warn().Str("warning", name)
	if extra != "" {
		ev = ev.Str("detail", extra)
	}
	ev.Msg(msg)
	return nil
}

func (r *Reporter) appendRow(name, extra string, tex bool) error {
	_, statErr := os.Stat(r.path)
	fresh := errors.Is(statErr, os.ErrNotExist)
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if fresh {
		_ = w.Write(Header)
	}
	isTex := "0"
	if tex {
		isTex = "1"
	}
	_ = w.Write([]string{name, extra, isTex})
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Entries returns the warnings recorded by this Reporter, in order.
func (r *Reporter) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}
