// Package check compares a paper's in-text citations with its reference list
// and flags references that look incomplete.
package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/refcheck/internal/bib"
	"github.com/hyperifyio/refcheck/internal/citation"
	"github.com/hyperifyio/refcheck/internal/document"
	"github.com/hyperifyio/refcheck/internal/refs"
)

// Warning names recorded by Run.
const (
	WarnNoReferences  = "no_references_found_in_reference_section"
	WarnNoCitations   = "no_citations_found_in_text"
	WarnMismatched    = "mismatched_refs"
	WarnIncomplete    = "incomplete_reference"
	WarnParserFailed  = "reference_parser_failed"
	mismatchSeparator = "; "
)

// Reporter receives warnings. *warn.Reporter satisfies it.
type Reporter interface {
	Warn(name, extra string, tex bool) error
}

// Checker runs the citation and completeness checks for one document.
type Checker struct {
	Parser   refs.Parser
	Reporter Reporter
	Template citation.Template
	// Tex selects the LaTeX wording of warnings.
	Tex bool
	// NameWords extends the lowercase surname words used by the author-year
	// grammar.
	NameWords []string
}

// Result is what a run found. Fields stay empty past the step that stopped it.
type Result struct {
	References []bib.Record `json:"references"`
	Citations  []string     `json:"citations"`
	Mismatches []string     `json:"mismatches,omitempty"`
	Incomplete []Incomplete `json:"incomplete,omitempty"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// Run checks doc. Problems in the document become warnings; an error is
// returned only for an unsupported template, a missing parser or a reporter
// that cannot record.
func (c *Checker) Run(ctx context.Context, doc *document.Document) (Result, error) {
	var res Result
	if c.Template != citation.EDM && c.Template != citation.JEDM {
		return res, fmt.Errorf("%w: %q", citation.ErrUnsupportedTemplate, string(c.Template))
	}
	if c.Parser == nil {
		return res, fmt.Errorf("check: no reference parser configured")
	}
	records, err := refs.Extract(ctx, doc, c.Parser)
	if err != nil {
		log.Debug().Err(err).Msg("reference parser failed")
		return res, c.warn(&res, WarnParserFailed, err.Error())
	}
	res.References = records
	if len(records) == 0 {
		return res, c.warn(&res, WarnNoReferences, "")
	}

	words := citation.Words([][]string{bib.DefaultNameWords, c.NameWords}, bib.LowercaseNameWords(records))
	cites, err := citation.Extract(doc, c.Template, words)
	if err != nil {
		return res, err
	}
	res.Citations = cites
	if len(cites) == 0 {
		return res, c.warn(&res, WarnNoCitations, "")
	}
	log.Debug().Int("references", len(records)).Int("citations", len(cites)).Str("template", string(c.Template)).Msg("matching citations")

	mismatches, err := Match(records, cites, c.Template)
	if err != nil {
		return res, err
	}
	res.Mismatches = mismatches
	if len(mismatches) > 0 {
		if err := c.warn(&res, WarnMismatched, strings.Join(mismatches, mismatchSeparator)); err != nil {
			return res, err
		}
	}

	res.Incomplete = Completeness(records)
	for _, in := range res.Incomplete {
		if err := c.warn(&res, WarnIncomplete, in.Message()); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (c *Checker) warn(res *Result, name, extra string) error {
	res.Warnings = append(res.Warnings, name)
	if c.Reporter == nil {
		return nil
	}
	return c.Reporter.Warn(name, extra, c.Tex)
}
