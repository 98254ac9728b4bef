// Package refs finds the bibliography of a converted paper and hands its
// entries to a reference parser.
package refs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/refcheck/internal/bib"
	"github.com/hyperifyio/refcheck/internal/document"
)

// Parser turns raw reference strings into structured records, one per line.
type Parser interface {
	Parse(ctx context.Context, lines []string) ([]bib.Record, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(ctx context.Context, lines []string) ([]bib.Record, error)

// Parse calls f.
func (f ParserFunc) Parse(ctx context.Context, lines []string) ([]bib.Record, error) {
	return f(ctx, lines)
}

// Lines returns the text of each list item of the first ordered list after
// the references heading, with whitespace collapsed. ok is false when the
// document has no references heading.
func Lines(doc *document.Document) (lines []string, ok bool) {
	heading := doc.ReferencesHeading()
	if heading == nil {
		return nil, false
	}
	ol := document.NextElement(heading, "ol")
	if ol == nil {
		return nil, true
	}
	for _, li := range document.FindAll(ol, "li") {
		lines = append(lines, document.CollapseSpace(document.Text(li)))
	}
	return lines, true
}

// Extract parses the document's reference list. A document without a
// references heading or list yields no records and no error; parser errors
// are returned.
func Extract(ctx context.Context, doc *document.Document, p Parser) ([]bib.Record, error) {
	lines, ok := Lines(doc)
	if !ok {
		log.Debug().Msg("no references heading")
		return nil, nil
	}
	if len(lines) == 0 {
		log.Debug().Msg("references heading has no list")
		return nil, nil
	}
	recs, err := p.Parse(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("parse %d references: %w", len(lines), err)
	}
	return recs, nil
}
