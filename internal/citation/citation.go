// Package citation finds in-text citations in the plain text of a paper.
//
// Two grammars are supported: numeric brackets ("[3]", "[2-4]") for the EDM
// template and author-year parentheticals ("(Solo, 1999)", "Solo (1999)") for
// JEDM. Both are heuristic scanners, tuned on real papers rather than derived
// from a formal grammar, and they under- or over-match on unusual prose.
package citation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperifyio/refcheck/internal/document"
)

// Template selects the citation grammar and the reference requirements.
type Template string

const (
	// EDM uses numeric bracket citations keyed by reference position.
	EDM Template = "EDM"
	// JEDM uses author-year citations.
	JEDM Template = "JEDM"
)

// ErrUnsupportedTemplate is returned for template names without a grammar.
var ErrUnsupportedTemplate = errors.New("unsupported template")

// ParseTemplate resolves a template name, ignoring case and surrounding space.
func ParseTemplate(name string) (Template, error) {
	switch t := Template(strings.ToUpper(strings.TrimSpace(name))); t {
	case EDM, JEDM:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedTemplate, name)
}

// Numeric reports whether citations are reference positions.
func (t Template) Numeric() bool { return t == EDM }

// Extract returns the citations of doc in document order. The bibliography is
// left out of the scanned text so its entries are not read as citations.
// nameWords lists lowercase words that can start a surname ("van", "de"); it is
// only used by the author-year grammar.
func Extract(doc *document.Document, tmpl Template, nameWords map[string]struct{}) ([]string, error) {
	text := doc.TextWithoutBibliography()
	switch tmpl {
	case EDM:
		return Brackets(text), nil
	case JEDM:
		return AuthorYear(text, nameWords), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedTemplate, string(tmpl))
}

// Words builds a name-word set from any number of word lists and sets.
func Words(lists [][]string, sets ...map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, l := range lists {
		for _, w := range l {
			if w != "" {
				out[w] = struct{}{}
			}
		}
	}
	for _, s := range sets {
		for w := range s {
			out[w] = struct{}{}
		}
	}
	return out
}

// span is a regexp match whose end was moved back to where a lookahead would
// have started, so scanning resumes at the same place.
type span struct {
	loc []int
}

func (s span) start() int { return s.loc[0] }
func (s span) end() int   { return s.loc[1] }

func (s span) group(text string, n int) string {
	if s.loc[2*n] < 0 {
		return ""
	}
	return text[s.loc[2*n]:s.loc[2*n+1]]
}

// scanLogical finds successive non-overlapping matches of re in text. re
// consumes what the grammar only peeks at; logicalEnd maps a match to the
// position the peeked part starts at, which becomes the match end and the
// resume point.
func scanLogical(re *regexp.Regexp, text string, logicalEnd func(loc []int) int) []span {
	var out []span
	pos := 0
	for pos <= len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		end := logicalEnd(loc)
		loc[1] = end
		out = append(out, span{loc: loc})
		if end > loc[0] {
			pos = end
		} else {
			pos = loc[0] + 1
		}
	}
	return out
}
