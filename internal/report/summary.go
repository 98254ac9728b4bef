// Package report renders the outcome of a check run for people and machines:
// a Markdown summary, an optional PDF of it, and a JSON manifest sidecar.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/refcheck/internal/check"
	"github.com/hyperifyio/refcheck/internal/warn"
)

// Summary is everything shown in the human-readable report.
type Summary struct {
	Input       string
	Title       string
	Template    string
	Tex         bool
	References  int
	Citations   int
	Mismatches  []string
	Incomplete  []check.Incomplete
	Warnings    []warn.Entry
	GeneratedAt time.Time
}

// Markdown renders the summary. Sections without content are left out.
func (s Summary) Markdown() string {
	var b strings.Builder
	title := s.Title
	if title == "" {
		title = s.Input
	}
	fmt.Fprintf(&b, "# Reference check: %s\n\n", title)
	fmt.Fprintf(&b, "- Input: %s\n", s.Input)
	fmt.Fprintf(&b, "- Template: %s\n", s.Template)
	source := "Word"
	if s.Tex {
		source = "LaTeX"
	}
	fmt.Fprintf(&b, "- Source: %s\n", source)
	fmt.Fprintf(&b, "- References: %d\n", s.References)
	fmt.Fprintf(&b, "- Citations: %d\n", s.Citations)
	if !s.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", s.GeneratedAt.UTC().Format(time.RFC3339))
	}

	if len(s.Warnings) == 0 {
		b.WriteString("\nNo problems found.\n")
		return b.String()
	}

	b.WriteString("\n## Warnings\n\n")
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "- %s: %s\n", w.Name, w.Message)
	}
	if len(s.Mismatches) > 0 {
		b.WriteString("\n## Unmatched citations and references\n\n")
		for _, m := range s.Mismatches {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	if len(s.Incomplete) > 0 {
		b.WriteString("\n## Possibly incomplete references\n\n")
		for _, in := range s.Incomplete {
			fmt.Fprintf(&b, "- %s\n", in.Message())
		}
	}
	return b.String()
}
