// Package bib defines bibliographic reference records as produced by an
// external reference parser (CSL-like field names, list-valued fields).
package bib

import (
	"sort"
	"strings"
)

// Type is the detected kind of a reference.
type Type string

const (
	Book            Type = "book"
	Report          Type = "report"
	Chapter         Type = "chapter"
	PaperConference Type = "paper-conference"
	ArticleJournal  Type = "article-journal"
	Other           Type = ""
)

// Known reports whether t is one of the recognized types.
func (t Type) Known() bool {
	switch t {
	case Book, Report, Chapter, PaperConference, ArticleJournal:
		return true
	}
	return false
}

// Display returns the type name, or "other" when unspecified.
func (t Type) Display() string {
	if t == Other {
		return "other"
	}
	return string(t)
}

// Person is a name entry in an author or editor list.
type Person struct {
	Family   string `json:"family,omitempty"`
	Given    string `json:"given,omitempty"`
	Particle string `json:"particle,omitempty"`
	Literal  string `json:"literal,omitempty"`
	// Others marks an "et al." slot absorbed by the parser.
	Others bool `json:"others,omitempty"`
}

// Name returns the best single name for matching: family, then given, then literal.
func (p Person) Name() string {
	switch {
	case p.Family != "":
		return p.Family
	case p.Given != "":
		return p.Given
	}
	return p.Literal
}

// Record is one parsed reference. Person lists live in Author/Editor, every
// other field is a list of strings keyed by its CSL-like name.
type Record struct {
	Type   Type
	Author []Person
	Editor []Person
	Fields map[string][]string
}

// Has reports whether the field is present with at least one value.
func (r Record) Has(field string) bool {
	switch field {
	case "type":
		return r.Type != Other
	case "author":
		return len(r.Author) > 0
	case "editor":
		return len(r.Editor) > 0
	}
	return len(r.Fields[field]) > 0
}

// Get returns the values of a string field.
func (r Record) Get(field string) []string {
	return r.Fields[field]
}

// First returns the first value of a string field, or "".
func (r Record) First(field string) string {
	if v := r.Fields[field]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Set replaces the values of a string field.
func (r *Record) Set(field string, values ...string) {
	if r.Fields == nil {
		r.Fields = make(map[string][]string)
	}
	r.Fields[field] = values
}

// Clone returns a deep copy so callers can backfill without touching the original.
func (r Record) Clone() Record {
	out := Record{Type: r.Type}
	if r.Author != nil {
		out.Author = append([]Person(nil), r.Author...)
	}
	if r.Editor != nil {
		out.Editor = append([]Person(nil), r.Editor...)
	}
	out.Fields = make(map[string][]string, len(r.Fields))
	for k, v := range r.Fields {
		out.Fields[k] = append([]string(nil), v...)
	}
	return out
}

// FieldNames lists present fields in sorted order, including author/editor/type.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields)+3)
	for k, v := range r.Fields {
		if len(v) > 0 {
			names = append(names, k)
		}
	}
	for _, k := range []string{"type", "author", "editor"} {
		if r.Has(k) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// FamilyNames returns the family names of the authors, skipping entries without one.
func (r Record) FamilyNames() []string {
	var out []string
	for _, a := range r.Author {
		if a.Family != "" {
			out = append(out, a.Family)
		}
	}
	return out
}

// DisplayName is the string used to point a reviewer at a reference.
func (r Record) DisplayName() string {
	for _, k := range []string{"title", "container-title"} {
		if v := strings.TrimSpace(r.First(k)); v != "" {
			return v
		}
	}
	if fams := r.FamilyNames(); len(fams) > 0 {
		return strings.Join(fams, ", ")
	}
	if d := r.First("date"); d != "" {
		return d
	}
	return "(untitled)"
}

// DefaultNameWords are lowercase words that commonly start or join surnames.
var DefaultNameWords = []string{
	"van", "de", "der", "ten", "la", "y", "da", "das", "dos", "e", "di", "lo", "al", "bin", "bint", "abu",
}

// LowercaseNameWords collects lowercase words that appear in family names and
// particles of the given records (e.g. "van", "der" from "van der Waal").
func LowercaseNameWords(records []Record) map[string]struct{} {
	words := make(map[string]struct{})
	for _, r := range records {
		for _, a := range r.Author {
			for _, w := range strings.Fields(a.Family) {
				if w == strings.ToLower(w) {
					words[w] = struct{}{}
				}
			}
			for _, w := range strings.Fields(a.Particle) {
				words[w] = struct{}{}
			}
		}
	}
	return words
}
