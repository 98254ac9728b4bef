package check

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperifyio/refcheck/internal/bib"
)

// Issue is deliberately absent from article-journal: parsers miss it too often.
var requirements = map[bib.Type][]string{
	bib.Book:            {"author", "title", "date", "publisher"},
	bib.Report:          {"author", "title", "date", "publisher"},
	bib.Chapter:         {"author", "title", "date", "publisher", "editor", "container-title", "pages", "location"},
	bib.PaperConference: {"author", "title", "date", "container-title", "pages"},
	bib.ArticleJournal:  {"author", "title", "date", "container-title", "pages", "volume"},
}

var defaultRequirements = []string{"title", "date"}

// Requirements returns the fields a reference of type t should carry.
func Requirements(t bib.Type) []string {
	if r, ok := requirements[t]; ok {
		return append([]string(nil), r...)
	}
	return append([]string(nil), defaultRequirements...)
}

const (
	keyLimit  = 35
	keyPrefix = 30
)

// Incomplete describes one reference that lacks required fields.
type Incomplete struct {
	// Index is the 1-based position in the reference list.
	Index   int      `json:"index"`
	Type    string   `json:"type"`
	Key     string   `json:"key,omitempty"`
	Missing []string `json:"missing"`
}

// Message is the text recorded with the incomplete_reference warning.
func (in Incomplete) Message() string {
	key := ""
	if in.Key != "" {
		key = " (" + in.Key + ")"
	}
	return fmt.Sprintf("Reference %d%s was recognized as %s and might be missing the following: %s",
		in.Index, key, in.Type, strings.Join(in.Missing, ", "))
}

// Completeness lists the references that miss fields required for their type.
// Records are not modified.
func Completeness(records []bib.Record) []Incomplete {
	var out []Incomplete
	for i, rec := range records {
		rec = backfill(rec)
		var missing []string
		for _, f := range Requirements(rec.Type) {
			if !rec.Has(f) {
				missing = append(missing, f)
			}
		}
		if len(missing) == 0 {
			continue
		}
		out = append(out, Incomplete{
			Index:   i + 1,
			Type:    rec.Type.Display(),
			Key:     shortKey(rec),
			Missing: missing,
		})
	}
	return out
}

var notePagesRe = regexp.MustCompile(`(\d+[-\x{2013}]\d+)\.$`)

// backfill returns a copy of rec with fields that parsers commonly put in the
// wrong place moved where they belong.
func backfill(rec bib.Record) bib.Record {
	rec = rec.Clone()
	if !rec.Has("pages") {
		if dates := rec.Get("date"); len(dates) > 1 {
			// Page numbers misread as extra dates.
			rec.Set("pages", dates[1:]...)
		} else if m := notePagesRe.FindStringSubmatch(rec.First("note")); m != nil {
			rec.Set("pages", m[1])
		}
	}
	if !rec.Has("author") {
		// Organisations as authors tend to be parsed as the publisher.
		if p := rec.First("publisher"); p != "" {
			rec.Author = []bib.Person{{Family: p}}
		}
	}
	if !rec.Has("publisher") {
		if ct := rec.Get("container-title"); len(ct) > 1 {
			rec.Set("publisher", ct[1])
		}
	}
	return rec
}

func shortKey(rec bib.Record) string {
	var key string
	switch {
	case rec.Has("title"):
		key = rec.First("title")
	case rec.Has("author"):
		key = strings.Join(rec.FamilyNames(), ", ")
	case rec.Has("container-title"):
		key = rec.First("container-title")
	}
	if r := []rune(key); len(r) > keyLimit {
		key = string(r[:keyPrefix]) + "..."
	}
	return key
}
