package check

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperifyio/refcheck/internal/bib"
	"github.com/hyperifyio/refcheck/internal/citation"
)

// ErrNothingToMatch is returned when there are no references or no citations.
var ErrNothingToMatch = errors.New("nothing to match")

const (
	citationPrefix  = "Citation: "
	referencePrefix = "Reference: "
)

// Match pairs citations with references and returns the unmatched ones as a
// sorted list of "Citation: x" and "Reference: y" lines. The inputs are not
// modified, so repeated calls give identical results.
func Match(records []bib.Record, cites []string, tmpl citation.Template) ([]string, error) {
	if len(records) == 0 || len(cites) == 0 {
		return nil, ErrNothingToMatch
	}
	var out []string
	switch tmpl {
	case citation.EDM:
		out = matchNumeric(len(records), cites)
	case citation.JEDM:
		out = matchAuthorYear(records, cites)
	default:
		return nil, fmt.Errorf("%w: %q", citation.ErrUnsupportedTemplate, string(tmpl))
	}
	sort.Strings(out)
	return out, nil
}

// matchNumeric compares citation numbers with reference positions 1..n.
func matchNumeric(n int, cites []string) []string {
	keys := make(map[string]struct{}, n)
	for i := 1; i <= n; i++ {
		keys[strconv.Itoa(i)] = struct{}{}
	}
	cited := make(map[string]struct{}, len(cites))
	var out []string
	for _, c := range cites {
		if _, dup := cited[c]; dup {
			continue
		}
		cited[c] = struct{}{}
		if _, ok := keys[c]; !ok {
			out = append(out, citationPrefix+c)
		}
	}
	for i := 1; i <= n; i++ {
		k := strconv.Itoa(i)
		if _, ok := cited[k]; !ok {
			out = append(out, referencePrefix+k)
		}
	}
	return out
}

// matchAuthorYear tries every citation against every reference. A pair
// matches when the years agree and the reference's authors appear in the
// citation. Matching is many-to-many: one citation may cover several
// references and the other way round.
func matchAuthorYear(records []bib.Record, cites []string) []string {
	prepared := make([]bib.Record, 0, len(records))
	for _, r := range records {
		prepared = append(prepared, prepareForMatch(r))
	}
	refMatched := make([]bool, len(prepared))
	var out []string
	for _, cite := range cites {
		matched := false
		for ri, ref := range prepared {
			if pairMatches(ref, cite) {
				matched = true
				refMatched[ri] = true
			}
		}
		if !matched {
			out = append(out, citationPrefix+cite)
		}
	}
	for ri, ok := range refMatched {
		if !ok {
			out = append(out, referencePrefix+records[ri].DisplayName())
		}
	}
	return out
}

// prepareForMatch fills in what the matcher needs on a copy of r: undated
// references get the placeholder year, and references without authors fall
// back to their publisher (organizations are often parsed that way).
func prepareForMatch(r bib.Record) bib.Record {
	r = r.Clone()
	if !r.Has("date") {
		r.Set("date", citation.NoDate)
	}
	if !r.Has("author") {
		if p := r.First("publisher"); p != "" {
			r.Author = []bib.Person{{Family: p}}
		}
	}
	return r
}

var initialsRe = regexp.MustCompile(`^[A-Z]\.`)

func pairMatches(ref bib.Record, cite string) bool {
	if firstRunes(ref.First("date"), 4) != firstRunes(lastField(cite), 4) {
		return false
	}
	if !ref.Has("author") {
		return false
	}
	var found []bool
	for _, a := range ref.Author {
		if a.Others {
			// "..." in long author lists.
			continue
		}
		name := a.Name()
		if name == "n.d" && a.Given != "" {
			name = a.Given
		}
		ok := containsWord(cite, name)
		if !ok && initialsRe.MatchString(name) {
			// "A.C.M.E." is cited as "ACME".
			ok = containsWord(cite, strings.ReplaceAll(name, ".", ""))
		}
		found = append(found, ok)
	}
	all := true
	for _, f := range found {
		all = all && f
	}
	if all {
		return true
	}
	return strings.Contains(cite, " et al.") && len(ref.Author) > 2 && found[0]
}

func lastField(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

func firstRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// containsWord reports whether word occurs in s with a word boundary on both
// sides. Letters and digits of any script count as word characters, so
// "Müller" does not match inside "Müllerson".
func containsWord(s, word string) bool {
	if word == "" {
		for i := 0; i <= len(s); i++ {
			if boundaryAt(s, i) {
				return true
			}
		}
		return false
	}
	for from := 0; from <= len(s)-len(word); {
		idx := strings.Index(s[from:], word)
		if idx < 0 {
			return false
		}
		start := from + idx
		if boundaryAt(s, start) && boundaryAt(s, start+len(word)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return false
}

func boundaryAt(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
