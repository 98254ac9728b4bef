package citation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ", pp. 14-15", ", p. 5", " Ch. 5-11", ", Sec. 2"
	pageQualifierRe = regexp.MustCompile(`,? ((?:pp|Ch|Sec)\. \d+(?:\d*[-\x{2010}-\x{2015}, ]+\d+)*|(?:p|Ch|Sec)\. \d+)\b`)
	fillerRe        = regexp.MustCompile(`(e\.g\.|i\.e\.|,? ?for example),? ?`)

	// A citation ends with a year, "nd" or "et al., " right before ")" or "]".
	// After "]" there must be a ")" before any "(", as in "(see [Solo, 1999])".
	// Group 2 is the closer; the part after "]" is only peeked at.
	closingRe = regexp.MustCompile(`((?:\s|\(|\[)[12][0-9]{3}[a-z]?| nd| et al., )(\)|\][^(]*\))`)

	// One year at the end of a citation piece, followed by "," or the end.
	// The trailing "," is only peeked at.
	yearEndRe = regexp.MustCompile(`,? *([12][0-9]{3}[a-z]?| nd)(?:,|$)`)
)

// Words that keep the backward scan going even though they are lowercase.
var joinerWords = map[string]struct{}{"et": {}, "al": {}, "&": {}, "and": {}}

// NoDate replaces "nd" in author-year citations.
const NoDate = "XXXX"

// AuthorYear returns author-year citations as "<authors>, <year>" strings in
// the order they were found. nameWords are lowercase words that belong to
// surnames, such as "van" in "van der Waal".
//
// Each closing year is scanned backwards to its opening delimiter. Two shapes
// are told apart there:
//
//   - "(Solo, 1999; Nestington, 2000)": names sit inside the bracket, which is
//     split into one citation per year.
//   - "Solo (1999)", "by Solo et al. (1999, 2000b)": the bracket opens on a
//     digit, so the names are in the running text before it. Scanning goes on
//     until a "(" or a lowercase word that is not part of a name.
//
// The first delimiter reached decides the shape; mixed delimiters such as
// "(a claim by Solo [2000])" follow whichever rule fires first.
func AuthorYear(text string, nameWords map[string]struct{}) []string {
	text = collapseWhitespace(text)
	text = pageQualifierRe.ReplaceAllString(text, "")
	text = fillerRe.ReplaceAllString(text, "")

	var cites []string
	closers := scanLogical(closingRe, text, func(loc []int) int { return loc[4] + 1 })
	for _, c := range closers {
		cites = append(cites, backtrack(text, c.end(), nameWords)...)
	}
	return cites
}

// backtrack walks left from the closer at end-1.
func backtrack(text string, end int, nameWords map[string]struct{}) []string {
	inline := false
	for i := end - 1; i >= 0; i-- {
		ch := text[i]
		if inline && (ch == ' ' || ch == '(') && !isOpener(text[i+1]) {
			inner := text[i+1 : end-1]
			fields := strings.Fields(inner)
			if len(fields) == 0 {
				continue
			}
			firstTok := fields[0]
			firstWord := strings.TrimRight(firstTok, ".,;:")
			if ch == '(' || startsProse(firstWord, nameWords) {
				offset := 1
				if ch != '(' {
					// Skip the prose word and the space after it.
					offset = len(firstTok) + 2
				}
				cite := ""
				if from := runeAlign(text, i+offset); from < end-1 {
					cite = text[from : end-1]
				}
				cite = strings.ReplaceAll(cite, " (", ", ")
				cite = strings.ReplaceAll(cite, " [", ", ")
				return []string{cite}
			}
		} else if isOpener(ch) {
			if isDigit(text[i+1]) {
				// "(1999; 2000b)": the names come before the bracket.
				inline = true
				continue
			}
			return splitBracket(text[i+1 : end-1])
		}
	}
	return nil
}

// splitBracket turns the inside of "(A, 1999; B and C, 2000, 2001)" into one
// citation per year.
func splitBracket(inner string) []string {
	var cites []string
	for _, piece := range splitAfterYears(inner) {
		years := scanLogical(yearEndRe, piece, func(loc []int) int { return loc[3] })
		if len(years) == 0 {
			continue
		}
		names := removeSpans(piece, years)
		for _, y := range years {
			year := y.group(piece, 1)
			if year == " nd" {
				year = NoDate
			}
			cites = append(cites, names+", "+year)
		}
	}
	return cites
}

// splitAfterYears cuts s at every ";" or "," that directly follows a year
// ("1999" or "1999a") and is followed, after optional spaces, by something
// other than a digit. "Solo, 1999, 2000" stays whole; "Solo, 1999, Nest, 2000"
// is cut in two.
func splitAfterYears(s string) []string {
	var pieces []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != ';' && s[i] != ',' {
			continue
		}
		if !yearEndsAt(s, i) {
			continue
		}
		j := i + 1
		for j < len(s) && s[j] == ' ' {
			j++
		}
		if j >= len(s) {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(s[j:]); unicode.IsDigit(r) {
			continue
		}
		pieces = append(pieces, s[start:i])
		start = j
		i = j - 1
	}
	return append(pieces, s[start:])
}

// yearEndsAt reports whether s[:i] ends with four digits, optionally followed
// by one lowercase letter.
func yearEndsAt(s string, i int) bool {
	if allDigits(s, i-4, i) {
		return true
	}
	return i >= 1 && s[i-1] >= 'a' && s[i-1] <= 'z' && allDigits(s, i-5, i-1)
}

func allDigits(s string, from, to int) bool {
	if from < 0 {
		return false
	}
	for k := from; k < to; k++ {
		if !isDigit(s[k]) {
			return false
		}
	}
	return true
}

// startsProse reports whether w looks like ordinary running text rather than
// the start or middle of an author list.
func startsProse(w string, nameWords map[string]struct{}) bool {
	if w != strings.ToLower(w) {
		return false
	}
	if _, ok := nameWords[w]; ok {
		return false
	}
	_, ok := joinerWords[w]
	return !ok
}

func removeSpans(s string, spans []span) string {
	var b strings.Builder
	prev := 0
	for _, sp := range spans {
		b.WriteString(s[prev:sp.start()])
		prev = sp.end()
	}
	b.WriteString(s[prev:])
	return b.String()
}

// collapseWhitespace replaces every run of Unicode whitespace with one space.
// Unlike strings.Fields it keeps a single leading or trailing space.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func runeAlign(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

func isOpener(c byte) bool { return c == '(' || c == '[' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
