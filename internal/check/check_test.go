package check

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperifyio/refcheck/internal/bib"
	"github.com/hyperifyio/refcheck/internal/citation"
	"github.com/hyperifyio/refcheck/internal/document"
	"github.com/hyperifyio/refcheck/internal/refs"
)

type recorded struct {
	name, extra string
	tex         bool
}

type fakeReporter struct {
	got []recorded
}

func (f *fakeReporter) Warn(name, extra string, tex bool) error {
	f.got = append(f.got, recorded{name, extra, tex})
	return nil
}

func (f *fakeReporter) names() []string {
	var out []string
	for _, r := range f.got {
		out = append(out, r.name)
	}
	return out
}

func staticParser(recs []bib.Record, err error) refs.Parser {
	return refs.ParserFunc(func(context.Context, []string) ([]bib.Record, error) {
		return recs, err
	})
}

func person(family string) bib.Person { return bib.Person{Family: family, Given: "A."} }

func record(typ bib.Type, fields map[string][]string, authors ...string) bib.Record {
	r := bib.Record{Type: typ, Fields: map[string][]string{}}
	for k, v := range fields {
		r.Fields[k] = v
	}
	for _, a := range authors {
		r.Author = append(r.Author, person(a))
	}
	return r
}

func completeBook(title, year string, authors ...string) bib.Record {
	return record(bib.Book, map[string][]string{
		"title": {title}, "date": {year}, "publisher": {"Corellian Press"},
	}, authors...)
}

func mustDoc(t *testing.T, s string) *document.Document {
	t.Helper()
	d, err := document.FromBytes([]byte(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestMatch_NumericReportsBothSides(t *testing.T) {
	recs := []bib.Record{completeBook("A", "1999"), completeBook("B", "2000"), completeBook("C", "2001")}
	got, err := Match(recs, []string{"1", "2", "4"}, citation.EDM)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Citation: 4", "Reference: 3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMatch_NumericOutlierIsACitationMismatch(t *testing.T) {
	recs := []bib.Record{completeBook("A", "1999"), completeBook("B", "2000"), completeBook("C", "2001")}
	cites := citation.Brackets("See [1], [2], [3] and [9].")
	got, err := Match(recs, cites, citation.EDM)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"Citation: 9"}) {
		t.Fatalf("got %q", got)
	}
}

func TestMatch_EtAlTolerance(t *testing.T) {
	ref := record(bib.ArticleJournal, map[string][]string{"title": {"The article name"}, "date": {"1999"}},
		"Namington", "Anotherone", "Lastington")
	got, err := Match([]bib.Record{ref}, []string{"Namington et al., 1999"}, citation.JEDM)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected a match, got %q", got)
	}
	// Two authors are not enough for "et al." to cover the rest.
	two := record(bib.ArticleJournal, map[string][]string{"title": {"Pair"}, "date": {"1999"}}, "Namington", "Anotherone")
	got, _ = Match([]bib.Record{two}, []string{"Namington et al., 1999"}, citation.JEDM)
	if !reflect.DeepEqual(got, []string{"Citation: Namington et al., 1999", "Reference: Pair"}) {
		t.Fatalf("got %q", got)
	}
}

func TestMatch_AuthorYearRules(t *testing.T) {
	recs := []bib.Record{
		// 0: year mismatch with its only citation
		completeBook("Kessel Running", "1999", "Solo"),
		// 1: organization parsed as publisher, no date
		record(bib.Other, map[string][]string{"title": {"Programs at ISU"}, "publisher": {"Imaginary State University"}}),
		// 2: initials in the surname
		completeBook("Standards", "2010", "A.C.M.E."),
		// 3: particles and a disambiguation letter
		completeBook("Een artikel", "1999", "van der Waal"),
		// 4: "n.d" misread as a surname
		record(bib.Report, map[string][]string{"title": {"Undated"}, "date": {"2005"}}),
		// 5: et al. overflow slot is ignored
		record(bib.Book, map[string][]string{"title": {"Many hands"}, "date": {"2003"}}),
	}
	recs[4].Author = []bib.Person{{Family: "n.d", Given: "Gratia"}}
	recs[5].Author = []bib.Person{{Family: "Solo"}, {Others: true}}
	cites := []string{
		"Solo, 2000",
		"Imaginary State University, XXXX",
		"ACME, 2010",
		"van der Waal, 1999a",
		"Gratia, 2005",
		"Solo, 2003",
		"Solo, 2000",
	}
	got, err := Match(recs, cites, citation.JEDM)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Citation: Solo, 2000", "Citation: Solo, 2000", "Reference: Kessel Running"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
	if recs[1].Has("author") || recs[1].Has("date") {
		t.Fatal("Match must not modify its input")
	}
}

func TestMatch_WholeWordOnly(t *testing.T) {
	recs := []bib.Record{completeBook("Short", "1999", "Sol")}
	got, _ := Match(recs, []string{"Solo, 1999"}, citation.JEDM)
	if !reflect.DeepEqual(got, []string{"Citation: Solo, 1999", "Reference: Short"}) {
		t.Fatalf("got %q", got)
	}
	if containsWord("Müllerson, 2001", "Müller") {
		t.Fatal("non-ASCII letters must count as word characters")
	}
	if !containsWord("(Müller, 2001)", "Müller") {
		t.Fatal("expected match")
	}
}

func TestMatch_Idempotent(t *testing.T) {
	recs := []bib.Record{
		completeBook("A", "1999", "Solo"),
		record(bib.Other, map[string][]string{"title": {"B"}, "publisher": {"ISU"}}),
	}
	cites := []string{"Solo, 1999", "Nobody, 2000"}
	first, err1 := Match(recs, cites, citation.JEDM)
	second, err2 := Match(recs, cites, citation.JEDM)
	if err1 != nil || err2 != nil {
		t.Fatalf("errors: %v %v", err1, err2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent: %q vs %q", first, second)
	}
}

func TestMatch_Empty(t *testing.T) {
	if _, err := Match(nil, []string{"1"}, citation.EDM); !errors.Is(err, ErrNothingToMatch) {
		t.Fatalf("expected ErrNothingToMatch, got %v", err)
	}
	if _, err := Match([]bib.Record{completeBook("A", "1999")}, nil, citation.EDM); !errors.Is(err, ErrNothingToMatch) {
		t.Fatalf("expected ErrNothingToMatch, got %v", err)
	}
}

func TestCompleteness_ArticleMissingFour(t *testing.T) {
	recs := []bib.Record{record(bib.ArticleJournal, map[string][]string{"title": {"Alone"}, "date": {"2001"}})}
	got := Completeness(recs)
	if len(got) != 1 {
		t.Fatalf("want one warning, got %+v", got)
	}
	want := []string{"author", "container-title", "pages", "volume"}
	if !reflect.DeepEqual(got[0].Missing, want) {
		t.Fatalf("missing %q want %q", got[0].Missing, want)
	}
	msg := got[0].Message()
	if msg != "Reference 1 (Alone) was recognized as article-journal and might be missing the following: author, container-title, pages, volume" {
		t.Fatalf("message %q", msg)
	}
}

func TestCompleteness_BackfillsAndKeys(t *testing.T) {
	recs := []bib.Record{
		// pages misread as dates
		record(bib.ArticleJournal, map[string][]string{
			"title": {"Dated"}, "date": {"1999", "12", "34"}, "container-title": {"J"}, "volume": {"1"},
		}, "Solo"),
		// pages at the end of a note
		record(bib.PaperConference, map[string][]string{
			"title": {"Noted"}, "date": {"2000"}, "container-title": {"Proc"}, "note": {"Proc., 131–139."},
		}, "Solo"),
		// no title: surnames are the key; long keys are cut
		record(bib.Book, map[string][]string{"date": {"2001"}}, "Abcdefghijkl", "Mnopqrstuvwx", "Yzabcdefghij"),
		// unknown type uses the default requirements
		record(bib.Other, map[string][]string{"container-title": {"Somewhere"}}),
		// second container title is the publisher
		record(bib.Book, map[string][]string{"title": {"Two"}, "date": {"2002"}, "container-title": {"Series", "Press"}}, "Solo"),
	}
	got := Completeness(recs)
	if len(got) != 2 {
		t.Fatalf("want 2 incomplete, got %+v", got)
	}
	if got[0].Index != 3 || got[0].Key != "Abcdefghijkl, Mnopqrstuvwx, Yz..." {
		t.Fatalf("unexpected %+v", got[0])
	}
	if !reflect.DeepEqual(got[0].Missing, []string{"title", "publisher"}) {
		t.Fatalf("missing %q", got[0].Missing)
	}
	if got[1].Index != 4 || got[1].Type != "other" || got[1].Key != "Somewhere" {
		t.Fatalf("unexpected %+v", got[1])
	}
	if recs[0].Has("pages") {
		t.Fatal("Completeness must not modify its input")
	}
}

// Organisations as authors are often parsed as the publisher only.
func TestCompleteness_PublisherStandsInForAuthor(t *testing.T) {
	recs := []bib.Record{
		record(bib.Report, map[string][]string{
			"title": {"Annual Report"}, "date": {"2019"}, "publisher": {"Iowa State University"},
		}),
		record(bib.Book, map[string][]string{"title": {"Nameless"}, "date": {"2020"}}),
	}
	got := Completeness(recs)
	if len(got) != 1 || got[0].Index != 2 {
		t.Fatalf("only the record without author or publisher should be flagged, got %+v", got)
	}
	if !reflect.DeepEqual(got[0].Missing, []string{"author", "publisher"}) {
		t.Fatalf("missing %q", got[0].Missing)
	}
	if recs[0].Has("author") {
		t.Fatal("Completeness must not modify its input")
	}
}

const edmPaper = `<html><body>
<p>First [1]. Second [2]. Missing [4].</p>
<h1>References</h1>
<ol><li>A</li><li>B</li><li>C</li></ol>
</body></html>`

func TestRun_EDMEndToEnd(t *testing.T) {
	recs := []bib.Record{
		completeBook("A", "1999", "Solo"),
		completeBook("B", "2000", "Solo"),
		record(bib.ArticleJournal, map[string][]string{"title": {"C"}, "date": {"2001"}}),
	}
	rep := &fakeReporter{}
	c := &Checker{Parser: staticParser(recs, nil), Reporter: rep, Template: citation.EDM, Tex: true}
	res, err := c.Run(context.Background(), mustDoc(t, edmPaper))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(res.Mismatches, []string{"Citation: 4", "Reference: 3"}) {
		t.Fatalf("mismatches %q", res.Mismatches)
	}
	if !reflect.DeepEqual(rep.names(), []string{WarnMismatched, WarnIncomplete}) {
		t.Fatalf("warnings %q", rep.names())
	}
	if rep.got[0].extra != "Citation: 4; Reference: 3" || !rep.got[0].tex {
		t.Fatalf("unexpected mismatch warning %+v", rep.got[0])
	}
	if !strings.HasPrefix(rep.got[1].extra, "Reference 3 (C) was recognized as article-journal") {
		t.Fatalf("unexpected completeness warning %+v", rep.got[1])
	}
}

func TestRun_JEDMUsesNameWordsFromReferences(t *testing.T) {
	recs := []bib.Record{completeBook("Een artikel", "1999")}
	recs[0].Author = []bib.Person{{Family: "Waal", Particle: "ter", Given: "M."}}
	doc := mustDoc(t, `<p>Claim from ter Waal (1999).</p><h1>References</h1><ol><li>ter Waal, M. 1999.</li></ol>`)
	rep := &fakeReporter{}
	c := &Checker{Parser: staticParser(recs, nil), Reporter: rep, Template: citation.JEDM}
	res, err := c.Run(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Citations, []string{"ter Waal, 1999"}) {
		t.Fatalf("citations %q", res.Citations)
	}
	if len(rep.got) != 0 {
		t.Fatalf("unexpected warnings %+v", rep.got)
	}
}

func TestRun_EarlyReturns(t *testing.T) {
	noRefs := mustDoc(t, `<p>Text [1].</p>`)
	rep := &fakeReporter{}
	c := &Checker{Parser: staticParser(nil, nil), Reporter: rep, Template: citation.EDM}
	if _, err := c.Run(context.Background(), noRefs); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rep.names(), []string{WarnNoReferences}) {
		t.Fatalf("warnings %q", rep.names())
	}

	noCites := mustDoc(t, `<p>Nothing cited.</p><h1>References</h1><ol><li>A</li></ol>`)
	rep = &fakeReporter{}
	c = &Checker{Parser: staticParser([]bib.Record{record(bib.Other, nil)}, nil), Reporter: rep, Template: citation.EDM}
	res, err := c.Run(context.Background(), noCites)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rep.names(), []string{WarnNoCitations}) || res.Incomplete != nil {
		t.Fatalf("completeness must not run without citations: %q %+v", rep.names(), res)
	}
}

func TestRun_ParserFailureIsAWarning(t *testing.T) {
	rep := &fakeReporter{}
	c := &Checker{Parser: staticParser(nil, errors.New("exit status 1")), Reporter: rep, Template: citation.EDM}
	_, err := c.Run(context.Background(), mustDoc(t, edmPaper))
	if err != nil {
		t.Fatalf("parser failure should not be returned: %v", err)
	}
	if len(rep.got) != 1 || rep.got[0].name != WarnParserFailed || !strings.Contains(rep.got[0].extra, "exit status 1") {
		t.Fatalf("unexpected warnings %+v", rep.got)
	}
}

func TestRun_UnsupportedTemplate(t *testing.T) {
	c := &Checker{Parser: staticParser(nil, nil), Template: citation.Template("ACM")}
	if _, err := c.Run(context.Background(), mustDoc(t, edmPaper)); !errors.Is(err, citation.ErrUnsupportedTemplate) {
		t.Fatalf("expected ErrUnsupportedTemplate, got %v", err)
	}
}
