package refs

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hyperifyio/refcheck/internal/bib"
	"github.com/hyperifyio/refcheck/internal/document"
)

func parse(t *testing.T, s string) *document.Document {
	t.Helper()
	d, err := document.FromBytes([]byte(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestLines_CollapsesWhitespaceAndIncludesNested(t *testing.T) {
	d := parse(t, `<h1>References</h1>
<ol>
  <li>  Solo,   H.
     1999. <em>Kessel</em> Running. </li>
  <li>Outer <ol><li>inner</li></ol></li>
</ol>`)
	lines, ok := Lines(d)
	if !ok {
		t.Fatal("expected heading")
	}
	want := []string{"Solo, H. 1999. Kessel Running.", "Outer inner", "inner"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got %q want %q", lines, want)
	}
}

func TestExtract_NoHeadingOrList(t *testing.T) {
	called := false
	p := ParserFunc(func(context.Context, []string) ([]bib.Record, error) {
		called = true
		return nil, nil
	})
	for _, src := range []string{`<h1>Intro</h1><ol><li>x</li></ol>`, `<h1>References</h1><p>none</p>`} {
		recs, err := Extract(context.Background(), parse(t, src), p)
		if err != nil || len(recs) != 0 {
			t.Fatalf("%s: got %v, %v", src, recs, err)
		}
	}
	if called {
		t.Fatal("parser must not run without reference lines")
	}
}

func TestExtract_PassesLinesAndWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	var got []string
	p := ParserFunc(func(_ context.Context, lines []string) ([]bib.Record, error) {
		got = lines
		return nil, boom
	})
	d := parse(t, `<h1>1. References</h1><ol><li>A</li><li>B</li></ol>`)
	_, err := Extract(context.Background(), d, p)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped parser error, got %v", err)
	}
	if !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("parser got %q", got)
	}
}
