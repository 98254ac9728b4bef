package markup

import (
	"bytes"
	"errors"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/refcheck/internal/citation"
)

func TestDetectTemplate(t *testing.T) {
	cases := []struct {
		html string
		want citation.Template
	}{
		{`<div data-custom-style="Paper-Title">A</div>`, citation.EDM},
		{`<div class="Paper-Title extra">A</div>`, citation.EDM},
		{`<div data-custom-style="MainTitle">A</div>`, citation.JEDM},
		{`<div class="MainTitle">A</div><div class="Paper-Title">B</div>`, citation.EDM},
	}
	for _, tc := range cases {
		got, err := DetectTemplate([]byte(tc.html))
		if err != nil || got != tc.want {
			t.Fatalf("%s: got %q, %v want %q", tc.html, got, err, tc.want)
		}
	}
	if _, err := DetectTemplate([]byte(`<h1 class="title">Plain</h1>`)); !errors.Is(err, ErrTemplateNotDetected) {
		t.Fatalf("expected ErrTemplateNotDetected, got %v", err)
	}
}

func TestMarkUpCitations_JEDM(t *testing.T) {
	in := []byte(`<p>See (<a href="#Xsolo1999">Solo, 1999</a>) and <a class="ext" href="#Xnest2000">Nestington</a>.
<a href="#sec2">Section 2</a> <a href="https://example.com/X">web</a></p>`)
	out, n, err := MarkUpCitations(in, citation.JEDM)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 citation links, got %d", n)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Find(`a[href="#Xsolo1999"]`).HasClass(CitationClass) {
		t.Fatalf("first link not marked: %s", out)
	}
	nest := doc.Find(`a[href="#Xnest2000"]`)
	if !nest.HasClass("ext") || !nest.HasClass(CitationClass) {
		t.Fatalf("existing classes should be kept: %s", out)
	}
	if got := doc.Find("a." + CitationClass).Length(); got != 2 {
		t.Fatalf("non-citation links must not be marked, %d marked: %s", got, out)
	}
}

func TestMarkUpCitations_OtherTemplatesUnchanged(t *testing.T) {
	in := []byte(`<a href="#X1">x</a>`)
	out, n, err := MarkUpCitations(in, citation.EDM)
	if err != nil || n != 0 || string(out) != string(in) {
		t.Fatalf("got %s, %d, %v", out, n, err)
	}
}

func TestTitle(t *testing.T) {
	got := Title([]byte(`<div data-custom-style="Paper-Title">  A   Study
 of Things </div>`))
	if got != "A Study of Things" {
		t.Fatalf("got %q", got)
	}
}
