package document

import (
	"strings"
	"testing"
)

const paper = `<!doctype html>
<html><head><title>Paper</title><style>.x{color:red}</style></head>
<body>
<h1>1. Introduction</h1>
<p>Body text cites [1].</p>
<h1>Appendix contents</h1>
<ul><li>References</li></ul>
<h1>5. References</h1>
<ol>
  <li>Solo, H. 1999. Kessel Running.</li>
  <li>Nestington, L. 2000. Another nested paper.</li>
</ol>
<div class="footnotes"><p>Footnote (Solo, 2000).</p></div>
<p>After footnotes.</p>
</body></html>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	d, err := FromBytes([]byte(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestReferencesHeading_LastMatchWins(t *testing.T) {
	d := mustParse(t, `<h1>References</h1><p>toc</p><h1>  2.1 REFERENCES </h1><ol><li>x</li></ol>`)
	h := d.ReferencesHeading()
	if h == nil {
		t.Fatal("expected heading")
	}
	if got := Text(h); got != "  2.1 REFERENCES " {
		t.Fatalf("expected the last heading, got %q", got)
	}
}

func TestReferencesHeading_Missing(t *testing.T) {
	d := mustParse(t, `<h1>Introduction</h1><h2>References</h2>`)
	if h := d.ReferencesHeading(); h != nil {
		t.Fatalf("h2 should not count as a section heading, got %q", Text(h))
	}
}

func TestTextWithoutBibliography_KeepsFootnotes(t *testing.T) {
	d := mustParse(t, paper)
	text := d.TextWithoutBibliography()
	if strings.Contains(text, "Kessel Running") || strings.Contains(text, "Another nested paper") {
		t.Fatalf("bibliography text should be removed: %q", text)
	}
	if !strings.Contains(text, "Body text cites [1].") {
		t.Fatalf("body text missing: %q", text)
	}
	if !strings.Contains(text, "Footnote (Solo, 2000).") || !strings.Contains(text, "After footnotes.") {
		t.Fatalf("footnotes and later content should be kept: %q", text)
	}
	if strings.Contains(text, "color:red") {
		t.Fatalf("style content leaked into text: %q", text)
	}
	// The full text is untouched.
	if !strings.Contains(d.Text(), "Kessel Running") {
		t.Fatal("document must not be mutated")
	}
}

func TestNextElement_DocumentOrder(t *testing.T) {
	d := mustParse(t, `<div><h1>References</h1></div><p>gap</p><div><ol id="refs"><li>a</li></ol></div>`)
	h := d.ReferencesHeading()
	ol := NextElement(h, "ol")
	if ol == nil || Attr(ol, "id") != "refs" {
		t.Fatalf("expected to find the ordered list across ancestors, got %v", ol)
	}
	if NextElement(ol, "ol") != nil {
		t.Fatal("expected no further list")
	}
}

func TestHasClassAndCollapse(t *testing.T) {
	d := mustParse(t, `<div class="a footnotes b">x</div>`)
	divs := FindAll(d.Root(), "div")
	if len(divs) != 1 || !HasClass(divs[0], "footnotes") || HasClass(divs[0], "foot") {
		t.Fatalf("class matching is wrong")
	}
	if got := CollapseSpace("  a \n b\t c "); got != "a b c" {
		t.Fatalf("got %q", got)
	}
}
