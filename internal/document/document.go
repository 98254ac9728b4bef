// Package document gives read-only access to a converted paper's HTML tree:
// element lookup by tag, text content, and document-order navigation.
package document

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Document wraps a parsed HTML tree. It is never mutated after parsing.
type Document struct {
	root *html.Node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: node}, nil
}

// FromBytes parses an in-memory HTML document.
func FromBytes(input []byte) (*Document, error) {
	return Parse(bytes.NewReader(input))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Text returns the plain text of the whole document.
func (d *Document) Text() string {
	return Text(d.root)
}

// ReferencesHeading returns the last <h1> that reads "References", or nil.
// The last one wins so that an appendix table of contents cannot shadow it.
func (d *Document) ReferencesHeading() *html.Node {
	return d.LastHeading("h1", "references")
}

// LastHeading returns the last element named tag whose text starts with word,
// ignoring case and any leading whitespace, digits and periods.
func (d *Document) LastHeading(tag, word string) *html.Node {
	re := headingPattern(word)
	all := FindAll(d.root, tag)
	for i := len(all) - 1; i >= 0; i-- {
		if re.MatchString(Text(all[i])) {
			return all[i]
		}
	}
	return nil
}

func headingPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^[\s.0-9]*` + regexp.QuoteMeta(word) + `[\s.0-9]*`)
}

// TextWithoutBibliography returns the document text with everything inside
// elements that follow the references heading dropped. Dropping stops at the
// first footnotes block, so footnotes after the bibliography are kept.
func (d *Document) TextWithoutBibliography() string {
	heading := d.ReferencesHeading()
	if heading == nil {
		return d.Text()
	}
	cleared := make(map[*html.Node]bool)
	for n := nextInOrder(heading); n != nil; n = nextInOrder(n) {
		if n.Type != html.ElementNode {
			continue
		}
		if strings.EqualFold(n.Data, "div") && HasClass(n, "footnotes") {
			break
		}
		cleared[n] = true
	}
	var b strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode && isRawText(n) {
			return
		}
		if n.Type == html.TextNode && !skip {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip || cleared[n])
		}
	}
	walk(d.root, false)
	return norm.NFC.String(b.String())
}

// Text concatenates the text nodes under n, the way a browser's textContent does.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectText(&b, n)
	return norm.NFC.String(b.String())
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if isRawText(n) {
			return
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

func isRawText(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "script", "style", "noscript":
		return true
	}
	return false
}

// FindAll returns every element named tag under n (n included), in document order.
func FindAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			out = append(out, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	if n != nil {
		dfs(n)
	}
	return out
}

// NextElement returns the first element named tag after n in document order.
// Descendants of n come first, as with a find-next search.
func NextElement(n *html.Node, tag string) *html.Node {
	for cur := nextInOrder(n); cur != nil; cur = nextInOrder(cur) {
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			return cur
		}
	}
	return nil
}

// nextInOrder is a pre-order successor: first child, else next sibling of the
// nearest ancestor that has one.
func nextInOrder(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.NextSibling != nil {
			return cur.NextSibling
		}
	}
	return nil
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether n lists class in its class attribute.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// CollapseSpace trims s and replaces every run of Unicode whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
