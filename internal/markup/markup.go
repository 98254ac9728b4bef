// Package markup inspects and annotates converted paper HTML: it detects the
// template a paper was written with and tags in-text citation links.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/refcheck/internal/citation"
)

// ErrTemplateNotDetected is returned when no template title style is present.
var ErrTemplateNotDetected = errors.New("template not detected")

// CitationClass is added to citation links.
const CitationClass = "citation"

// Title styles that identify each template. Word converters emit them as
// data-custom-style, the LaTeX path as a class.
var titleStyles = []struct {
	style    string
	template citation.Template
}{
	{"Paper-Title", citation.EDM},
	{"MainTitle", citation.JEDM},
}

func load(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// DetectTemplate returns the template whose title style appears in the
// document. The EDM style wins when both are present.
func DetectTemplate(html []byte) (citation.Template, error) {
	doc, err := load(html)
	if err != nil {
		return "", err
	}
	for _, ts := range titleStyles {
		sel := fmt.Sprintf(`div[data-custom-style=%q], div.%s`, ts.style, ts.style)
		if doc.Find(sel).Length() > 0 {
			return ts.template, nil
		}
	}
	return "", ErrTemplateNotDetected
}

// MarkUpCitations adds the citation class to in-text citation links. Only
// JEDM documents are annotated: their LaTeX conversion links each citation to
// a bibliography anchor whose id starts with "X". Other templates come back
// unchanged.
func MarkUpCitations(html []byte, tmpl citation.Template) ([]byte, int, error) {
	if tmpl != citation.JEDM {
		return html, 0, nil
	}
	doc, err := load(html)
	if err != nil {
		return nil, 0, err
	}
	links := doc.Find(`a[href^="#X"]`)
	links.AddClass(CitationClass)
	out, err := doc.Html()
	if err != nil {
		return nil, 0, fmt.Errorf("render html: %w", err)
	}
	return []byte(out), links.Length(), nil
}

// Title returns the trimmed text of the paper title, if one is styled.
func Title(html []byte) string {
	doc, err := load(html)
	if err != nil {
		return ""
	}
	for _, ts := range titleStyles {
		sel := fmt.Sprintf(`div[data-custom-style=%q], div.%s`, ts.style, ts.style)
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return strings.Join(strings.Fields(s.Text()), " ")
		}
	}
	return ""
}
