// Package normalize implements the Normalizer interface.
// It converts extracted post HTML into Markdown for the renderers that do
// not print HTML directly.
package normalize

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// MarkdownNormalizer converts HTML to Markdown using html-to-markdown.
type MarkdownNormalizer struct{}

// New creates a MarkdownNormalizer.
func New() *MarkdownNormalizer {
	return &MarkdownNormalizer{}
}

// Normalize converts an HTML page or fragment into Markdown. For a full
// page only the <body> is converted, so head metadata never leaks into text.
func (n *MarkdownNormalizer) Normalize(html string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(body(html))
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

// body returns the inner HTML of <body>, or html unchanged when it has none.
func body(html string) string {
	if !strings.Contains(strings.ToLower(html), "<body") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	inner, err := doc.Find("body").First().Html()
	if err != nil {
		return html
	}
	return inner
}
