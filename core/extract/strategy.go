package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Strategy locates a candidate content region in a parsed page.
// Find returns an empty selection when the strategy does not match.
type Strategy interface {
	Name() string
	Find(doc *goquery.Document) *goquery.Selection
}

// selectorStrategy matches the first element of a compiled CSS selector.
type selectorStrategy struct {
	css     string
	matcher cascadia.Selector
}

// Selector returns a strategy matching the first element for css.
func Selector(css string) (Strategy, error) {
	m, err := cascadia.Compile(css)
	if err != nil {
		return nil, fmt.Errorf("compiling selector %q: %w", css, err)
	}
	return &selectorStrategy{css: css, matcher: m}, nil
}

func (s *selectorStrategy) Name() string { return s.css }

func (s *selectorStrategy) Find(doc *goquery.Document) *goquery.Selection {
	return doc.FindMatcher(s.matcher).First()
}

// ExactClass returns a strategy matching the first tag whose class
// attribute equals class exactly, token order included.
func ExactClass(tag, class string) Strategy {
	return &exactClassStrategy{tag: tag, class: class}
}

type exactClassStrategy struct {
	tag, class string
}

func (s *exactClassStrategy) Name() string {
	return fmt.Sprintf("%s[class=%q]", s.tag, s.class)
}

func (s *exactClassStrategy) Find(doc *goquery.Document) *goquery.Selection {
	return doc.Find(s.tag).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		class, ok := sel.Attr("class")
		return ok && class == s.class
	}).First()
}

// ClassPrefix returns a strategy matching the first tag with any class
// token starting with prefix.
func ClassPrefix(tag, prefix string) Strategy {
	return &classPrefixStrategy{tag: tag, prefix: prefix}
}

type classPrefixStrategy struct {
	tag, prefix string
}

func (s *classPrefixStrategy) Name() string {
	return fmt.Sprintf("%s[class^=%q]", s.tag, s.prefix)
}

func (s *classPrefixStrategy) Find(doc *goquery.Document) *goquery.Selection {
	return doc.Find(s.tag).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		for _, token := range strings.Fields(class) {
			if strings.HasPrefix(token, s.prefix) {
				return true
			}
		}
		return false
	}).First()
}

// LargestText returns a strategy picking the tag with the most visible
// text, provided its length is strictly greater than minLength. On equal
// lengths the element met first in document order wins.
func LargestText(tag string, minLength int) Strategy {
	return &largestTextStrategy{tag: tag, minLength: minLength}
}

type largestTextStrategy struct {
	tag       string
	minLength int
}

func (s *largestTextStrategy) Name() string {
	return fmt.Sprintf("largest %s (> %d chars)", s.tag, s.minLength)
}

func (s *largestTextStrategy) Find(doc *goquery.Document) *goquery.Selection {
	var (
		best    *goquery.Selection
		bestLen int
	)
	doc.Find(s.tag).Each(func(_ int, sel *goquery.Selection) {
		if n := TextLength(sel); n > bestLen {
			best, bestLen = sel, n
		}
	})
	if best == nil || bestLen <= s.minLength {
		return doc.Selection.Slice(0, 0)
	}
	return best
}

// TextLength measures the visible text of a selection: every text node is
// trimmed of surrounding whitespace and the remaining runes are counted.
// Script and style contents count, matching a plain text dump of the subtree.
func TextLength(sel *goquery.Selection) int {
	total := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			total += utf8.RuneCountInString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return total
}
