// Package extract implements the Extractor interface.
// It isolates the article body of a post page by running an ordered list
// of strategies and keeping the first match:
//  1. an exact class attribute, then a class prefix
//  2. configured CSS selectors (data attribute, common class names, id)
//  3. the element with the most visible text, above a minimum length
//
// The region is then wrapped in a small standalone HTML page.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/rs/zerolog"
)

// Defaults reproducing the selectors tuned for the target site.
const (
	DefaultTag           = "div"
	DefaultExactClass    = "sc-2ee9b62c-0 emBANY"
	DefaultClassPrefix   = "sc-"
	DefaultMinTextLength = 100
	UntitledPost         = "Untitled Post"

	classSampleSize = 10
)

// DefaultSelectors are tried after the class strategies, in order.
var DefaultSelectors = []string{
	`div[data-tag="post-content"]`,
	"div.post-content",
	"div.post",
	"div#content",
}

var (
	// ErrNoContent is returned when no strategy finds a content region.
	ErrNoContent = errors.New("could not find any suitable content region")
	// ErrNoText is returned when the chosen region has no visible text.
	ErrNoText = errors.New("content region contains no text")
)

// Options configures the strategy chain. Empty fields skip the matching
// strategy; use DefaultOptions for the tuned chain.
type Options struct {
	Tag           string
	ExactClass    string
	ClassPrefix   string
	Selectors     []string
	MinTextLength int
}

// DefaultOptions returns the chain tuned for the target site.
func DefaultOptions() Options {
	return Options{
		Tag:           DefaultTag,
		ExactClass:    DefaultExactClass,
		ClassPrefix:   DefaultClassPrefix,
		Selectors:     append([]string(nil), DefaultSelectors...),
		MinTextLength: DefaultMinTextLength,
	}
}

// Strategies builds the ordered strategy list for opts.
func (o Options) Strategies() ([]Strategy, error) {
	tag := o.Tag
	if tag == "" {
		tag = DefaultTag
	}

	var strategies []Strategy
	if o.ExactClass != "" {
		strategies = append(strategies, ExactClass(tag, o.ExactClass))
	}
	if o.ClassPrefix != "" {
		strategies = append(strategies, ClassPrefix(tag, o.ClassPrefix))
	}
	for _, css := range o.Selectors {
		s, err := Selector(css)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	strategies = append(strategies, LargestText(tag, o.MinTextLength))
	return strategies, nil
}

// HTMLExtractor finds the content region of a post and wraps it as a Document.
type HTMLExtractor struct {
	strategies []Strategy
	tag        string
	log        zerolog.Logger
}

// New creates an HTMLExtractor from opts.
func New(opts Options, log zerolog.Logger) (*HTMLExtractor, error) {
	strategies, err := opts.Strategies()
	if err != nil {
		return nil, err
	}
	tag := opts.Tag
	if tag == "" {
		tag = DefaultTag
	}
	return &HTMLExtractor{strategies: strategies, tag: tag, log: log}, nil
}

// NewWithStrategies creates an HTMLExtractor running the given strategies in order.
func NewWithStrategies(strategies []Strategy, log zerolog.Logger) *HTMLExtractor {
	return &HTMLExtractor{strategies: strategies, tag: DefaultTag, log: log}
}

// Extract parses a post page and returns its Document.
// It returns ErrNoContent or ErrNoText when the page has no usable region.
func (e *HTMLExtractor) Extract(url string, html string) (*core.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	log := e.log.With().Str("url", url).Logger()

	if log.GetLevel() <= zerolog.DebugLevel {
		for _, class := range ClassSample(doc, e.tag, classSampleSize) {
			log.Debug().Str("class", class).Msg("Found element with class")
		}
	}

	content, name := e.findContent(doc)
	if content == nil {
		return nil, ErrNoContent
	}
	log.Info().Str("strategy", name).Msg("Found content region")

	textLen := TextLength(content)
	log.Debug().Int("length", textLen).Msg("Post text length")
	if textLen == 0 {
		return nil, ErrNoText
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, fmt.Errorf("serializing content: %w", err)
	}

	title := Title(doc, html)
	page, err := Wrap(title, fragment)
	if err != nil {
		return nil, err
	}

	return &core.Document{
		URL:   url,
		Title: title,
		HTML:  page,
	}, nil
}

// findContent runs the strategies in order and returns the first match.
func (e *HTMLExtractor) findContent(doc *goquery.Document) (*goquery.Selection, string) {
	for _, s := range e.strategies {
		if sel := s.Find(doc); sel.Length() > 0 {
			return sel.First(), s.Name()
		}
	}
	return nil, ""
}

// ClassSample returns the class attributes of the first n tag elements
// carrying one, to help tune selectors against unfamiliar markup.
func ClassSample(doc *goquery.Document, tag string, n int) []string {
	var classes []string
	doc.Find(tag + "[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(classes) >= n {
			return false
		}
		classes = append(classes, s.AttrOr("class", ""))
		return true
	})
	return classes
}
