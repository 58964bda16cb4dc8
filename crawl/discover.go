// Package crawl provides post link discovery for the scrape command.
// It collects post links from a single reference page, keeping link
// discovery separate from the per-post pipeline.
package crawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/rs/zerolog"
)

// ReferencePageName is the debug dump name of the reference page source.
const ReferencePageName = "reference_page"

// failedBodyPreview is how much of a failed response body is logged.
const failedBodyPreview = 500

// PageDumper persists raw page sources for inspection.
type PageDumper interface {
	WritePage(name string, html string) (string, error)
}

// Collector discovers post links on a reference page.
type Collector struct {
	fetcher core.Fetcher
	marker  string
	dumper  PageDumper
	log     zerolog.Logger
}

// NewCollector creates a Collector. A nil dumper disables debug dumps.
func NewCollector(fetcher core.Fetcher, marker string, dumper PageDumper, log zerolog.Logger) *Collector {
	if marker == "" {
		marker = DefaultPostMarker
	}
	return &Collector{
		fetcher: fetcher,
		marker:  marker,
		dumper:  dumper,
		log:     log,
	}
}

// Collect fetches the reference page and returns the unique post links on it.
// Fetch and parse failures are logged and yield an empty result.
func (c *Collector) Collect(ctx context.Context, referenceURL string) []string {
	log := c.log.With().Str("url", referenceURL).Logger()
	log.Info().Msg("Fetching links from reference page")

	result, err := c.fetcher.Fetch(ctx, referenceURL)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching post links")
		return nil
	}
	log.Info().Int("status", result.StatusCode).Msg("Reference page fetched")

	if c.dumper != nil {
		if path, err := c.dumper.WritePage(ReferencePageName, result.HTML); err != nil {
			log.Warn().Err(err).Msg("Could not save reference page source")
		} else {
			log.Debug().Str("path", path).Msg("Saved reference page source for inspection")
		}
	}

	if !result.OK() {
		log.Error().
			Int("status", result.StatusCode).
			Str("body", preview(result.HTML, failedBodyPreview)).
			Msg("Failed to fetch reference page")
		return nil
	}

	links, err := ExtractPostLinks(result.HTML, c.marker)
	if err != nil {
		log.Error().Err(err).Msg("Error parsing reference page")
		return nil
	}
	log.Info().Int("count", len(links)).Msg("Found unique post links")
	return links
}

// ExtractPostLinks returns every href on the page containing marker,
// deduplicated by exact string and kept in first-seen order.
func ExtractPostLinks(html string, marker string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	set := NewLinkSet()
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || !IsPostLink(href, marker) {
			return
		}
		set.Add(href)
	})

	return set.All(), nil
}

// preview returns at most n bytes of s, marking truncation.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
