// Package core defines the pipeline interfaces for PostPipe.
// Each stage of the pipeline is a clean, testable interface.
package core

import (
	"context"
	"net/http"
)

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// OK reports whether the fetch returned a 2xx status.
func (r *FetchResult) OK() bool {
	return r != nil && r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Document is a post ready for rendering. HTML is the complete wrapped page,
// not just the extracted fragment.
type Document struct {
	URL   string
	Title string
	HTML  string
}

// Fetcher retrieves raw page source for a URL.
// A non-2xx response is reported through FetchResult.StatusCode, not as an error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
	// Close releases sessions held by the fetcher (browser, cookie jar).
	Close() error
}

// Extractor turns a post page into a Document.
type Extractor interface {
	Extract(url string, html string) (*Document, error)
}

// Normalizer converts cleaned HTML into Markdown.
type Normalizer interface {
	Normalize(html string) (string, error)
}

// Renderer converts a Document into a final output format.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".pdf", ".md").
	Extension() string
	Close() error
}
