// Package fetch implements the Fetcher interface.
// Three page sources are available: plain HTTP, a Cloudflare-hardened HTTP
// session and a headless browser. All of them return raw page markup.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gaurav-prasanna/postpipe/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// Source kinds accepted by New.
const (
	KindHTTP       = "http"
	KindCloudflare = "cloudflare"
	KindBrowser    = "browser"
)

// ErrUnknownKind is returned by New for an unsupported source kind.
var ErrUnknownKind = errors.New("unknown page source")

// Options configures every page source. Fields that do not apply to a
// source are ignored.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Browser   BrowserOptions
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return defaultTimeout
	}
	return o.Timeout
}

func (o Options) userAgent() string {
	if o.UserAgent == "" {
		return defaultUserAgent
	}
	return o.UserAgent
}

type readySelectorKey struct{}

// WithReadySelector returns a context telling page sources that render
// JavaScript which element marks the page as ready. Plain HTTP sources
// ignore it.
func WithReadySelector(ctx context.Context, selector string) context.Context {
	return context.WithValue(ctx, readySelectorKey{}, selector)
}

// ReadySelector returns the ready element carried by ctx, or "a".
func ReadySelector(ctx context.Context) string {
	if s, ok := ctx.Value(readySelectorKey{}).(string); ok && s != "" {
		return s
	}
	return "a"
}

// New creates the page source named by kind.
func New(kind string, opts Options) (core.Fetcher, error) {
	switch kind {
	case "", KindHTTP:
		return NewHTTP(opts), nil
	case KindCloudflare:
		return NewCloudflare(opts)
	case KindBrowser:
		return NewBrowser(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// HTTPFetcher fetches web pages via HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTP creates an HTTPFetcher with a sensible timeout.
func NewHTTP(opts Options) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.timeout()},
		userAgent: opts.userAgent(),
	}
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &core.FetchResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}

// Close is a no-op; the HTTP client holds no session.
func (f *HTTPFetcher) Close() error {
	return nil
}
