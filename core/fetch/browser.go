package fetch

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

const defaultWaitTimeout = 30 * time.Second

// BrowserOptions configures the headless browser page source.
type BrowserOptions struct {
	// Bin is the Chromium executable; empty lets rod find or download one.
	Bin         string
	Headless    bool
	NoSandbox   bool
	Settle      time.Duration // fixed wait after load for challenges to resolve
	WaitTimeout time.Duration // max wait for the ready selector
	Log         zerolog.Logger
}

// BrowserFetcher loads pages in one browser tab held for the whole run.
// The browser is started lazily on the first Fetch.
type BrowserFetcher struct {
	opts      BrowserOptions
	userAgent string
	timeout   time.Duration

	browser *rod.Browser
	page    *rod.Page
}

// NewBrowser creates a BrowserFetcher.
func NewBrowser(opts Options) *BrowserFetcher {
	b := opts.Browser
	if b.Settle < 0 {
		b.Settle = 0
	}
	if b.WaitTimeout <= 0 {
		b.WaitTimeout = defaultWaitTimeout
	}
	return &BrowserFetcher{
		opts:      b,
		userAgent: opts.userAgent(),
		timeout:   opts.timeout(),
	}
}

func (f *BrowserFetcher) ensureBrowser() error {
	if f.page != nil {
		return nil
	}

	l := launcher.New().
		Headless(f.opts.Headless).
		Set("window-size", "1920,1080").
		Set("disable-notifications").
		Set("disable-popup-blocking")

	bin := f.opts.Bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}
	if f.opts.NoSandbox || os.Getenv("CI") == "true" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser, err := connect(u, l.Kill)
	if err != nil {
		return err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("creating browser page: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
		_ = browser.Close()
		return fmt.Errorf("setting user agent: %w", err)
	}

	f.browser = browser
	f.page = page
	return nil
}

// Fetch navigates to url and returns the rendered page source.
// Before reading the source it waits for the selector carried by ctx
// (see WithReadySelector, default "a"); a wait timeout is logged and the
// current source used.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.ensureBrowser(); err != nil {
		return nil, err
	}
	log := f.opts.Log.With().Str("url", url).Logger()

	page := f.page.Context(ctx)
	if err := page.Timeout(f.timeout).Navigate(url); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := page.Timeout(f.timeout).WaitLoad(); err != nil {
		log.Warn().Err(err).Msg("Error waiting for page load")
	}

	if f.opts.Settle > 0 {
		log.Info().Dur("settle", f.opts.Settle).Msg("Waiting for page to load and Cloudflare to resolve")
		if err := sleep(ctx, f.opts.Settle); err != nil {
			return nil, err
		}
	}

	ready := ReadySelector(ctx)
	if _, err := page.Timeout(f.opts.WaitTimeout).Element(ready); err != nil {
		log.Warn().Err(err).Str("selector", ready).Msg("Error waiting for page content")
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("reading page source: %w", err)
	}

	// The browser does not expose the document status; a loaded page counts as OK.
	return &core.FetchResult{
		URL:        url,
		StatusCode: http.StatusOK,
		HTML:       html,
	}, nil
}

// Close quits the browser.
func (f *BrowserFetcher) Close() error {
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	f.page = nil
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// connect attaches to the browser at controlURL. The launched process is
// killed when the connection fails.
func connect(controlURL string, kill func()) (*rod.Browser, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return browser, nil
}
