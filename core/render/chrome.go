package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// A4 page dimensions in inches.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 0.4
)

// ChromeRenderer prints HTML to PDF with headless Chrome via go-rod.
// Rod downloads Chromium on first run if none is found. The browser is
// started lazily and shared by every render until Close.
type ChromeRenderer struct {
	bin     string
	timeout time.Duration
	browser *rod.Browser
}

// NewChromeRenderer creates a ChromeRenderer. An empty bin falls back to
// ROD_BROWSER_BIN, then to rod's own lookup.
func NewChromeRenderer(bin string, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{bin: bin, timeout: timeout}
}

func (r *ChromeRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	bin := r.bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin).NoSandbox(true)
	}
	if os.Getenv("CI") == "true" {
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
	r.browser = browser
	return nil
}

// Render loads the post HTML from a temporary file and prints it to PDF.
func (r *ChromeRenderer) Render(ctx context.Context, doc core.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	path, cleanup, err := writeTempHTML(doc.HTML)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		return nil, fmt.Errorf("creating browser page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(r.timeout)
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("printing PDF: %w", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading PDF stream: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for PDF output.
func (r *ChromeRenderer) Extension() string {
	return ".pdf"
}

// Close releases browser resources.
func (r *ChromeRenderer) Close() error {
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}

func writeTempHTML(content string) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "postpipe-*.html")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	path = f.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", err)
	}
	return path, cleanup, nil
}

func floatPtr(v float64) *float64 {
	return &v
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
