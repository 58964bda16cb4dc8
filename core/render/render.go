package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/normalize"
)

// Renderer kinds accepted by New.
const (
	KindWkhtmltopdf = "wkhtmltopdf"
	KindChrome      = "chrome"
	KindNative      = "native"
	KindMarkdown    = "markdown"
)

// ErrUnknownKind is returned by New for an unsupported renderer kind.
var ErrUnknownKind = errors.New("unknown renderer")

// Options configures renderer construction.
type Options struct {
	WkhtmltopdfPath string
	ChromeBin       string
	Timeout         time.Duration
}

// New creates the renderer named by kind.
func New(kind string, opts Options) (core.Renderer, error) {
	switch kind {
	case "", KindWkhtmltopdf:
		return NewWkhtmltopdfRenderer(opts.WkhtmltopdfPath), nil
	case KindChrome:
		return NewChromeRenderer(opts.ChromeBin, opts.Timeout), nil
	case KindNative:
		return NewNativeRenderer(normalize.New()), nil
	case KindMarkdown:
		return NewMarkdownRenderer(normalize.New()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
