package render

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/gaurav-prasanna/postpipe/core"
)

// InstallHint is logged when the wkhtmltopdf renderer fails.
const InstallHint = "You may need to install wkhtmltopdf: https://wkhtmltopdf.org/downloads.html"

// Hint returns the install hint to log when r fails, or "" when r needs
// no external tool.
func Hint(r core.Renderer) string {
	if _, ok := r.(*WkhtmltopdfRenderer); ok {
		return InstallHint
	}
	return ""
}

// wkhtmltopdf keeps the executable path in package state; the generator
// copies it when created.
var wkPathMu sync.Mutex

// WkhtmltopdfRenderer converts HTML to PDF with the wkhtmltopdf executable.
type WkhtmltopdfRenderer struct {
	path string
}

// NewWkhtmltopdfRenderer creates a WkhtmltopdfRenderer. An empty path
// looks up wkhtmltopdf in WKHTMLTOPDF_PATH, the working directory and PATH.
func NewWkhtmltopdfRenderer(path string) *WkhtmltopdfRenderer {
	return &WkhtmltopdfRenderer{path: path}
}

// Render converts the post HTML into PDF bytes.
func (r *WkhtmltopdfRenderer) Render(ctx context.Context, doc core.Document) ([]byte, error) {
	pdfg, err := r.generator()
	if err != nil {
		return nil, err
	}
	pdfg.Quiet.Set(true)
	pdfg.AddPage(wkhtmltopdf.NewPageReader(strings.NewReader(doc.HTML)))

	if err := pdfg.CreateContext(ctx); err != nil {
		return nil, fmt.Errorf("running wkhtmltopdf: %w", err)
	}
	return pdfg.Bytes(), nil
}

func (r *WkhtmltopdfRenderer) generator() (*wkhtmltopdf.PDFGenerator, error) {
	wkPathMu.Lock()
	defer wkPathMu.Unlock()

	// Always set: an empty path makes the generator search again instead
	// of reusing another renderer's executable.
	wkhtmltopdf.SetPath(r.path)
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("creating wkhtmltopdf generator: %w", err)
	}
	return pdfg, nil
}

// Extension returns the file extension for PDF output.
func (r *WkhtmltopdfRenderer) Extension() string {
	return ".pdf"
}

// Close is a no-op; every render runs its own process.
func (r *WkhtmltopdfRenderer) Close() error {
	return nil
}
