// Native PDF renderer. Lays out a post with gofpdf, without any external
// tool: the post HTML is normalized to Markdown, then headings, paragraphs,
// code blocks and lists are written line by line. Images are not rendered.

package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/jung-kurt/gofpdf"
)

var (
	numberedItem = regexp.MustCompile(`^\d+\.\s`)
	italicSpan   = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	codeSpan     = regexp.MustCompile("`([^`]+)`")
	linkSpan     = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
	imageSpan    = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
)

// NativeRenderer renders a post as a PDF document using gofpdf.
type NativeRenderer struct {
	normalizer core.Normalizer
}

// NewNativeRenderer creates a NativeRenderer.
func NewNativeRenderer(normalizer core.Normalizer) *NativeRenderer {
	return &NativeRenderer{normalizer: normalizer}
}

// Render converts the post into PDF bytes.
func (r *NativeRenderer) Render(ctx context.Context, doc core.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	markdown, err := r.normalizer.Normalize(doc.HTML)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Source URL.
	if doc.URL != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, tr("Source: "+doc.URL), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	}

	lines := strings.Split(markdown, "\n")
	inCodeBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			continue
		}

		if trimmed == "" {
			pdf.Ln(3)
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			renderHeading(pdf, tr(cleanInlineMarkdown(strings.TrimLeft(trimmed, "# "))), level)
			continue
		}

		pdf.SetFont("Helvetica", "", 10)
		switch {
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			pdf.MultiCell(0, 5, tr("• "+cleanInlineMarkdown(trimmed[2:])), "", "L", false)
		case numberedItem.MatchString(trimmed):
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(trimmed)), "", "L", false)
		default:
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(line)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *NativeRenderer) Extension() string {
	return ".pdf"
}

// Close is a no-op.
func (r *NativeRenderer) Close() error {
	return nil
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, text, "", "L", false)
	pdf.Ln(2)
}

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
func cleanInlineMarkdown(text string) string {
	text = imageSpan.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = italicSpan.ReplaceAllString(text, " $1 ")
	text = codeSpan.ReplaceAllString(text, "$1")
	text = linkSpan.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
