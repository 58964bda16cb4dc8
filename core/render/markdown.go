// Package render provides output renderers for the PostPipe pipeline.
// This file implements the Markdown renderer, for runs that want text
// instead of PDF.
package render

import (
	"context"
	"fmt"

	"github.com/gaurav-prasanna/postpipe/core"
)

// MarkdownRenderer writes the post as Markdown.
type MarkdownRenderer struct {
	normalizer core.Normalizer
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer(normalizer core.Normalizer) *MarkdownRenderer {
	return &MarkdownRenderer{normalizer: normalizer}
}

// Render returns the Markdown of the post body.
func (r *MarkdownRenderer) Render(_ context.Context, doc core.Document) ([]byte, error) {
	markdown, err := r.normalizer.Normalize(doc.HTML)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return []byte(markdown + "\n"), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// Close is a no-op.
func (r *MarkdownRenderer) Close() error {
	return nil
}
