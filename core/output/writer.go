// Package output handles file naming and writing for PostPipe outputs.
// Rendered posts are named after their sanitized title, truncated to
// NameLength runes; debug page dumps are named after the URL's last segment.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// NameLength is the number of title runes kept in output filenames.
	NameLength = 50
	// MaxSanitizedLength caps a sanitized filename, leaving room for an extension.
	MaxSanitizedLength = 250 - 5
)

var filenameReplacer = strings.NewReplacer(
	"|", "_",
	":", "_",
	"?", "",
	"*", "",
	"<", "_",
	">", "_",
	`"`, "'",
	`\`, "_",
	"/", "-",
)

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
	Sanitize  bool
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string, sanitize bool) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir, Sanitize: sanitize}, nil
}

// BaseName returns the extension-less filename for a post title.
func (w *Writer) BaseName(title string) string {
	if w.Sanitize {
		title = SanitizeFilename(title)
	}
	return Truncate(title, NameLength)
}

// Path returns where a post with the given title and extension is written.
func (w *Writer) Path(title, ext string) string {
	return filepath.Join(w.OutputDir, w.BaseName(title)+ext)
}

// WriteHTML writes the post HTML next to its rendered output.
func (w *Writer) WriteHTML(title, html string) (string, error) {
	return w.write(w.Path(title, ".html"), []byte(html))
}

// WriteRendered writes renderer output for a post.
func (w *Writer) WriteRendered(title string, data []byte, ext string) (string, error) {
	return w.write(w.Path(title, ext), data)
}

// WritePage writes a raw page source for inspection as name.html.
func (w *Writer) WritePage(name, html string) (string, error) {
	return w.write(filepath.Join(w.OutputDir, SanitizeFilename(name)+".html"), []byte(html))
}

func (w *Writer) write(path string, data []byte) (string, error) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// SanitizeFilename makes a title safe as a filename on common filesystems.
// Surrounding whitespace is trimmed, reserved characters are replaced or
// dropped, and the result is capped at MaxSanitizedLength runes.
func SanitizeFilename(name string) string {
	name = filenameReplacer.Replace(strings.TrimSpace(name))
	return Truncate(name, MaxSanitizedLength)
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
