// Package merge concatenates the PDF files of a directory into one document.
// Files are taken in lexicographic filename order; unreadable files are
// skipped so one corrupt input never sinks the whole merge.
package merge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

// ErrInputDirNotFound is returned when the input directory does not exist.
var ErrInputDirNotFound = errors.New("input directory does not exist")

// Result summarizes a merge run.
type Result struct {
	Found   int      // PDF files found in the input directory
	Merged  []string // files whose pages were appended, in order
	Skipped []string // files rejected as unreadable
	Written bool     // whether the output file was written
}

// Merger merges PDF files with pdfcpu.
type Merger struct {
	log      zerolog.Logger
	validate func(path string) error
	merge    func(files []string, outputFile string) error
}

// New creates a Merger. pdfcpu's user config directory is never touched.
func New(log zerolog.Logger) *Merger {
	api.DisableConfigDir()
	return &Merger{log: log, validate: validateFile, merge: mergeFiles}
}

// pdfcpu records the running command in its configuration, so every call
// gets a fresh one.
func validateFile(path string) error {
	return api.ValidateFile(path, model.NewDefaultConfiguration())
}

func mergeFiles(files []string, outputFile string) error {
	return api.MergeCreateFile(files, outputFile, false, model.NewDefaultConfiguration())
}

// Merge appends every page of every *.pdf file in inputDir, sorted by
// filename, into outputFile. An empty directory is not an error: it is
// logged and nothing is written. A file that validates but cannot be
// merged is found by merging each file on its own, then skipped.
func (m *Merger) Merge(inputDir, outputFile string) (*Result, error) {
	files, err := ListPDFs(inputDir, outputFile)
	if err != nil {
		return nil, err
	}

	res := &Result{Found: len(files)}
	if len(files) == 0 {
		m.log.Warn().Str("dir", inputDir).Msg("No PDF files found")
		return res, nil
	}
	m.log.Info().Int("count", len(files)).Msg("Found PDF files to merge")

	for _, f := range files {
		name := filepath.Base(f)
		if err := m.validate(f); err != nil {
			m.log.Error().Err(err).Str("file", name).Msg("Error adding file, skipping")
			res.Skipped = append(res.Skipped, f)
			continue
		}
		res.Merged = append(res.Merged, f)
		m.log.Info().Str("file", name).Msg("Added file to merger")
	}

	if len(res.Merged) == 0 {
		m.log.Error().Str("dir", inputDir).Msg("No readable PDF files to merge")
		return res, nil
	}

	err = m.merge(res.Merged, outputFile)
	if err != nil {
		m.log.Warn().Err(err).Msg("Merge failed, checking files one by one")
		kept, skipped, ierr := m.isolate(res.Merged)
		if ierr != nil {
			return res, ierr
		}
		res.Merged = kept
		res.Skipped = append(res.Skipped, skipped...)
		sort.Strings(res.Skipped)
		if len(kept) == 0 {
			_ = os.Remove(outputFile)
			m.log.Error().Str("dir", inputDir).Msg("No mergeable PDF files left")
			return res, nil
		}
		err = m.merge(kept, outputFile)
	}
	if err != nil {
		m.log.Error().Err(err).Str("output", outputFile).Msg("Error writing merged PDF")
		return res, fmt.Errorf("writing merged PDF %s: %w", outputFile, err)
	}

	res.Written = true
	m.log.Info().Str("output", outputFile).Int("files", len(res.Merged)).Msg("Successfully merged PDFs")
	return res, nil
}

// isolate merges each file on its own into a scratch directory and splits
// files into those that merge and those that do not.
func (m *Merger) isolate(files []string) (kept, skipped []string, err error) {
	dir, err := os.MkdirTemp("", "postpipe-merge-")
	if err != nil {
		return nil, nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	trial := filepath.Join(dir, "trial.pdf")
	for _, f := range files {
		if err := m.merge([]string{f}, trial); err != nil {
			m.log.Error().Err(err).Str("file", filepath.Base(f)).Msg("Error merging file, skipping")
			skipped = append(skipped, f)
			continue
		}
		kept = append(kept, f)
	}
	return kept, skipped, nil
}

// ListPDFs returns the regular files in dir ending in ".pdf", sorted by
// name. Symlinks count when they point at a regular file. The file at
// exclude, if it lives in dir, is left out so a previous merge result is not
// merged into itself.
func ListPDFs(dir, exclude string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputDirNotFound, dir)
		}
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	excludeAbs := ""
	if exclude != "" {
		if abs, err := filepath.Abs(exclude); err == nil {
			excludeAbs = abs
		}
	}

	var names []string
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !isRegular(e, path) {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil && abs == excludeAbs {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	files := make([]string, len(names))
	for i, n := range names {
		files[i] = filepath.Join(dir, n)
	}
	return files, nil
}

func isRegular(e fs.DirEntry, path string) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
