package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gaurav-prasanna/postpipe/config"
	"github.com/gaurav-prasanna/postpipe/core/merge"
	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args after resetting every flag,
// since cobra commands are package-level.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		reset(c.Flags())
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "warn", true)
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	log.Info().Msg("hidden")
	log.Warn().Str("url", "x").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"url":"x"`)

	_, err = newLogger(&buf, "loud", false)
	require.Error(t, err)
}

func TestApplyScrapeFlags(t *testing.T) {
	fs := pflag.NewFlagSet("scrape", pflag.ContinueOnError)
	addScrapeFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--url", "https://example.com/ref",
		"--renderer", "native",
		"--delay-max", "1s",
		"--no-sanitize",
	}))

	cfg := config.Default()
	require.NoError(t, applyScrapeFlags(fs, cfg))
	assert.Equal(t, "https://example.com/ref", cfg.ReferenceURL)
	assert.Equal(t, "native", cfg.Render.Kind)
	assert.Equal(t, time.Second, cfg.Delay.Max)
	assert.False(t, cfg.Render.Sanitize)

	// Unset flags leave the configuration alone.
	assert.Equal(t, config.DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, 2*time.Second, cfg.Delay.Min)
	assert.True(t, cfg.Render.DebugPages)
}

func TestApplyMergeFlags(t *testing.T) {
	fs := pflag.NewFlagSet("merge", pflag.ContinueOnError)
	addMergeFlags(fs)
	require.NoError(t, fs.Parse([]string{"--output", "all.pdf"}))

	cfg := config.Default()
	require.NoError(t, applyMergeFlags(fs, cfg))
	assert.Equal(t, "all.pdf", cfg.Merge.OutputFile)
	assert.Equal(t, config.DefaultOutputDir, cfg.Merge.InputDir)
}

func TestMergeCommand_MissingDir(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "merge",
		"--input-dir", filepath.Join(dir, "missing"),
		"--output", filepath.Join(dir, "out.pdf"))
	require.ErrorIs(t, err, merge.ErrInputDirNotFound)
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.pdf"} {
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.AddPage()
		pdf.Cell(40, 10, name)
		require.NoError(t, pdf.OutputFileAndClose(filepath.Join(dir, name)))
	}

	out := filepath.Join(t.TempDir(), "merged.pdf")
	_, err := execute(t, "merge", "--input-dir", dir, "--output", out, "--log-level", "error")
	require.NoError(t, err)
	assert.FileExists(t, out)

	// A write failure is logged, not turned into a failing exit.
	unwritable := filepath.Join(t.TempDir(), "missing", "merged.pdf")
	_, err = execute(t, "merge", "--input-dir", dir, "--output", unwritable, "--log-level", "error")
	require.NoError(t, err)
	assert.NoFileExists(t, unwritable)
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: pdfs\nrender:\n  kind: native\n"), 0o644))

	out, err := execute(t, "config", "--config", path)
	require.NoError(t, err)

	cfg, err := config.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "pdfs", cfg.OutputDir)
	assert.Equal(t, "native", cfg.Render.Kind)
}

func TestConfigCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestScrapeCommand(t *testing.T) {
	body := strings.Repeat("A long enough paragraph of post text. ", 10)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/ref", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body>
<a href="%[1]s/patreon.com/posts/first-1">one</a>
<a href="%[1]s/patreon.com/posts/first-1">again</a>
<a href="%[1]s/elsewhere">other</a>
</body></html>`, srv.URL)
	})
	mux.HandleFunc("/patreon.com/posts/first-1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><head><title>First Post</title></head><body>
<div class="sc-2ee9b62c-0 emBANY"><p>%s</p></div></body></html>`, body)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	_, err := execute(t, "scrape",
		"--url", srv.URL+"/ref",
		"--output-dir", dir,
		"--renderer", "markdown",
		"--delay-min", "0s",
		"--delay-max", "0s",
		"--log-level", "error")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "reference_page.html"))
	assert.FileExists(t, filepath.Join(dir, "first-1.html"))
	assert.FileExists(t, filepath.Join(dir, "First Post.html"))

	md, err := os.ReadFile(filepath.Join(dir, "First Post.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "A long enough paragraph")
}

func TestScrapeCommand_InvalidSource(t *testing.T) {
	_, err := execute(t, "scrape", "--source", "curl", "--output-dir", t.TempDir())
	require.ErrorIs(t, err, config.ErrInvalidSource)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]*cobra.Command{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = c
	}
	for _, want := range []string{"scrape", "merge", "config"} {
		assert.Contains(t, names, want)
	}
}
