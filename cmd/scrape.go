package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaurav-prasanna/postpipe/config"
	"github.com/gaurav-prasanna/postpipe/core/extract"
	"github.com/gaurav-prasanna/postpipe/core/fetch"
	"github.com/gaurav-prasanna/postpipe/core/output"
	"github.com/gaurav-prasanna/postpipe/core/pipeline"
	"github.com/gaurav-prasanna/postpipe/core/render"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect post links and save every post as HTML and PDF",
	Long: `Scrape fetches the reference page, collects every link containing the post
marker, then fetches each post in turn with a random courtesy delay. The
article body of each post is saved as <title>.html and rendered to <title>.pdf.

Examples:
  postpipe scrape
  postpipe scrape --url https://www.patreon.com/posts/some-post-123 --output-dir ./posts
  postpipe scrape --source browser --renderer chrome
  postpipe scrape --renderer wkhtmltopdf --wkhtmltopdf "C:\Program Files\wkhtmltopdf\bin\wkhtmltopdf.exe"`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addScrapeFlags(scrapeCmd.Flags())
}

func addScrapeFlags(fs *pflag.FlagSet) {
	fs.String("url", "", "Reference page to collect post links from")
	fs.String("post-marker", "", "Substring identifying post links")
	fs.String("output-dir", "", "Directory for HTML, PDF and debug files")
	fs.String("source", "", "Page source: http, cloudflare or browser")
	fs.String("renderer", "", "Renderer: wkhtmltopdf, chrome, native or markdown")
	fs.String("wkhtmltopdf", "", "Path to the wkhtmltopdf executable")
	fs.String("chrome-bin", "", "Path to the Chromium executable")
	fs.Duration("delay-min", 0, "Minimum courtesy delay before each post")
	fs.Duration("delay-max", 0, "Maximum courtesy delay before each post")
	fs.Bool("no-sanitize", false, "Keep titles as filenames without sanitizing")
	fs.Bool("no-debug-pages", false, "Do not save raw page sources")
}

// applyScrapeFlags overrides cfg with the flags set on the command line.
func applyScrapeFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	strs := map[string]*string{
		"url":         &cfg.ReferenceURL,
		"post-marker": &cfg.PostMarker,
		"output-dir":  &cfg.OutputDir,
		"source":      &cfg.Source.Kind,
		"renderer":    &cfg.Render.Kind,
		"wkhtmltopdf": &cfg.Render.WkhtmltopdfPath,
		"chrome-bin":  &cfg.Render.ChromeBin,
	}
	for name, dst := range strs {
		if err := overrideString(fs, name, dst); err != nil {
			return err
		}
	}
	if err := overrideDuration(fs, "delay-min", &cfg.Delay.Min); err != nil {
		return err
	}
	if err := overrideDuration(fs, "delay-max", &cfg.Delay.Max); err != nil {
		return err
	}
	if fs.Changed("no-sanitize") {
		v, err := fs.GetBool("no-sanitize")
		if err != nil {
			return err
		}
		cfg.Render.Sanitize = !v
	}
	if fs.Changed("no-debug-pages") {
		v, err := fs.GetBool("no-debug-pages")
		if err != nil {
			return err
		}
		cfg.Render.DebugPages = !v
	}
	return nil
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := applyScrapeFlags(cmd.Flags(), cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetchOpts := cfg.FetchOptions()
	fetchOpts.Browser.Log = log
	fetcher, err := fetch.New(cfg.Source.Kind, fetchOpts)
	if err != nil {
		return fmt.Errorf("initializing page source: %w", err)
	}
	defer closeLogged(log, "page source", fetcher)

	extractor, err := extract.New(cfg.ExtractOptions(), log)
	if err != nil {
		return fmt.Errorf("initializing extractor: %w", err)
	}

	renderer, err := render.New(cfg.Render.Kind, cfg.RenderOptions())
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	defer closeLogged(log, "renderer", renderer)

	writer, err := output.New(cfg.OutputDir, cfg.Render.Sanitize)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	p := pipeline.New(fetcher, extractor, renderer, writer, pipeline.Options{
		PostMarker: cfg.PostMarker,
		DelayMin:   cfg.Delay.Min,
		DelayMax:   cfg.Delay.Max,
		DebugPages: cfg.Render.DebugPages,
	}, log)

	stats, err := p.Run(ctx, cfg.ReferenceURL)
	if err != nil {
		return fmt.Errorf("scrape interrupted after %d posts: %w", stats.Saved, err)
	}
	return nil
}

func closeLogged(log zerolog.Logger, what string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn().Err(err).Msgf("Error closing %s", what)
	}
}

func overrideString(fs *pflag.FlagSet, name string, dst *string) error {
	if !fs.Changed(name) {
		return nil
	}
	v, err := fs.GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideDuration(fs *pflag.FlagSet, name string, dst *time.Duration) error {
	if !fs.Changed(name) {
		return nil
	}
	v, err := fs.GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
