// Package pipeline runs a scrape: collect post links from a reference page,
// then fetch, extract, render and write each post in turn.
// A failing post is logged and skipped; it never aborts the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/extract"
	"github.com/gaurav-prasanna/postpipe/core/fetch"
	"github.com/gaurav-prasanna/postpipe/core/output"
	"github.com/gaurav-prasanna/postpipe/core/render"
	"github.com/gaurav-prasanna/postpipe/crawl"
	"github.com/rs/zerolog"
)

// PostReadySelector is the element a browser source waits for on post pages.
const PostReadySelector = "div"

// Options tunes a run.
type Options struct {
	PostMarker string
	DelayMin   time.Duration
	DelayMax   time.Duration
	DebugPages bool
}

// Stats counts what happened to the collected links.
type Stats struct {
	Links   int // unique post links collected
	Saved   int // posts rendered and written
	Skipped int // posts without a usable page or content region
	Failed  int // posts lost to fetch, write or render errors
}

// Pipeline wires the pipeline stages together.
type Pipeline struct {
	fetcher   core.Fetcher
	extractor core.Extractor
	renderer  core.Renderer
	writer    *output.Writer
	collector *crawl.Collector
	opts      Options
	log       zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	delay func(lo, hi time.Duration) time.Duration
}

// New creates a Pipeline. Debug page dumps go through writer when
// opts.DebugPages is set.
func New(
	fetcher core.Fetcher,
	extractor core.Extractor,
	renderer core.Renderer,
	writer *output.Writer,
	opts Options,
	log zerolog.Logger,
) *Pipeline {
	var dumper crawl.PageDumper
	if opts.DebugPages {
		dumper = writer
	}
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		renderer:  renderer,
		writer:    writer,
		collector: crawl.NewCollector(fetcher, opts.PostMarker, dumper, log),
		opts:      opts,
		log:       log,
		sleep:     sleep,
		delay:     uniformDelay,
	}
}

// Run scrapes every post linked from referenceURL. Per-post failures are
// counted in Stats; only a canceled context stops the run early, in which
// case ctx.Err() is returned with the stats so far.
func (p *Pipeline) Run(ctx context.Context, referenceURL string) (Stats, error) {
	var stats Stats

	links := p.collector.Collect(ctx, referenceURL)
	stats.Links = len(links)
	if len(links) == 0 {
		p.log.Warn().Msg("No links found. Exiting.")
		return stats, ctx.Err()
	}

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		p.log.Info().Int("n", i+1).Int("total", len(links)).Str("url", link).Msg("Processing post")

		doc, err := p.fetchPost(ctx, link)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return stats, err
		case err != nil:
			p.log.Error().Err(err).Str("url", link).Msg("Error fetching post")
			stats.Failed++
			continue
		case doc == nil:
			stats.Skipped++
			continue
		}

		if err := p.save(ctx, doc); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			continue
		}
		stats.Saved++
	}

	p.summary(stats)
	return stats, nil
}

// fetchPost waits the courtesy delay, fetches link and extracts its
// content. A nil Document with a nil error means the post was skipped.
func (p *Pipeline) fetchPost(ctx context.Context, link string) (*core.Document, error) {
	log := p.log.With().Str("url", link).Logger()

	d := p.delay(p.opts.DelayMin, p.opts.DelayMax)
	log.Debug().Dur("delay", d).Msg("Waiting before request")
	if err := p.sleep(ctx, d); err != nil {
		return nil, err
	}

	result, err := p.fetcher.Fetch(fetch.WithReadySelector(ctx, PostReadySelector), link)
	if err != nil {
		return nil, err
	}

	if p.opts.DebugPages {
		if path, err := p.writer.WritePage(crawl.PageName(link), result.HTML); err != nil {
			log.Warn().Err(err).Msg("Could not save page source")
		} else {
			log.Debug().Str("path", path).Msg("Saved page source for inspection")
		}
	}

	if !result.OK() {
		log.Error().Int("status", result.StatusCode).Msg("Failed to fetch post")
		return nil, nil
	}

	doc, err := p.extractor.Extract(link, result.HTML)
	switch {
	case errors.Is(err, extract.ErrNoContent):
		log.Warn().Msg("Could not find any suitable content div")
		return nil, nil
	case errors.Is(err, extract.ErrNoText):
		log.Warn().Msg("No text found in post content")
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("extracting post: %w", err)
	}
	return doc, nil
}

// save writes the post HTML, renders it and writes the rendered output.
// The renderer is not run when the HTML cannot be written.
func (p *Pipeline) save(ctx context.Context, doc *core.Document) error {
	if doc.HTML == "" {
		return nil
	}
	log := p.log.With().Str("title", doc.Title).Logger()

	htmlPath, err := p.writer.WriteHTML(doc.Title, doc.HTML)
	if err != nil {
		log.Error().Err(err).Msg("Error saving HTML")
		return err
	}
	log.Info().Str("path", htmlPath).Msg("Saved HTML")

	data, err := p.renderer.Render(ctx, *doc)
	if err != nil {
		log.Error().Err(err).Msg("Error rendering post")
		if hint := render.Hint(p.renderer); hint != "" {
			log.Info().Msg(hint)
		}
		return err
	}

	path, err := p.writer.WriteRendered(doc.Title, data, p.renderer.Extension())
	if err != nil {
		log.Error().Err(err).Msg("Error saving rendered output")
		return err
	}
	log.Info().Str("path", path).Msg("Saved post")
	return nil
}

func (p *Pipeline) summary(s Stats) {
	level := zerolog.InfoLevel
	if s.Failed > 0 {
		level = zerolog.WarnLevel
	}
	p.log.WithLevel(level).
		Int("links", s.Links).
		Int("saved", s.Saved).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Msgf("%d/%d posts failed", s.Failed, s.Links)
}

// uniformDelay returns a duration drawn uniformly from [lo, hi].
func uniformDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
