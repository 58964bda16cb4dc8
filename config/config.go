// Package config holds the PostPipe run configuration.
// Every value has a default reproducing the tuned setup for the target
// site; a YAML file and then CLI flags override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gaurav-prasanna/postpipe/core/extract"
	"github.com/gaurav-prasanna/postpipe/core/fetch"
	"github.com/gaurav-prasanna/postpipe/core/render"
	"github.com/gaurav-prasanna/postpipe/crawl"
	"github.com/goccy/go-yaml"
)

// Defaults for the top-level locations.
const (
	DefaultReferenceURL = "https://www.patreon.com/posts/frequently-asked-43097481"
	DefaultOutputDir    = "output"
	DefaultMergedFile   = "merged_output.pdf"
)

// maxConfigSize limits config files to prevent memory exhaustion.
const maxConfigSize = 1 << 20

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrConfigTooLarge = errors.New("config file too large")

	ErrNoReferenceURL = errors.New("invalid config: reference_url is required")
	ErrNoPostMarker   = errors.New("invalid config: post_marker is required")
	ErrNoOutputDir    = errors.New("invalid config: output_dir is required")
	ErrInvalidSource  = errors.New("invalid config: unknown source.kind")
	ErrInvalidRender  = errors.New("invalid config: unknown render.kind")
	ErrInvalidDelay   = errors.New("invalid config: delay must satisfy 0 <= min <= max")
	ErrInvalidTimeout = errors.New("invalid config: timeouts must be non-negative")
	ErrInvalidMinText = errors.New("invalid config: extract.min_text_length must be non-negative")
	ErrInvalidMerge   = errors.New("invalid config: merge.input_dir and merge.output_file are required")
)

// Config holds all configuration for a run.
type Config struct {
	ReferenceURL string        `yaml:"reference_url"`
	PostMarker   string        `yaml:"post_marker"`
	OutputDir    string        `yaml:"output_dir"`
	Source       SourceConfig  `yaml:"source"`
	Delay        DelayConfig   `yaml:"delay"`
	Extract      ExtractConfig `yaml:"extract"`
	Render       RenderConfig  `yaml:"render"`
	Merge        MergeConfig   `yaml:"merge"`
}

// SourceConfig selects and tunes the page source.
type SourceConfig struct {
	Kind      string        `yaml:"kind"` // http, cloudflare or browser
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Browser   BrowserConfig `yaml:"browser"`
}

// BrowserConfig tunes the browser page source.
type BrowserConfig struct {
	Bin         string        `yaml:"bin"`
	Headless    bool          `yaml:"headless"`
	NoSandbox   bool          `yaml:"no_sandbox"`
	Settle      time.Duration `yaml:"settle"`
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// DelayConfig bounds the random courtesy delay before each post fetch.
type DelayConfig struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// ExtractConfig configures the content region strategy chain.
type ExtractConfig struct {
	Tag           string   `yaml:"tag"`
	ExactClass    string   `yaml:"exact_class"`
	ClassPrefix   string   `yaml:"class_prefix"`
	Selectors     []string `yaml:"selectors"`
	MinTextLength int      `yaml:"min_text_length"`
}

// RenderConfig selects the renderer and output naming.
type RenderConfig struct {
	Kind            string        `yaml:"kind"` // wkhtmltopdf, chrome, native or markdown
	WkhtmltopdfPath string        `yaml:"wkhtmltopdf_path"`
	ChromeBin       string        `yaml:"chrome_bin"`
	Timeout         time.Duration `yaml:"timeout"`
	Sanitize        bool          `yaml:"sanitize"`
	DebugPages      bool          `yaml:"debug_pages"`
}

// MergeConfig locates the merge input and output.
type MergeConfig struct {
	InputDir   string `yaml:"input_dir"`
	OutputFile string `yaml:"output_file"`
}

// Default returns the configuration tuned for the target site.
func Default() *Config {
	x := extract.DefaultOptions()
	return &Config{
		ReferenceURL: DefaultReferenceURL,
		PostMarker:   crawl.DefaultPostMarker,
		OutputDir:    DefaultOutputDir,
		Source: SourceConfig{
			Kind:    fetch.KindHTTP,
			Timeout: 30 * time.Second,
			Browser: BrowserConfig{
				Headless:    true,
				Settle:      10 * time.Second,
				WaitTimeout: 30 * time.Second,
			},
		},
		Delay: DelayConfig{Min: 2 * time.Second, Max: 5 * time.Second},
		Extract: ExtractConfig{
			Tag:           x.Tag,
			ExactClass:    x.ExactClass,
			ClassPrefix:   x.ClassPrefix,
			Selectors:     x.Selectors,
			MinTextLength: x.MinTextLength,
		},
		Render: RenderConfig{
			Kind:       render.KindWkhtmltopdf,
			Timeout:    60 * time.Second,
			Sanitize:   true,
			DebugPages: true,
		},
		Merge: MergeConfig{
			InputDir:   DefaultOutputDir,
			OutputFile: DefaultMergedFile,
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	if len(data) > maxConfigSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), maxConfigSize)
	}
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	switch {
	case c.ReferenceURL == "":
		return ErrNoReferenceURL
	case c.PostMarker == "":
		return ErrNoPostMarker
	case c.OutputDir == "":
		return ErrNoOutputDir
	}

	switch c.Source.Kind {
	case fetch.KindHTTP, fetch.KindCloudflare, fetch.KindBrowser:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSource, c.Source.Kind)
	}
	switch c.Render.Kind {
	case render.KindWkhtmltopdf, render.KindChrome, render.KindNative, render.KindMarkdown:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRender, c.Render.Kind)
	}

	if c.Delay.Min < 0 || c.Delay.Max < c.Delay.Min {
		return fmt.Errorf("%w: min=%s max=%s", ErrInvalidDelay, c.Delay.Min, c.Delay.Max)
	}
	if c.Source.Timeout < 0 || c.Render.Timeout < 0 ||
		c.Source.Browser.Settle < 0 || c.Source.Browser.WaitTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.Extract.MinTextLength < 0 {
		return ErrInvalidMinText
	}
	if _, err := c.ExtractOptions().Strategies(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateMerge checks only what the merge command needs.
func (c *Config) ValidateMerge() error {
	if c.Merge.InputDir == "" || c.Merge.OutputFile == "" {
		return ErrInvalidMerge
	}
	return nil
}

// ExtractOptions converts the extract section for the extract package.
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{
		Tag:           c.Extract.Tag,
		ExactClass:    c.Extract.ExactClass,
		ClassPrefix:   c.Extract.ClassPrefix,
		Selectors:     c.Extract.Selectors,
		MinTextLength: c.Extract.MinTextLength,
	}
}

// FetchOptions converts the source section for the fetch package.
func (c *Config) FetchOptions() fetch.Options {
	b := c.Source.Browser
	return fetch.Options{
		Timeout:   c.Source.Timeout,
		UserAgent: c.Source.UserAgent,
		Browser: fetch.BrowserOptions{
			Bin:         b.Bin,
			Headless:    b.Headless,
			NoSandbox:   b.NoSandbox,
			Settle:      b.Settle,
			WaitTimeout: b.WaitTimeout,
		},
	}
}

// RenderOptions converts the render section for the render package.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		WkhtmltopdfPath: c.Render.WkhtmltopdfPath,
		ChromeBin:       c.Render.ChromeBin,
		Timeout:         c.Render.Timeout,
	}
}
