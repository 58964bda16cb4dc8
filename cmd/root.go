// Package cmd implements the CLI commands for PostPipe using Cobra.
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gaurav-prasanna/postpipe/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Persistent flag variables.
var (
	flagConfig   string
	flagLogLevel string
	flagLogJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "postpipe",
	Short: "PostPipe scrapes posts into standalone PDFs and merges them",
	Long: `PostPipe collects post links from a reference page, extracts the article
body of every post, saves it as HTML and renders it to PDF. The merge command
concatenates the resulting PDFs into a single document.

Usage:
  postpipe scrape [flags]
  postpipe merge [flags]
  postpipe config [flags]`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file (default: built-in settings)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Log JSON lines instead of console output")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by a command.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	log, err := newLogger(cmd.OutOrStdout(), flagLogLevel, flagLogJSON)
	if err != nil {
		return nil, log, err
	}
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return nil, log, err
	}
	return cfg, log, nil
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newLogger builds a console logger on w, or a JSON one when jsonOut is set.
func newLogger(w io.Writer, level string, jsonOut bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	if !jsonOut {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
