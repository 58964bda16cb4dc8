package cmd

import (
	"errors"

	"github.com/gaurav-prasanna/postpipe/config"
	"github.com/gaurav-prasanna/postpipe/core/merge"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge every PDF in a directory into one document",
	Long: `Merge appends all pages of every *.pdf file in the input directory, in
filename order, into a single output PDF. Unreadable files are skipped.
A missing input directory is an error; any other failure is logged.

Examples:
  postpipe merge
  postpipe merge --input-dir ./posts --output ./all_posts.pdf`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	addMergeFlags(mergeCmd.Flags())
}

func addMergeFlags(fs *pflag.FlagSet) {
	fs.String("input-dir", "", "Directory holding the PDFs to merge")
	fs.String("output", "", "Merged PDF path")
}

// applyMergeFlags overrides cfg with the flags set on the command line.
func applyMergeFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	if err := overrideString(fs, "input-dir", &cfg.Merge.InputDir); err != nil {
		return err
	}
	return overrideString(fs, "output", &cfg.Merge.OutputFile)
}

func runMerge(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := applyMergeFlags(cmd.Flags(), cfg); err != nil {
		return err
	}
	if err := cfg.ValidateMerge(); err != nil {
		return err
	}

	// Only a missing input directory fails the command.
	res, err := merge.New(log).Merge(cfg.Merge.InputDir, cfg.Merge.OutputFile)
	if errors.Is(err, merge.ErrInputDirNotFound) {
		return err
	}
	if err != nil {
		log.Error().Err(err).Msg("Merge failed")
		return nil
	}
	log.Debug().
		Int("found", res.Found).
		Int("merged", len(res.Merged)).
		Int("skipped", len(res.Skipped)).
		Bool("written", res.Written).
		Msg("Merge finished")
	return nil
}
