package main

import (
	"fmt"

	"spry-hq/sprylog/pkg/archive"
	"spry-hq/sprylog/pkg/cli"

	"github.com/spf13/cobra"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the configured log files that are over the line limit",
	Long: `Run the pre-write rotation check on the API and error log files now.
A file above logger.max_lines is trimmed to its last max_lines lines, or,
with logger.archive enabled, rolled over into a gzip archive.`,
	Args: cobra.NoArgs,
	RunE: runRotate,
}

func init() {
	rootCmd.AddCommand(rotateCmd)
}

func runRotate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	var failed error
	for _, path := range a.logFiles() {
		outcome, err := a.logger.Writer().MaybeRotate(path)
		if err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			failed = err
			continue
		}
		fmt.Fprintln(out, describeOutcome(path, outcome))
	}

	if failed != nil {
		return cli.NewCommandError("rotate", failed)
	}
	return nil
}

func describeOutcome(path string, o archive.Outcome) string {
	if !o.Rotated {
		return fmt.Sprintf("- %s: %d lines, no rotation needed", path, o.LinesBefore)
	}
	switch o.Mode {
	case archive.ModeArchive:
		s := fmt.Sprintf("✓ %s: archived %d lines to %s", path, o.LinesBefore, o.Archive)
		if len(o.Pruned) > 0 {
			s += fmt.Sprintf(" (pruned %d)", len(o.Pruned))
		}
		return s
	default:
		return fmt.Sprintf("✓ %s: trimmed %d → %d lines", path, o.LinesBefore, o.LinesAfter)
	}
}
