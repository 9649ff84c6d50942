package main

import (
	"fmt"

	"spry-hq/sprylog/pkg/cli"
	"spry-hq/sprylog/pkg/config"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file with environment overrides applied and report
every invalid field. Unlike the other commands, a missing file is an error.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", cfgFile)
	if verbose {
		l := cfg.Logger
		fmt.Fprintf(out, "  api_file:     %s\n", orDisabled(l.APIFile))
		fmt.Fprintf(out, "  error_file:   %s\n", orDisabled(l.ErrorFile))
		fmt.Fprintf(out, "  max_lines:    %d\n", l.MaxLines)
		fmt.Fprintf(out, "  archive:      %t\n", l.Archive)
		fmt.Fprintf(out, "  max_archives: %d\n", l.MaxArchives)
		fmt.Fprintf(out, "  sweep:        %s\n", orDisabled(l.SweepSchedule))
	}
	return nil
}

func orDisabled(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}
