package main

import (
	"context"
	"errors"
	"fmt"

	"spry-hq/sprylog/pkg/cli"
	"spry-hq/sprylog/pkg/tail"

	"github.com/spf13/cobra"
)

var tailFlags struct {
	errorLog  bool
	fromStart bool
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the API log (or the error log) across rotations",
	Long: `Print entries as they are appended to the API log, or the error log with
--error. Following survives truncation by archive rollover and rewriting by
trim. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVarP(&tailFlags.errorLog, "error", "e", false, "follow the error log")
	tailCmd.Flags().BoolVarP(&tailFlags.fromStart, "from-start", "f", false, "print the current content first")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	path := a.cfg.Logger.APIFile
	if tailFlags.errorLog {
		path = a.cfg.Logger.ErrorFile
	}
	if path == "" {
		return cli.NewConfigError("logger", "no log file configured to follow")
	}

	var opts []tail.Option
	if tailFlags.fromStart {
		opts = append(opts, tail.FromStart())
	}
	follower, err := tail.Open(path, opts...)
	if err != nil {
		return cli.NewCommandError("tail", err)
	}
	defer follower.Close()

	ctx, stop := cli.SetupSignalHandler(contextOf(cmd))
	defer stop()

	out := cmd.OutOrStdout()
	err = follower.Run(ctx, func(line string) {
		fmt.Fprintln(out, line)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, tail.ErrClosed) {
		return nil
	}
	return err
}
