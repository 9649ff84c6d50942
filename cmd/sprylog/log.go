package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spry-hq/sprylog/pkg/cli"
	"spry-hq/sprylog/pkg/config"
	"spry-hq/sprylog/pkg/logging"

	"github.com/spf13/cobra"
)

var errNotWritten = errors.New("entry not written (no api_file, logging disabled for non-interactive use, or write failed)")

var logCmd = &cobra.Command{
	Use:   "log <message|warning|error> <text...>",
	Short: "Write an entry to the API log",
	Long: `Write a message, warning or error entry to the API log. The entry is
written as a non-interactive invocation: %ip% is 127.0.0.1.

Examples:
  sprylog log message "nightly import finished"
  sprylog log warning "queue depth above 1000"`,
	Args:      cobra.MinimumNArgs(2),
	ValidArgs: []string{config.CategoryMessage, config.CategoryWarning, config.CategoryError},
	RunE:      runLog,
}

var requestCmd = &cobra.Command{
	Use:   "request [key=value...]",
	Short: "Write a request entry with sensitive parameters masked",
	Long: `Write a request entry for the given parameters. Parameters whose name
is a sensitive key (password, token, api_key, ...) or listed in
logger.redact_keys are masked. Without parameters "Empty" is logged.

Example:
  sprylog request user=alice password=secret`,
	RunE: runRequest,
}

func init() {
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(requestCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := logging.WithNonInteractive(contextOf(cmd))
	text := strings.Join(args[1:], " ")

	var written bool
	switch args[0] {
	case config.CategoryMessage:
		written = a.logger.Message(ctx, text)
	case config.CategoryWarning:
		written = a.logger.Warning(ctx, text)
	case config.CategoryError:
		written = a.logger.Error(ctx, text)
	default:
		return cli.NewCommandError("log", fmt.Errorf("unknown category %q (expected message, warning, error)", args[0]))
	}

	if !written {
		return cli.NewCommandError("log", errNotWritten)
	}
	return nil
}

func runRequest(cmd *cobra.Command, args []string) error {
	params, err := parseParams(args)
	if err != nil {
		return cli.NewCommandError("request", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if !a.logger.Request(logging.WithNonInteractive(contextOf(cmd)), params) {
		return cli.NewCommandError("request", errNotWritten)
	}
	return nil
}

// parseParams turns key=value arguments into request parameters. A key
// given more than once collects its values in order.
func parseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", arg)
		}

		switch prev := params[key].(type) {
		case nil:
			params[key] = value
		case string:
			params[key] = []string{prev, value}
		case []string:
			params[key] = append(prev, value)
		}
	}
	return params, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
