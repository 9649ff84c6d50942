/*
Package cli provides command-line utilities for the sprylog command.

Output Formatting:

Commands that list things, such as `archives list`, build their result as a value
that also implements Tabular. The formatter chosen by --output decides
whether it is printed as an aligned table, CSV or JSON:

	formatter := cli.NewFormatter(cli.OutputFormat(outputFlag))
	if err := formatter.FormatTo(os.Stdout, archives); err != nil {
		return err
	}

Errors:

ConfigError and CommandError carry the failing field or command. ExitCode
maps an error returned by a command to the process exit status.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
