/*
Package cli provides command-line helpers used by the videogate command.

Output Formatting:

Commands that print records build a Table and hand it to a formatter chosen
by the --format flag. JSON output encodes the records themselves:

	format, err := cli.ParseOutputFormat(flag)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(os.Stdout, records)
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, table)

Errors:

ConfigError and CommandError wrap failures so main can pick an exit code
with ExitCode.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
