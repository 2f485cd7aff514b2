/*
Package cli provides command-line helpers for the playground binary.

Output Formatting:

Command results can be printed as text, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

CSV output needs data that implements Table.

Progress Reporting:

Batch runs over several data files report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "files")
	progress.Start(int64(len(files)))
	for i := range files {
		// Run
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

Commands return an *ExitError to choose the process exit status, for example
when a pattern run produced [ERROR] lines.
*/
package cli
