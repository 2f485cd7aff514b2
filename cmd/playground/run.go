package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"patternweb/playground/pkg/app"
	"patternweb/playground/pkg/cli"
	"patternweb/playground/pkg/config"
	"patternweb/playground/pkg/console"
	"patternweb/playground/pkg/source"
)

var runFlags struct {
	data        []string
	pattern     string
	gist        string
	code        string
	backend     string
	format      string
	noColor     bool
	progress    bool
	allowErrors bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a pattern against data files",
	Long: `Run a pattern source against one or more binary data files and print the
engine console.

Exactly one source is used: --pattern, --gist or --code. A failed gist fetch
is not retried and does not fall back to --code.

The exit status is 3 when any run printed an [ERROR] line, unless
--allow-errors is set.

Examples:
  # Run a local pattern
  playground run --pattern header.pat --data firmware.bin

  # Run a shared link's source against several files
  playground run --code bG9nLmluZm8oImhpIik --data a.bin --data b.bin --progress

  # Machine-readable output
  playground run --gist 0123abcd --data dump.bin --format json`,
	RunE: runPattern,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVarP(&runFlags.data, "data", "d", nil, "binary data file (repeatable)")
	runCmd.Flags().StringVarP(&runFlags.pattern, "pattern", "p", "", "pattern source file")
	runCmd.Flags().StringVar(&runFlags.gist, "gist", "", "gist id to fetch the source from")
	runCmd.Flags().StringVar(&runFlags.code, "code", "", "base64url-encoded source")
	runCmd.Flags().StringVar(&runFlags.backend, "backend", "", "override engine backend (wasm, lua)")
	runCmd.Flags().StringVarP(&runFlags.format, "format", "f", "text", "output format: text, json, csv")
	runCmd.Flags().BoolVar(&runFlags.noColor, "no-color", false, "disable colored console output")
	runCmd.Flags().BoolVar(&runFlags.progress, "progress", false, "report progress on stderr")
	runCmd.Flags().BoolVar(&runFlags.allowErrors, "allow-errors", false, "exit 0 even when the console has [ERROR] lines")
	runCmd.MarkFlagsMutuallyExclusive("pattern", "gist", "code")
	_ = runCmd.MarkFlagRequired("data")
}

// fileRun is the result of running the source against one data file.
type fileRun struct {
	File       string         `json:"file"`
	RunID      string         `json:"run_id"`
	Lines      []console.Line `json:"lines"`
	UIConfig   string         `json:"ui_config,omitempty"`
	DurationMS float64        `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

// runReport is what run prints.
type runReport struct {
	Source source.Origin `json:"source"`
	Runs   []fileRun     `json:"runs"`
}

// Header implements cli.Table.
func (r runReport) Header() []string {
	return []string{"file", "line", "severity", "text"}
}

// Rows implements cli.Table.
func (r runReport) Rows() [][]string {
	var rows [][]string
	for _, run := range r.Runs {
		for i, l := range run.Lines {
			rows = append(rows, []string{run.File, strconv.Itoa(i + 1), string(l.Severity), l.Text})
		}
	}
	return rows
}

func (r runReport) errorLines() int {
	n := 0
	for _, run := range r.Runs {
		n += console.Counts(run.Lines)[console.SeverityError]
	}
	return n
}

func runPattern(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(runFlags.format)
	if err != nil {
		return err
	}
	if runFlags.pattern == "" && runFlags.gist == "" && runFlags.code == "" {
		return cli.NewConfigError("source", "one of --pattern, --gist or --code is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.backend != "" {
		cfg.Engine.Backend = runFlags.backend
	}
	cfg.Source.PatternFile = runFlags.pattern
	cfg.Source.Watch = false
	cfg.Telemetry.Metrics.Enabled = false
	if !verbose {
		cfg.Telemetry.Logging.Level = "warn"
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	deepLink := url.Values{}
	if runFlags.gist != "" {
		deepLink.Set("gist", runFlags.gist)
	}
	if runFlags.code != "" {
		deepLink.Set("code", runFlags.code)
	}

	ctrl, err := app.NewFromConfig(cfg, app.Deps{Logger: logger.Slog(), DeepLink: deepLink})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	if err := ctrl.Start(ctx); err != nil {
		_ = ctrl.Close(context.Background())
		return cli.NewCommandError("run", err)
	}
	defer ctrl.Close(context.Background())

	report, err := executeRuns(ctx, cfg, ctrl, runFlags.data, len(deepLink) > 0, progressFor(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatText {
		if err := writeText(out, report, !runFlags.noColor && color.SupportColor()); err != nil {
			return err
		}
	} else if err := cli.NewFormatter(format).FormatTo(out, report); err != nil {
		return cli.NewCommandError("run", err)
	}

	for _, run := range report.Runs {
		if run.Error != "" {
			return &cli.ExitError{Code: cli.ExitFailure, Err: fmt.Errorf("%s: %s", run.File, run.Error), Silent: true}
		}
	}
	if n := report.errorLines(); n > 0 && !runFlags.allowErrors {
		return &cli.ExitError{Code: cli.ExitPatternFail, Err: fmt.Errorf("%d error lines", n), Silent: true}
	}
	return nil
}

func progressFor(w io.Writer) cli.ProgressReporter {
	if !runFlags.progress {
		return nil
	}
	return cli.NewProgressReporter(w, "files")
}

// executeRuns resolves the session source, waits for the engine and picks
// every data file in turn.
func executeRuns(ctx context.Context, cfg *config.Config, ctrl *app.Controller, files []string, deepLink bool, progress cli.ProgressReporter) (runReport, error) {
	if deepLink {
		select {
		case <-ctrl.DeepLinkDone():
		case <-ctx.Done():
			return runReport{}, cli.NewCommandError("run", ctx.Err())
		}
	}
	src := ctrl.Source()
	if src.Origin == source.OriginNone {
		return runReport{}, cli.NewCommandError("run", fmt.Errorf("no pattern source could be loaded"))
	}

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Engine.InitTimeout)
	defer cancel()
	if err := ctrl.Bridge().Wait(waitCtx); err != nil {
		return runReport{}, cli.NewCommandError("run", err)
	}

	report := runReport{Source: src.Origin, Runs: make([]fileRun, 0, len(files))}
	if progress != nil {
		progress.Start(int64(len(files)))
	}
	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return runReport{}, cli.NewCommandError("run", fmt.Errorf("failed to read data file: %w", err))
		}

		out := ctrl.PickFile(ctx, filepath.Base(path), data)
		run := fileRun{
			File:       path,
			RunID:      out.RunID,
			Lines:      out.Lines,
			UIConfig:   out.UIConfig,
			DurationMS: float64(out.Duration.Microseconds()) / 1000,
		}
		if out.Err != nil {
			run.Error = out.Err.Error()
		}
		report.Runs = append(report.Runs, run)

		if progress != nil {
			progress.Update(int64(i + 1))
		}
	}
	if progress != nil {
		progress.Finish()
	}
	return report, nil
}

func writeText(w io.Writer, report runReport, colored bool) error {
	sink := console.NewTerminalSink(w, colored)
	for i, run := range report.Runs {
		if len(report.Runs) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s ==\n", run.File)
		}
		// The trailing segment after the last delimiter is always empty.
		lines := run.Lines
		if n := len(lines); n > 0 && lines[n-1].Text == "" {
			lines = lines[:n-1]
		}
		if err := sink.Write(lines); err != nil {
			return err
		}
	}
	return nil
}

func (r runReport) String() string {
	var sb strings.Builder
	_ = writeText(&sb, r, false)
	return sb.String()
}
