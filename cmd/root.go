// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/luthersystems/pyrefcheck/lint"
	"github.com/luthersystems/pyrefcheck/runner"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitWarnings = 1
	ExitUsage    = 2
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: ExitUsage, err: err}
}

const longHelp = `Check Python files for references to names that may be undefined on some path to the reference.

Directories are searched recursively for files matching --include. Paths matching --exclude or an --extend-exclude glob are skipped. Settings are read from [tool.pyrefcheck] in pyproject.toml and from PYREFCHECK_* environment variables; flags take precedence.

A comment containing "ref: ignore" suppresses warnings on its line.

Exit codes:
  0  no problems found
  1  warnings were reported or a file could not be checked
  2  bad invocation

Examples:
  pyrefcheck .
  pyrefcheck --show-successes src/ tests/test_app.py
  pyrefcheck --format pretty --timeout 10 ./...
  pyrefcheck --watch src/`

// NewRootCommand creates the pyrefcheck command tree.
func NewRootCommand() *cobra.Command {
	var (
		cfgFile string
		watch   bool
	)

	root := &cobra.Command{
		Use:           "pyrefcheck [flags] paths...",
		Short:         "Check Python files for potentially undefined references",
		Long:          wordwrap.String(longHelp, 80),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, cfgFile)
			if err != nil {
				return usageError(err)
			}
			cfg.Watch = watch
			setupLogging(cmd.ErrOrStderr(), cfg.Verbose)
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg, expandArgs(args))
		},
	}

	flags := root.Flags()
	flags.Bool("show-successes", false, "Show a line for every file without warnings.")
	flags.String("timeout", "5", "Maximum processing time for a single file, in seconds or as a duration.")
	flags.Bool("allow-import-star", true, "Treat `import *` as informational.")
	flags.Bool("disallow-import-star", false, "Treat `import *` as a failure.")
	flags.String("include", runner.DefaultInclude, "Regex for files to include when searching directories.")
	flags.String("exclude", runner.DefaultExclude, "Regex for paths to exclude.")
	flags.StringSlice("extend-exclude", nil, "Glob for additional paths to exclude (may be repeated).")
	flags.Int("workers", 0, "Number of files checked in parallel (default: number of CPUs).")
	flags.String("format", "text", `Output format: "text", "json", "pretty" or "vet" (file:line:col: message).`)
	flags.BoolVar(&watch, "watch", false, "Keep running and re-check files as they change.")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file after each run.")

	pflags := root.PersistentFlags()
	pflags.StringVar(&cfgFile, "config", "", "pyproject.toml to read settings from (default ./pyproject.toml).")
	pflags.String("color", "auto", `Control colored output: "auto", "always", or "never".`)
	pflags.BoolP("verbose", "v", false, "Log debug information to stderr.")

	root.AddCommand(LSPCommand(&cfgFile), GuideCommand())
	return root
}

// setupLogging installs the default slog logger.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// runCheck finds and checks files, then optionally watches them.
func runCheck(ctx context.Context, out io.Writer, cfg Config, paths []string) error {
	filter, err := runner.NewFilter(cfg.Include, cfg.Exclude, cfg.ExtendExclude)
	if err != nil {
		return usageError(err)
	}
	files, err := runner.Find(paths, filter)
	if err != nil {
		return usageError(err)
	}

	linter := &lint.Linter{AllowImportStar: cfg.AllowImportStar}
	var metrics *runner.Metrics
	if cfg.MetricsFile != "" {
		metrics = runner.NewMetrics()
	}
	r := runner.New(runner.Options{
		Timeout: cfg.Timeout,
		Workers: cfg.Workers,
		Check:   linter.CheckFile,
		Metrics: metrics,
		Logger:  slog.Default(),
	})

	failed, err := checkOnce(ctx, out, cfg, linter, r, metrics, files)
	if err != nil {
		return err
	}
	if cfg.Watch {
		return watchFiles(ctx, out, cfg, linter, r, metrics, filter, paths)
	}
	if failed {
		return &exitError{code: ExitWarnings}
	}
	return nil
}

func checkOnce(ctx context.Context, out io.Writer, cfg Config, linter *lint.Linter, r *runner.Runner, metrics *runner.Metrics, files []string) (bool, error) {
	rep := newReporter(out, cfg, linter)
	if err := r.Run(ctx, files, rep.report); err != nil {
		return true, &exitError{code: ExitWarnings, err: fmt.Errorf("interrupted: %w", err)}
	}
	if err := rep.finish(); err != nil {
		return true, err
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			slog.Error("writing metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
	return rep.failed, nil
}

func watchFiles(ctx context.Context, out io.Writer, cfg Config, linter *lint.Linter, r *runner.Runner, metrics *runner.Metrics, filter runner.Filter, paths []string) error {
	w, err := runner.NewWatcher(filter, runner.DefaultDebounce, slog.Default(), func(changed []string) {
		if _, err := checkOnce(ctx, out, cfg, linter, r, metrics, changed); err != nil && ctx.Err() == nil {
			slog.Error("re-check failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	slog.Info("watching for changes", "paths", paths)
	if err := w.Watch(ctx, paths); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Run executes the command line args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(stderr, "pyrefcheck: %v\n", exitErr.err) //nolint:errcheck // best-effort output to writer
		}
		return exitErr.code
	}
	// Flag parsing and other cobra errors.
	fmt.Fprintf(stderr, "pyrefcheck: %v\n", err) //nolint:errcheck // best-effort output to writer
	return ExitUsage
}

// Execute runs the command line of the current process and exits. This is
// called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
