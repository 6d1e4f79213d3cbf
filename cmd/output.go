// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/luthersystems/pyrefcheck/diagnostic"
	"github.com/luthersystems/pyrefcheck/lint"
	"github.com/luthersystems/pyrefcheck/runner"
)

const (
	kindTimeout = "timeout"
	kindFailed  = "failed"
)

// reporter prints runner results in the configured format and tracks
// whether the run failed. Results arrive one at a time.
type reporter struct {
	w        io.Writer
	cfg      Config
	linter   *lint.Linter
	renderer *diagnostic.Renderer

	failed bool
	diags  []lint.Diagnostic
}

func newReporter(w io.Writer, cfg Config, linter *lint.Linter) *reporter {
	color, _ := diagnostic.ParseColorMode(cfg.Color)
	return &reporter{
		w:        w,
		cfg:      cfg,
		linter:   linter,
		renderer: &diagnostic.Renderer{Color: color, Width: 100},
	}
}

func (r *reporter) report(res runner.Result) {
	switch res.Outcome {
	case runner.OutcomeTimedOut:
		slog.Warn("file timed out", "path", res.Path, "timeout", r.cfg.Timeout)
		r.emit(res.Path, "🚩", "Timed out", lint.Diagnostic{
			Pos:      lint.Position{File: res.Path},
			Message:  "timed out",
			Kind:     kindTimeout,
			Severity: lint.SeverityWarning,
		})
	case runner.OutcomeFailed:
		r.failed = true
		r.emit(res.Path, "💥", res.Err.Error(), lint.Diagnostic{
			Pos:      lint.Position{File: res.Path},
			Message:  res.Err.Error(),
			Kind:     kindFailed,
			Severity: lint.SeverityError,
		})
	default:
		r.checked(res)
	}
}

func (r *reporter) checked(res runner.Result) {
	diags := r.linter.Diagnostics(res.Path, res.Warnings)
	for i, w := range res.Warnings {
		failure := lint.IsFailure(w, r.cfg.AllowImportStar)
		if failure {
			r.failed = true
		}
		emoji := "⚠️ "
		if w.Kind() == lint.KindImportStar {
			emoji = "⚠️"
			if !failure {
				emoji = "❔"
			}
		}
		r.emit(res.Path, emoji, w.String(), diags[i])
	}
	if len(res.Warnings) == 0 && r.cfg.ShowSuccesses && r.cfg.Format == "text" {
		fmt.Fprintf(r.w, "✅ %s\n", res.Path) //nolint:errcheck // best-effort output to writer
	}
}

// emit writes one finding. Text output is immediate; the other formats
// are buffered until finish so that files come out in path order.
func (r *reporter) emit(path, emoji, text string, d lint.Diagnostic) {
	if r.cfg.Format != "text" {
		r.diags = append(r.diags, d)
		return
	}
	fmt.Fprintf(r.w, "%s %s: %s\n", emoji, path, text) //nolint:errcheck // best-effort output to writer
}

// finish writes buffered output and the closing line.
func (r *reporter) finish() error {
	sort.SliceStable(r.diags, func(i, j int) bool { return r.diags[i].Pos.File < r.diags[j].Pos.File })
	switch r.cfg.Format {
	case "json":
		if r.diags == nil {
			r.diags = []lint.Diagnostic{}
		}
		return lint.FormatJSON(r.w, r.diags)
	case "vet":
		lint.FormatText(r.w, r.diags)
		return nil
	case "pretty":
		if len(r.diags) > 0 {
			if err := r.renderer.RenderAll(r.w, diagnostic.FromLintAll(r.diags)); err != nil {
				return err
			}
			fmt.Fprintln(r.w) //nolint:errcheck // best-effort output to writer
		}
	}
	if !r.failed {
		_, err := fmt.Fprintln(r.w, "✨ all good!")
		return err
	}
	return nil
}
