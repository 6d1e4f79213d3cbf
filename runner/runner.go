// Copyright © 2024 The ELPS authors

// Package runner checks many Python files concurrently, each under its own
// deadline, and watches directories for changes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/luthersystems/pyrefcheck/lint"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/luthersystems/pyrefcheck/runner"

// Outcome is how checking a single file ended.
type Outcome int

const (
	OutcomeChecked Outcome = iota
	OutcomeTimedOut
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeChecked:
		return "checked"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the report for one file.
type Result struct {
	Path     string
	Outcome  Outcome
	Warnings []lint.Warning
	Err      error
	Duration time.Duration
}

// CheckFunc checks the file at path.
type CheckFunc func(ctx context.Context, path string) ([]lint.Warning, error)

// Options configure a Runner.
type Options struct {
	// Timeout bounds the time spent on each file. Zero means no limit.
	Timeout time.Duration

	// Workers is the number of files checked at once. Zero means
	// GOMAXPROCS.
	Workers int

	// Check is called for every file. Nil means lint.CheckFile.
	Check CheckFunc

	// Metrics, if set, records outcomes and warnings.
	Metrics *Metrics

	// Tracer defaults to the global otel tracer provider.
	Tracer trace.Tracer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Runner checks files in parallel.
type Runner struct {
	opts Options
}

// New returns a Runner with defaults filled in.
func New(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Check == nil {
		opts.Check = lint.CheckFile
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{opts: opts}
}

// Run checks paths and calls report once per file as results come in.
// report is never called concurrently. When ctx is canceled outstanding
// checks are abandoned and Run returns the context error.
func (r *Runner) Run(ctx context.Context, paths []string, report func(Result)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	results := make(chan Result)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			report(res)
		}
	}()

	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := r.checkOne(gctx, path)
			if err := gctx.Err(); err != nil {
				return err
			}
			results <- res
			return nil
		})
	}
	err := g.Wait()
	close(results)
	<-done
	if err != nil {
		return err
	}
	return ctx.Err()
}

type checked struct {
	warnings []lint.Warning
	err      error
}

// check runs the check function and returns when it finishes or ctx is
// done, whichever comes first. A check that ignores ctx is abandoned; its
// result is discarded when it eventually returns.
func (r *Runner) check(ctx context.Context, path string) ([]lint.Warning, error) {
	done := make(chan checked, 1)
	go func() {
		warnings, err := r.opts.Check(ctx, path)
		done <- checked{warnings: warnings, err: err}
	}()
	select {
	case c := <-done:
		return c.warnings, c.err
	case <-ctx.Done():
		select {
		case c := <-done:
			return c.warnings, c.err
		default:
			return nil, ctx.Err()
		}
	}
}

func (r *Runner) checkOne(ctx context.Context, path string) Result {
	ctx, span := r.opts.Tracer.Start(ctx, "pyrefcheck.check",
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	fctx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	warnings, err := r.check(fctx, path)
	res := Result{Path: path, Warnings: warnings, Duration: time.Since(start)}
	switch {
	case err == nil:
		res.Outcome = OutcomeChecked
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		res.Outcome = OutcomeTimedOut
		res.Err = err
	default:
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("checking %s: %w", path, err)
	}

	span.SetAttributes(
		attribute.String("pyrefcheck.outcome", res.Outcome.String()),
		attribute.Int("pyrefcheck.warnings", len(res.Warnings)),
	)
	if res.Outcome == OutcomeFailed {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	r.opts.Metrics.observe(res)
	r.opts.Logger.Debug("checked file",
		"path", path,
		"outcome", res.Outcome.String(),
		"warnings", len(res.Warnings),
		"duration", res.Duration)
	return res
}
