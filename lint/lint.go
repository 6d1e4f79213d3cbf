// Copyright © 2024 The ELPS authors

// Package lint reports references to potentially undefined names in Python
// source files.
//
// Check is the single entry point for one file: it parses the source,
// analyzes its scopes and turns unresolved accesses into warnings. The
// Linter type adds file naming and severities for the command line and
// language server.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/luthersystems/pyrefcheck/analysis"
	"github.com/luthersystems/pyrefcheck/syntax"
)

// Exceptions are implicit module names that are never reported.
var Exceptions = map[string]bool{
	"__file__":    true,
	"__name__":    true,
	"__doc__":     true,
	"__package__": true,
}

// Severity indicates the severity level of a lint diagnostic.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity: %q", str)
	}
	return nil
}

// Check analyzes Python source and returns its warnings in report order.
// Source that does not parse returns a *syntax.Error.
func Check(ctx context.Context, source []byte) ([]Warning, error) {
	return (&Linter{}).Check(ctx, source)
}

// CheckFile reads and checks the file at path.
func CheckFile(ctx context.Context, path string) ([]Warning, error) {
	return (&Linter{}).CheckFile(ctx, path)
}

// Collect turns the unresolved accesses of an analyzed file into warnings.
//
// A wildcard import anywhere in the file yields exactly one
// ImportStarWarning. Otherwise located warnings come first, ordered by
// line and column, followed by warnings for names without a position in
// discovery order. Accesses on lines with an ignore comment are dropped.
func Collect(res *analysis.Result, file *syntax.File) []Warning {
	if file.HasWildcardImport() {
		return []Warning{ImportStarWarning{}}
	}
	var located []RefWarning
	var unlocated []Warning
	seen := make(map[RefWarning]bool)
	for _, scope := range res.Scopes {
		for _, acc := range scope.Accesses {
			if acc.Resolved() || Exceptions[acc.Name] {
				continue
			}
			pos, ok := file.Position(acc.Node)
			if !ok {
				unlocated = append(unlocated, NoLocationRefWarning{Reference: acc.Name})
				continue
			}
			if file.IsIgnored(pos.Line) {
				continue
			}
			w := RefWarning{Line: pos.Line, Column: pos.Column, Reference: acc.Name}
			if seen[w] {
				continue
			}
			seen[w] = true
			located = append(located, w)
		}
	}
	sort.SliceStable(located, func(i, j int) bool {
		if located[i].Line != located[j].Line {
			return located[i].Line < located[j].Line
		}
		return located[i].Column < located[j].Column
	})
	out := make([]Warning, 0, len(located)+len(unlocated))
	for _, w := range located {
		out = append(out, w)
	}
	return append(out, unlocated...)
}

// Linter checks Python files.
type Linter struct {
	// Pool supplies parsers. Nil means syntax.DefaultPool.
	Pool *syntax.Pool

	// AllowImportStar lowers wildcard-import findings to informational.
	AllowImportStar bool
}

func (l *Linter) pool() *syntax.Pool {
	if l.Pool == nil {
		return syntax.DefaultPool
	}
	return l.Pool
}

// Check analyzes source and returns its warnings.
func (l *Linter) Check(ctx context.Context, source []byte) ([]Warning, error) {
	f, err := l.pool().ParseContext(ctx, source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if f.HasWildcardImport() {
		return []Warning{ImportStarWarning{}}, nil
	}
	res, err := analysis.Analyze(ctx, f)
	if err != nil {
		return nil, err
	}
	return Collect(res, f), nil
}

// Analyze parses and analyzes source without collecting warnings. The
// caller owns the returned file and must close it.
func (l *Linter) Analyze(ctx context.Context, source []byte) (*syntax.File, *analysis.Result, error) {
	f, err := l.pool().ParseContext(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	res, err := analysis.Analyze(ctx, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, res, nil
}

// CheckFile reads and checks the file at path.
func (l *Linter) CheckFile(ctx context.Context, path string) ([]Warning, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	warnings, err := l.Check(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return warnings, nil
}

// Diagnostics converts warnings for filename into diagnostics.
func (l *Linter) Diagnostics(filename string, warnings []Warning) []Diagnostic {
	diags := make([]Diagnostic, 0, len(warnings))
	for _, w := range warnings {
		d := Diagnostic{
			Pos:      Position{File: filename},
			Kind:     w.Kind(),
			Severity: SeverityWarning,
		}
		switch w := w.(type) {
		case RefWarning:
			d.Pos.Line = w.Line
			d.Pos.Col = w.Column + 1
			d.Reference = w.Reference
			d.Message = fmt.Sprintf("reference to potentially undefined `%s`", w.Reference)
		case NoLocationRefWarning:
			d.Reference = w.Reference
			d.Message = fmt.Sprintf("reference to potentially undefined `%s`", w.Reference)
		case ImportStarWarning:
			d.Message = "unable to check file, import * detected"
			if l.AllowImportStar {
				d.Severity = SeverityInfo
			}
		}
		diags = append(diags, d)
	}
	return diags
}

// Diagnostic is a warning attached to a file.
type Diagnostic struct {
	// Pos is the source location of the problem. Line is zero when the
	// position is unknown.
	Pos Position `json:"pos"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Kind is the warning kind, see KindRef.
	Kind string `json:"kind"`

	// Reference is the undefined name, if any.
	Reference string `json:"reference,omitempty"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity"`
}

// Position identifies a location in source code. Col is 1-based.
type Position struct {
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// String returns the position in file:line:col format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// String returns the diagnostic in go vet style: file:line:col: message (kind).
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Kind)
}

// FormatText writes diagnostics in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}
