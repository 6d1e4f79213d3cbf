// Copyright © 2024 The ELPS authors

// Package diagnostic renders lint findings as annotated source snippets
// for terminal output.
package diagnostic

import "github.com/luthersystems/pyrefcheck/lint"

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column, in runes
	EndCol int    // 1-based end column (0 = end of the identifier at Col)
	Label  string // text shown under the underline
}

// Diagnostic is a finding with optional source annotations and trailing
// notes.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	Notes    []string
}

// FromLint converts a lint diagnostic. Diagnostics without a line get no
// span, only a note naming the file.
func FromLint(d lint.Diagnostic) Diagnostic {
	out := Diagnostic{Message: d.Message}
	switch d.Severity {
	case lint.SeverityError:
		out.Severity = SeverityError
	case lint.SeverityInfo:
		out.Severity = SeverityNote
	default:
		out.Severity = SeverityWarning
	}
	if d.Pos.Line > 0 {
		span := Span{File: d.Pos.File, Line: d.Pos.Line, Col: d.Pos.Col}
		if d.Reference != "" {
			span.Label = "not defined on every path to here"
		}
		out.Spans = append(out.Spans, span)
	} else if d.Pos.File != "" {
		out.Notes = append(out.Notes, "in "+d.Pos.File)
	}
	if d.Kind == lint.KindNoLocation {
		out.Notes = append(out.Notes,
			"the name appears in a string annotation, so its position is unknown")
	}
	return out
}

// FromLintAll converts a list of lint diagnostics.
func FromLintAll(diags []lint.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(diags))
	for i, d := range diags {
		out[i] = FromLint(d)
	}
	return out
}
