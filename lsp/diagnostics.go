// Copyright © 2024 The ELPS authors

package lsp

import (
	"errors"
	"time"

	"github.com/luthersystems/pyrefcheck/lint"
	"github.com/luthersystems/pyrefcheck/syntax"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const (
	debounceDelay = 300 * time.Millisecond
	sourceName    = "pyrefcheck"
)

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() { _ = recover() }() // don't crash the server on analysis panic
		if d := s.docs.Get(doc.URI); d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)
	if doc := s.docs.Get(params.TextDocument.URI); doc != nil {
		s.analyzeAndPublish(doc)
	}
	return nil
}

func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// analyzeAndPublish analyzes a document and publishes its diagnostics.
func (s *Server) analyzeAndPublish(doc *Document) {
	var uri string
	var skip bool
	diags := []protocol.Diagnostic{}
	s.withAnalysis(doc, func(d *Document) {
		uri = d.URI
		var synErr *syntax.Error
		switch {
		case errors.As(d.err, &synErr):
			diags = append(diags, syntaxDiagnostic(synErr))
		case d.err != nil:
			// Timeouts keep the previously published diagnostics.
			skip = true
			return
		}
		for _, ld := range s.linter.Diagnostics(uriToPath(uri), d.warnings) {
			diags = append(diags, convertLintDiagnostic(ld))
		}
	})
	if skip {
		return
	}

	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func syntaxDiagnostic(err *syntax.Error) protocol.Diagnostic {
	r := nameRange(err.Line, err.Column, " ")
	return protocol.Diagnostic{
		Range:    r,
		Severity: severity(protocol.DiagnosticSeverityError),
		Source:   strPtr(sourceName),
		Message:  err.Error(),
	}
}

// convertLintDiagnostic converts a lint.Diagnostic to an LSP Diagnostic.
// Warnings without a position are attached to the start of the file.
func convertLintDiagnostic(d lint.Diagnostic) protocol.Diagnostic {
	var r protocol.Range
	if d.Pos.Line > 0 {
		r = nameRange(d.Pos.Line, d.Pos.Col-1, d.Reference)
	}
	sev := mapLintSeverity(d.Severity)
	return protocol.Diagnostic{
		Range:    r,
		Severity: &sev,
		Source:   strPtr(sourceName),
		Code:     &protocol.IntegerOrString{Value: d.Kind},
		Message:  d.Message,
	}
}

// mapLintSeverity converts a lint.Severity to a protocol.DiagnosticSeverity.
func mapLintSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func strPtr(s string) *string {
	return &s
}
