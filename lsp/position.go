// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/pyrefcheck/analysis"
	"github.com/luthersystems/pyrefcheck/syntax"
	sitter "github.com/tree-sitter/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// nameRange converts a 1-based line and 0-based rune column to an LSP range
// covering name.
func nameRange(line, col int, name string) protocol.Range {
	start := protocol.Position{Line: safeUint(line - 1), Character: safeUint(col)}
	end := start
	end.Character += safeUint(utf8.RuneCountInString(name))
	return protocol.Range{Start: start, End: end}
}

func positionRange(pos syntax.Position, name string) protocol.Range {
	return nameRange(pos.Line, pos.Column, name)
}

// covers reports whether the 0-based LSP position falls on the identifier
// at pos.
func covers(pos syntax.Position, name string, line, col int) bool {
	if pos.Line != line+1 {
		return false
	}
	return col >= pos.Column && col <= pos.Column+utf8.RuneCountInString(name)
}

// bindingNode returns the identifier node that names b, or nil for
// builtins.
func bindingNode(b *analysis.Binding) *sitter.Node {
	if b == nil || b.Node == nil {
		return nil
	}
	switch b.Node.Kind() {
	case "function_definition", "class_definition":
		return b.Node.ChildByFieldName("name")
	}
	return b.Node
}

// accessAt returns the access under the 0-based LSP position.
func accessAt(doc *Document, line, col int) *analysis.Access {
	if doc.result == nil {
		return nil
	}
	for _, acc := range doc.result.Accesses {
		pos, ok := doc.file.Position(acc.Node)
		if ok && covers(pos, acc.Name, line, col) {
			return acc
		}
	}
	return nil
}

// bindingAt returns the binding whose name is under the 0-based LSP
// position.
func bindingAt(doc *Document, line, col int) *analysis.Binding {
	if doc.result == nil {
		return nil
	}
	for _, scope := range doc.result.Scopes {
		for _, b := range scope.Bindings {
			pos, ok := doc.file.Position(bindingNode(b))
			if ok && covers(pos, b.Name, line, col) {
				return b
			}
		}
	}
	return nil
}

// bindingRange returns the range of b's name, if b was defined in doc.
func bindingRange(doc *Document, b *analysis.Binding) (protocol.Range, bool) {
	pos, ok := doc.file.Position(bindingNode(b))
	if !ok {
		return protocol.Range{}, false
	}
	return positionRange(pos, b.Name), true
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
