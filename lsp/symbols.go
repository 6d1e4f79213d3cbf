// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/luthersystems/pyrefcheck/analysis"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentSymbol lists module-level definitions, with the
// methods and attributes of classes as children. A name bound several
// times is reported at its first binding.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	var symbols []protocol.DocumentSymbol
	s.withAnalysis(doc, func(d *Document) {
		if d.result == nil {
			return
		}
		symbols = scopeSymbols(d, d.result.Module)
	})
	return symbols, nil
}

func scopeSymbols(doc *Document, scope *analysis.Scope) []protocol.DocumentSymbol {
	var symbols []protocol.DocumentSymbol
	seen := make(map[string]bool)
	for _, b := range scope.Bindings {
		kind, ok := mapBindingKind(b.Kind)
		if !ok || seen[b.Name] {
			continue
		}
		r, ok := bindingRange(doc, b)
		if !ok {
			continue
		}
		seen[b.Name] = true
		sym := protocol.DocumentSymbol{
			Name:           b.Name,
			Kind:           kind,
			Range:          r,
			SelectionRange: r,
		}
		if b.Kind == analysis.BindClass {
			if cls := doc.result.ScopeOf(b.Node); cls != nil {
				sym.Children = scopeSymbols(doc, cls)
			}
		}
		symbols = append(symbols, sym)
	}
	return symbols
}

// mapBindingKind converts a binding kind to an LSP SymbolKind. Parameters
// and other local bindings are not document symbols.
func mapBindingKind(kind analysis.BindingKind) (protocol.SymbolKind, bool) {
	switch kind {
	case analysis.BindFunction:
		return protocol.SymbolKindFunction, true
	case analysis.BindClass:
		return protocol.SymbolKindClass, true
	case analysis.BindAssignment:
		return protocol.SymbolKindVariable, true
	case analysis.BindImport, analysis.BindImportFrom:
		return protocol.SymbolKindModule, true
	case analysis.BindTypeParameter:
		return protocol.SymbolKindTypeParameter, true
	default:
		return 0, false
	}
}
