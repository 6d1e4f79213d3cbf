// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/luthersystems/pyrefcheck/analysis"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentReferences lists the accesses that may observe the binding
// under the cursor. On an access, its first candidate binding is used.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	line := int(params.Position.Line)
	col := int(params.Position.Character)
	uri := params.TextDocument.URI

	var locs []protocol.Location
	s.withAnalysis(doc, func(d *Document) {
		target := bindingAt(d, line, col)
		if target == nil {
			if acc := accessAt(d, line, col); acc != nil && acc.Resolved() {
				target = acc.Referents[0]
			}
		}
		if target == nil {
			return
		}
		if params.Context.IncludeDeclaration {
			if r, ok := bindingRange(d, target); ok {
				locs = append(locs, protocol.Location{URI: uri, Range: r})
			}
		}
		for _, acc := range d.result.Accesses {
			if !refersTo(acc, target) {
				continue
			}
			if pos, ok := d.file.Position(acc.Node); ok {
				locs = append(locs, protocol.Location{URI: uri, Range: positionRange(pos, acc.Name)})
			}
		}
	})
	return locs, nil
}

func refersTo(acc *analysis.Access, b *analysis.Binding) bool {
	for _, r := range acc.Referents {
		if r == b {
			return true
		}
	}
	return false
}
