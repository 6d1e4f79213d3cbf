// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition returns every binding the name under the cursor
// may refer to. Builtins have no location.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	line := int(params.Position.Line)
	col := int(params.Position.Character)

	var locs []protocol.Location
	s.withAnalysis(doc, func(d *Document) {
		acc := accessAt(d, line, col)
		if acc == nil {
			return
		}
		for _, b := range acc.Referents {
			if r, ok := bindingRange(d, b); ok {
				locs = append(locs, protocol.Location{URI: params.TextDocument.URI, Range: r})
			}
		}
	})
	switch len(locs) {
	case 0:
		return nil, nil
	case 1:
		return locs[0], nil
	}
	return locs, nil
}
