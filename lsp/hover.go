// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/luthersystems/pyrefcheck/analysis"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentHover describes the bindings a name may refer to.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	line := int(params.Position.Line)
	col := int(params.Position.Character)

	var content string
	s.withAnalysis(doc, func(d *Document) {
		if acc := accessAt(d, line, col); acc != nil {
			content = accessHover(d, acc)
			return
		}
		if b := bindingAt(d, line, col); b != nil {
			content = bindingHover(d, b)
		}
	})
	if content == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: content,
		},
	}, nil
}

func accessHover(doc *Document, acc *analysis.Access) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "`%s`", acc.Name)
	if !acc.Resolved() {
		sb.WriteString("\n\npotentially undefined here")
		return sb.String()
	}
	if len(acc.Referents) > 1 {
		fmt.Fprintf(&sb, "\n\n%d possible bindings:", len(acc.Referents))
	}
	for _, b := range acc.Referents {
		sb.WriteString("\n\n- ")
		sb.WriteString(describeBinding(doc, b))
	}
	return sb.String()
}

func bindingHover(doc *Document, b *analysis.Binding) string {
	return fmt.Sprintf("`%s`\n\n%s", b.Name, describeBinding(doc, b))
}

// describeBinding renders "**kind** `qualified.name` (line N)".
func describeBinding(doc *Document, b *analysis.Binding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", b.Kind)
	if qn, err := b.QualifiedName(); err == nil {
		fmt.Fprintf(&sb, " `%s`", qn.Name)
	}
	if pos, ok := doc.file.Position(bindingNode(b)); ok {
		fmt.Fprintf(&sb, " (line %d)", pos.Line)
	}
	return sb.String()
}
