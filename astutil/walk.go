// Copyright © 2024 The ELPS authors

// Package astutil provides shared tree walking utilities for Python syntax
// trees produced by tree-sitter.
//
// These helpers are used by the syntax, analysis and lint packages.
package astutil

import sitter "github.com/tree-sitter/go-tree-sitter"

// Walk calls fn for every node in the tree, depth-first and in source order.
// parent is nil for the root. When fn returns false the children of node
// are skipped.
func Walk(root *sitter.Node, fn func(node *sitter.Node, parent *sitter.Node, depth int) bool) {
	walkNode(root, nil, 0, fn)
}

func walkNode(node *sitter.Node, parent *sitter.Node, depth int, fn func(*sitter.Node, *sitter.Node, int) bool) {
	if node == nil {
		return
	}
	if !fn(node, parent, depth) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walkNode(node.Child(i), node, depth+1, fn)
	}
}

// Children returns every child of node, named or anonymous.
func Children(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.ChildCount())
	for i := uint(0); i < node.ChildCount(); i++ {
		if c := node.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children of node, skipping comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Field returns the child stored under the grammar field name, or nil.
func Field(node *sitter.Node, name string) *sitter.Node {
	if node == nil {
		return nil
	}
	return node.ChildByFieldName(name)
}

// Fields returns every child stored under the grammar field name, in
// source order. Repeated fields (if_statement alternatives, for_in_clause
// iterables) need this instead of Field.
func Fields(node *sitter.Node, name string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == name {
			out = append(out, node.Child(i))
		}
	}
	return out
}

// ChildOfKind returns the first direct child of the given kind, or nil.
func ChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	for _, c := range Children(node) {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// Text returns the source text covered by node.
func Text(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if end > uint(len(src)) || start > end {
		return ""
	}
	return string(src[start:end])
}

// Unwrap strips parentheses and the annotation wrapper tree-sitter puts
// around type expressions.
func Unwrap(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "parenthesized_expression", "type":
			named := NamedChildren(node)
			if len(named) != 1 {
				return node
			}
			node = named[0]
		default:
			return node
		}
	}
	return nil
}

// Identifiers returns every identifier below node (inclusive) in source
// order.
func Identifiers(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	Walk(node, func(n *sitter.Node, _ *sitter.Node, _ int) bool {
		if n.Kind() == "identifier" {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}
