// Copyright © 2024 The ELPS authors

package analysis

import sitter "github.com/tree-sitter/go-tree-sitter"

// Access records a name being read.
type Access struct {
	Name  string
	Node  *sitter.Node
	Scope *Scope
	Index int

	// Referents are the candidate bindings the access may observe. Empty
	// means the name is potentially undefined at this point.
	Referents []*Binding
}

// Resolved reports whether the access has at least one candidate binding.
func (a *Access) Resolved() bool {
	return len(a.Referents) > 0
}
