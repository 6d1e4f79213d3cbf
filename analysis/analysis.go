// Copyright © 2024 The ELPS authors

// Package analysis provides scope-aware name resolution for Python source.
//
// The analyzer walks a parsed module once, building module, function,
// class and comprehension scopes plus block scopes for control-flow
// constructs whose bindings may not survive them. Whether an if or try
// block gets its own scope depends on whether the alternative paths can
// fall through, which in turn needs to know which calls never return.
// After the walk every recorded access is resolved against its scope
// chain; accesses without candidates are potentially undefined.
package analysis

import (
	"context"
	"fmt"

	"github.com/luthersystems/pyrefcheck/syntax"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Result holds the output of analyzing one file. It is immutable once
// Analyze returns and is only valid while the syntax.File is open.
type Result struct {
	Module   *Scope
	Scopes   []*Scope  // creation order, module first
	Accesses []*Access // walk order
}

// Analyze builds the scope tree for file and resolves every access. The
// walk checks ctx between statements and returns ctx.Err() once it is
// done. An unexpected scope kind during qualified-name computation fails
// the analysis with ErrUnexpectedScope.
func Analyze(ctx context.Context, file *syntax.File) (*Result, error) {
	root := NewScope(ScopeModule, nil, file.Root())
	a := &analyzer{
		ctx:        ctx,
		file:       file,
		src:        file.Source,
		result:     &Result{Module: root, Scopes: []*Scope{root}},
		funcScopes: make(map[uintptr]*Scope),
		checking:   make(map[uintptr]bool),

		neverReturns: make(map[uintptr]bool),
	}
	a.visitBlock(file.Root(), root)
	if a.err != nil {
		return nil, fmt.Errorf("analyzing module: %w", a.err)
	}
	for _, acc := range a.result.Accesses {
		acc.Referents = acc.Scope.Resolve(acc.Name, acc.Index)
	}
	return a.result, nil
}

// Unresolved returns the accesses with no candidate binding, in walk order.
func (r *Result) Unresolved() []*Access {
	var out []*Access
	for _, acc := range r.Accesses {
		if !acc.Resolved() {
			out = append(out, acc)
		}
	}
	return out
}

// ScopeOf returns the innermost scope introduced by node, or nil.
func (r *Result) ScopeOf(node *sitter.Node) *Scope {
	if node == nil {
		return nil
	}
	for _, s := range r.Scopes {
		if s.Node != nil && s.Node.Id() == node.Id() {
			return s
		}
	}
	return nil
}
