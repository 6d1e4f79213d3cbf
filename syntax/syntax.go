// Copyright © 2024 The ELPS authors

// Package syntax parses Python source with tree-sitter and exposes the
// metadata the analyzer needs: node positions, ignore comments and wildcard
// imports.
package syntax

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/pyrefcheck/astutil"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// IgnoreDirective suppresses warnings on the physical line of the comment
// that contains it.
const IgnoreDirective = "ref: ignore"

// Position is a source location. Line is 1-based, Column is a 0-based rune
// offset into the line.
type Position struct {
	Line   int
	Column int
}

// File is a parsed Python module. It owns the tree-sitter trees it hands
// out nodes from and must be closed.
type File struct {
	Source []byte
	Tree   *sitter.Tree

	pool      *Pool
	positions map[uintptr]Position
	ignored   map[int]bool
	wildcard  bool
	aux       []*sitter.Tree
}

// Parse parses src using DefaultPool.
func Parse(src []byte) (*File, error) {
	return DefaultPool.Parse(src)
}

// Parse parses src as a Python module. A tree containing error or missing
// nodes is rejected with an *Error.
func (p *Pool) Parse(src []byte) (*File, error) {
	return p.ParseContext(context.Background(), src)
}

// ParseContext is Parse with cancellation. The parser polls ctx while it
// works and gives up with ctx.Err() once ctx is done.
func (p *Pool) ParseContext(ctx context.Context, src []byte) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sp := p.Get()
	read := func(i int, _ sitter.Point) []byte {
		if i < len(src) {
			return src[i:]
		}
		return nil
	}
	tree := sp.ParseWithOptions(read, nil, &sitter.ParseOptions{
		ProgressCallback: func(sitter.ParseState) bool { return ctx.Err() != nil },
	})
	p.Put(sp)
	if err := ctx.Err(); err != nil {
		if tree != nil {
			tree.Close()
		}
		return nil, err
	}
	if tree == nil {
		return nil, &Error{Line: 1}
	}
	root := tree.RootNode()
	if root.HasError() {
		err := firstError(root, src)
		tree.Close()
		return nil, err
	}
	f := &File{
		Source:    src,
		Tree:      tree,
		pool:      p,
		positions: make(map[uintptr]Position),
		ignored:   make(map[int]bool),
	}
	f.index()
	return f, nil
}

func firstError(root *sitter.Node, src []byte) *Error {
	var found *Error
	astutil.Walk(root, func(n *sitter.Node, _ *sitter.Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			pos := position(n, src)
			found = &Error{Line: pos.Line, Column: pos.Column}
			if n.IsMissing() {
				found.Missing = n.Kind()
			}
			return false
		}
		return n.HasError()
	})
	if found == nil {
		found = &Error{Line: 1}
	}
	return found
}

// index records identifier positions, ignore comments and wildcard imports
// in a single pass over the tree.
func (f *File) index() {
	astutil.Walk(f.Tree.RootNode(), func(n *sitter.Node, _ *sitter.Node, _ int) bool {
		switch n.Kind() {
		case "identifier":
			f.positions[n.Id()] = position(n, f.Source)
			return false
		case "comment":
			if strings.Contains(astutil.Text(n, f.Source), IgnoreDirective) {
				f.ignored[int(n.StartPosition().Row)+1] = true
			}
			return false
		case "wildcard_import":
			f.wildcard = true
			return false
		}
		return true
	})
}

func position(n *sitter.Node, src []byte) Position {
	p := n.StartPosition()
	start := n.StartByte()
	lineStart := start - p.Column
	col := int(p.Column)
	if lineStart <= start && start <= uint(len(src)) {
		col = utf8.RuneCount(src[lineStart:start])
	}
	return Position{Line: int(p.Row) + 1, Column: col}
}

// Root returns the module node.
func (f *File) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Position returns the location of an identifier node from this file's
// tree. Nodes from expressions parsed out of string literals have no
// location in the file and report false.
func (f *File) Position(n *sitter.Node) (Position, bool) {
	if n == nil {
		return Position{}, false
	}
	pos, ok := f.positions[n.Id()]
	return pos, ok
}

// IgnoredLines returns the set of lines carrying an ignore comment.
func (f *File) IgnoredLines() map[int]bool {
	return f.ignored
}

// IsIgnored reports whether warnings on line are suppressed.
func (f *File) IsIgnored(line int) bool {
	return f.ignored[line]
}

// HasWildcardImport reports whether the module contains `from m import *`
// anywhere, including inside functions.
func (f *File) HasWildcardImport() bool {
	return f.wildcard
}

// ParseExpr parses text as a standalone Python expression, such as the
// contents of a string annotation. It returns the expression node and the
// source it indexes into. The tree stays alive until f is closed.
func (f *File) ParseExpr(text string) (*sitter.Node, []byte, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, "\n\r") {
		return nil, nil, false
	}
	src := []byte(text)
	sp := f.pool.Get()
	tree := sp.Parse(src, nil)
	f.pool.Put(sp)
	if tree == nil {
		return nil, nil, false
	}
	f.aux = append(f.aux, tree)
	root := tree.RootNode()
	if root.HasError() {
		return nil, nil, false
	}
	stmts := astutil.NamedChildren(root)
	if len(stmts) != 1 || stmts[0].Kind() != "expression_statement" {
		return nil, nil, false
	}
	exprs := astutil.NamedChildren(stmts[0])
	if len(exprs) != 1 {
		return nil, nil, false
	}
	switch exprs[0].Kind() {
	case "assignment", "augmented_assignment", "yield":
		return nil, nil, false
	}
	return exprs[0], src, true
}

// Close releases the trees owned by f. Nodes obtained from f are invalid
// afterwards.
func (f *File) Close() {
	for _, t := range f.aux {
		t.Close()
	}
	f.aux = nil
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}
