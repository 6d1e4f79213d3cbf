// Copyright © 2024 The ELPS authors

package analysis

import sitter "github.com/tree-sitter/go-tree-sitter"

// ScopeKind classifies the kind of scope.
type ScopeKind int

const (
	ScopeModule        ScopeKind = iota // file level
	ScopeFunction                       // def/async def/lambda body
	ScopeClass                          // class body
	ScopeComprehension                  // list/set/dict comprehension, generator
	ScopeBlock                          // control-flow block (if, for, try)
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	case ScopeComprehension:
		return "comprehension"
	case ScopeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Scope represents a lexical scope in the source. Block scopes hold the
// bindings of a control-flow block whose effects may not survive the
// statement; they are transparent for qualified names.
type Scope struct {
	Kind     ScopeKind
	Name     string // function or class name; "<lambda>" for lambdas
	Parent   *Scope
	Children []*Scope
	Node     *sitter.Node // the node that introduced this scope
	Bindings []*Binding
	Accesses []*Access

	byName    map[string][]*Binding
	globals   map[string]bool
	nonlocals map[string]bool
}

// NewScope creates a new scope of the given kind with the given parent.
func NewScope(kind ScopeKind, parent *Scope, node *sitter.Node) *Scope {
	s := &Scope{
		Kind:   kind,
		Parent: parent,
		Node:   node,
		byName: make(map[string][]*Binding),
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Define adds a binding to this scope.
func (s *Scope) Define(b *Binding) {
	b.Scope = s
	s.Bindings = append(s.Bindings, b)
	s.byName[b.Name] = append(s.byName[b.Name], b)
}

// LookupLocal returns the bindings of name made directly in this scope, in
// walk order.
func (s *Scope) LookupLocal(name string) []*Binding {
	return s.byName[name]
}

// Owner returns the nearest scope at or above s that is not a block scope.
// global and nonlocal declarations are attached to it.
func (s *Scope) Owner() *Scope {
	for scope := s; scope != nil; scope = scope.Parent {
		if scope.Kind != ScopeBlock {
			return scope
		}
	}
	return nil
}

// Module returns the root of the scope chain.
func (s *Scope) Module() *Scope {
	scope := s
	for scope.Parent != nil {
		scope = scope.Parent
	}
	return scope
}

// IsGlobal reports whether name was declared global in the function or
// class that owns s.
func (s *Scope) IsGlobal(name string) bool {
	return s.Owner().globals[name]
}

// IsNonlocal reports whether name was declared nonlocal in the function
// that owns s.
func (s *Scope) IsNonlocal(name string) bool {
	return s.Owner().nonlocals[name]
}

func (s *Scope) declare(name string, nonlocal bool) {
	owner := s.Owner()
	if owner.Kind == ScopeModule {
		return
	}
	if nonlocal {
		if owner.nonlocals == nil {
			owner.nonlocals = make(map[string]bool)
		}
		owner.nonlocals[name] = true
		return
	}
	if owner.globals == nil {
		owner.globals = make(map[string]bool)
	}
	owner.globals[name] = true
}

// enclosingFunction returns the nearest function scope strictly above the
// owner of s.
func (s *Scope) enclosingFunction() *Scope {
	owner := s.Owner()
	for scope := owner.Parent; scope != nil; scope = scope.Parent {
		if scope.Kind == ScopeFunction {
			return scope
		}
	}
	return nil
}

// nonComprehension returns the nearest scope at or above s that is not a
// comprehension. Assignment expressions bind there.
func (s *Scope) nonComprehension() *Scope {
	scope := s
	for scope.Kind == ScopeComprehension && scope.Parent != nil {
		scope = scope.Parent
	}
	return scope
}
