// Copyright © 2024 The ELPS authors

package analysis

import sitter "github.com/tree-sitter/go-tree-sitter"

// BindingKind classifies the statement that introduced a binding.
type BindingKind int

const (
	BindAssignment BindingKind = iota // =, +=, annotated assignment, del-free targets
	BindParameter                     // function or lambda parameter
	BindImport                        // import a.b, import a as b
	BindImportFrom                    // from m import x
	BindLoopTarget                    // for target, comprehension target
	BindException                     // except E as e
	BindFunction                      // def, async def
	BindClass                         // class
	BindWithTarget                    // with x as y
	BindMatchCapture                  // case pattern capture
	BindWalrus                        // assignment expression
	BindTypeParameter                 // PEP 695 type parameter
	BindBuiltin                       // implicit builtin
)

func (k BindingKind) String() string {
	switch k {
	case BindAssignment:
		return "assignment"
	case BindParameter:
		return "parameter"
	case BindImport:
		return "import"
	case BindImportFrom:
		return "import-from"
	case BindLoopTarget:
		return "loop-target"
	case BindException:
		return "exception"
	case BindFunction:
		return "function"
	case BindClass:
		return "class"
	case BindWithTarget:
		return "with-target"
	case BindMatchCapture:
		return "match-capture"
	case BindWalrus:
		return "walrus"
	case BindTypeParameter:
		return "type-parameter"
	case BindBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Binding is a name introduced into a scope.
type Binding struct {
	Name  string
	Kind  BindingKind
	Node  *sitter.Node // defining node; the function_definition for BindFunction
	Scope *Scope       // owner; nil for builtins
	Index int          // walk order, shared with accesses

	// Imported is the dotted path an import binding refers to, e.g.
	// "os.path" for `import os.path as p` or ".util.helper" for
	// `from .util import helper`.
	Imported string
}

// IsImport reports whether b came from an import statement.
func (b *Binding) IsImport() bool {
	return b.Kind == BindImport || b.Kind == BindImportFrom
}
