// Copyright © 2024 The ELPS authors

package analysis

import (
	"math"

	"github.com/luthersystems/pyrefcheck/astutil"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// exitFunctions never return when reached through an import. The site
// builtins exit and quit are not included.
var exitFunctions = []string{"sys.exit", "os._exit"}

var noReturnTypes = []string{
	"typing.NoReturn", "typing.Never",
	"typing_extensions.NoReturn", "typing_extensions.Never",
}

var typeCheckingFlags = []string{"typing.TYPE_CHECKING", "typing_extensions.TYPE_CHECKING"}

// isTerminal reports whether block unconditionally leaves the enclosing
// control-flow path. Only the block's direct simple statements are
// inspected; a return buried in a nested if does not count.
func (a *analyzer) isTerminal(block *sitter.Node, scope *Scope) bool {
	for _, stmt := range astutil.NamedChildren(block) {
		switch stmt.Kind() {
		case "return_statement", "raise_statement", "break_statement", "continue_statement":
			return true
		case "expression_statement":
			if a.isExitStatement(stmt, scope) {
				return true
			}
		}
	}
	return false
}

// isExitStatement reports whether stmt is a bare call to a function that
// never returns.
func (a *analyzer) isExitStatement(stmt *sitter.Node, scope *Scope) bool {
	exprs := astutil.NamedChildren(stmt)
	if len(exprs) != 1 {
		return false
	}
	call := astutil.Unwrap(exprs[0])
	if call == nil || call.Kind() != "call" {
		return false
	}
	return a.isNeverReturningCall(call, scope)
}

// isNeverReturningCall reports whether call is guaranteed not to return
// normally. Any candidate for the callee qualifying is enough.
func (a *analyzer) isNeverReturningCall(call *sitter.Node, scope *Scope) bool {
	callee := astutil.Unwrap(astutil.Field(call, "function"))
	if callee == nil {
		return false
	}
	names, err := scope.QualifiedNames(callee, a.file.Source)
	if err != nil {
		a.fail(err)
		return false
	}
	if hasQualifiedName(names, SourceImport, exitFunctions...) {
		return true
	}
	if callee.Kind() != "identifier" {
		return false
	}
	for _, b := range scope.Resolve(astutil.Text(callee, a.file.Source), math.MaxInt) {
		if b.Kind == BindFunction && a.isNeverReturningDef(b) {
			return true
		}
	}
	return false
}

// isNeverReturningDef reports whether the function bound by b is annotated
// as never returning or has a body that ends the process or raises.
// A function whose check is already in progress answers false.
func (a *analyzer) isNeverReturningDef(b *Binding) bool {
	def := b.Node
	if def == nil || def.Kind() != "function_definition" {
		return false
	}
	if a.stopped() {
		return false
	}
	id := def.Id()
	if v, ok := a.neverReturns[id]; ok {
		return v
	}
	if a.checking[id] {
		a.cutCycle = true
		return false
	}
	a.checking[id] = true
	outer := a.cutCycle
	a.cutCycle = false
	v := a.defNeverReturns(b, def)
	delete(a.checking, id)
	if v || !a.cutCycle {
		a.neverReturns[id] = v
	}
	a.cutCycle = outer || a.cutCycle
	return v
}

func (a *analyzer) defNeverReturns(b *Binding, def *sitter.Node) bool {
	id := def.Id()
	defScope := a.funcScopes[id]
	if rt := astutil.Field(def, "return_type"); rt != nil {
		annScope := b.Scope
		if defScope != nil {
			annScope = defScope.Parent
		}
		names, err := annScope.QualifiedNames(rt, a.file.Source)
		if err != nil {
			a.fail(err)
			return false
		}
		if hasQualifiedName(names, SourceImport, noReturnTypes...) {
			return true
		}
	}
	if defScope == nil {
		return false
	}
	for _, stmt := range astutil.NamedChildren(astutil.Field(def, "body")) {
		switch stmt.Kind() {
		case "raise_statement":
			return true
		case "expression_statement":
			if a.isExitStatement(stmt, defScope) {
				return true
			}
		}
	}
	return false
}

// isTypeCheckingGuard reports whether cond tests typing.TYPE_CHECKING,
// directly or as `TYPE_CHECKING is True` / `TYPE_CHECKING == True`.
func (a *analyzer) isTypeCheckingGuard(cond *sitter.Node, scope *Scope) bool {
	tested := astutil.Unwrap(cond)
	if tested == nil {
		return false
	}
	if tested.Kind() == "comparison_operator" {
		left, ok := truthComparison(tested)
		if !ok {
			return false
		}
		tested = left
	}
	names, err := scope.QualifiedNames(tested, a.file.Source)
	if err != nil {
		a.fail(err)
		return false
	}
	return hasQualifiedName(names, SourceImport, typeCheckingFlags...)
}

// truthComparison matches `x is True` and `x == True` and returns x.
func truthComparison(cmp *sitter.Node) (*sitter.Node, bool) {
	operands := astutil.NamedChildren(cmp)
	if len(operands) != 2 || astutil.Unwrap(operands[1]).Kind() != "true" {
		return nil, false
	}
	var ops []string
	for _, c := range astutil.Children(cmp) {
		if !c.IsNamed() {
			ops = append(ops, c.Kind())
		}
	}
	if len(ops) != 1 || (ops[0] != "is" && ops[0] != "==") {
		return nil, false
	}
	return operands[0], true
}
