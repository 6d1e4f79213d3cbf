// Copyright © 2024 The ELPS authors

package analysis

import (
	"context"

	"github.com/luthersystems/pyrefcheck/astutil"
	"github.com/luthersystems/pyrefcheck/syntax"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// analyzer is the internal state for a single analysis run.
type analyzer struct {
	ctx    context.Context
	file   *syntax.File
	src    []byte // source the nodes being walked index into
	result *Result
	index  int
	err    error

	// replay > 0 while a try body is re-walked into its else scope. Only
	// bindings are recorded.
	replay int
	// annotation > 0 inside a type annotation, where string literals hold
	// forward references. literal > 0 inside arguments that are values,
	// such as typing.Literal[...] and typing.Annotated metadata.
	annotation int
	literal    int

	funcScopes map[uintptr]*Scope
	checking   map[uintptr]bool
	// neverReturns memoizes oracle answers per def node. Answers depend on
	// the bindings made so far, so define clears it. cutCycle is set when a
	// check stopped at a def already in progress; such answers are not
	// memoized.
	neverReturns map[uintptr]bool
	cutCycle     bool
}

func (a *analyzer) next() int {
	a.index++
	return a.index
}

func (a *analyzer) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

// stopped reports whether the walk must end, either because of an earlier
// failure or because the context is done.
func (a *analyzer) stopped() bool {
	if a.err != nil {
		return true
	}
	if err := a.ctx.Err(); err != nil {
		a.err = err
		return true
	}
	return false
}

func (a *analyzer) text(n *sitter.Node) string {
	return astutil.Text(n, a.src)
}

// newScope creates a child scope. Scopes created while replaying a try
// body are detached: they can see their parent but nothing sees them.
func (a *analyzer) newScope(kind ScopeKind, parent *Scope, node *sitter.Node, name string) *Scope {
	if a.replay > 0 {
		s := NewScope(kind, nil, node)
		s.Parent = parent
		s.Name = name
		return s
	}
	s := NewScope(kind, parent, node)
	s.Name = name
	a.result.Scopes = append(a.result.Scopes, s)
	return s
}

// define records a binding of name, redirected by global and nonlocal
// declarations of the owning function.
func (a *analyzer) define(scope *Scope, name string, kind BindingKind, node *sitter.Node) *Binding {
	target := scope
	switch {
	case scope.IsGlobal(name):
		target = scope.Module()
	case scope.IsNonlocal(name):
		if f := scope.enclosingFunction(); f != nil {
			target = f
		}
	}
	b := &Binding{Name: name, Kind: kind, Node: node, Index: a.next()}
	target.Define(b)
	if len(a.neverReturns) > 0 {
		clear(a.neverReturns)
	}
	return b
}

func (a *analyzer) access(scope *Scope, node *sitter.Node) {
	if a.replay > 0 {
		return
	}
	acc := &Access{Name: a.text(node), Node: node, Scope: scope, Index: a.next()}
	scope.Accesses = append(scope.Accesses, acc)
	a.result.Accesses = append(a.result.Accesses, acc)
}

// visitBlock walks the statements of a module or block node.
func (a *analyzer) visitBlock(block *sitter.Node, scope *Scope) {
	for _, stmt := range astutil.NamedChildren(block) {
		if a.stopped() {
			return
		}
		a.visitStmt(stmt, scope)
	}
}

func (a *analyzer) visitStmt(stmt *sitter.Node, scope *Scope) {
	switch stmt.Kind() {
	case "expression_statement":
		for _, expr := range astutil.NamedChildren(stmt) {
			a.visitExpr(expr, scope)
		}
	case "function_definition":
		a.visitFunctionDef(stmt, scope)
	case "class_definition":
		a.visitClassDef(stmt, scope)
	case "decorated_definition":
		for _, c := range astutil.NamedChildren(stmt) {
			if c.Kind() == "decorator" {
				a.visitExpr(c, scope)
			}
		}
		a.visitStmt(astutil.Field(stmt, "definition"), scope)
	case "if_statement":
		a.visitIf(astutil.Field(stmt, "condition"), astutil.Field(stmt, "consequence"),
			astutil.Fields(stmt, "alternative"), scope)
	case "for_statement":
		a.visitFor(stmt, scope)
	case "while_statement":
		a.visitExpr(astutil.Field(stmt, "condition"), scope)
		a.visitBlock(astutil.Field(stmt, "body"), scope)
		if alt := astutil.Field(stmt, "alternative"); alt != nil {
			a.visitBlock(astutil.Field(alt, "body"), scope)
		}
	case "try_statement":
		a.visitTry(stmt, scope)
	case "with_statement":
		a.visitWith(stmt, scope)
	case "match_statement":
		a.visitMatch(stmt, scope)
	case "import_statement", "import_from_statement", "future_import_statement":
		a.visitImport(stmt, scope)
	case "global_statement", "nonlocal_statement":
		for _, id := range astutil.NamedChildren(stmt) {
			if id.Kind() == "identifier" {
				scope.declare(a.text(id), stmt.Kind() == "nonlocal_statement")
			}
		}
	case "type_alias_statement":
		a.visitTypeAlias(stmt, scope)
	case "pass_statement", "break_statement", "continue_statement":
	default:
		// return, raise, assert, del, print, exec
		a.visitExpr(stmt, scope)
	}
}

// visitIf applies the block policy to an if/elif/else chain. alts are the
// elif and else clauses that follow the body.
func (a *analyzer) visitIf(cond, body *sitter.Node, alts []*sitter.Node, scope *Scope) {
	a.visitExpr(cond, scope)
	if len(alts) == 0 && a.isTypeCheckingGuard(cond, scope) {
		a.visitBlock(body, scope)
		return
	}
	if n := len(alts); n > 0 && alts[n-1].Kind() == "else_clause" && a.isTerminal(astutil.Field(alts[n-1], "body"), scope) {
		// The only way past the statement is through one of the
		// non-terminal branches, so their bindings survive it.
		a.visitBlock(body, scope)
		for _, alt := range alts {
			if alt.Kind() == "elif_clause" {
				a.visitExpr(astutil.Field(alt, "condition"), scope)
				a.visitBlock(astutil.Field(alt, "consequence"), scope)
			} else {
				a.visitBlock(astutil.Field(alt, "body"), scope)
			}
		}
		return
	}
	a.visitBlock(body, a.newScope(ScopeBlock, scope, body, ""))
	if len(alts) == 0 {
		return
	}
	switch alt := alts[0]; alt.Kind() {
	case "elif_clause":
		a.visitIf(astutil.Field(alt, "condition"), astutil.Field(alt, "consequence"), alts[1:], scope)
	case "else_clause":
		a.visitBlock(astutil.Field(alt, "body"), scope)
	}
}

func (a *analyzer) visitFor(stmt *sitter.Node, scope *Scope) {
	a.visitExpr(astutil.Field(stmt, "right"), scope)
	a.bindTarget(astutil.Field(stmt, "left"), scope, BindLoopTarget)
	body := astutil.Field(stmt, "body")
	a.visitBlock(body, a.newScope(ScopeBlock, scope, body, ""))
	if alt := astutil.Field(stmt, "alternative"); alt != nil {
		a.visitBlock(astutil.Field(alt, "body"), a.newScope(ScopeBlock, scope, alt, ""))
	}
}

func (a *analyzer) visitTry(stmt *sitter.Node, scope *Scope) {
	body := astutil.Field(stmt, "body")
	var handlers []*sitter.Node
	var elseClause, finallyClause *sitter.Node
	for _, c := range astutil.NamedChildren(stmt) {
		switch c.Kind() {
		case "except_clause", "except_group_clause":
			handlers = append(handlers, c)
		case "else_clause":
			elseClause = c
		case "finally_clause":
			finallyClause = c
		}
	}

	allTerminal := true
	for _, h := range handlers {
		if !a.isTerminal(astutil.ChildOfKind(h, "block"), scope) {
			allTerminal = false
			break
		}
	}
	if allTerminal {
		a.visitBlock(body, scope)
	} else {
		a.visitBlock(body, a.newScope(ScopeBlock, scope, body, ""))
	}

	if len(handlers) == 1 {
		a.visitHandler(handlers[0], scope)
	} else {
		for _, h := range handlers {
			a.visitHandler(h, a.newScope(ScopeBlock, scope, h, ""))
		}
	}

	if elseClause != nil {
		// else only runs after the body succeeded, so it sees the body's
		// bindings. The body's accesses were already recorded.
		elseScope := a.newScope(ScopeBlock, scope, elseClause, "")
		a.replay++
		a.visitBlock(body, elseScope)
		a.replay--
		a.visitBlock(astutil.Field(elseClause, "body"), elseScope)
	}

	if finallyClause != nil {
		a.visitBlock(astutil.ChildOfKind(finallyClause, "block"), scope)
	}
}

// visitHandler walks an except clause: the exception types, the optional
// `as` name and the handler body.
func (a *analyzer) visitHandler(h *sitter.Node, scope *Scope) {
	var body *sitter.Node
	sawAs := false
	for _, c := range astutil.Children(h) {
		switch {
		case c.Kind() == "block":
			body = c
		case c.Kind() == "as" || c.Kind() == ",":
			sawAs = true
		case !c.IsNamed() || c.Kind() == "comment":
		case c.Kind() == "as_pattern":
			named := astutil.NamedChildren(c)
			if len(named) > 0 {
				a.visitExpr(named[0], scope)
			}
			a.bindTarget(asTarget(c), scope, BindException)
		case sawAs:
			a.bindTarget(c, scope, BindException)
		default:
			a.visitExpr(c, scope)
		}
	}
	a.visitBlock(body, scope)
}

func (a *analyzer) visitWith(stmt *sitter.Node, scope *Scope) {
	for _, clause := range astutil.NamedChildren(stmt) {
		if clause.Kind() != "with_clause" {
			continue
		}
		for _, item := range astutil.NamedChildren(clause) {
			value := astutil.Field(item, "value")
			if value == nil {
				value = item
			}
			a.visitExpr(value, scope)
		}
	}
	a.visitBlock(astutil.Field(stmt, "body"), scope)
}

func (a *analyzer) visitMatch(stmt *sitter.Node, scope *Scope) {
	for _, subject := range astutil.Fields(stmt, "subject") {
		a.visitExpr(subject, scope)
	}
	for _, clause := range astutil.NamedChildren(astutil.Field(stmt, "body")) {
		if clause.Kind() != "case_clause" {
			continue
		}
		for _, c := range astutil.NamedChildren(clause) {
			if c.Kind() == "case_pattern" {
				a.visitPattern(c, scope)
			}
		}
		if guard := astutil.Field(clause, "guard"); guard != nil {
			a.visitExpr(guard, scope)
		}
		a.visitBlock(astutil.Field(clause, "consequence"), scope)
	}
}

// visitPattern walks a match pattern. Bare names capture, dotted names and
// class patterns are value lookups.
func (a *analyzer) visitPattern(p *sitter.Node, scope *Scope) {
	switch p.Kind() {
	case "dotted_name":
		ids := astutil.NamedChildren(p)
		if len(ids) == 1 {
			if name := a.text(ids[0]); name != "_" {
				a.define(scope, name, BindMatchCapture, ids[0])
			}
			return
		}
		if len(ids) > 1 {
			a.access(scope, ids[0])
		}
	case "identifier":
		if name := a.text(p); name != "_" {
			a.define(scope, name, BindMatchCapture, p)
		}
	case "class_pattern":
		for i, c := range astutil.NamedChildren(p) {
			if i == 0 && c.Kind() == "dotted_name" {
				if ids := astutil.NamedChildren(c); len(ids) > 0 {
					a.access(scope, ids[0])
				}
				continue
			}
			a.visitPattern(c, scope)
		}
	case "keyword_pattern":
		for i, c := range astutil.NamedChildren(p) {
			if i == 0 && c.Kind() == "identifier" {
				continue
			}
			a.visitPattern(c, scope)
		}
	case "splat_pattern":
		for _, id := range astutil.Identifiers(p) {
			if name := a.text(id); name != "_" {
				a.define(scope, name, BindMatchCapture, id)
			}
		}
	case "as_pattern":
		named := astutil.NamedChildren(p)
		if len(named) > 0 {
			a.visitPattern(named[0], scope)
		}
		for _, id := range astutil.Identifiers(asTarget(p)) {
			a.define(scope, a.text(id), BindMatchCapture, id)
		}
	case "string", "concatenated_string", "integer", "float", "true", "false", "none", "complex_pattern":
	default:
		for _, c := range astutil.NamedChildren(p) {
			a.visitPattern(c, scope)
		}
	}
}

func (a *analyzer) visitImport(stmt *sitter.Node, scope *Scope) {
	module := ""
	if stmt.Kind() == "import_from_statement" {
		module = a.text(astutil.Field(stmt, "module_name"))
	}
	if stmt.Kind() == "future_import_statement" {
		module = "__future__"
	}
	for _, name := range astutil.Fields(stmt, "name") {
		var target, path string
		var node *sitter.Node
		switch name.Kind() {
		case "aliased_import":
			alias := astutil.Field(name, "alias")
			target, node = a.text(alias), alias
			path = a.text(astutil.Field(name, "name"))
		case "dotted_name":
			path = a.text(name)
			ids := astutil.NamedChildren(name)
			if len(ids) == 0 {
				continue
			}
			node = ids[0]
			if module == "" {
				// import a.b.c binds a
				target = a.text(ids[0])
				path = target
			} else {
				target = a.text(ids[len(ids)-1])
			}
		default:
			continue
		}
		kind := BindImport
		if module != "" {
			kind = BindImportFrom
			path = joinModule(module, path)
		}
		b := a.define(scope, target, kind, node)
		b.Imported = path
	}
}

func joinModule(module, name string) string {
	if module == "" || module[len(module)-1] == '.' {
		return module + name
	}
	return module + "." + name
}

func (a *analyzer) visitTypeAlias(stmt *sitter.Node, scope *Scope) {
	left := astutil.Unwrap(astutil.Field(stmt, "left"))
	annScope := scope
	if left != nil && left.Kind() == "generic_type" {
		annScope = a.newScope(ScopeBlock, scope, left, "")
		for _, c := range astutil.NamedChildren(left) {
			if c.Kind() == "type_parameter" {
				a.bindTypeParams(c, annScope)
			}
		}
		left = astutil.NamedChildren(left)[0]
	}
	a.annotation++
	a.visitExpr(astutil.Field(stmt, "right"), annScope)
	a.annotation--
	if left != nil && left.Kind() == "identifier" {
		a.define(scope, a.text(left), BindAssignment, left)
	}
}

func (a *analyzer) bindTypeParams(tp *sitter.Node, scope *Scope) {
	for _, t := range astutil.NamedChildren(tp) {
		ids := astutil.Identifiers(t)
		if len(ids) == 0 {
			continue
		}
		// T, *Ts, **P: the first identifier is the parameter; any bound or
		// default after it is a type expression.
		a.define(scope, a.text(ids[0]), BindTypeParameter, ids[0])
	}
}

func (a *analyzer) visitFunctionDef(def *sitter.Node, scope *Scope) {
	nameNode := astutil.Field(def, "name")
	name := a.text(nameNode)
	if a.replay > 0 {
		a.define(scope, name, BindFunction, def)
		return
	}
	annScope := scope
	if tp := astutil.Field(def, "type_parameters"); tp != nil {
		annScope = a.newScope(ScopeBlock, scope, tp, "")
		a.bindTypeParams(tp, annScope)
	}
	fn := a.newScope(ScopeFunction, annScope, def, name)
	a.funcScopes[def.Id()] = fn
	a.visitParameters(astutil.Field(def, "parameters"), scope, annScope, fn)
	if rt := astutil.Field(def, "return_type"); rt != nil {
		a.visitAnnotation(rt, annScope)
	}
	a.visitBlock(astutil.Field(def, "body"), fn)
	a.define(scope, name, BindFunction, def)
}

func (a *analyzer) visitClassDef(def *sitter.Node, scope *Scope) {
	name := a.text(astutil.Field(def, "name"))
	if a.replay > 0 {
		a.define(scope, name, BindClass, def)
		return
	}
	annScope := scope
	if tp := astutil.Field(def, "type_parameters"); tp != nil {
		annScope = a.newScope(ScopeBlock, scope, tp, "")
		a.bindTypeParams(tp, annScope)
	}
	if bases := astutil.Field(def, "superclasses"); bases != nil {
		a.visitExpr(bases, annScope)
	}
	cls := a.newScope(ScopeClass, annScope, def, name)
	a.visitBlock(astutil.Field(def, "body"), cls)
	a.define(scope, name, BindClass, def)
}

// visitParameters binds parameters in fn. Defaults are evaluated in outer,
// annotations in ann.
func (a *analyzer) visitParameters(params *sitter.Node, outer, ann, fn *Scope) {
	for _, p := range astutil.NamedChildren(params) {
		switch p.Kind() {
		case "identifier":
			a.define(fn, a.text(p), BindParameter, p)
		case "typed_parameter":
			for _, c := range astutil.NamedChildren(p) {
				if c.Kind() == "type" {
					a.visitAnnotation(c, ann)
				} else {
					a.bindParameter(c, fn)
				}
			}
		case "default_parameter":
			a.visitExpr(astutil.Field(p, "value"), outer)
			a.bindParameter(astutil.Field(p, "name"), fn)
		case "typed_default_parameter":
			a.visitAnnotation(astutil.Field(p, "type"), ann)
			a.visitExpr(astutil.Field(p, "value"), outer)
			a.bindParameter(astutil.Field(p, "name"), fn)
		case "list_splat_pattern", "dictionary_splat_pattern", "tuple_pattern":
			a.bindParameter(p, fn)
		}
	}
}

func (a *analyzer) bindParameter(p *sitter.Node, fn *Scope) {
	for _, id := range astutil.Identifiers(p) {
		a.define(fn, a.text(id), BindParameter, id)
	}
}

// bindTarget records the names bound by an assignment target. Attribute
// and subscript targets bind nothing but read their base.
func (a *analyzer) bindTarget(target *sitter.Node, scope *Scope, kind BindingKind) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case "identifier":
		a.define(scope, a.text(target), kind, target)
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list", "expression_list",
		"parenthesized_expression", "list_splat_pattern", "list_splat", "as_pattern_target":
		for _, c := range astutil.NamedChildren(target) {
			a.bindTarget(c, scope, kind)
		}
	case "attribute":
		a.visitExpr(astutil.Field(target, "object"), scope)
	default:
		a.visitExpr(target, scope)
	}
}

func (a *analyzer) visitAssignment(node *sitter.Node, scope *Scope) {
	if typ := astutil.Field(node, "type"); typ != nil {
		a.visitAnnotation(typ, scope)
	}
	if right := astutil.Field(node, "right"); right != nil {
		a.visitExpr(right, scope)
	}
	a.bindTarget(astutil.Field(node, "left"), scope, BindAssignment)
}

func (a *analyzer) visitAugmentedAssignment(node *sitter.Node, scope *Scope) {
	left := astutil.Field(node, "left")
	if left != nil && left.Kind() == "identifier" {
		a.access(scope, left)
	}
	a.visitExpr(astutil.Field(node, "right"), scope)
	a.bindTarget(left, scope, BindAssignment)
}

func (a *analyzer) visitAnnotation(node *sitter.Node, scope *Scope) {
	if node == nil {
		return
	}
	a.annotation++
	a.visitExpr(node, scope)
	a.annotation--
}

// visitExpr records the accesses made by an expression and the bindings
// of the few expressions that bind (walrus, lambda, comprehensions).
func (a *analyzer) visitExpr(node *sitter.Node, scope *Scope) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		a.access(scope, node)
	case "attribute":
		a.visitExpr(astutil.Field(node, "object"), scope)
	case "keyword_argument":
		a.visitExpr(astutil.Field(node, "value"), scope)
	case "assignment":
		a.visitAssignment(node, scope)
	case "augmented_assignment":
		a.visitAugmentedAssignment(node, scope)
	case "named_expression":
		a.visitExpr(astutil.Field(node, "value"), scope)
		name := astutil.Field(node, "name")
		a.define(scope.nonComprehension(), a.text(name), BindWalrus, name)
	case "lambda":
		a.visitLambda(node, scope)
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		a.visitComprehension(node, scope)
	case "as_pattern":
		named := astutil.NamedChildren(node)
		if len(named) > 0 {
			a.visitExpr(named[0], scope)
		}
		a.bindTarget(asTarget(node), scope, BindWithTarget)
	case "dotted_name":
		if ids := astutil.NamedChildren(node); len(ids) > 0 {
			a.access(scope, ids[0])
		}
	case "subscript":
		a.visitSubscript(node, astutil.Field(node, "value"), astutil.Fields(node, "subscript"), scope)
	case "generic_type":
		named := astutil.NamedChildren(node)
		if len(named) > 0 {
			a.visitSubscript(node, named[0], named[1:], scope)
		}
	case "member_type":
		if named := astutil.NamedChildren(node); len(named) > 0 {
			a.visitExpr(named[0], scope)
		}
	case "string":
		a.visitString(node, scope)
	case "comment", "true", "false", "none", "ellipsis", "integer", "float",
		"string_start", "string_content", "string_end", "escape_sequence", "type_conversion":
	default:
		for _, c := range astutil.NamedChildren(node) {
			a.visitExpr(c, scope)
		}
	}
}

// visitSubscript skips forward-reference parsing for arguments that are
// values inside an annotation: every argument of typing.Literal and the
// metadata after the first argument of typing.Annotated.
func (a *analyzer) visitSubscript(node, value *sitter.Node, subs []*sitter.Node, scope *Scope) {
	a.visitExpr(value, scope)
	if a.annotation == 0 {
		for _, sub := range subs {
			a.visitExpr(sub, scope)
		}
		return
	}
	if len(subs) == 1 && subs[0].Kind() == "type_parameter" {
		subs = astutil.NamedChildren(subs[0])
	}
	values := 0
	switch {
	case a.isTypingName(value, scope, "Literal"):
	case a.isTypingName(value, scope, "Annotated"):
		values = 1
	default:
		values = len(subs)
	}
	for i, sub := range subs {
		if i < values {
			a.visitExpr(sub, scope)
			continue
		}
		a.literal++
		a.visitExpr(sub, scope)
		a.literal--
	}
}

// isTypingName reports whether value names typing.<name> or
// typing_extensions.<name>.
func (a *analyzer) isTypingName(value *sitter.Node, scope *Scope, name string) bool {
	value = astutil.Unwrap(value)
	if value == nil {
		return false
	}
	names, err := scope.QualifiedNames(value, a.src)
	if err != nil {
		a.fail(err)
		return false
	}
	if hasQualifiedName(names, SourceImport, "typing."+name, "typing_extensions."+name) {
		return true
	}
	// An unresolvable spelling still reads as the typing form.
	switch value.Kind() {
	case "identifier":
		return a.text(value) == name
	case "attribute":
		return a.text(astutil.Field(value, "attribute")) == name
	}
	return false
}

// visitString walks f-string interpolations. Inside an annotation a plain
// string is a forward reference and is parsed as an expression; names in
// it have no location in the file.
func (a *analyzer) visitString(node *sitter.Node, scope *Scope) {
	if a.annotation > 0 && a.literal == 0 {
		if text, ok := a.plainString(node); ok {
			if expr, src, ok := a.file.ParseExpr(text); ok {
				saved := a.src
				a.src = src
				a.visitExpr(expr, scope)
				a.src = saved
			}
			return
		}
	}
	for _, c := range astutil.NamedChildren(node) {
		if c.Kind() == "interpolation" {
			a.visitExpr(astutil.Field(c, "expression"), scope)
			if spec := astutil.Field(c, "format_specifier"); spec != nil {
				a.visitExpr(spec, scope)
			}
		}
	}
}

// plainString returns the contents of a string literal without
// interpolations or escapes.
func (a *analyzer) plainString(node *sitter.Node) (string, bool) {
	var text string
	for _, c := range astutil.NamedChildren(node) {
		switch c.Kind() {
		case "string_start", "string_end":
		case "string_content":
			text += a.text(c)
		default:
			return "", false
		}
	}
	return text, true
}

func (a *analyzer) visitLambda(node *sitter.Node, scope *Scope) {
	fn := a.newScope(ScopeFunction, scope, node, "<lambda>")
	a.visitParameters(astutil.Field(node, "parameters"), scope, scope, fn)
	a.visitExpr(astutil.Field(node, "body"), fn)
}

// visitComprehension evaluates the first iterable in the enclosing scope
// and everything else in a new comprehension scope. During a replay the
// scope is detached, so only walrus targets reach the enclosing scope.
func (a *analyzer) visitComprehension(node *sitter.Node, scope *Scope) {
	var clauses []*sitter.Node
	for _, c := range astutil.NamedChildren(node) {
		if c.Kind() == "for_in_clause" || c.Kind() == "if_clause" {
			clauses = append(clauses, c)
		}
	}
	comp := a.newScope(ScopeComprehension, scope, node, "")
	for i, c := range clauses {
		if c.Kind() == "if_clause" {
			a.visitExpr(c, comp)
			continue
		}
		iterScope := comp
		if i == 0 {
			iterScope = scope
		}
		for _, right := range astutil.Fields(c, "right") {
			a.visitExpr(right, iterScope)
		}
		a.bindTarget(astutil.Field(c, "left"), comp, BindLoopTarget)
	}
	a.visitExpr(astutil.Field(node, "body"), comp)
}

// asTarget returns the name side of `x as y`.
func asTarget(p *sitter.Node) *sitter.Node {
	if alias := astutil.Field(p, "alias"); alias != nil {
		return alias
	}
	sawAs := false
	for _, c := range astutil.Children(p) {
		if c.Kind() == "as" {
			sawAs = true
			continue
		}
		if sawAs && c.IsNamed() {
			return c
		}
	}
	return nil
}
