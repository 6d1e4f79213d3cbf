// Copyright © 2024 The ELPS authors

package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/luthersystems/pyrefcheck/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseAndAnalyze is a test helper that parses source and runs analysis.
func parseAndAnalyze(t *testing.T, source string) *Result {
	t.Helper()
	f, err := syntax.Parse([]byte(source))
	require.NoError(t, err)
	t.Cleanup(f.Close)
	res, err := Analyze(context.Background(), f)
	require.NoError(t, err)
	return res
}

// unresolved returns the names of unresolved accesses in walk order.
func unresolved(t *testing.T, source string) []string {
	t.Helper()
	var names []string
	for _, acc := range parseAndAnalyze(t, source).Unresolved() {
		names = append(names, acc.Name)
	}
	return names
}

// --- Scope tests ---

func TestScope_Define_LookupLocal(t *testing.T) {
	parent := NewScope(ScopeModule, nil, nil)
	child := NewScope(ScopeBlock, parent, nil)

	parent.Define(&Binding{Name: "x"})
	child.Define(&Binding{Name: "y"})

	assert.Len(t, parent.LookupLocal("x"), 1)
	assert.Empty(t, child.LookupLocal("x"))
	assert.Len(t, child.LookupLocal("y"), 1)
	assert.Same(t, child, child.LookupLocal("y")[0].Scope)
	assert.Equal(t, []*Scope{child}, parent.Children)
}

func TestScope_Resolve_OnlyEarlierBindingsInOwnScope(t *testing.T) {
	mod := NewScope(ScopeModule, nil, nil)
	mod.Define(&Binding{Name: "x", Index: 5})

	assert.Empty(t, mod.Resolve("x", 3))
	assert.Len(t, mod.Resolve("x", 6), 1)
}

func TestScope_Resolve_FallsBackToParent(t *testing.T) {
	mod := NewScope(ScopeModule, nil, nil)
	fn := NewScope(ScopeFunction, mod, nil)
	mod.Define(&Binding{Name: "x", Index: 1})
	fn.Define(&Binding{Name: "x", Index: 10})

	got := fn.Resolve("x", 5)
	require.Len(t, got, 1)
	assert.Same(t, mod, got[0].Scope)

	got = fn.Resolve("x", 11)
	require.Len(t, got, 1)
	assert.Same(t, fn, got[0].Scope, "function bindings shadow the module")
}

func TestScope_Resolve_BlocksUnionWithOwner(t *testing.T) {
	mod := NewScope(ScopeModule, nil, nil)
	block := NewScope(ScopeBlock, mod, nil)
	mod.Define(&Binding{Name: "x", Index: 1})
	block.Define(&Binding{Name: "x", Index: 2})

	assert.Len(t, block.Resolve("x", 3), 2)
}

func TestScope_Resolve_ClassInvisibleToMethods(t *testing.T) {
	mod := NewScope(ScopeModule, nil, nil)
	cls := NewScope(ScopeClass, mod, nil)
	block := NewScope(ScopeBlock, cls, nil)
	method := NewScope(ScopeFunction, cls, nil)
	cls.Define(&Binding{Name: "attr", Index: 1})

	assert.Len(t, block.Resolve("attr", 2), 1)
	assert.Empty(t, method.Resolve("attr", 2))
}

func TestScope_Resolve_Builtins(t *testing.T) {
	mod := NewScope(ScopeModule, nil, nil)
	got := mod.Resolve("len", 1)
	require.Len(t, got, 1)
	assert.Equal(t, BindBuiltin, got[0].Kind)
	assert.Nil(t, got[0].Scope)
	assert.True(t, IsBuiltin("ValueError"))
	assert.False(t, IsBuiltin("__file__"))
}

func TestScopeKind_String(t *testing.T) {
	assert.Equal(t, "block", ScopeBlock.String())
	assert.Equal(t, "unknown", ScopeKind(42).String())
	assert.Equal(t, "match-capture", BindMatchCapture.String())
}

// --- Qualified names ---

func TestScopePrefix(t *testing.T) {
	mod := NewScope(ScopeModule, nil, nil)
	cls := NewScope(ScopeClass, mod, nil)
	cls.Name = "A"
	fn := NewScope(ScopeFunction, cls, nil)
	fn.Name = "f"
	block := NewScope(ScopeBlock, fn, nil)
	comp := NewScope(ScopeComprehension, block, nil)

	prefix, err := scopePrefix(comp)
	require.NoError(t, err)
	assert.Equal(t, "A.f.<locals>.<comprehension>", prefix)

	b := &Binding{Name: "x"}
	block.Define(b)
	q, err := b.QualifiedName()
	require.NoError(t, err)
	assert.Equal(t, QualifiedName{Name: "A.f.<locals>.x", Source: SourceLocal}, q)
}

func TestScopePrefix_UnexpectedScope(t *testing.T) {
	mod := NewScope(ScopeModule, nil, nil)
	odd := NewScope(ScopeKind(99), mod, nil)
	b := &Binding{Name: "x"}
	odd.Define(b)
	_, err := b.QualifiedName()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedScope))
}

func TestQualifiedNames_ImportAlias(t *testing.T) {
	src := "import os.path as p\nfrom . import sibling\nfrom .pkg import mod as m\n"
	res := parseAndAnalyze(t, src)
	var got []string
	for _, b := range res.Module.Bindings {
		q, err := b.QualifiedName()
		require.NoError(t, err)
		assert.Equal(t, SourceImport, q.Source)
		got = append(got, q.Name)
	}
	assert.Equal(t, []string{"os.path", ".sibling", ".pkg.mod"}, got)
}

// --- Builder: control flow ---

func TestAnalyze_IfBodyIsolated(t *testing.T) {
	src := `
if True:
    a = 1
print(a)
`
	assert.Equal(t, []string{"a"}, unresolved(t, src))
}

func TestAnalyze_IfNonTerminalElseWalkedInPlace(t *testing.T) {
	src := `
if x():
    a = 1
else:
    b = 1
print(a, b)
`
	assert.Equal(t, []string{"x", "a"}, unresolved(t, src))
}

func TestAnalyze_TerminalElseMergesBranches(t *testing.T) {
	src := `
import sys
def check(v):
    if v == 1:
        a = 1
    elif v == 2:
        a = 2
    else:
        sys.exit(1)
    return a
`
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_TerminalOnlyCountsDirectStatements(t *testing.T) {
	src := `
def f(v, w):
    if v:
        a = 1
    else:
        if w:
            return
    return a
`
	assert.Equal(t, []string{"a"}, unresolved(t, src))
}

func TestAnalyze_TypeCheckingGuard(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"direct", "from typing import TYPE_CHECKING\nif TYPE_CHECKING:\n    import foo\nfoo\n"},
		{"attribute", "import typing\nif typing.TYPE_CHECKING:\n    import foo\nfoo\n"},
		{"alias", "import typing as t\nif t.TYPE_CHECKING is True:\n    import foo\nfoo\n"},
		{"equals", "from typing import TYPE_CHECKING as TC\nif TC == True:\n    import foo\nfoo\n"},
		{"extensions", "from typing_extensions import TYPE_CHECKING\nif TYPE_CHECKING:\n    import foo\nfoo\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, unresolved(t, tt.src))
		})
	}
}

func TestAnalyze_TypeCheckingGuardNeedsImport(t *testing.T) {
	src := "TYPE_CHECKING = False\nif TYPE_CHECKING:\n    import foo\nfoo\n"
	assert.Equal(t, []string{"foo"}, unresolved(t, src))

	src = "from typing import TYPE_CHECKING\nif TYPE_CHECKING:\n    import foo\nelse:\n    pass\nfoo\n"
	assert.Equal(t, []string{"foo"}, unresolved(t, src), "an else branch disables the guard")
}

func TestAnalyze_TrySingleHandlerMerges(t *testing.T) {
	src := `
try:
    a = 1
except IndexError:
    a = 2
print(a)
`
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_TryBodyIsolatedWithSoftHandler(t *testing.T) {
	src := `
try:
    a = 1
except Exception:
    pass
print(a)
`
	assert.Equal(t, []string{"a"}, unresolved(t, src))
}

func TestAnalyze_TryMultipleHandlers(t *testing.T) {
	src := `
try:
    pass
except IndexError:
    a = 1
except KeyError:
    b = 1
print(a)
print(b)
`
	assert.Equal(t, []string{"a", "b"}, unresolved(t, src))
}

func TestAnalyze_TryTerminalHandlers(t *testing.T) {
	src := `
def f():
    try:
        a = 1
    except IndexError:
        raise
    except KeyError:
        return None
    return a
`
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_TryElseSeesBody(t *testing.T) {
	src := `
try:
    a = 1
except Exception:
    pass
else:
    print(a)
`
	res := parseAndAnalyze(t, src)
	assert.Empty(t, res.Unresolved())
	count := 0
	for _, acc := range res.Accesses {
		if acc.Name == "a" {
			count++
		}
	}
	assert.Equal(t, 1, count, "the replayed body records no accesses")
}

func TestAnalyze_TryElseSeesWalrusFromBody(t *testing.T) {
	src := `
xs = [1]
try:
    ys = [(z := v) for v in xs]
    f = lambda d=(w := 2): d
except IndexError:
    pass
except KeyError:
    pass
else:
    print(z, w, ys, f)
`
	res := parseAndAnalyze(t, src)
	assert.Empty(t, res.Unresolved())
	count := 0
	for _, acc := range res.Accesses {
		if acc.Name == "v" {
			count++
		}
	}
	assert.Equal(t, 1, count, "the replayed comprehension records no accesses")
}

func TestAnalyze_TryElseReplayDoesNotDuplicate(t *testing.T) {
	src := `
try:
    missing()
except Exception:
    pass
else:
    pass
`
	assert.Equal(t, []string{"missing"}, unresolved(t, src))
}

func TestAnalyze_ExceptionNameBound(t *testing.T) {
	src := `
try:
    pass
except ValueError as err:
    print(err)
`
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_FinallyVisible(t *testing.T) {
	src := `
try:
    pass
finally:
    b = 1
print(b)
`
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_ForBodyAndElseIsolated(t *testing.T) {
	src := `
for i in range(3):
    a = i
else:
    b = 1
print(i, a, b)
`
	assert.Equal(t, []string{"a", "b"}, unresolved(t, src))
}

func TestAnalyze_WhileWalkedInPlace(t *testing.T) {
	src := `
while True:
    a = 1
    break
print(a)
`
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_WithTargets(t *testing.T) {
	src := `
with open("f") as fh, lock:
    data = fh.read()
print(data)
`
	assert.Equal(t, []string{"lock"}, unresolved(t, src))
}

func TestAnalyze_MatchCaptures(t *testing.T) {
	src := `
import enum
def f(cmd):
    match cmd:
        case [first, *rest]:
            return first, rest
        case {"k": value, **others}:
            return value, others
        case enum.Color.RED:
            return None
        case Point(x=px) as pt:
            return px, pt
        case _:
            return missing
`
	assert.Equal(t, []string{"Point", "missing"}, unresolved(t, src))
}

// --- Builder: bindings ---

func TestAnalyze_FunctionScopes(t *testing.T) {
	src := `
def outer(a, b=default, *args, c: Hint = 1, **kw):
    def inner():
        return a, b, args, c, kw
    return inner
`
	assert.Equal(t, []string{"default", "Hint"}, unresolved(t, src))
}

func TestAnalyze_ForwardReferenceFromFunction(t *testing.T) {
	src := `
def f():
    return later()
def later():
    return 1
`
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_UseBeforeDefinition(t *testing.T) {
	assert.Equal(t, []string{"x"}, unresolved(t, "print(x)\nx = 1\n"))
}

func TestAnalyze_ClassBodyInvisibleInMethods(t *testing.T) {
	src := `
class A(Base):
    size = 1
    doubled = size * 2
    def get(self):
        return size
`
	assert.Equal(t, []string{"Base", "size"}, unresolved(t, src))
}

func TestAnalyze_Comprehensions(t *testing.T) {
	src := `
items = [1, 2]
squares = [v * v for v in items if v]
pairs = {k: w for k in items for w in range(k)}
print(v)
`
	assert.Equal(t, []string{"v"}, unresolved(t, src))
}

func TestAnalyze_WalrusEscapesComprehension(t *testing.T) {
	src := `
data = [1]
if any((hit := d) for d in data):
    pass
print(hit)
`
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_Lambda(t *testing.T) {
	src := "f = lambda x, y=1: x + y + z\n"
	assert.Equal(t, []string{"z"}, unresolved(t, src))
}

func TestAnalyze_ForLambdaRebinding(t *testing.T) {
	src := `
for a in []:
    a = lambda: None
    a()
`
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_GlobalAndNonlocal(t *testing.T) {
	src := `
def setup():
    global config
    config = 1

def counter():
    count = 0
    def bump():
        nonlocal count
        count += 1
    return bump

print(config)
`
	res := parseAndAnalyze(t, src)
	assert.Empty(t, res.Unresolved())
	require.Len(t, res.Module.LookupLocal("config"), 1)
}

func TestAnalyze_ImportsBindFirstComponent(t *testing.T) {
	src := "import os.path\nos.path.join('a')\npath\n"
	assert.Equal(t, []string{"path"}, unresolved(t, src))
}

func TestAnalyze_StringAnnotations(t *testing.T) {
	src := `
from typing import Literal, Set
class A:
    pass
def f(a: Set["A"], b: "Missing", c: Literal["not_a_name"]) -> "A":
    pass
`
	res := parseAndAnalyze(t, src)
	got := res.Unresolved()
	require.Len(t, got, 1)
	assert.Equal(t, "Missing", got[0].Name)
}

func TestAnalyze_AnnotatedMetadata(t *testing.T) {
	src := `
from typing import Annotated
import typing_extensions as te
x: Annotated[int, "meta"] = 1
def f(a: Annotated["Missing", "doc", limit], b: te.Annotated["int", "units"]):
    pass
`
	assert.Equal(t, []string{"Missing", "limit"}, unresolved(t, src))
}

func TestAnalyze_FStringInterpolation(t *testing.T) {
	src := "name = 1\nprint(f\"{name!r} {other:>{width}}\")\n"
	assert.Equal(t, []string{"other", "width"}, unresolved(t, src))
}

func TestAnalyze_TypeParameters(t *testing.T) {
	src := "def first[T](xs: list[T]) -> T:\n    return xs[0]\n"
	assert.Empty(t, unresolved(t, src))
}

func TestAnalyze_ScopeOf(t *testing.T) {
	res := parseAndAnalyze(t, "def f():\n    pass\n")
	require.Len(t, res.Scopes, 2)
	fn := res.Scopes[1]
	assert.Equal(t, ScopeFunction, fn.Kind)
	assert.Equal(t, "f", fn.Name)
	assert.Same(t, fn, res.ScopeOf(fn.Node))
	assert.Same(t, res.Module, res.ScopeOf(res.Module.Node))
}

func TestAnalyze_Canceled(t *testing.T) {
	f, err := syntax.Parse([]byte("a = 1\nb = 2\n"))
	require.NoError(t, err)
	defer f.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Analyze(ctx, f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
