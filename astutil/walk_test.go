// Copyright © 2024 The ELPS authors

package astutil

import (
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *sitter.Node {
	t.Helper()
	p := sitter.NewParser()
	t.Cleanup(p.Close)
	require.NoError(t, p.SetLanguage(sitter.NewLanguage(python.Language())))
	tree := p.Parse([]byte(src), nil)
	require.NotNil(t, tree)
	t.Cleanup(tree.Close)
	return tree.RootNode()
}

func TestWalk_SkipsChildren(t *testing.T) {
	root := parse(t, "def f(a):\n    return a\nb = 1\n")
	var kinds []string
	Walk(root, func(n *sitter.Node, parent *sitter.Node, depth int) bool {
		if depth == 1 {
			kinds = append(kinds, n.Kind())
		}
		return n.Kind() != "function_definition"
	})
	assert.Equal(t, []string{"function_definition", "expression_statement"}, kinds)
}

func TestWalk_ParentIsNilForRoot(t *testing.T) {
	root := parse(t, "a\n")
	Walk(root, func(n *sitter.Node, parent *sitter.Node, depth int) bool {
		if depth == 0 {
			assert.Nil(t, parent)
		} else {
			assert.NotNil(t, parent)
		}
		return true
	})
}

func TestFields_Repeated(t *testing.T) {
	src := "if a:\n    pass\nelif b:\n    pass\nelse:\n    pass\n"
	root := parse(t, src)
	stmt := NamedChildren(root)[0]
	require.Equal(t, "if_statement", stmt.Kind())
	alts := Fields(stmt, "alternative")
	require.Len(t, alts, 2)
	assert.Equal(t, "elif_clause", alts[0].Kind())
	assert.Equal(t, "else_clause", alts[1].Kind())
	assert.Equal(t, "a", Text(Field(stmt, "condition"), []byte(src)))
}

func TestNamedChildren_SkipsComments(t *testing.T) {
	root := parse(t, "# hello\na = 1\n")
	kids := NamedChildren(root)
	require.Len(t, kids, 1)
	assert.Equal(t, "expression_statement", kids[0].Kind())
}

func TestUnwrap(t *testing.T) {
	src := "x = ((a))\n"
	root := parse(t, src)
	assign := NamedChildren(NamedChildren(root)[0])[0]
	right := Unwrap(Field(assign, "right"))
	assert.Equal(t, "identifier", right.Kind())
	assert.Equal(t, "a", Text(right, []byte(src)))
}

func TestIdentifiers(t *testing.T) {
	src := "a.b(c, d=e)\n"
	root := parse(t, src)
	var names []string
	for _, id := range Identifiers(root) {
		names = append(names, Text(id, []byte(src)))
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)
}

func TestChildOfKind(t *testing.T) {
	root := parse(t, "try:\n    pass\nfinally:\n    pass\n")
	try := NamedChildren(root)[0]
	fin := ChildOfKind(try, "finally_clause")
	require.NotNil(t, fin)
	assert.NotNil(t, ChildOfKind(fin, "block"))
	assert.Nil(t, ChildOfKind(try, "else_clause"))
}

func TestText_OutOfRange(t *testing.T) {
	root := parse(t, "abc\n")
	assert.Equal(t, "", Text(root, []byte("a")))
	assert.Equal(t, "", Text(nil, nil))
}
