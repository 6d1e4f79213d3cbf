// Copyright © 2024 The ELPS authors

package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/luthersystems/pyrefcheck/astutil"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrUnexpectedScope is returned when qualified-name computation meets a
// scope kind it does not know how to name.
var ErrUnexpectedScope = errors.New("unexpected scope kind")

// QualifiedNameSource says where a qualified name came from.
type QualifiedNameSource int

const (
	SourceImport QualifiedNameSource = iota
	SourceLocal
	SourceBuiltin
)

func (s QualifiedNameSource) String() string {
	switch s {
	case SourceImport:
		return "import"
	case SourceLocal:
		return "local"
	case SourceBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// QualifiedName is a dotted name such as "sys.exit" or "f.<locals>.g".
type QualifiedName struct {
	Name   string
	Source QualifiedNameSource
}

// scopePrefix returns the dotted prefix contributed by s and its
// ancestors. Block scopes contribute nothing.
func scopePrefix(s *Scope) (string, error) {
	var parts []string
	for scope := s; scope != nil && scope.Kind != ScopeModule; scope = scope.Parent {
		switch scope.Kind {
		case ScopeClass:
			parts = append(parts, scope.Name)
		case ScopeFunction:
			parts = append(parts, scope.Name+".<locals>")
		case ScopeComprehension:
			parts = append(parts, "<comprehension>")
		case ScopeBlock:
		default:
			return "", fmt.Errorf("%w: %v", ErrUnexpectedScope, scope.Kind)
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "."), nil
}

// QualifiedName returns the fully qualified name b introduces.
func (b *Binding) QualifiedName() (QualifiedName, error) {
	switch {
	case b.Kind == BindBuiltin:
		return QualifiedName{Name: "builtins." + b.Name, Source: SourceBuiltin}, nil
	case b.IsImport():
		return QualifiedName{Name: b.Imported, Source: SourceImport}, nil
	}
	prefix, err := scopePrefix(b.Scope)
	if err != nil {
		return QualifiedName{}, err
	}
	if prefix == "" {
		return QualifiedName{Name: b.Name, Source: SourceLocal}, nil
	}
	return QualifiedName{Name: prefix + "." + b.Name, Source: SourceLocal}, nil
}

// QualifiedNames returns every qualified name expr may refer to when
// evaluated in s, considering all bindings recorded so far. Only names and
// attribute chains have qualified names.
func (s *Scope) QualifiedNames(expr *sitter.Node, src []byte) ([]QualifiedName, error) {
	expr = astutil.Unwrap(expr)
	if expr == nil {
		return nil, nil
	}
	switch expr.Kind() {
	case "identifier":
		var out []QualifiedName
		for _, b := range s.Resolve(astutil.Text(expr, src), math.MaxInt) {
			q, err := b.QualifiedName()
			if err != nil {
				return nil, err
			}
			out = append(out, q)
		}
		return out, nil
	case "attribute":
		base, err := s.QualifiedNames(astutil.Field(expr, "object"), src)
		if err != nil {
			return nil, err
		}
		attr := astutil.Text(astutil.Field(expr, "attribute"), src)
		out := make([]QualifiedName, 0, len(base))
		for _, q := range base {
			out = append(out, QualifiedName{Name: q.Name + "." + attr, Source: q.Source})
		}
		return out, nil
	}
	return nil, nil
}

// hasQualifiedName reports whether any of names matches one of want with
// the given source.
func hasQualifiedName(names []QualifiedName, source QualifiedNameSource, want ...string) bool {
	for _, q := range names {
		if q.Source != source {
			continue
		}
		for _, w := range want {
			if q.Name == w {
				return true
			}
		}
	}
	return false
}
