// Copyright © 2024 The ELPS authors

package syntax

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every *Error.
var ErrSyntax = errors.New("syntax error")

// Error reports the first malformed region of a source file. Line is
// 1-based and Column counts runes from 0.
type Error struct {
	Line   int
	Column int
	// Missing is the token tree-sitter had to invent, if any.
	Missing string
}

func (e *Error) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("syntax error at line %d, column %d: missing %q", e.Line, e.Column, e.Missing)
	}
	return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
}

func (e *Error) Is(target error) bool {
	return target == ErrSyntax
}
