// Copyright © 2024 The ELPS authors

package syntax

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var pythonLanguage = sitter.NewLanguage(python.Language())

// Pool recycles tree-sitter parsers configured for Python. A Pool is safe
// for concurrent use; the zero value is not usable, see NewPool.
type Pool struct {
	pool sync.Pool

	mu     sync.Mutex
	leased int
}

// NewPool returns an empty parser pool.
func NewPool() *Pool {
	p := &Pool{}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		// The language is compiled in, SetLanguage only fails on an ABI
		// mismatch which would break every parse anyway.
		_ = sp.SetLanguage(pythonLanguage)
		return sp
	}
	return p
}

// DefaultPool is shared by Parse and the packages built on top of it.
var DefaultPool = NewPool()

// Get leases a parser. Callers must hand it back with Put.
func (p *Pool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	p.mu.Lock()
	p.leased++
	p.mu.Unlock()
	return sp
}

// Put resets sp and returns it to the pool. sp must not be used afterwards.
func (p *Pool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.mu.Lock()
	p.leased--
	p.mu.Unlock()
	sp.Reset()
	p.pool.Put(sp)
}

// Leased reports the number of parsers currently handed out.
func (p *Pool) Leased() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leased
}
