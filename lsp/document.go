// Copyright © 2024 The ELPS authors

package lsp

import (
	"context"
	"sync"

	"github.com/luthersystems/pyrefcheck/analysis"
	"github.com/luthersystems/pyrefcheck/lint"
	"github.com/luthersystems/pyrefcheck/syntax"
)

// Document is an open text document tracked by the server. The parsed
// file stays open while the document is, so analysis nodes remain valid
// for position queries.
type Document struct {
	mu      sync.Mutex
	URI     string
	Version int32
	Content string

	analyzed bool
	file     *syntax.File
	result   *analysis.Result
	warnings []lint.Warning
	err      error
}

// analyze parses and analyzes the current content. Callers hold d.mu.
func (d *Document) analyze(ctx context.Context, l *lint.Linter) {
	d.release()
	d.analyzed = true
	f, res, err := l.Analyze(ctx, []byte(d.Content))
	if err != nil {
		d.err = err
		return
	}
	d.file = f
	d.result = res
	d.warnings = lint.Collect(res, f)
}

// release drops the parsed state. Callers hold d.mu.
func (d *Document) release() {
	if d.file != nil {
		d.file.Close()
	}
	d.file = nil
	d.result = nil
	d.warnings = nil
	d.err = nil
	d.analyzed = false
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	s.mu.Lock()
	old := s.docs[uri]
	s.docs[uri] = doc
	s.mu.Unlock()
	if old != nil {
		old.mu.Lock()
		old.release()
		old.mu.Unlock()
	}
	return doc
}

// Change replaces a document's content (full sync).
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.release()
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store and frees its parse tree.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	doc := s.docs[uri]
	delete(s.docs, uri)
	s.mu.Unlock()
	if doc != nil {
		doc.mu.Lock()
		doc.release()
		doc.mu.Unlock()
	}
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// All returns the open documents.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	return docs
}
