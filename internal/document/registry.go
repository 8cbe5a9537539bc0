package document

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
)

// Registry holds the text of documents open in the host.
// Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// Document is one open buffer.
type Document struct {
	Path    string
	Lines   []string
	Version int64 // host-provided, for change detection
}

func NewRegistry() *Registry {
	return &Registry{docs: make(map[string]*Document)}
}

// Open adds or replaces an open document.
func (r *Registry) Open(path, text string, version int64) {
	path = filepath.Clean(path)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[path] = &Document{
		Path:    path,
		Lines:   SplitLines(text),
		Version: version,
	}
}

// Close forgets a document. Later reads fall through to disk.
func (r *Registry) Close(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.docs, filepath.Clean(path))
}

// Rename moves an open document to its new path.
func (r *Registry) Rename(oldPath, newPath string) {
	oldPath, newPath = filepath.Clean(oldPath), filepath.Clean(newPath)
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[oldPath]
	if !ok {
		return
	}
	delete(r.docs, oldPath)
	doc.Path = newPath
	r.docs[newPath] = doc
}

// Get returns the open document, or nil.
func (r *Registry) Get(path string) *Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.docs[filepath.Clean(path)]
}

// Len returns the number of open documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.docs)
}

func (r *Registry) Lines(_ context.Context, path string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[filepath.Clean(path)]
	if !ok {
		return nil, ErrNotOpen
	}
	return doc.Lines, nil
}

// SplitLines splits text on \n, dropping a trailing \r from each line.
// A trailing newline does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return []string{""}
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
