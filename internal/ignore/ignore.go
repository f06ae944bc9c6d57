// Package ignore decides which paths traversal must exclude, based on each
// root's .gitignore. Pattern evaluation is delegated to sabhiram/go-gitignore,
// which covers wildcards, directory-only patterns, negation, and **; the
// grammar supported here is exactly that library's grammar.
package ignore

import (
	"os"
	"path/filepath"
	"sync"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the per-root ignore file consulted at first use.
const IgnoreFileName = ".gitignore"

// Matcher answers exclusion queries for paths relative to one root.
// The zero matcher (no ignore file) excludes nothing.
type Matcher struct {
	compiled *gitignore.GitIgnore
}

// Excludes reports whether the root-relative path is ignored. A bare
// directory pattern like "dist" matches the directory itself and anything
// beneath it, so callers can prune whole subtrees on a directory hit.
func (m *Matcher) Excludes(relPath string) bool {
	if m == nil || m.compiled == nil || relPath == "" || relPath == "." {
		return false
	}
	return m.compiled.MatchesPath(filepath.ToSlash(relPath))
}

// Registry memoizes one Matcher per root for the lifetime of the process,
// or until Clear. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	matchers map[string]*Matcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{matchers: make(map[string]*Matcher)}
}

// ForRoot returns the matcher for root, compiling the root's ignore file on
// first use. A missing or unreadable ignore file yields a matcher that
// excludes nothing; traversal must not fail because a root has no rules.
func (r *Registry) ForRoot(root string) *Matcher {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.matchers[root]; ok {
		return m
	}

	m := &Matcher{}
	ignorePath := filepath.Join(root, IgnoreFileName)
	if _, err := os.Stat(ignorePath); err == nil {
		if compiled, err := gitignore.CompileIgnoreFile(ignorePath); err == nil {
			m.compiled = compiled
		}
	}
	r.matchers[root] = m
	return m
}

// Clear drops all memoized matchers, forcing recompilation on next use.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchers = make(map[string]*Matcher)
}
