// Package types defines the shared data model for the docfs core:
// file entries, directory trees, search matches, and the option structs
// passed between the walker, search engine, and reader.
package types

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Parameter bounds applied at the request boundary. Callers clamp into
// these ranges before invoking the core.
const (
	MinContextLines = 0
	MaxContextLines = 10

	MinResults = 1
	MaxResults = 1000

	// MinFileSize is the floor for the max_file_size parameter.
	MinFileSize = 1024
)

// Defaults used when a request omits the corresponding parameter.
const (
	DefaultContextLines = 2
	DefaultMaxResults   = 100
	DefaultMaxDepth     = 32
	DefaultMaxFileSize  = 10 * 1024 * 1024
	DefaultEncoding     = "utf-8"
)

// FileEntry is the immutable metadata snapshot for one filesystem entry.
// Identity is the absolute path; a changed file yields a new FileEntry.
type FileEntry struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	IsDir     bool      `json:"is_dir"`
	Extension string    `json:"extension,omitempty"`
}

// NewFileEntry builds a FileEntry from a stat result. absPath must already
// be absolute; the walker guarantees this.
func NewFileEntry(absPath string, info os.FileInfo) FileEntry {
	e := FileEntry{
		Path:     absPath,
		Name:     info.Name(),
		Size:     info.Size(),
		Modified: info.ModTime(),
		IsDir:    info.IsDir(),
	}
	if !e.IsDir {
		e.Extension = strings.TrimPrefix(filepath.Ext(absPath), ".")
	}
	return e
}

// DirTreeNode is a FileEntry plus children. Children is populated only for
// directories that were actually descended into; a depth-exhausted directory
// keeps a nil slice.
type DirTreeNode struct {
	FileEntry
	Children []*DirTreeNode `json:"children,omitempty"`
}

// SearchMatch is one matching line with its surrounding context window.
// Line numbers are 1-based.
type SearchMatch struct {
	File          string   `json:"file"`
	Line          int      `json:"line"`
	Content       string   `json:"content"`
	ContextBefore []string `json:"context_before"`
	ContextAfter  []string `json:"context_after"`
}

// WalkOptions controls flat directory traversal.
type WalkOptions struct {
	Recursive     bool
	MaxDepth      int
	IncludeHidden bool
	// NamePattern filters non-directory entries by name with a simple
	// case-insensitive glob (* and ?). Directories are never filtered.
	NamePattern string
}

// TreeOptions controls nested tree traversal.
type TreeOptions struct {
	MaxDepth      int
	IncludeHidden bool
}

// SearchOptions controls content search across one or more roots.
type SearchOptions struct {
	Query         string
	FilePattern   string
	CaseSensitive bool
	WholeWord     bool
	ContextLines  int
	MaxResults    int
	MaxDepth      int
}

// ReadOptions controls a single file read. StartLine/EndLine are 1-based
// and inclusive; zero means unbounded on that side.
type ReadOptions struct {
	StartLine   int
	EndLine     int
	Encoding    string
	MaxFileSize int64
}

// SortEntries orders a listing in place: directories before files, then
// lexicographic by name, with the full path as a stable tie-breaker so
// multi-directory listings come out deterministic.
func SortEntries(entries []FileEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Path < b.Path
	})
}

// SortNodes applies the listing order to a directory's children.
func SortNodes(nodes []*DirTreeNode) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Path < b.Path
	})
}
