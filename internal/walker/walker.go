// Package walker implements depth- and pattern-bounded directory traversal
// over the sandboxed roots. It is the only component that enumerates
// directories; listings, trees, and search all obtain their file sets here.
package walker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/feli0x/docfs/internal/cache"
	dferrors "github.com/feli0x/docfs/internal/errors"
	"github.com/feli0x/docfs/internal/ignore"
	"github.com/feli0x/docfs/internal/types"
)

// WarnLogger receives the warning-level skip signals traversal emits for
// unreadable directories and entries. The MCP diagnostic logger satisfies it.
type WarnLogger interface {
	Printf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// Walker traverses directories, consulting the ignore registry for pruning
// and the metadata cache for stat results. It holds no per-call state, so
// concurrent independent walks are safe.
type Walker struct {
	cache   *cache.MetadataCache
	ignores *ignore.Registry
	log     WarnLogger
}

// New creates a walker over the given cache and ignore registry.
// A nil logger discards warnings.
func New(metadata *cache.MetadataCache, ignores *ignore.Registry, log WarnLogger) *Walker {
	if log == nil {
		log = nopLogger{}
	}
	return &Walker{cache: metadata, ignores: ignores, log: log}
}

// Walk enumerates root depth-first and returns a flat listing. Depth 0 is
// the root's direct children; Recursive=false restricts to depth 0. The
// final listing is sorted once after traversal completes: directories
// first, then lexicographic by name.
//
// Only the top-level enumeration is fatal; deeper directories that cannot
// be read are logged and skipped so one unreadable subtree cannot hide its
// siblings.
func (w *Walker) Walk(root string, opts types.WalkOptions) ([]types.FileEntry, error) {
	maxDepth := opts.MaxDepth
	if !opts.Recursive {
		maxDepth = 0
	}

	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, dferrors.NewIo("list", root, err)
	}

	matcher := w.ignores.ForRoot(root)
	out := make([]types.FileEntry, 0, len(dirents))
	w.collect(root, root, dirents, 0, maxDepth, opts, matcher, &out)
	types.SortEntries(out)
	return out, nil
}

// Tree builds the nested tree rooted at root. Children are ordered per
// directory: directories first, then lexicographic by name. A directory at
// the depth limit appears as a leaf with no children.
func (w *Walker) Tree(root string, opts types.TreeOptions) (*types.DirTreeNode, error) {
	entry, err := w.Stat(root)
	if err != nil {
		return nil, err
	}

	node := &types.DirTreeNode{FileEntry: entry}
	if !entry.IsDir {
		return node, nil
	}

	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, dferrors.NewIo("list", root, err)
	}

	matcher := w.ignores.ForRoot(root)
	node.Children = w.buildChildren(root, root, dirents, 0, opts, matcher)
	return node, nil
}

// Stat returns metadata for a single path through the cache: a hit avoids
// the stat call, a miss performs it and populates the cache.
func (w *Walker) Stat(abs string) (types.FileEntry, error) {
	if entry, ok := w.cache.Get(abs); ok {
		return entry, nil
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return types.FileEntry{}, dferrors.NewNotFound(abs, nil)
		}
		return types.FileEntry{}, dferrors.NewIo("stat", abs, err)
	}
	entry := types.NewFileEntry(abs, info)
	w.cache.Set(abs, entry)
	return entry, nil
}

func (w *Walker) collect(root, dir string, dirents []os.DirEntry, depth, maxDepth int, opts types.WalkOptions, matcher *ignore.Matcher, out *[]types.FileEntry) {
	for _, d := range dirents {
		name := d.Name()
		if !opts.IncludeHidden && isHidden(name) {
			continue
		}

		abs := filepath.Join(dir, name)
		if rel, err := filepath.Rel(root, abs); err == nil && matcher.Excludes(rel) {
			// An ignored directory prunes its whole subtree, not just its row.
			continue
		}

		entry, err := w.statEntry(abs, d)
		if err != nil {
			w.log.Printf("warning: skipping %s: %v", abs, err)
			continue
		}

		if entry.IsDir {
			*out = append(*out, entry)
			if depth+1 <= maxDepth {
				children, err := os.ReadDir(abs)
				if err != nil {
					w.log.Printf("warning: skipping unreadable directory %s: %v", abs, err)
					continue
				}
				w.collect(root, abs, children, depth+1, maxDepth, opts, matcher, out)
			}
			continue
		}

		// NamePattern filters files only; directories were handled above so
		// a pattern never prunes reachability to matching descendants.
		if opts.NamePattern == "" || matchName(opts.NamePattern, name) {
			*out = append(*out, entry)
		}
	}
}

func (w *Walker) buildChildren(root, dir string, dirents []os.DirEntry, depth int, opts types.TreeOptions, matcher *ignore.Matcher) []*types.DirTreeNode {
	nodes := make([]*types.DirTreeNode, 0, len(dirents))
	for _, d := range dirents {
		name := d.Name()
		if !opts.IncludeHidden && isHidden(name) {
			continue
		}

		abs := filepath.Join(dir, name)
		if rel, err := filepath.Rel(root, abs); err == nil && matcher.Excludes(rel) {
			continue
		}

		entry, err := w.statEntry(abs, d)
		if err != nil {
			w.log.Printf("warning: skipping %s: %v", abs, err)
			continue
		}

		node := &types.DirTreeNode{FileEntry: entry}
		if entry.IsDir && depth+1 <= opts.MaxDepth {
			children, err := os.ReadDir(abs)
			if err != nil {
				w.log.Printf("warning: skipping unreadable directory %s: %v", abs, err)
			} else {
				node.Children = w.buildChildren(root, abs, children, depth+1, opts, matcher)
			}
		}
		nodes = append(nodes, node)
	}
	types.SortNodes(nodes)
	return nodes
}

// statEntry is the read-through path for entries discovered during
// enumeration; the DirEntry supplies the stat on a cache miss.
func (w *Walker) statEntry(abs string, d os.DirEntry) (types.FileEntry, error) {
	if entry, ok := w.cache.Get(abs); ok {
		return entry, nil
	}
	info, err := d.Info()
	if err != nil {
		return types.FileEntry{}, err
	}
	entry := types.NewFileEntry(abs, info)
	w.cache.Set(abs, entry)
	return entry, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// matchName applies the case-insensitive simple glob used by NamePattern
// and file patterns: * matches any run, ? a single character.
func matchName(pattern, name string) bool {
	matched, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(name))
	if err != nil {
		// Malformed pattern: fall back to a literal comparison.
		return strings.EqualFold(pattern, name)
	}
	return matched
}
