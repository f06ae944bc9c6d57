// Package sandbox validates untrusted paths against the configured roots.
// All access in docfs flows through Validate or ResolveRelative before any
// filesystem call touches the target.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	dferrors "github.com/feli0x/docfs/internal/errors"
)

// Validate normalizes candidate to an absolute, canonical path and checks
// that it equals one of the roots or lies strictly beneath one. Symlinks are
// resolved before the containment check so a link inside a root cannot point
// the caller outside of it. The containment check is separator-bounded:
// /data2 never passes for root /data.
//
// Validate is pure apart from the filesystem lookups canonicalization needs;
// it never creates, reads, or modifies anything.
func Validate(candidate string, roots []string) (string, error) {
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", dferrors.NewIo("resolve", candidate, err)
	}
	abs = canonicalize(filepath.Clean(abs))

	for _, root := range roots {
		if within(abs, canonicalize(root)) {
			return abs, nil
		}
	}
	return "", dferrors.NewOutsideSandbox(candidate)
}

// ResolveRelative resolves a relative path by trying each root in configured
// order and returning the first candidate that exists and validates under
// that root. Absolute inputs are passed straight to Validate. Fails with
// NotFound carrying the attempted roots when nothing matches.
func ResolveRelative(rel string, roots []string) (string, error) {
	if filepath.IsAbs(rel) {
		abs, err := Validate(rel, roots)
		if err != nil {
			return "", err
		}
		if _, statErr := os.Stat(abs); statErr != nil {
			return "", dferrors.NewNotFound(rel, nil)
		}
		return abs, nil
	}

	for _, root := range roots {
		candidate := filepath.Join(root, rel)
		abs, err := Validate(candidate, []string{root})
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(abs); statErr == nil {
			return abs, nil
		}
	}
	return "", dferrors.NewNotFound(rel, roots)
}

// canonicalize resolves symlinks for the deepest existing ancestor of p and
// rejoins the non-existent remainder, so paths inside a root that do not
// exist yet still normalize consistently.
func canonicalize(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}

	// Walk upward until something exists, then reattach the tail.
	dir := p
	var tail []string
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return p
		}
		tail = append([]string{filepath.Base(dir)}, tail...)
		dir = parent
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...)
		}
	}
}

// within reports whether path equals root or is a descendant of it, using a
// separator-bounded comparison rather than a naive string prefix.
func within(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
