// Package search implements line-oriented text search over the files the
// walker discovers, producing per-match context windows.
package search

import (
	"bytes"
	"context"
	"os"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/feli0x/docfs/internal/types"
	"github.com/feli0x/docfs/internal/walker"
)

// binarySniffLen bounds how much of a file is inspected for binary content
// before the line scan.
const binarySniffLen = 8192

// Result carries the matches plus the total count found before truncation,
// so callers can report "showing N of M".
type Result struct {
	Matches      []types.SearchMatch `json:"matches"`
	TotalMatches int                 `json:"total_matches"`
	Truncated    bool                `json:"truncated"`
}

// Engine scans files for a literal query. It holds no state across calls
// beyond what the walker's cache owns, so concurrent searches are safe.
type Engine struct {
	walker *walker.Walker
	log    walker.WarnLogger
}

// NewEngine creates a search engine over the given walker. A nil logger
// discards the per-file skip warnings.
func NewEngine(w *walker.Walker, log walker.WarnLogger) *Engine {
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{walker: w, log: log}
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// Search scans every root for the query. Roots are searched concurrently
// but results are merged in configured root order, then walker file order,
// then ascending line number; there is no relevance ranking. Unreadable or
// binary files are logged and skipped, never fatal.
func (e *Engine) Search(ctx context.Context, roots []string, opts types.SearchOptions) (*Result, error) {
	re, err := compilePattern(opts.Query, opts.CaseSensitive, opts.WholeWord)
	if err != nil {
		return nil, err
	}

	perRoot := make([]rootMatches, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			perRoot[i] = e.searchRoot(gctx, root, re, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Matches: make([]types.SearchMatch, 0)}
	for _, rm := range perRoot {
		result.TotalMatches += rm.total
		for _, m := range rm.matches {
			if len(result.Matches) < opts.MaxResults {
				result.Matches = append(result.Matches, m)
			}
		}
	}
	result.Truncated = result.TotalMatches > len(result.Matches)
	return result, nil
}

type rootMatches struct {
	matches []types.SearchMatch
	total   int
}

func (e *Engine) searchRoot(ctx context.Context, root string, re *regexp.Regexp, opts types.SearchOptions) rootMatches {
	// A target that is itself a regular file is scanned directly; Walk only
	// applies to directories.
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		var rm rootMatches
		e.searchFile(root, re, opts, &rm)
		return rm
	}

	files, err := e.walker.Walk(root, types.WalkOptions{
		Recursive:   true,
		MaxDepth:    opts.MaxDepth,
		NamePattern: opts.FilePattern,
	})
	if err != nil {
		e.log.Printf("warning: skipping root %s: %v", root, err)
		return rootMatches{}
	}

	var rm rootMatches
	for _, entry := range files {
		if entry.IsDir {
			continue
		}
		if ctx.Err() != nil {
			return rm
		}
		e.searchFile(entry.Path, re, opts, &rm)
	}
	return rm
}

func (e *Engine) searchFile(path string, re *regexp.Regexp, opts types.SearchOptions, rm *rootMatches) {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Printf("warning: skipping unreadable file %s: %v", path, err)
		return
	}
	if isBinary(data) {
		e.log.Printf("warning: skipping binary file %s", path)
		return
	}

	lines := splitLines(string(data))
	for i, line := range lines {
		if !re.MatchString(line) {
			continue
		}
		rm.total++
		// Matches beyond the cap are still counted for the total.
		if rm.total > opts.MaxResults {
			continue
		}
		rm.matches = append(rm.matches, types.SearchMatch{
			File:          path,
			Line:          i + 1,
			Content:       line,
			ContextBefore: contextSlice(lines, i-opts.ContextLines, i),
			ContextAfter:  contextSlice(lines, i+1, i+1+opts.ContextLines),
		})
	}
}

// compilePattern turns the query into a regexp that matches it literally:
// metacharacters are escaped, WholeWord adds word-boundary anchors, and
// case-insensitive matching toggles the (?i) flag.
func compilePattern(query string, caseSensitive, wholeWord bool) (*regexp.Regexp, error) {
	expr := regexp.QuoteMeta(query)
	if wholeWord {
		expr = `\b` + expr + `\b`
	}
	if !caseSensitive {
		expr = `(?i)` + expr
	}
	return regexp.Compile(expr)
}

// contextSlice copies lines[from:to] clipped to the file's bounds, so a
// window never extends past the first or last line.
func contextSlice(lines []string, from, to int) []string {
	if from < 0 {
		from = 0
	}
	if to > len(lines) {
		to = len(lines)
	}
	if from >= to {
		return []string{}
	}
	out := make([]string, to-from)
	copy(out, lines[from:to])
	return out
}

// splitLines splits on \n and strips a trailing \r per line so CRLF files
// search the same as LF files. A trailing newline does not produce a
// phantom empty last line.
func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// isBinary applies the same heuristic the read path uses: a NUL byte in the
// leading window, or a high share of control characters, marks the file as
// binary and excludes it from line search.
func isBinary(data []byte) bool {
	sniff := data
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if len(sniff) == 0 {
		return false
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return true
	}
	nonPrintable := 0
	for _, b := range sniff {
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(sniff)) > 0.3
}
