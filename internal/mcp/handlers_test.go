package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/feli0x/docfs/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, roots ...string) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Roots = roots
	srv, err := NewServer(cfg, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// call invokes a tool and decodes its JSON payload.
func call(t *testing.T, s *Server, tool string, args map[string]interface{}) (map[string]interface{}, bool) {
	t.Helper()
	payload, isErr, err := s.CallLocal(context.Background(), tool, args)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	return decoded, isErr
}

func TestListDirectoryAllRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeTree(t, rootA, map[string]string{"a.txt": "x"})
	writeTree(t, rootB, map[string]string{"b.txt": "y"})
	s := newTestServer(t, rootA, rootB)

	resp, isErr := call(t, s, "list_directory", map[string]interface{}{})
	require.False(t, isErr)
	assert.Equal(t, float64(2), resp["count"])
}

func TestListDirectoryRelativePath(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"docs/one.md": "1",
		"docs/two.md": "2",
	})
	s := newTestServer(t, root)

	resp, isErr := call(t, s, "list_directory", map[string]interface{}{"path": "docs"})
	require.False(t, isErr)
	assert.Equal(t, float64(2), resp["count"])

	// The listing stats every entry through the metadata cache.
	assert.Equal(t, 2, s.CacheStats().Entries)
}

func TestListDirectoryPattern(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt": "x",
		"b.md":  "y",
		"c.txt": "z",
	})
	s := newTestServer(t, root)

	resp, isErr := call(t, s, "list_directory", map[string]interface{}{"pattern": "*.txt"})
	require.False(t, isErr)
	assert.Equal(t, float64(2), resp["count"])
}

func TestListDirectoryExplicitZeroDepth(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"top.txt":        "t",
		"sub/deep/f.txt": "f",
	})
	s := newTestServer(t, root)

	resp, isErr := call(t, s, "list_directory", map[string]interface{}{
		"recursive": true,
		"max_depth": 0,
	})
	require.False(t, isErr)
	assert.Equal(t, float64(2), resp["count"])
	for _, e := range resp["entries"].([]interface{}) {
		path := e.(map[string]interface{})["path"].(string)
		assert.NotContains(t, path, "deep", "max_depth=0 must not descend past direct children")
	}
}

func TestListDirectoryOutsideSandbox(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	resp, isErr := call(t, s, "list_directory", map[string]interface{}{"path": "/etc"})
	require.True(t, isErr)
	assert.Equal(t, "outside_sandbox", resp["kind"])
	assert.Equal(t, "list_directory", resp["operation"])
}

func TestDirectoryTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":     "x",
		"sub/b.txt": "y",
	})
	s := newTestServer(t, root)

	resp, isErr := call(t, s, "directory_tree", map[string]interface{}{"path": root, "max_depth": 5})
	require.False(t, isErr)
	children, ok := resp["children"].([]interface{})
	require.True(t, ok)
	assert.Len(t, children, 2)
}

func TestDirectoryTreeAllRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	s := newTestServer(t, rootA, rootB)

	resp, isErr := call(t, s, "directory_tree", map[string]interface{}{})
	require.False(t, isErr)
	roots, ok := resp["roots"].([]interface{})
	require.True(t, ok)
	assert.Len(t, roots, 2)
}

func TestDirectoryTreePartialFailure(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeTree(t, rootA, map[string]string{"a.txt": "x"})
	s := newTestServer(t, rootA, rootB)
	require.NoError(t, os.RemoveAll(rootB))

	// One dead root is reported inline and must not hide the healthy root.
	resp, isErr := call(t, s, "directory_tree", map[string]interface{}{})
	require.False(t, isErr)

	roots, ok := resp["roots"].([]interface{})
	require.True(t, ok)
	require.Len(t, roots, 1)
	children := roots[0].(map[string]interface{})["children"].([]interface{})
	require.Len(t, children, 1)
	assert.Equal(t, "a.txt", children[0].(map[string]interface{})["name"])

	failures, ok := resp["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, failures, 1)
	assert.Equal(t, "not_found", failures[0].(map[string]interface{})["kind"])
}

func TestDirectoryTreeMissingPath(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	resp, isErr := call(t, s, "directory_tree", map[string]interface{}{"path": "gone"})
	require.True(t, isErr)
	assert.Equal(t, "not_found", resp["kind"])
}

func TestSearchFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":      "x\nfoo\ny",
		".gitignore": "skip\n",
		"skip/b.txt": "foo",
	})
	s := newTestServer(t, root)

	resp, isErr := call(t, s, "search_files", map[string]interface{}{"query": "foo"})
	require.False(t, isErr)
	assert.Equal(t, float64(1), resp["total_matches"])
	assert.Equal(t, float64(1), resp["showing"])
	assert.Equal(t, false, resp["truncated"])

	matches := resp["matches"].([]interface{})
	m := matches[0].(map[string]interface{})
	assert.Equal(t, float64(2), m["line"])
	assert.Equal(t, "foo", m["content"])
}

func TestSearchFilesFileTarget(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":     "x\nfoo\ny",
		"other.txt": "foo",
	})
	s := newTestServer(t, root)

	resp, isErr := call(t, s, "search_files", map[string]interface{}{
		"query": "foo",
		"path":  "a.txt",
	})
	require.False(t, isErr)
	assert.Equal(t, float64(1), resp["total_matches"])
	m := resp["matches"].([]interface{})[0].(map[string]interface{})
	assert.True(t, strings.HasSuffix(m["file"].(string), "a.txt"))
	assert.Equal(t, float64(2), m["line"])
}

func TestSearchFilesRequiresQuery(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	resp, isErr := call(t, s, "search_files", map[string]interface{}{})
	require.True(t, isErr)
	assert.Contains(t, resp["error"], "query")
}

func TestSearchFilesClampsMaxResults(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": strings.Repeat("foo\n", 5)})
	s := newTestServer(t, root)

	// 0 falls back to the configured default, not to zero results.
	resp, isErr := call(t, s, "search_files", map[string]interface{}{
		"query":       "foo",
		"max_results": 0,
	})
	require.False(t, isErr)
	assert.Equal(t, float64(5), resp["showing"])
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "one\ntwo\nthree"})
	s := newTestServer(t, root)

	resp, isErr := call(t, s, "read_file", map[string]interface{}{"path": "a.txt"})
	require.False(t, isErr)
	assert.Equal(t, "one\ntwo\nthree", resp["content"])

	resp, isErr = call(t, s, "read_file", map[string]interface{}{
		"path":       "a.txt",
		"start_line": 2,
		"end_line":   3,
	})
	require.False(t, isErr)
	assert.Equal(t, "two\nthree", resp["content"])
	assert.Equal(t, float64(2), resp["start_line"])
	assert.Equal(t, float64(3), resp["end_line"])
}

func TestReadFileInvalidRange(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "one\ntwo\nthree"})
	s := newTestServer(t, root)

	resp, isErr := call(t, s, "read_file", map[string]interface{}{
		"path":       "a.txt",
		"start_line": 5,
		"end_line":   3,
	})
	require.True(t, isErr)
	assert.Equal(t, "invalid_range", resp["kind"])
}

func TestReadFileTooLarge(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"big.txt": strings.Repeat("x", 2048)})
	s := newTestServer(t, root)

	// 500 floors up to the 1024 minimum; the 2048-byte file still exceeds it.
	resp, isErr := call(t, s, "read_file", map[string]interface{}{
		"path":          "big.txt",
		"max_file_size": 500,
	})
	require.True(t, isErr)
	assert.Equal(t, "too_large", resp["kind"])
}

func TestReadFileNotFound(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	resp, isErr := call(t, s, "read_file", map[string]interface{}{"path": "gone.txt"})
	require.True(t, isErr)
	assert.Equal(t, "not_found", resp["kind"])
}

func TestReadMultipleFilesPartialSuccess(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.txt":  "fine",
		"big.txt": strings.Repeat("x", 2048),
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0755))
	s := newTestServer(t, root)

	resp, isErr := call(t, s, "read_multiple_files", map[string]interface{}{
		"paths":         []string{"ok.txt", "big.txt", "dir", "gone.txt"},
		"max_file_size": 1024,
	})
	require.False(t, isErr, "per-file failures must not fail the batch")
	assert.Equal(t, float64(4), resp["requested"])
	assert.Equal(t, float64(1), resp["succeeded"])

	files := resp["files"].([]interface{})
	require.Len(t, files, 4)

	byIndex := func(i int) map[string]interface{} { return files[i].(map[string]interface{}) }
	assert.Equal(t, "fine", byIndex(0)["content"])
	assert.Equal(t, "too_large", byIndex(1)["kind"])
	assert.Equal(t, "is_a_directory", byIndex(2)["kind"])
	assert.Equal(t, "not_found", byIndex(3)["kind"])
}

func TestReadMultipleFilesRequiresPaths(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	resp, isErr := call(t, s, "read_multiple_files", map[string]interface{}{})
	require.True(t, isErr)
	assert.Contains(t, resp["error"], "paths")
}

func TestUnknownTool(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	_, _, err := s.CallLocal(context.Background(), "write_file", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestNewServerRejectsEmptyRoots(t *testing.T) {
	cfg := config.Default()
	_, err := NewServer(cfg, false)
	assert.Error(t, err)

	_, err = NewServer(nil, false)
	assert.Error(t, err)
}
