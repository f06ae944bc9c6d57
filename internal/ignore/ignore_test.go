package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIgnore(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte(content), 0644))
}

func TestExcludesBareDirectoryName(t *testing.T) {
	root := t.TempDir()
	writeIgnore(t, root, "skip\n")

	m := NewRegistry().ForRoot(root)
	assert.True(t, m.Excludes("skip"))
	assert.True(t, m.Excludes(filepath.Join("skip", "b.txt")))
	assert.True(t, m.Excludes(filepath.Join("skip", "nested", "c.txt")))
	assert.False(t, m.Excludes("a.txt"))
	assert.False(t, m.Excludes("skipnot"))
}

func TestExcludesPatterns(t *testing.T) {
	root := t.TempDir()
	writeIgnore(t, root, "*.log\nbuild/\n!keep.log\n")

	m := NewRegistry().ForRoot(root)
	tests := []struct {
		rel  string
		want bool
	}{
		{"debug.log", true},
		{filepath.Join("sub", "trace.log"), true},
		{"keep.log", false},
		{filepath.Join("build", "out.txt"), true},
		{"notes.txt", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Excludes(tt.rel), "rel=%s", tt.rel)
	}
}

func TestMissingIgnoreFileExcludesNothing(t *testing.T) {
	root := t.TempDir()
	m := NewRegistry().ForRoot(root)
	assert.False(t, m.Excludes("anything"))
	assert.False(t, m.Excludes(filepath.Join("deep", "path.txt")))
}

func TestNilAndEmptyInputs(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Excludes("x"))

	root := t.TempDir()
	writeIgnore(t, root, "skip\n")
	compiled := NewRegistry().ForRoot(root)
	assert.False(t, compiled.Excludes(""))
	assert.False(t, compiled.Excludes("."))
}

func TestRegistryMemoizes(t *testing.T) {
	root := t.TempDir()
	writeIgnore(t, root, "skip\n")

	r := NewRegistry()
	m1 := r.ForRoot(root)
	m2 := r.ForRoot(root)
	assert.Same(t, m1, m2)

	// The memoized matcher keeps serving the old rules until Clear.
	writeIgnore(t, root, "other\n")
	assert.True(t, r.ForRoot(root).Excludes("skip"))

	r.Clear()
	fresh := r.ForRoot(root)
	assert.False(t, fresh.Excludes("skip"))
	assert.True(t, fresh.Excludes("other"))
}
