package filelist

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		path := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func TestLister_List(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"main.go",
		"README.md",
		"calc/calc.go",
		"calc/deep/nested.go",
		".git/HEAD",
		"node_modules/pkg/index.js",
		"__pycache__/x.pyc",
	)

	files, err := New(domain.DefaultFileDepth, domain.DefaultMaxFiles, domain.DefaultExcludeDirs).List(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md", "calc/calc.go", "main.go"}, files)
}

func TestLister_Cap(t *testing.T) {
	dir := t.TempDir()
	for i := range 20 {
		touch(t, dir, fmt.Sprintf("f%02d.txt", i))
	}

	files, err := New(2, 15, nil).List(dir)
	require.NoError(t, err)
	require.Len(t, files, 15)
	assert.Equal(t, "f00.txt", files[0])
	assert.Equal(t, "f14.txt", files[14])
}

func TestLister_DepthOne(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "top.txt", "sub/inner.txt")

	files, err := New(1, 15, nil).List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"top.txt"}, files)
}

func TestLister_MissingDir(t *testing.T) {
	_, err := New(2, 15, nil).List(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	files, err := New(2, 15, nil).List("")
	require.NoError(t, err)
	assert.Nil(t, files)
}
