package walkfs_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.optionset.dev/optionset/internal/walkfs"
)

func TestWalkIgnoresDirsAndFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "x.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "b.png"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("h"), 0o644))

	cfg := walkfs.Config{
		IgnoreDirs:  walkfs.DefaultIgnoreDirs,
		IgnoreFiles: walkfs.DefaultIgnoreFiles,
	}

	var got []string
	err := walkfs.Walk(root, cfg, func(path string) error {
		got = append(got, path)
		return nil
	})
	require.NoError(t, err)

	sort.Strings(got)
	assert.Equal(t, []string{filepath.Join(root, "src", "a.txt")}, got)
}
