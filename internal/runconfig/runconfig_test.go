package runconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.optionset.dev/optionset/internal/runconfig"
)

func TestLoadWritesDefaultsWhenMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := runconfig.Load(dir, true)
	require.NoError(t, err)
	assert.Equal(t, runconfig.Default(), cfg)

	_, err = os.Stat(filepath.Join(dir, runconfig.FileName))
	require.NoError(t, err)
}

func TestLoadMissingWithoutWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := runconfig.Load(dir, false)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, runconfig.FileName))
	require.True(t, os.IsNotExist(err))
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg := runconfig.Config{
		IgnoreDirs:    []string{".git", "build"},
		IgnoreFiles:   []string{"*.png"},
		MaxLines:      500,
		MaxFileSizeKB: 5,
	}
	require.NoError(t, runconfig.Save(dir, cfg))

	got, err := runconfig.Load(dir, false)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadInvalidInteger(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "[Files]\nmax_flines = not-a-number\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, runconfig.FileName), []byte(content), 0o644))

	_, err := runconfig.Load(dir, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, runconfig.ErrInvalidConfigFile)
}
