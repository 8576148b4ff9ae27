package fileproc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.optionset.dev/optionset/internal/availability"
	"go.optionset.dev/optionset/internal/fileproc"
	"go.optionset.dev/optionset/internal/request"
	"go.optionset.dev/optionset/internal/stringtest"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestProcessAppliesSetting(t *testing.T) {
	t.Parallel()

	content := stringtest.JoinLF(
		"application pimpleFoam // @simulation transient",
		"//application simpleFoam // @simulation steady",
	)
	path := writeTemp(t, content)

	req := &request.InputRequest{Mode: request.ModeApplySetting, Tag: "@", Option: "simulation", Setting: "steady"}
	db := availability.NewDatabase()

	result, err := fileproc.Process(path, fileproc.DefaultConfig, req, db)
	require.NoError(t, err)
	assert.True(t, result.Modified)

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	want := stringtest.JoinLF(
		"//application pimpleFoam // @simulation transient",
		"application simpleFoam // @simulation steady",
	)
	assert.Equal(t, want, string(got))
}

func TestProcessDiscoverNeverWrites(t *testing.T) {
	t.Parallel()

	content := stringtest.JoinLF("application pimpleFoam // @simulation transient")
	path := writeTemp(t, content)

	before, err := os.Stat(path)
	require.NoError(t, err)

	req := &request.InputRequest{Mode: request.ModeShowAvailable}
	db := availability.NewDatabase()

	_, err = fileproc.Process(path, fileproc.DefaultConfig, req, db)
	require.NoError(t, err)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestProcessDryRunReportsWithoutWriting(t *testing.T) {
	t.Parallel()

	content := stringtest.JoinLF(
		"application pimpleFoam // @simulation transient",
		"//application simpleFoam // @simulation steady",
	)
	path := writeTemp(t, content)

	before, err := os.Stat(path)
	require.NoError(t, err)

	req := &request.InputRequest{Mode: request.ModeApplySetting, Tag: "@", Option: "simulation", Setting: "steady"}
	db := availability.NewDatabase()

	cfg := fileproc.DefaultConfig
	cfg.DryRun = true

	result, err := fileproc.Process(path, cfg, req, db)
	require.NoError(t, err)
	assert.True(t, result.Modified)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestProcessNoAnnotationsNoChange(t *testing.T) {
	t.Parallel()

	content := stringtest.JoinLF("plain line one", "plain line two")
	path := writeTemp(t, content)

	req := &request.InputRequest{Mode: request.ModeApplySetting, Tag: "@", Option: "x", Setting: "y"}
	db := availability.NewDatabase()

	result, err := fileproc.Process(path, fileproc.DefaultConfig, req, db)
	require.ErrorIs(t, err, fileproc.ErrNoCommentIndicator)
	assert.False(t, result.Modified)
}

func TestProcessSkipsTooLarge(t *testing.T) {
	t.Parallel()

	big := make([]byte, 20*1024)
	for i := range big {
		big[i] = 'x'
	}

	path := writeTemp(t, string(big))

	req := &request.InputRequest{Mode: request.ModeShowAvailable}
	db := availability.NewDatabase()

	cfg := fileproc.Config{MaxFileSizeKB: 10, MaxLines: 9999}
	_, err := fileproc.Process(path, cfg, req, db)
	require.ErrorIs(t, err, fileproc.ErrFileTooLarge)
}

func TestProcessSkipsBinary(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x01, 0x02}, 0o644))

	req := &request.InputRequest{Mode: request.ModeShowAvailable}
	db := availability.NewDatabase()

	_, err := fileproc.Process(path, fileproc.DefaultConfig, req, db)
	require.ErrorIs(t, err, fileproc.ErrBinaryFile)
}
