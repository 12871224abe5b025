package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/llmtxt/internal/config"
)

func TestFind(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, config.SaveConfig(root, config.Default()))
	nested := filepath.Join(root, "public", "docs")
	require.NoError(t, os.MkdirAll(nested, 0755))

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)

	t.Run("from the project directory", func(t *testing.T) {
		got, ok := Find(want)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("from a nested directory", func(t *testing.T) {
		got, ok := Find(filepath.Join(want, "public", "docs"))
		require.True(t, ok)
		assert.Equal(t, want, got)
	})
}

func TestFind_NoConfig(t *testing.T) {
	dir := t.TempDir()
	// A directory named like the config is not a config.
	require.NoError(t, os.MkdirAll(config.Path(dir), 0755))

	got, ok := Find(dir)
	if ok {
		// Only acceptable when some ancestor of the temp dir is itself a project.
		assert.NotEqual(t, dir, got)
	}
}

func TestDir_FallsBackToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	got, err := Dir()
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotReal, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	if _, ok := Find(dir); !ok {
		assert.Equal(t, want, gotReal)
	}
}
