package filesystem_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/llmtxt/internal/adapters/filesystem"
	"github.com/example/llmtxt/internal/ports/secondary"
)

func newTestRoot(t *testing.T) *filesystem.DocumentRoot {
	t.Helper()
	root, err := filesystem.NewDocumentRoot(t.TempDir(), filesystem.NewTouchLog(), nil)
	require.NoError(t, err)
	return root
}

func TestDocumentRoot_WriteAndSnapshot(t *testing.T) {
	root := newTestRoot(t)
	ctx := context.Background()

	snap, err := root.Snapshot(ctx, []string{"llm.txt", "llm-full.txt"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"llm.txt": false, "llm-full.txt": false}, snap)

	path, err := root.Write(ctx, "llm.txt", "A")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root.Root(), "llm.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))

	snap, err = root.Snapshot(ctx, []string{"llm.txt", "llm-full.txt"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"llm.txt": true, "llm-full.txt": false}, snap)
}

func TestDocumentRoot_WriteOverwritesAndLeavesNoTemp(t *testing.T) {
	root := newTestRoot(t)
	ctx := context.Background()

	_, err := root.Write(ctx, "llm-full.txt", "old content that is longer")
	require.NoError(t, err)
	_, err = root.Write(ctx, "llm-full.txt", "new")
	require.NoError(t, err)

	data, err := os.ReadFile(root.Path("llm-full.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(root.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "llm-full.txt", entries[0].Name())
}

func TestDocumentRoot_WriteRejectsPaths(t *testing.T) {
	root := newTestRoot(t)

	_, err := root.Write(context.Background(), "../escape.txt", "x")
	assert.Error(t, err)
	_, err = root.Write(context.Background(), "", "x")
	assert.Error(t, err)
}

func TestDocumentRoot_Resolve(t *testing.T) {
	root := newTestRoot(t)
	ctx := context.Background()

	inside, err := root.Write(ctx, "llm.txt", "A")
	require.NoError(t, err)

	t.Run("inside root", func(t *testing.T) {
		got, err := root.Resolve(ctx, inside)
		require.NoError(t, err)
		assert.Equal(t, inside, got)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := root.Resolve(ctx, root.Path("llm-full.txt"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("outside root", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "llm.txt")
		require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

		_, err := root.Resolve(ctx, outside)
		require.Error(t, err)
		assert.True(t, errors.Is(err, secondary.ErrOutsideRoot))
	})

	t.Run("dot-dot traversal", func(t *testing.T) {
		parentFile := filepath.Join(filepath.Dir(root.Root()), "llm.txt.backup.X")
		require.NoError(t, os.WriteFile(parentFile, []byte("x"), 0644))
		t.Cleanup(func() { os.Remove(parentFile) })

		_, err := root.Resolve(ctx, filepath.Join(root.Root(), "..", "llm.txt.backup.X"))
		assert.True(t, errors.Is(err, secondary.ErrOutsideRoot))
	})

	t.Run("symlink escaping root", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secret.txt")
		require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
		link := root.Path("llm.txt.backup.link")
		require.NoError(t, os.Symlink(target, link))

		_, err := root.Resolve(ctx, link)
		assert.True(t, errors.Is(err, secondary.ErrOutsideRoot))
	})

	t.Run("root itself", func(t *testing.T) {
		_, err := root.Resolve(ctx, root.Root())
		assert.True(t, errors.Is(err, secondary.ErrOutsideRoot))
	})
}

func TestDocumentRoot_Remove(t *testing.T) {
	root := newTestRoot(t)
	ctx := context.Background()

	path, err := root.Write(ctx, "llm.txt", "A")
	require.NoError(t, err)

	require.NoError(t, root.Remove(ctx, path))
	exists, err := root.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	outside := filepath.Join(t.TempDir(), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))
	err = root.Remove(ctx, outside)
	assert.True(t, errors.Is(err, secondary.ErrOutsideRoot))
	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr, "file outside root must survive")
}

func TestNewDocumentRoot_Empty(t *testing.T) {
	_, err := filesystem.NewDocumentRoot("", nil, nil)
	assert.Error(t, err)
}
