package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveListDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root, "/media")
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "uploads/recipe/a.png", strings.NewReader("a"), "image/png"))
	require.NoError(t, s.Save(ctx, "uploads/recipe/b.jpg", strings.NewReader("b"), "image/jpeg"))
	require.NoError(t, s.Save(ctx, "uploads/other/c.jpg", strings.NewReader("c"), "image/jpeg"))

	data, err := os.ReadFile(filepath.Join(root, "uploads", "recipe", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	keys, err := s.List(ctx, "uploads/recipe/")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"uploads/recipe/a.png", "uploads/recipe/b.jpg"}, keys)

	require.NoError(t, s.Delete(ctx, "uploads/recipe/a.png"))
	assert.ErrorIs(t, s.Delete(ctx, "uploads/recipe/a.png"), ErrNotFound)

	assert.Equal(t, "/media/uploads/recipe/b.jpg", s.URL("uploads/recipe/b.jpg"))
}

func TestLocalStore_ListMissingPrefix(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)

	keys, err := s.List(context.Background(), "uploads/recipe/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)

	for _, key := range []string{"../evil.png", "uploads/../../evil.png", "/abs.png", ""} {
		err := s.Save(context.Background(), key, strings.NewReader("x"), "image/png")
		assert.Error(t, err, key)
	}
}
