package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreFileLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "suite.tasks", []byte(`[]`)))

	data, err := os.ReadFile(filepath.Join(dir, "suite.tasks.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFSStoreSharedDirectory(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFSStore(dir)
	require.NoError(t, err)
	b, err := NewFSStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Set(ctx, "suite.insights", []byte(`[{"id":"1"}]`)))

	got, err := b.Get(ctx, "suite.insights")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(got))
}

func TestFSStoreKeysIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".suite.tasks.json.tmp-1"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o750))
	require.NoError(t, store.Set(context.Background(), "ff_mode", []byte(`"work"`)))

	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ff_mode"}, keys)
}

func TestKeyFromPath(t *testing.T) {
	tests := []struct {
		path string
		key  string
		ok   bool
	}{
		{"/data/suite.tasks.json", "suite.tasks", true},
		{"ff_work.json", "ff_work", true},
		{"/data/.suite.tasks.json.tmp-123", "", false},
		{"/data/readme.md", "", false},
	}
	for _, tt := range tests {
		key, ok := KeyFromPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.key, key, tt.path)
	}
}

func TestFSStoreHonoursCancelledContext(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Set(ctx, "ff_mode", []byte(`"work"`)), context.Canceled)
}

func TestFSStoreUpdatedAt(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	var _ Timestamped = store
	require.NoError(t, store.Set(ctx, "ff_mode", []byte(`"work"`)))

	at, err := store.UpdatedAt(ctx, "ff_mode")
	require.NoError(t, err)
	assert.False(t, at.IsZero())

	_, err = store.UpdatedAt(ctx, "ff_break")
	assert.True(t, IsNotFound(err))
}
