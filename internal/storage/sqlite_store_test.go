package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focusforge.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "suite.journals", []byte(`[{"id":"j1"}]`)))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, "suite.journals")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"j1"}]`, string(got))

	at, err := second.UpdatedAt(ctx, "suite.journals")
	require.NoError(t, err)
	assert.False(t, at.IsZero())

	_, err = second.UpdatedAt(ctx, "suite.tasks")
	assert.True(t, IsNotFound(err))
}
