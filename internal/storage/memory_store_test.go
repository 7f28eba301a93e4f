package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
)

func TestMemoryStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "suite.tasks", []byte(`[]`)))

	store.SetUnavailable(true)
	_, err := store.Get(ctx, "suite.tasks")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryStorage))
	assert.False(t, IsNotFound(err))
	assert.Error(t, store.Set(ctx, "suite.tasks", []byte(`[1]`)))

	store.SetUnavailable(false)
	got, err := store.Get(ctx, "suite.tasks")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got), "failed write must not have landed")
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte(`"abc"`)
	require.NoError(t, store.Set(ctx, "ff_block_name", value))
	value[1] = 'X'

	got, err := store.Get(ctx, "ff_block_name")
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(got))

	got[1] = 'Y'
	again, _ := store.Get(ctx, "ff_block_name")
	assert.Equal(t, `"abc"`, string(again))

	calls := store.Calls()
	assert.Equal(t, 1, calls.Set)
	assert.Equal(t, 2, calls.Get)
}
