package notify

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) handle(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) snapshot() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}

func TestLocal_DeliversToOtherContextsOnly(t *testing.T) {
	hub := NewHub()
	a := hub.Attach("ctx-a")
	b := hub.Attach("ctx-b")
	defer a.Close()
	defer b.Close()

	var gotA, gotB recorder
	a.Subscribe("suite.tasks", gotA.handle)
	b.Subscribe("suite.tasks", gotB.handle)

	require.NoError(t, a.Broadcast(context.Background(), Change{Key: "suite.tasks", NewValue: json.RawMessage(`[]`)}))

	assert.Empty(t, gotA.snapshot(), "origin must not receive its own change")
	changes := gotB.snapshot()
	require.Len(t, changes, 1, "in-process delivery is synchronous")
	assert.Equal(t, "suite.tasks", changes[0].Key)
	assert.Equal(t, "ctx-a", changes[0].Origin)
	assert.JSONEq(t, `[]`, string(changes[0].NewValue))
	assert.False(t, changes[0].At.IsZero())
}

func TestLocal_KeyFilteringAndWildcard(t *testing.T) {
	hub := NewHub()
	a := hub.Attach("ctx-a")
	b := hub.Attach("ctx-b")

	var tasks, all recorder
	b.Subscribe("suite.tasks", tasks.handle)
	b.Subscribe(AllKeys, all.handle)

	ctx := context.Background()
	require.NoError(t, a.Broadcast(ctx, Change{Key: "suite.tasks"}))
	require.NoError(t, a.Broadcast(ctx, Change{Key: "suite.insights"}))

	assert.Len(t, tasks.snapshot(), 1)
	assert.Len(t, all.snapshot(), 2)
}

func TestLocal_Unsubscribe(t *testing.T) {
	hub := NewHub()
	a := hub.Attach("ctx-a")
	b := hub.Attach("ctx-b")

	var got recorder
	unsubscribe := b.Subscribe("suite.tasks", got.handle)
	require.Equal(t, 1, b.SubscriberCount())

	unsubscribe()
	unsubscribe() // idempotent
	assert.Equal(t, 0, b.SubscriberCount())

	require.NoError(t, a.Broadcast(context.Background(), Change{Key: "suite.tasks"}))
	assert.Empty(t, got.snapshot())
}

func TestLocal_HandlerPanicIsRecovered(t *testing.T) {
	hub := NewHub()
	a := hub.Attach("ctx-a")
	b := hub.Attach("ctx-b")

	var got recorder
	b.Subscribe("suite.tasks", func(Change) { panic("boom") })
	b.Subscribe("suite.tasks", got.handle)

	assert.NotPanics(t, func() {
		require.NoError(t, a.Broadcast(context.Background(), Change{Key: "suite.tasks"}))
	})
	assert.Len(t, got.snapshot(), 1, "other handlers still run")
}

func TestLocal_CloseDetaches(t *testing.T) {
	hub := NewHub()
	a := hub.Attach("ctx-a")
	b := hub.Attach("ctx-b")
	require.Equal(t, 2, hub.Members())

	var got recorder
	b.Subscribe(AllKeys, got.handle)
	require.NoError(t, b.Close())
	assert.Equal(t, 1, hub.Members())

	require.NoError(t, a.Broadcast(context.Background(), Change{Key: "suite.tasks"}))
	assert.Empty(t, got.snapshot())
	assert.Error(t, b.Broadcast(context.Background(), Change{Key: "suite.tasks"}))
}

func TestLocal_HandlerMayUnsubscribeItself(t *testing.T) {
	hub := NewHub()
	a := hub.Attach("ctx-a")
	b := hub.Attach("ctx-b")

	calls := 0
	var unsubscribe func()
	unsubscribe = b.Subscribe("suite.tasks", func(Change) {
		calls++
		unsubscribe()
	})

	ctx := context.Background()
	require.NoError(t, a.Broadcast(ctx, Change{Key: "suite.tasks"}))
	require.NoError(t, a.Broadcast(ctx, Change{Key: "suite.tasks"}))
	assert.Equal(t, 1, calls)
}
