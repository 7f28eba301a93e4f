package slot

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusforge/internal/retry"
	"git.home.luguber.info/inful/focusforge/internal/storage"
)

type entry struct {
	N    int    `json:"n"`
	Note string `json:"note,omitempty"`
}

func TestLog_AppendOrdering(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	log := NewLog(s)

	log.Append(ctx, "suite.insights", entry{N: 1})
	log.Append(ctx, "suite.insights", entry{N: 2})
	log.Append(ctx, "suite.insights", entry{N: 3})

	assert.Equal(t, []entry{{N: 1}, {N: 2}, {N: 3}}, Entries[entry](ctx, log, "suite.insights"))
}

func TestLog_EntriesDefaultsToEmpty(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	log := NewLog(s)

	got := Entries[entry](ctx, log, "suite.insights")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, backend.Set(ctx, "suite.insights", []byte(`{"not":"a list"}`)))
	assert.Empty(t, Entries[entry](ctx, log, "suite.insights"))
}

func TestLog_CorruptedLogIsReplaced(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	log := NewLog(s)

	require.NoError(t, backend.Set(ctx, "suite.tasks", []byte("[{broken")))
	log.Append(ctx, "suite.tasks", entry{N: 7})

	assert.Equal(t, []entry{{N: 7}}, Entries[entry](ctx, log, "suite.tasks"))
}

func TestLog_UnavailableStoreLeavesLogUntouched(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	log := NewLog(s)
	log.Append(ctx, "suite.tasks", entry{N: 1})

	backend.SetUnavailable(true)
	assert.Error(t, log.AppendErr(ctx, "suite.tasks", entry{N: 2}))
	backend.SetUnavailable(false)

	assert.Equal(t, []entry{{N: 1}}, Entries[entry](ctx, log, "suite.tasks"))
}

func TestLog_EntryCapturedAtCallTime(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	log := NewLog(s)

	e := &entry{N: 1, Note: "before"}
	log.Append(ctx, "suite.journals", e)
	e.Note = "after"

	assert.Equal(t, "before", Entries[entry](ctx, log, "suite.journals")[0].Note)
}

func TestLog_ConcurrentAppendsInOneContextAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStore(), nil, "ctx-test", WithRetryPolicy(retry.NoRetry()))
	log := NewLog(s)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.Append(ctx, "suite.taskOutcomes", entry{N: n, Note: fmt.Sprint(n)})
		}(i)
	}
	wg.Wait()

	assert.Len(t, Entries[entry](ctx, log, "suite.taskOutcomes"), 50)
}
