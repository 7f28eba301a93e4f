package slot

import (
	"context"
	"encoding/json"
	"sync"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
)

// keyMutex hands out one mutex per key.
type keyMutex struct {
	mu      sync.Mutex
	mutexes map[string]*sync.Mutex
}

func (m *keyMutex) get(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mutexes == nil {
		m.mutexes = make(map[string]*sync.Mutex)
	}
	mu, ok := m.mutexes[key]
	if !ok {
		mu = &sync.Mutex{}
		m.mutexes[key] = mu
	}
	return mu
}

// Log is an append-only list stored as a JSON array in one slot.
//
// Appends from one context are serialized per key. Appends from different
// contexts are read-modify-write without a shared lock, so a concurrent append
// in another context can be lost. A corrupted log is replaced by a fresh one.
type Log struct {
	store *Store
	locks keyMutex
}

func NewLog(store *Store) *Log {
	return &Log{store: store}
}

// Store returns the slot store the log writes through.
func (l *Log) Store() *Store { return l.store }

// Append adds entry at the end of the log under key. Failures are reported
// through the store's error channel.
func (l *Log) Append(ctx context.Context, key string, entry any) {
	if err := l.AppendErr(ctx, key, entry); err != nil {
		l.store.reportWriteFailure(key, err)
	}
}

// AppendErr is Append for callers that want the error.
func (l *Log) AppendErr(ctx context.Context, key string, entry any) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryCodec, "failed to encode log entry").
			WithContext("key", key).
			Build()
	}

	mu := l.locks.get(key)
	mu.Lock()
	defer mu.Unlock()

	res := l.store.Lookup(ctx, key)
	if res.Status == Unavailable {
		// An unreadable log is left untouched.
		return res.Err
	}
	list, err := Decode[[]json.RawMessage](res)
	if err != nil {
		list = nil
	}
	list = append(list, encoded)
	return l.store.WriteErr(ctx, key, list)
}

// Entries reads the log under key; an absent or corrupted log reads as empty.
func Entries[T any](ctx context.Context, l *Log, key string) []T {
	return Read(ctx, l.store, key, []T{})
}
