package storage

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/focusforge/internal/foundation/errors"
)

// ErrUnavailable is returned by a MemoryStore switched to unavailable.
var ErrUnavailable = errors.StorageError("storage unavailable").WithContext("backend", "memory").Build()

// MemoryStore is an in-process Backend. Contexts sharing one MemoryStore see each
// other's writes immediately. It can be switched to unavailable to mimic a host
// that has storage disabled.
type MemoryStore struct {
	mu          sync.RWMutex
	values      map[string][]byte
	unavailable bool
	calls       MemoryCalls
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Get  int
	Set  int
	Keys int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Name() string { return "memory" }

// SetUnavailable makes every subsequent operation fail (true) or succeed again (false).
func (m *MemoryStore) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = unavailable
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++

	if m.unavailable {
		return nil, ErrUnavailable
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound{Key: key}
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Set++

	if m.unavailable {
		return ErrUnavailable
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Keys++

	if m.unavailable {
		return nil, ErrUnavailable
	}
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys, nil
}

// Calls returns a snapshot of the invocation counters.
func (m *MemoryStore) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MemoryStore) Close() error { return nil }
