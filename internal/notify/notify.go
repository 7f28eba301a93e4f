// Package notify tells live contexts that a slot or log changed so they can re-read
// it without polling. Delivery is best-effort: there is no queue, replay or
// acknowledgement, and a context never receives the changes it broadcast itself.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/focusforge/internal/logfields"
	"git.home.luguber.info/inful/focusforge/internal/metrics"
)

// AllKeys subscribes a handler to every key.
const AllKeys = "*"

// Change describes one successful write.
type Change struct {
	Key      string          `json:"key"`
	NewValue json.RawMessage `json:"newValue"`
	Origin   string          `json:"origin"`
	At       time.Time       `json:"at"`
}

// Handler receives changes. It must not block for long; in-process delivery is synchronous.
type Handler func(Change)

// Notifier broadcasts changes of one context and delivers those of the others.
type Notifier interface {
	Broadcast(ctx context.Context, c Change) error
	Subscribe(key string, h Handler) (unsubscribe func())
	Close() error
}

type options struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	debounce time.Duration
}

// Option configures a transport.
type Option func(*options)

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func WithRecorder(r metrics.Recorder) Option { return func(o *options) { o.recorder = r } }

// WithDebounce sets how long the file watcher waits for a burst of file events to settle.
func WithDebounce(d time.Duration) Option { return func(o *options) { o.debounce = d } }

func buildOptions(opts []Option) options {
	o := options{
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		debounce: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// registry holds the handlers of one transport endpoint.
type registry struct {
	transport string
	opts      options

	mu     sync.RWMutex
	subs   map[string]map[uint64]Handler
	nextID atomic.Uint64
	closed atomic.Bool
}

func newRegistry(transport string, opts options) *registry {
	return &registry{
		transport: transport,
		opts:      opts,
		subs:      make(map[string]map[uint64]Handler),
	}
}

func (r *registry) subscribe(key string, h Handler) func() {
	if h == nil || r.closed.Load() {
		return func() {}
	}
	id := r.nextID.Add(1)

	r.mu.Lock()
	if r.subs[key] == nil {
		r.subs[key] = make(map[uint64]Handler)
	}
	r.subs[key][id] = h
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if keySubs, ok := r.subs[key]; ok {
				delete(keySubs, id)
				if len(keySubs) == 0 {
					delete(r.subs, key)
				}
			}
		})
	}
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, keySubs := range r.subs {
		n += len(keySubs)
	}
	return n
}

// dispatch calls every handler registered for c.Key or AllKeys. Handlers are
// snapshotted first so they may unsubscribe from inside the callback.
func (r *registry) dispatch(c Change) {
	if r.closed.Load() {
		return
	}
	r.mu.RLock()
	targets := make([]Handler, 0, len(r.subs[c.Key])+len(r.subs[AllKeys]))
	for _, h := range r.subs[c.Key] {
		targets = append(targets, h)
	}
	if c.Key != AllKeys {
		for _, h := range r.subs[AllKeys] {
			targets = append(targets, h)
		}
	}
	r.mu.RUnlock()

	r.opts.recorder.IncNotification(r.transport, "received")
	for _, h := range targets {
		r.call(h, c)
	}
}

func (r *registry) call(h Handler, c Change) {
	defer func() {
		if p := recover(); p != nil {
			r.opts.recorder.IncHandlerPanic(c.Key)
			r.opts.logger.Error("Change handler panicked",
				logfields.Key(c.Key),
				logfields.Transport(r.transport),
				slog.Any("panic", p))
		}
	}()
	h(c)
}

func (r *registry) close() {
	if r.closed.Swap(true) {
		return
	}
	r.mu.Lock()
	r.subs = make(map[string]map[uint64]Handler)
	r.mu.Unlock()
}
