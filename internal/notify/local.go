package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
)

// Hub connects the contexts living in one process.
type Hub struct {
	mu      sync.RWMutex
	members map[uint64]*Local
	nextID  atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{members: make(map[uint64]*Local)}
}

// Attach returns the endpoint of the context identified by origin.
func (h *Hub) Attach(origin string, opts ...Option) *Local {
	l := &Local{
		hub:    h,
		id:     h.nextID.Add(1),
		origin: origin,
		reg:    newRegistry("local", buildOptions(opts)),
	}
	h.mu.Lock()
	h.members[l.id] = l
	h.mu.Unlock()
	return l
}

// Members returns the number of attached endpoints.
func (h *Hub) Members() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

func (h *Hub) detach(id uint64) {
	h.mu.Lock()
	delete(h.members, id)
	h.mu.Unlock()
}

// Local is one context's endpoint on a Hub. Broadcast delivers synchronously to the
// handlers of every other attached endpoint before returning.
type Local struct {
	hub    *Hub
	id     uint64
	origin string
	reg    *registry
	closed atomic.Bool
}

// Origin identifies the owning context.
func (l *Local) Origin() string { return l.origin }

func (l *Local) Broadcast(ctx context.Context, c Change) error {
	if l.closed.Load() {
		return ferrors.NotifyError("notifier is closed").WithContext("transport", "local").Build()
	}
	if err := ctx.Err(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "broadcast canceled").Warning().Build()
	}
	if c.Origin == "" {
		c.Origin = l.origin
	}
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	l.reg.opts.recorder.IncNotification("local", "sent")

	l.hub.mu.RLock()
	targets := make([]*Local, 0, len(l.hub.members))
	for _, m := range l.hub.members {
		if m.origin != c.Origin {
			targets = append(targets, m)
		}
	}
	l.hub.mu.RUnlock()

	for _, m := range targets {
		m.reg.dispatch(c)
	}
	return nil
}

func (l *Local) Subscribe(key string, h Handler) func() {
	return l.reg.subscribe(key, h)
}

// SubscriberCount is intended for tests and diagnostics.
func (l *Local) SubscriberCount() int { return l.reg.count() }

func (l *Local) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.hub.detach(l.id)
	l.reg.close()
	return nil
}
