package notify

import (
	"context"
	stderrors "errors"
)

// Multi fans one context's broadcasts out to several transports and merges their
// deliveries, e.g. the in-process hub plus NATS.
type Multi struct {
	transports []Notifier
}

func NewMulti(transports ...Notifier) *Multi {
	return &Multi{transports: transports}
}

// Broadcast sends on every transport and joins their errors.
func (m *Multi) Broadcast(ctx context.Context, c Change) error {
	var errs []error
	for _, n := range m.transports {
		if err := n.Broadcast(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (m *Multi) Subscribe(key string, h Handler) func() {
	unsubs := make([]func(), 0, len(m.transports))
	for _, n := range m.transports {
		unsubs = append(unsubs, n.Subscribe(key, h))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (m *Multi) Close() error {
	var errs []error
	for _, n := range m.transports {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
