package notify

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/logfields"
)

// NATS message headers carrying change metadata; the payload is the new value.
const (
	HeaderOrigin = "Origin"
	HeaderAt     = "At"
)

// NATS publishes changes on "<prefix>.<key>" subjects and delivers those published
// by other contexts. The connection is owned by the caller.
type NATS struct {
	conn   *nats.Conn
	prefix string
	origin string
	sub    *nats.Subscription
	reg    *registry
	closed atomic.Bool
}

// NewNATS subscribes to "<prefix>.>" on conn for the context identified by origin.
func NewNATS(conn *nats.Conn, prefix, origin string, opts ...Option) (*NATS, error) {
	n := &NATS{
		conn:   conn,
		prefix: strings.TrimSuffix(prefix, "."),
		origin: origin,
		reg:    newRegistry("nats", buildOptions(opts)),
	}
	sub, err := conn.Subscribe(n.prefix+".>", n.handleMsg)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to subscribe to change subjects").
			WithContext("subject", n.prefix+".>").
			Retryable().
			Build()
	}
	n.sub = sub
	return n, nil
}

// Subject returns the subject changes of key are published on.
func (n *NATS) Subject(key string) string { return n.prefix + "." + key }

func (n *NATS) Broadcast(_ context.Context, c Change) error {
	if n.closed.Load() {
		return ferrors.NotifyError("notifier is closed").WithContext("transport", "nats").Build()
	}
	if c.Origin == "" {
		c.Origin = n.origin
	}
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	msg := nats.NewMsg(n.Subject(c.Key))
	msg.Header.Set(HeaderOrigin, c.Origin)
	msg.Header.Set(HeaderAt, c.At.Format(time.RFC3339Nano))
	msg.Data = c.NewValue

	if err := n.conn.PublishMsg(msg); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to publish change").
			WithContext("subject", msg.Subject).
			Warning().
			Build()
	}
	n.reg.opts.recorder.IncNotification("nats", "sent")
	return nil
}

func (n *NATS) handleMsg(msg *nats.Msg) {
	origin := msg.Header.Get(HeaderOrigin)
	if origin == n.origin {
		return
	}
	key := strings.TrimPrefix(msg.Subject, n.prefix+".")
	at, err := time.Parse(time.RFC3339Nano, msg.Header.Get(HeaderAt))
	if err != nil {
		at = time.Now().UTC()
	}
	n.reg.opts.logger.Debug("Received change", logfields.Key(key), logfields.Origin(origin), logfields.Subject(msg.Subject))
	n.reg.dispatch(Change{Key: key, NewValue: msg.Data, Origin: origin, At: at})
}

func (n *NATS) Subscribe(key string, h Handler) func() {
	return n.reg.subscribe(key, h)
}

// Close drops the subscription; the connection stays open.
func (n *NATS) Close() error {
	if n.closed.Swap(true) {
		return nil
	}
	n.reg.close()
	if err := n.sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to unsubscribe").Warning().Build()
	}
	return nil
}
