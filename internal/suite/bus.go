// Package suite is the shared state bus of the Focus Forge suite: named domain
// operations over shared slots and logs, plus change subscription.
//
// Every operation returns the record it built and never an error; persistence
// failures go to the slot store's error channel.
package suite

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/focusforge/internal/notify"
	"git.home.luguber.info/inful/focusforge/internal/slot"
)

// DefaultSource tags records when neither the caller nor the configuration names one.
const DefaultSource = "focus"

// Bus is one context's handle on the shared state. It is safe for concurrent use.
type Bus struct {
	store   *slot.Store
	log     *slot.Log
	source  string
	now     func() time.Time
	newID   func() string
	closers []io.Closer
}

// Option configures a Bus.
type Option func(*Bus)

// WithSource sets the source stamped on records that do not carry one.
func WithSource(source string) Option {
	return func(b *Bus) {
		if source != "" {
			b.source = source
		}
	}
}

func WithClock(now func() time.Time) Option { return func(b *Bus) { b.now = now } }

func WithIDGenerator(newID func() string) Option { return func(b *Bus) { b.newID = newID } }

// WithClosers registers resources released by Close, in order.
func WithClosers(closers ...io.Closer) Option {
	return func(b *Bus) { b.closers = append(b.closers, closers...) }
}

func New(store *slot.Store, opts ...Option) *Bus {
	b := &Bus{
		store:  store,
		log:    slot.NewLog(store),
		source: DefaultSource,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Source is the default source of this bus.
func (b *Bus) Source() string { return b.source }

// Origin identifies the context this bus belongs to.
func (b *Bus) Origin() string { return b.store.Origin() }

// Store exposes the slot store for context-local slots.
func (b *Bus) Store() *slot.Store { return b.store }

func (b *Bus) stamp() (string, time.Time) {
	return b.newID(), b.now().UTC()
}

func (b *Bus) sourceOr(source string) string {
	if source != "" {
		return source
	}
	return b.source
}

func metaSource(meta Meta) string {
	if s, ok := meta["source"].(string); ok {
		return s
	}
	return ""
}

// SetCurrentIntention replaces the current intention and appends the same record
// to the intentions log. The two writes are independent.
func (b *Bus) SetCurrentIntention(ctx context.Context, text string, meta Meta) Intention {
	if meta == nil {
		meta = Meta{}
	}
	id, at := b.stamp()
	rec := Intention{ID: id, At: at, Text: text, Meta: meta, Source: b.sourceOr(metaSource(meta))}
	b.store.Write(ctx, KeyCurrentIntention, rec)
	b.log.Append(ctx, KeyIntentions, rec)
	return rec
}

// AddTask appends task with a bus-assigned id and creation time.
func (b *Bus) AddTask(ctx context.Context, task Task) Task {
	task.ID, task.CreatedAt = b.stamp()
	task.Source = b.sourceOr(task.Source)
	b.log.Append(ctx, KeyTasks, task)
	return task
}

// AddTaskOutcome appends outcome with a bus-assigned id and time.
func (b *Bus) AddTaskOutcome(ctx context.Context, outcome TaskOutcome) TaskOutcome {
	outcome.ID, outcome.At = b.stamp()
	outcome.Source = b.sourceOr(outcome.Source)
	b.log.Append(ctx, KeyTaskOutcomes, outcome)
	return outcome
}

// AddJournal appends a copy of entry whose "id" and "at" are set by the bus.
func (b *Bus) AddJournal(ctx context.Context, entry Journal) Journal {
	id, at := b.stamp()
	rec := make(Journal, len(entry)+2)
	for k, v := range entry {
		rec[k] = v
	}
	rec["id"] = id
	rec["at"] = at.Format(time.RFC3339Nano)
	b.log.Append(ctx, KeyJournals, rec)
	return rec
}

// AddInsight appends an insight. Its source is meta["source"] when set.
func (b *Bus) AddInsight(ctx context.Context, content string, meta Meta) Insight {
	if meta == nil {
		meta = Meta{}
	}
	id, at := b.stamp()
	rec := Insight{ID: id, At: at, Content: content, Meta: meta, Source: b.sourceOr(metaSource(meta))}
	b.log.Append(ctx, KeyInsights, rec)
	return rec
}

// SetSuggestedRitual overwrites the suggested ritual slot.
func (b *Bus) SetSuggestedRitual(ctx context.Context, ritualID, reason string) SuggestedRitual {
	rec := SuggestedRitual{RitualID: ritualID, Reason: reason, At: b.now().UTC(), Source: b.source}
	b.store.Write(ctx, KeySuggestedRitual, rec)
	return rec
}

// GetSuggestedRitual returns nil when no usable ritual is stored.
func (b *Bus) GetSuggestedRitual(ctx context.Context) *SuggestedRitual {
	return slot.Read[*SuggestedRitual](ctx, b.store, KeySuggestedRitual, nil)
}

// GetCurrentIntention returns nil when no usable intention is stored.
func (b *Bus) GetCurrentIntention(ctx context.Context) *Intention {
	return slot.Read[*Intention](ctx, b.store, KeyCurrentIntention, nil)
}

func (b *Bus) Tasks(ctx context.Context) []Task {
	return slot.Entries[Task](ctx, b.log, KeyTasks)
}

func (b *Bus) TaskOutcomes(ctx context.Context) []TaskOutcome {
	return slot.Entries[TaskOutcome](ctx, b.log, KeyTaskOutcomes)
}

func (b *Bus) Intentions(ctx context.Context) []Intention {
	return slot.Entries[Intention](ctx, b.log, KeyIntentions)
}

func (b *Bus) Journals(ctx context.Context) []Journal {
	return slot.Entries[Journal](ctx, b.log, KeyJournals)
}

func (b *Bus) Insights(ctx context.Context) []Insight {
	return slot.Entries[Insight](ctx, b.log, KeyInsights)
}

// Subscribe registers h for changes of key made by other contexts. Use
// notify.AllKeys for every key.
func (b *Bus) Subscribe(key string, h notify.Handler) (unsubscribe func()) {
	n := b.store.Notifier()
	if n == nil {
		return func() {}
	}
	return n.Subscribe(key, h)
}

// Close releases the resources registered with WithClosers.
func (b *Bus) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return stderrors.Join(errs...)
}
