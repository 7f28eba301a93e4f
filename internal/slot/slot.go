// Package slot implements durable keyed slots and append-only logs on top of a
// storage.Backend, with change notification after every successful write.
//
// Reads never fail: Read falls back to a caller-declared default when the value
// is absent, corrupted or the backend is unavailable. Lookup exposes the
// distinction for callers that need it.
package slot

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/logfields"
	"git.home.luguber.info/inful/focusforge/internal/metrics"
	"git.home.luguber.info/inful/focusforge/internal/notify"
	"git.home.luguber.info/inful/focusforge/internal/retry"
	"git.home.luguber.info/inful/focusforge/internal/storage"
)

// Status classifies a Lookup.
type Status uint8

const (
	NotFound Status = iota
	Found
	Corrupted
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Corrupted:
		return "corrupted"
	case Unavailable:
		return "unavailable"
	default:
		return "not_found"
	}
}

// Result is the outcome of a Lookup. Raw is set for Found and Corrupted; Err for
// Corrupted (the parse error) and Unavailable (the storage error).
type Result struct {
	Status Status
	Raw    json.RawMessage
	Err    error
}

// ErrorHook receives write failures that Write does not return.
type ErrorHook func(key string, err error)

// Store reads and writes JSON slots for one context.
type Store struct {
	backend  storage.Backend
	notifier notify.Notifier
	origin   string
	policy   retry.Policy
	timeout  time.Duration
	logger   *slog.Logger
	recorder metrics.Recorder
	onError  ErrorHook
}

// Option configures a Store.
type Option func(*Store)

func WithRetryPolicy(p retry.Policy) Option { return func(s *Store) { s.policy = p } }

func WithTimeout(d time.Duration) Option { return func(s *Store) { s.timeout = d } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

func WithRecorder(r metrics.Recorder) Option { return func(s *Store) { s.recorder = r } }

// WithErrorHook registers the error channel for failed fail-soft writes.
func WithErrorHook(h ErrorHook) Option { return func(s *Store) { s.onError = h } }

// New returns a Store for the context identified by origin. notifier may be nil,
// in which case writes are persisted without broadcasting.
func New(backend storage.Backend, notifier notify.Notifier, origin string, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		notifier: notifier,
		origin:   origin,
		policy:   retry.DefaultPolicy(),
		timeout:  5 * time.Second,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Origin identifies the context owning this store.
func (s *Store) Origin() string { return s.origin }

// Notifier returns the change notifier, which may be nil.
func (s *Store) Notifier() notify.Notifier { return s.notifier }

// Backend returns the underlying storage.
func (s *Store) Backend() storage.Backend { return s.backend }

// Keys lists the stored keys in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	keys, err := s.backend.Keys(ctx)
	if err != nil {
		s.logger.Warn("Listing keys failed", logfields.Backend(s.backend.Name()), logfields.Error(err))
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

// UpdatedAt reports when key was last written. ok is false when the backend
// does not track write times or the key is absent.
func (s *Store) UpdatedAt(ctx context.Context, key string) (at time.Time, ok bool) {
	ts, isTimestamped := s.backend.(storage.Timestamped)
	if !isTimestamped {
		return time.Time{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	at, err := ts.UpdatedAt(ctx, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Debug("Write time unavailable", logfields.Key(key), logfields.Error(err))
		}
		return time.Time{}, false
	}
	return at, true
}

// Lookup fetches the raw value of key and classifies it.
func (s *Store) Lookup(ctx context.Context, key string) Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.backend.Get(ctx, key)
	var res Result
	switch {
	case storage.IsNotFound(err):
		res = Result{Status: NotFound}
	case err != nil:
		res = Result{Status: Unavailable, Err: err}
		s.logger.Warn("Slot read failed", logfields.Key(key), logfields.Backend(s.backend.Name()), logfields.Error(err))
	case len(bytes.TrimSpace(raw)) == 0:
		res = Result{Status: NotFound}
	case !json.Valid(raw):
		res = Result{
			Status: Corrupted,
			Raw:    raw,
			Err:    ferrors.CodecError("stored value is not valid JSON").WithContext("key", key).Build(),
		}
		s.logger.Warn("Corrupted slot value", logfields.Key(key), logfields.Size(len(raw)))
	default:
		res = Result{Status: Found, Raw: raw}
	}
	s.recorder.IncSlotRead(key, readOutcome(res.Status))
	return res
}

func readOutcome(st Status) metrics.ReadOutcome {
	switch st {
	case Found:
		return metrics.ReadFound
	case Corrupted:
		return metrics.ReadCorrupted
	case Unavailable:
		return metrics.ReadUnavailable
	default:
		return metrics.ReadNotFound
	}
}

var jsonNull = []byte("null")

// Decode unmarshals a Found result into T. A stored JSON null counts as absent.
func Decode[T any](r Result) (T, error) {
	var v T
	switch r.Status {
	case Found:
	case NotFound:
		return v, ferrors.NotFoundError("slot has no value").Build()
	default:
		return v, r.Err
	}
	if bytes.Equal(bytes.TrimSpace(r.Raw), jsonNull) {
		return v, ferrors.NotFoundError("slot holds null").Build()
	}
	if err := json.Unmarshal(r.Raw, &v); err != nil {
		return v, ferrors.WrapError(err, ferrors.CategoryCodec, "stored value has the wrong shape").Build()
	}
	return v, nil
}

// Read returns the value stored under key, or a deep copy of def when the value
// is absent, null, corrupted, of the wrong shape or the backend is unavailable.
func Read[T any](ctx context.Context, s *Store, key string, def T) T {
	v, err := Decode[T](s.Lookup(ctx, key))
	if err != nil {
		if ferrors.HasCategory(err, ferrors.CategoryCodec) {
			s.logger.Debug("Falling back to default", logfields.Key(key), logfields.Error(err))
		}
		return clone(def)
	}
	return v
}

// clone deep-copies v through its JSON form so defaults are never aliased.
func clone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// Write persists value under key and broadcasts the change. Failures are logged
// and passed to the error hook, never returned.
func (s *Store) Write(ctx context.Context, key string, value any) {
	if err := s.WriteErr(ctx, key, value); err != nil {
		s.reportWriteFailure(key, err)
	}
}

// WriteErr is Write for callers that want the error.
func (s *Store) WriteErr(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		s.recorder.IncSlotWrite(key, metrics.ResultFailure)
		return ferrors.WrapError(err, ferrors.CategoryCodec, "failed to encode slot value").
			WithContext("key", key).
			Build()
	}
	return s.writeRaw(ctx, key, data)
}

func (s *Store) writeRaw(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.backend.Set(opCtx, key, data)
	}, ferrors.IsRetryable, func(attempt int, err error) {
		s.recorder.IncWriteRetry(key)
		s.logger.Warn("Retrying slot write", logfields.Key(key), logfields.Attempt(attempt), logfields.Error(err))
	})
	s.recorder.ObserveWriteDuration(s.backend.Name(), time.Since(start))
	if err != nil {
		s.recorder.IncSlotWrite(key, metrics.ResultFailure)
		return err
	}
	s.recorder.IncSlotWrite(key, metrics.ResultSuccess)

	if s.notifier != nil {
		change := notify.Change{Key: key, NewValue: data, Origin: s.origin, At: time.Now().UTC()}
		if nerr := s.notifier.Broadcast(ctx, change); nerr != nil {
			s.logger.Warn("Change broadcast failed", logfields.Key(key), logfields.Origin(s.origin), logfields.Error(nerr))
		}
	}
	return nil
}

func (s *Store) reportWriteFailure(key string, err error) {
	s.logger.Error("Slot write failed",
		logfields.Key(key),
		logfields.Backend(s.backend.Name()),
		logfields.Origin(s.origin),
		logfields.Error(err))
	if s.onError != nil {
		s.onError(key, err)
	}
}
