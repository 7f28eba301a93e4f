package storage

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/logfields"
)

// NATSOptions configures the JetStream KV bucket.
type NATSOptions struct {
	Bucket   string
	MaxBytes int64
	Timeout  time.Duration // bucket lookup/creation timeout
}

// NATSStore is a Backend on a JetStream KeyValue bucket that keeps one revision per key.
// The NATS connection is owned by the caller.
type NATSStore struct {
	kv     jetstream.KeyValue
	bucket string
}

// ConnectNATS dials url with the given timeout and a client name used in server monitoring.
func ConnectNATS(url string, timeout time.Duration) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("focusforge"), nats.Timeout(timeout))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).
			Retryable().
			Build()
	}
	return conn, nil
}

// NewNATSStore binds to the bucket, creating it when it does not exist yet.
func NewNATSStore(ctx context.Context, conn *nats.Conn, opts NATSOptions) (*NATSStore, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, natsFailure(err, "jetstream", "")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	kv, err := js.KeyValue(ctx, opts.Bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      opts.Bucket,
			Description: "Focus Forge shared state",
			MaxBytes:    opts.MaxBytes,
			History:     1,
		})
		if err != nil {
			return nil, natsFailure(err, "create bucket", "")
		}
		slog.Info("Created KV bucket for shared state", logfields.Bucket(opts.Bucket))
	}
	return &NATSStore{kv: kv, bucket: opts.Bucket}, nil
}

func (s *NATSStore) Name() string { return "nats" }

func (s *NATSStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound{Key: key}
		}
		return nil, natsFailure(err, "read", key)
	}
	return entry.Value(), nil
}

func (s *NATSStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.kv.Put(ctx, key, value); err != nil {
		return natsFailure(err, "write", key)
	}
	return nil
}

func (s *NATSStore) Keys(ctx context.Context) ([]string, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, natsFailure(err, "list", "")
	}
	defer func() { _ = lister.Stop() }()

	var keys []string
	for k := range lister.Keys() {
		keys = append(keys, k)
	}
	return keys, nil
}

// Close is a no-op; the connection passed to NewNATSStore stays open.
func (s *NATSStore) Close() error { return nil }

func natsFailure(err error, op, key string) error {
	return errors.WrapError(err, errors.CategoryStorage, "nats "+op+" failed").
		WithContext("backend", "nats").
		WithContext("key", key).
		Retryable().
		Build()
}
