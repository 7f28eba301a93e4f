package suite

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/focusforge/internal/config"
	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/logfields"
	"git.home.luguber.info/inful/focusforge/internal/metrics"
	"git.home.luguber.info/inful/focusforge/internal/notify"
	"git.home.luguber.info/inful/focusforge/internal/retry"
	"git.home.luguber.info/inful/focusforge/internal/slot"
	"git.home.luguber.info/inful/focusforge/internal/storage"
)

// OpenOptions carries the process-level collaborators of Open.
type OpenOptions struct {
	// Hub links contexts of the same process for the local transport. A private
	// hub is created when nil.
	Hub *notify.Hub
	// Backend overrides the configured storage backend. It is not closed by the bus.
	Backend  storage.Backend
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// Origin identifies the context; a random one is generated when empty.
	Origin    string
	ErrorHook slot.ErrorHook
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Open builds a Bus for one context from configuration: the storage backend, the
// notification transports and the retry policy.
func Open(ctx context.Context, cfg *config.Config, opts OpenOptions) (*Bus, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Origin == "" {
		opts.Origin = uuid.NewString()
	}
	logger := opts.Logger.With(logfields.Origin(opts.Origin))

	var (
		closers    []io.Closer
		transports []notify.Notifier
	)
	fail := func(err error) (*Bus, error) {
		for _, t := range transports {
			_ = t.Close()
		}
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		return nil, err
	}

	var conn *nats.Conn
	natsConn := func() (*nats.Conn, error) {
		if conn != nil {
			return conn, nil
		}
		c, err := storage.ConnectNATS(cfg.NATS.URL, cfg.NATS.ConnectTimeoutDuration())
		if err != nil {
			return nil, err
		}
		conn = c
		closers = append(closers, closerFunc(func() error { c.Close(); return nil }))
		return c, nil
	}

	backend := opts.Backend
	if backend == nil {
		b, err := openBackend(ctx, cfg, natsConn)
		if err != nil {
			return fail(err)
		}
		backend = b
		closers = append(closers, b)
	}

	if opts.Hub != nil && len(cfg.Notify.Transports) > 1 && slices.Contains(cfg.Notify.Transports, config.NotifyLocal) {
		// Peers on the shared hub would also hear the write through the other transport.
		return fail(ferrors.ConfigError("local notify transport cannot be combined with a cross-process transport on a shared hub").
			WithContext("transports", cfg.Notify.Transports).
			Build())
	}

	nopts := []notify.Option{notify.WithLogger(logger), notify.WithRecorder(opts.Recorder)}
	for _, t := range cfg.Notify.Transports {
		switch t {
		case config.NotifyLocal:
			hub := opts.Hub
			if hub == nil {
				hub = notify.NewHub()
			}
			transports = append(transports, hub.Attach(opts.Origin, nopts...))
		case config.NotifyFile:
			fs, ok := backend.(*storage.FSStore)
			if !ok {
				return fail(ferrors.ConfigError("file notify transport requires the file storage backend").
					WithContext("backend", backend.Name()).
					Build())
			}
			fw, err := notify.NewFileWatch(ctx, fs.Dir(), nopts...)
			if err != nil {
				return fail(err)
			}
			transports = append(transports, fw)
		case config.NotifyNATS:
			c, err := natsConn()
			if err != nil {
				return fail(err)
			}
			n, err := notify.NewNATS(c, cfg.NATS.SubjectPrefix, opts.Origin, nopts...)
			if err != nil {
				return fail(err)
			}
			transports = append(transports, n)
		default:
			return fail(ferrors.ConfigError("unsupported notify transport").
				WithContext("transport", string(t)).
				Build())
		}
	}

	var notifier notify.Notifier
	switch len(transports) {
	case 0:
	case 1:
		notifier = transports[0]
	default:
		notifier = notify.NewMulti(transports...)
	}
	// Notifiers stop before the backend and connection they depend on.
	if notifier != nil {
		closers = append([]io.Closer{notifier}, closers...)
	}

	store := slot.New(backend, notifier, opts.Origin,
		slot.WithRetryPolicy(retry.FromConfig(cfg.Retry)),
		slot.WithTimeout(cfg.Storage.OperationTimeout()),
		slot.WithLogger(logger),
		slot.WithRecorder(opts.Recorder),
		slot.WithErrorHook(opts.ErrorHook),
	)

	logger.Debug("Opened shared state bus",
		logfields.Backend(backend.Name()),
		slog.Int("transports", len(transports)))

	return New(store, WithSource(cfg.Source), WithClosers(closers...)), nil
}

func openBackend(ctx context.Context, cfg *config.Config, natsConn func() (*nats.Conn, error)) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil
	case config.StorageFile:
		return storage.NewFSStore(cfg.Storage.Dir)
	case config.StorageSQLite:
		return storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	case config.StorageNATS:
		c, err := natsConn()
		if err != nil {
			return nil, err
		}
		return storage.NewNATSStore(ctx, c, storage.NATSOptions{
			Bucket:   cfg.NATS.Bucket,
			MaxBytes: cfg.NATS.MaxBytes,
			Timeout:  cfg.Storage.OperationTimeout(),
		})
	default:
		return nil, ferrors.ConfigError("unsupported storage backend").
			WithContext("backend", string(cfg.Storage.Backend)).
			Build()
	}
}
