package config

import (
	"os"
	"path/filepath"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

var defaultAppliers = []DefaultApplier{
	&StorageDefaultApplier{},
	&NotifyDefaultApplier{},
	&NATSDefaultApplier{},
	&RetryDefaultApplier{},
	&SessionDefaultApplier{},
	&LoggingDefaultApplier{},
	&MetricsDefaultApplier{},
}

// ApplyDefaults fills zero values across all domains and normalizes enumerations.
func ApplyDefaults(cfg *Config) error {
	if cfg.Source == "" {
		cfg.Source = "focus"
	}
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// StorageDefaultApplier handles storage defaults.
type StorageDefaultApplier struct{}

func (s *StorageDefaultApplier) Domain() string { return "storage" }

func (s *StorageDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageFile
	} else if b := NormalizeStorageBackend(string(cfg.Storage.Backend)); b != "" {
		cfg.Storage.Backend = b
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = defaultDataDir()
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(cfg.Storage.Dir, "focusforge.db")
	}
	if cfg.Storage.Timeout == "" {
		cfg.Storage.Timeout = "5s"
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "focusforge")
	}
	return ".focusforge"
}

// NotifyDefaultApplier derives the transport from the storage backend when none
// is listed. File and NATS backends get only their cross-process transport: it
// already reaches contexts of the same process, and adding local would deliver
// every write to them twice.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Notify.Transports) == 0 {
		switch cfg.Storage.Backend {
		case StorageFile:
			cfg.Notify.Transports = []NotifyTransport{NotifyFile}
		case StorageNATS:
			cfg.Notify.Transports = []NotifyTransport{NotifyNATS}
		default:
			cfg.Notify.Transports = []NotifyTransport{NotifyLocal}
		}
		return nil
	}
	for i, t := range cfg.Notify.Transports {
		if nt := NormalizeNotifyTransport(string(t)); nt != "" {
			cfg.Notify.Transports[i] = nt
		}
	}
	return nil
}

// NATSDefaultApplier handles NATS defaults.
type NATSDefaultApplier struct{}

func (n *NATSDefaultApplier) Domain() string { return "nats" }

func (n *NATSDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://127.0.0.1:4222"
	}
	if cfg.NATS.Bucket == "" {
		cfg.NATS.Bucket = "focusforge"
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "focusforge.changes"
	}
	if cfg.NATS.MaxBytes == 0 {
		cfg.NATS.MaxBytes = 64 * 1024 * 1024
	}
	if cfg.NATS.ConnectTimeout == "" {
		cfg.NATS.ConnectTimeout = "5s"
	}
	return nil
}

// RetryDefaultApplier handles retry defaults.
type RetryDefaultApplier struct{}

func (r *RetryDefaultApplier) Domain() string { return "retry" }

func (r *RetryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Retry.Backoff == "" {
		cfg.Retry.Backoff = RetryBackoffExponential
	} else if m := NormalizeRetryBackoff(string(cfg.Retry.Backoff)); m != "" {
		cfg.Retry.Backoff = m
	}
	if cfg.Retry.InitialDelay == "" {
		cfg.Retry.InitialDelay = "100ms"
	}
	if cfg.Retry.MaxDelay == "" {
		cfg.Retry.MaxDelay = "2s"
	}
	switch {
	case cfg.Retry.MaxRetries == 0:
		cfg.Retry.MaxRetries = 2
	case cfg.Retry.MaxRetries < 0: // explicit opt-out
		cfg.Retry.MaxRetries = 0
	}
	return nil
}

// SessionDefaultApplier handles countdown length defaults.
type SessionDefaultApplier struct{}

func (s *SessionDefaultApplier) Domain() string { return "session" }

func (s *SessionDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Session.WorkMinutes <= 0 {
		cfg.Session.WorkMinutes = 25
	}
	if cfg.Session.BreakMinutes <= 0 {
		cfg.Session.BreakMinutes = 5
	}
	return nil
}

// LoggingDefaultApplier handles logging defaults.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

// MetricsDefaultApplier handles metrics defaults.
type MetricsDefaultApplier struct{}

func (m *MetricsDefaultApplier) Domain() string { return "metrics" }

func (m *MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = "127.0.0.1:9464"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}
