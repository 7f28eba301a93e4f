package config

import (
	"time"

	"git.home.luguber.info/inful/focusforge/internal/foundation/errors"
)

// Validate checks a defaulted configuration and returns a classified config error.
func Validate(cfg *Config) error {
	if NormalizeStorageBackend(string(cfg.Storage.Backend)) == "" {
		return errors.ConfigError("invalid storage backend").
			WithContext("backend", string(cfg.Storage.Backend)).
			WithContext("valid", "memory|file|sqlite|nats").
			Build()
	}
	for _, t := range cfg.Notify.Transports {
		if NormalizeNotifyTransport(string(t)) == "" {
			return errors.ConfigError("invalid notify transport").
				WithContext("transport", string(t)).
				WithContext("valid", "local|file|nats").
				Build()
		}
		if t == NotifyFile && cfg.Storage.Backend != StorageFile {
			return errors.ConfigError("file notify transport requires the file storage backend").
				WithContext("backend", string(cfg.Storage.Backend)).
				Build()
		}
	}
	if NormalizeRetryBackoff(string(cfg.Retry.Backoff)) == "" {
		return errors.ConfigError("invalid retry backoff").
			WithContext("backoff", string(cfg.Retry.Backoff)).
			Build()
	}
	for field, raw := range map[string]string{
		"storage.timeout":      cfg.Storage.Timeout,
		"nats.connect_timeout": cfg.NATS.ConnectTimeout,
		"retry.initial_delay":  cfg.Retry.InitialDelay,
		"retry.max_delay":      cfg.Retry.MaxDelay,
	} {
		if d, err := time.ParseDuration(raw); err != nil || d <= 0 {
			return errors.ConfigError("invalid duration").
				WithContext("field", field).
				WithContext("value", raw).
				Build()
		}
	}
	initial, maxDelay := cfg.Retry.Delays()
	if initial > maxDelay {
		return errors.ConfigError("retry.initial_delay cannot exceed retry.max_delay").Build()
	}
	return nil
}
