package config

import (
	"log/slog"
	"strings"
)

// StorageBackend enumerates the supported host key-value stores.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageFile   StorageBackend = "file"
	StorageSQLite StorageBackend = "sqlite"
	StorageNATS   StorageBackend = "nats"
)

// NotifyTransport enumerates change notification transports.
type NotifyTransport string

const (
	NotifyLocal NotifyTransport = "local"
	NotifyFile  NotifyTransport = "file"
	NotifyNATS  NotifyTransport = "nats"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

func clean(raw string) string { return strings.ToLower(strings.TrimSpace(raw)) }

// NormalizeStorageBackend returns the typed backend, or "" for unknown input.
func NormalizeStorageBackend(raw string) StorageBackend {
	switch b := StorageBackend(clean(raw)); b {
	case StorageMemory, StorageFile, StorageSQLite, StorageNATS:
		return b
	default:
		return ""
	}
}

// NormalizeNotifyTransport returns the typed transport, or "" for unknown input.
func NormalizeNotifyTransport(raw string) NotifyTransport {
	switch t := NotifyTransport(clean(raw)); t {
	case NotifyLocal, NotifyFile, NotifyNATS:
		return t
	default:
		return ""
	}
}

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch m := RetryBackoffMode(clean(raw)); m {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
		return m
	default:
		return ""
	}
}

// NormalizeLogLevel maps input to a level; unknown input falls back to info.
func NormalizeLogLevel(raw string) LogLevel {
	switch l := LogLevel(clean(raw)); l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return l
	case "warning":
		return LogLevelWarn
	default:
		return LogLevelInfo
	}
}

// NormalizeLogFormat maps input to a format; unknown input falls back to text.
func NormalizeLogFormat(raw string) LogFormat {
	if LogFormat(clean(raw)) == LogFormatJSON {
		return LogFormatJSON
	}
	return LogFormatText
}

// SlogLevel converts the configured level for slog handlers.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
