package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/focusforge/internal/foundation/errors"
)

// CurrentVersion is the only configuration file version understood by Load.
const CurrentVersion = "1"

// Config is the focusforge configuration file.
type Config struct {
	Version string        `yaml:"version"`
	Source  string        `yaml:"source"` // application name stamped on records (default "focus")
	Storage StorageConfig `yaml:"storage"`
	Notify  NotifyConfig  `yaml:"notify"`
	NATS    NATSConfig    `yaml:"nats"`
	Retry   RetryConfig   `yaml:"retry"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StorageConfig selects and configures the host key-value storage.
type StorageConfig struct {
	Backend    StorageBackend `yaml:"backend"`     // memory|file|sqlite|nats
	Dir        string         `yaml:"dir"`         // data directory for the file backend
	SQLitePath string         `yaml:"sqlite_path"` // database file for the sqlite backend
	Timeout    string         `yaml:"timeout"`     // per-operation timeout (duration string)
}

// NotifyConfig lists the change notification transports to combine.
type NotifyConfig struct {
	Transports []NotifyTransport `yaml:"transports"`
}

// NATSConfig configures the JetStream KV backend and the NATS notify transport.
type NATSConfig struct {
	URL            string `yaml:"url"`
	Bucket         string `yaml:"bucket"`
	SubjectPrefix  string `yaml:"subject_prefix"`
	MaxBytes       int64  `yaml:"max_bytes"`
	ConnectTimeout string `yaml:"connect_timeout"`
}

// RetryConfig drives the backoff applied to transient storage failures.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
	MaxRetries   int              `yaml:"max_retries"`
}

// SessionConfig holds the default countdown lengths in minutes.
type SessionConfig struct {
	WorkMinutes  int `yaml:"work_minutes"`
	BreakMinutes int `yaml:"break_minutes"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig toggles the Prometheus recorder.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
	Path       string `yaml:"path"`
}

// Load reads the configuration at configPath. An empty path yields the defaults.
// Environment variables from .env files are loaded first and ${VAR} references are
// expanded before parsing.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{Version: CurrentVersion}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.ConfigError("configuration file not found").
					WithContext("path", configPath).
					Build()
			}
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
				WithContext("path", configPath).
				Fatal().
				Build()
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
				WithContext("path", configPath).
				Fatal().
				Build()
		}
		if cfg.Version != CurrentVersion {
			return nil, errors.ConfigError("unsupported configuration version").
				WithContext("version", cfg.Version).
				WithContext("expected", CurrentVersion).
				Build()
		}
	}

	if err := ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a fully defaulted configuration without touching the filesystem.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	_ = ApplyDefaults(cfg)
	return cfg
}

// OperationTimeout is the storage timeout as a duration.
func (s StorageConfig) OperationTimeout() time.Duration {
	return parseDurationOr(s.Timeout, 5*time.Second)
}

// ConnectTimeoutDuration is the NATS dial timeout as a duration.
func (n NATSConfig) ConnectTimeoutDuration() time.Duration {
	return parseDurationOr(n.ConnectTimeout, 5*time.Second)
}

// Delays returns the parsed initial and max delays.
func (r RetryConfig) Delays() (initial, maxDelay time.Duration) {
	return parseDurationOr(r.InitialDelay, 100*time.Millisecond), parseDurationOr(r.MaxDelay, 2*time.Second)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
