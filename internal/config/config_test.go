package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "focusforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "focus", cfg.Source)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, []NotifyTransport{NotifyFile}, cfg.Notify.Transports)
	assert.Equal(t, 25, cfg.Session.WorkMinutes)
	assert.Equal(t, 5, cfg.Session.BreakMinutes)
	assert.Equal(t, RetryBackoffExponential, cfg.Retry.Backoff)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Storage.OperationTimeout())
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	dataDir := t.TempDir()
	t.Setenv("FF_DATA_DIR", dataDir)

	path := writeConfig(t, `version: "1"
source: planner
storage:
  backend: SQLite
  dir: ${FF_DATA_DIR}
session:
  work_minutes: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "planner", cfg.Source)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, dataDir, cfg.Storage.Dir)
	assert.Equal(t, filepath.Join(dataDir, "focusforge.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, []NotifyTransport{NotifyLocal}, cfg.Notify.Transports)
	assert.Equal(t, 50, cfg.Session.WorkMinutes)
	assert.Equal(t, 5, cfg.Session.BreakMinutes)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FF_TEST_BUCKET=from-dotenv\nFF_TEST_SOURCE=dotenv\n"), 0o600))
	t.Setenv("FF_TEST_SOURCE", "process")
	// Registered so the variable set by godotenv is cleaned up after the test.
	t.Setenv("FF_TEST_BUCKET", "")
	require.NoError(t, os.Unsetenv("FF_TEST_BUCKET"))

	path := writeConfig(t, `version: "1"
source: ${FF_TEST_SOURCE}
storage:
  backend: nats
nats:
  bucket: ${FF_TEST_BUCKET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "process", cfg.Source)
	assert.Equal(t, "from-dotenv", cfg.NATS.Bucket)
	assert.Equal(t, []NotifyTransport{NotifyNATS}, cfg.Notify.Transports)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		body string
	}{
		{"unsupported version", "version: \"2\"\n"},
		{"unknown backend", "version: \"1\"\nstorage:\n  backend: redis\n"},
		{"file transport without file backend", "version: \"1\"\nstorage:\n  backend: memory\nnotify:\n  transports: [file]\n"},
		{"bad duration", "version: \"1\"\nstorage:\n  timeout: soon\n"},
		{"initial exceeds max", "version: \"1\"\nretry:\n  initial_delay: 5s\n  max_delay: 1s\n"},
		{"malformed yaml", "version: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), "expected config category, got %v", err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	})
}

func TestRetryOptOut(t *testing.T) {
	cfg := &Config{Retry: RetryConfig{MaxRetries: -1}}
	require.NoError(t, ApplyDefaults(cfg))
	assert.Equal(t, 0, cfg.Retry.MaxRetries)
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, StorageNATS, NormalizeStorageBackend("  NATS "))
	assert.Equal(t, StorageBackend(""), NormalizeStorageBackend("redis"))
	assert.Equal(t, RetryBackoffLinear, NormalizeRetryBackoff("Linear"))
	assert.Equal(t, RetryBackoffMode(""), NormalizeRetryBackoff("random"))
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("warning"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("verbose"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
}
