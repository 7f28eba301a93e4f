package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusforge/internal/metrics"
	"git.home.luguber.info/inful/focusforge/internal/suite"
)

type cliEnv struct {
	t          *testing.T
	dataDir    string
	configPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{t: t, dataDir: filepath.Join(dir, "data"), configPath: filepath.Join(dir, "focusforge.yaml")}
	cfg := "version: \"1\"\n" +
		"storage:\n  backend: file\n  dir: " + env.dataDir + "\n" +
		"retry:\n  max_retries: -1\n" +
		"logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))
	t.Chdir(dir)
	return env
}

func (e *cliEnv) run(args ...string) (code int, stdout, stderr string) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	code = Main(append([]string{"-c", e.configPath}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v), raw)
	return v
}

func TestTaskAddAndList(t *testing.T) {
	env := newCLIEnv(t)

	code, out, stderr := env.run("task", "add", "Write", "blog", "--estimate", "2")
	require.Equal(t, 0, code, stderr)
	added := decode[suite.Task](t, out)
	assert.Equal(t, "Write blog", added.Title)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "focus", added.Source)

	code, out, stderr = env.run("task", "list")
	require.Equal(t, 0, code, stderr)
	tasks := decode[[]suite.Task](t, out)
	require.Len(t, tasks, 1)
	assert.Equal(t, added.ID, tasks[0].ID)
	assert.Equal(t, 2, tasks[0].Estimate)
}

func TestTaskAdd_EmptyTitleIsUsageError(t *testing.T) {
	env := newCLIEnv(t)
	code, _, stderr := env.run("task", "add", "  ")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "task title is empty")
}

func TestIntention(t *testing.T) {
	env := newCLIEnv(t)

	code, _, _ := env.run("intention", "get")
	assert.Equal(t, 3, code, "absent intention maps to not found")

	code, out, stderr := env.run("intention", "set", "Draft report", "--meta", "source=coach")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "coach", decode[suite.Intention](t, out).Source)

	code, out, _ = env.run("intention", "get")
	require.Equal(t, 0, code)
	assert.Equal(t, "Draft report", decode[suite.Intention](t, out).Text)

	code, out, _ = env.run("intention", "list")
	require.Equal(t, 0, code)
	assert.Len(t, decode[[]suite.Intention](t, out), 1)
}

func TestJournal(t *testing.T) {
	env := newCLIEnv(t)

	code, out, stderr := env.run("journal", "add", "mood=calm", "id=mine")
	require.Equal(t, 0, code, stderr)
	entry := decode[map[string]any](t, out)
	assert.Equal(t, "calm", entry["mood"])
	assert.NotEqual(t, "mine", entry["id"])

	code, _, stderr = env.run("journal", "add", "no-separator")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "key=value")
}

func TestRitualAndInsightAndOutcome(t *testing.T) {
	env := newCLIEnv(t)

	code, _, _ := env.run("ritual", "get")
	assert.Equal(t, 3, code)

	code, _, stderr := env.run("ritual", "set", "box-breathing", "high", "stress")
	require.Equal(t, 0, code, stderr)
	code, out, _ := env.run("ritual", "get")
	require.Equal(t, 0, code)
	ritual := decode[suite.SuggestedRitual](t, out)
	assert.Equal(t, "box-breathing", ritual.RitualID)
	assert.Equal(t, "high stress", ritual.Reason)

	code, _, stderr = env.run("insight", "add", "mornings work best")
	require.Equal(t, 0, code, stderr)
	code, out, _ = env.run("insight", "list")
	require.Equal(t, 0, code)
	assert.Len(t, decode[[]suite.Insight](t, out), 1)

	code, _, stderr = env.run("outcome", "add", "Inbox", "--success", "--duration", "25")
	require.Equal(t, 0, code, stderr)
	code, out, _ = env.run("outcome", "list")
	require.Equal(t, 0, code)
	outcomes := decode[[]suite.TaskOutcome](t, out)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, 25, outcomes[0].Duration)
}

func TestLog_ReportsLookupStatus(t *testing.T) {
	env := newCLIEnv(t)

	code, out, _ := env.run("log", suite.KeyInsights)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "suite.insights: not_found")

	require.NoError(t, os.MkdirAll(env.dataDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(env.dataDir, suite.KeyInsights+".json"), []byte("{oops"), 0o600))
	code, out, _ = env.run("log", suite.KeyInsights)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "suite.insights: corrupted")
	assert.Contains(t, out, "{oops")

	code, _, _ = env.run("task", "add", "Plan")
	require.Equal(t, 0, code)
	code, out, _ = env.run("log", suite.KeyTasks)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "suite.tasks: found")
	assert.Contains(t, out, "Plan")

	code, _, _ = env.run("log", "../etc/passwd")
	assert.Equal(t, 2, code)
}

func TestLog_ListsStoredKeys(t *testing.T) {
	env := newCLIEnv(t)

	code, _, stderr := env.run("intention", "set", "Draft report")
	require.Equal(t, 0, code, stderr)
	code, _, stderr = env.run("task", "add", "Plan")
	require.Equal(t, 0, code, stderr)

	code, out, stderr := env.run("log")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for i, key := range []string{suite.KeyCurrentIntention, suite.KeyIntentions, suite.KeyTasks} {
		name, stamp, ok := strings.Cut(lines[i], "\t")
		require.True(t, ok, "file backend records write times: %q", lines[i])
		assert.Equal(t, key, name)
		_, err := time.Parse(time.RFC3339, stamp)
		assert.NoError(t, err)
	}
}

func TestTimer_RecordsOutcome(t *testing.T) {
	env := newCLIEnv(t)

	code, out, stderr := env.run("timer", "--work", "1", "--name", "Deep work", "--tick", "1ms")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, `session "Deep work" complete`)

	code, out, _ = env.run("outcome", "list")
	require.Equal(t, 0, code)
	outcomes := decode[[]suite.TaskOutcome](t, out)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "Deep work", outcomes[0].Title)
	assert.Equal(t, 1, outcomes[0].Duration)
}

func TestMissingConfigIsConfigError(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Main([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml"), "task", "list"}, &out, &errOut)
	assert.Equal(t, 7, code)
}

func TestOpenBus_ReusesInstalledBus(t *testing.T) {
	env := newCLIEnv(t)
	g := &Global{Out: io.Discard, Err: io.Discard, Logger: slog.New(slog.DiscardHandler), Recorder: metrics.NoopRecorder{}}
	root := &CLI{Config: env.configPath}
	ctx := context.Background()

	first, cfg, err := g.openBus(ctx, root)
	require.NoError(t, err)
	second, again, err := g.openBus(ctx, root)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, cfg, again)
	assert.Same(t, first, g.host.Bus())
	g.closeBus()
}
