package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/focusforge/internal/config"
	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/metrics"
	"git.home.luguber.info/inful/focusforge/internal/suite"
	"git.home.luguber.info/inful/focusforge/internal/version"
)

// Global carries state shared by every command.
type Global struct {
	Logger   *slog.Logger
	Out      io.Writer
	Err      io.Writer
	Registry *prometheus.Registry
	Recorder metrics.Recorder

	// host keeps the process to one bus; cfg is the configuration it was opened with.
	host suite.Host
	cfg  *config.Config
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" env:"FOCUSFORGE_CONFIG" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Intention IntentionCmd `cmd:"" help:"Set or show the current intention"`
	Task      TaskCmd      `cmd:"" help:"Add or list shared tasks"`
	Outcome   OutcomeCmd   `cmd:"" help:"Record or list task outcomes"`
	Journal   JournalCmd   `cmd:"" help:"Append or list journal entries"`
	Insight   InsightCmd   `cmd:"" help:"Append or list insights"`
	Ritual    RitualCmd    `cmd:"" help:"Set or show the suggested ritual"`
	Log       LogCmd       `cmd:"" help:"Print the raw value stored under a key"`
	Watch     WatchCmd     `cmd:"" help:"Print changes made by other contexts until interrupted"`
	Timer     TimerCmd     `cmd:"" help:"Run one focus countdown and record its outcome"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Err, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// Main parses args, runs the selected command and returns the exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	var cli CLI
	g := &Global{Out: stdout, Err: stderr, Logger: slog.Default(), Recorder: metrics.NoopRecorder{}}

	parser, err := kong.New(&cli,
		kong.Name("focusforge"),
		kong.Description("Focus Forge shared state bus and focus timer."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	runErr := kctx.Run(&cli)
	g.closeBus()
	adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, g.Logger).WithOutput(stderr)
	return adapter.Report(runErr)
}

// loadConfig loads the configuration and applies its logging settings unless -v was given.
func (g *Global) loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if !root.Verbose {
		opts := &slog.HandlerOptions{Level: cfg.Logging.Level.SlogLevel()}
		var h slog.Handler = slog.NewTextHandler(g.Err, opts)
		if cfg.Logging.Format == config.LogFormatJSON {
			h = slog.NewJSONHandler(g.Err, opts)
		}
		g.Logger = slog.New(h)
		slog.SetDefault(g.Logger)
	}
	if cfg.Metrics.Enabled {
		g.enableMetrics()
	}
	return cfg, nil
}

func (g *Global) enableMetrics() {
	if g.Registry != nil {
		return
	}
	g.Registry = prometheus.NewRegistry()
	g.Recorder = metrics.NewPrometheusRecorder(g.Registry)
}

// openBus returns this process's bus, loading the configuration and opening
// the bus on first use. Later calls reuse the installed bus.
func (g *Global) openBus(ctx context.Context, root *CLI) (*suite.Bus, *config.Config, error) {
	bus, installed, err := g.host.Install(func() (*suite.Bus, error) {
		cfg, err := g.loadConfig(root)
		if err != nil {
			return nil, err
		}
		bus, err := suite.Open(ctx, cfg, suite.OpenOptions{
			Logger:   g.Logger,
			Recorder: g.Recorder,
			ErrorHook: func(key string, err error) {
				_, _ = fmt.Fprintf(g.Err, "warning: %s was not saved: %v\n", key, err)
			},
		})
		if err != nil {
			return nil, err
		}
		g.cfg = cfg
		return bus, nil
	})
	if err != nil {
		return nil, nil, err
	}
	if !installed {
		g.Logger.Debug("Reusing installed bus")
	}
	return bus, g.cfg, nil
}

// closeBus closes the installed bus, if any. It runs once the command returns.
func (g *Global) closeBus() {
	bus := g.host.Bus()
	if bus == nil {
		return
	}
	if err := bus.Close(); err != nil {
		g.Logger.Warn("Failed to close bus", "error", err)
	}
}

// withBus runs fn against this process's bus.
func (g *Global) withBus(root *CLI, fn func(ctx context.Context, bus *suite.Bus) error) error {
	ctx := context.Background()
	bus, _, err := g.openBus(ctx, root)
	if err != nil {
		return err
	}
	return fn(ctx, bus)
}

// printJSON writes v as indented JSON.
func (g *Global) printJSON(v any) error {
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryCodec, "failed to encode output").Build()
	}
	return nil
}

// parsePairs turns key=value arguments into a map.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, ferrors.ValidationError("expected key=value").WithContext("argument", p).Build()
		}
		out[k] = v
	}
	return out, nil
}

func metaFrom(m map[string]string) suite.Meta {
	meta := make(suite.Meta, len(m))
	for k, v := range m {
		meta[k] = v
	}
	return meta
}
