package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/focusforge/internal/logfields"
	"git.home.luguber.info/inful/focusforge/internal/metrics"
	"git.home.luguber.info/inful/focusforge/internal/notify"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Key         string `short:"k" help:"Only print changes of this key" default:"*"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address"`
}

type changeLine struct {
	Key      string          `json:"key"`
	Origin   string          `json:"origin"`
	At       time.Time       `json:"at"`
	NewValue json.RawMessage `json:"newValue"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if w.MetricsAddr != "" {
		g.enableMetrics()
	}
	bus, cfg, err := g.openBus(ctx, root)
	if err != nil {
		return err
	}

	changes := make(chan notify.Change, 64)
	unsubscribe := bus.Subscribe(w.Key, func(c notify.Change) {
		select {
		case changes <- c:
		default:
			g.Logger.Warn("Dropped change notification", logfields.Key(c.Key))
		}
	})
	defer unsubscribe()

	addr := w.MetricsAddr
	if addr == "" && cfg.Metrics.Enabled {
		addr = cfg.Metrics.ListenAddr
	}
	if addr != "" {
		srv := w.serveMetrics(g, addr, cfg.Metrics.Path)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	g.Logger.Info("Watching for changes", logfields.Key(w.Key), logfields.Origin(bus.Origin()))
	for {
		select {
		case <-ctx.Done():
			g.Logger.Info("Shutdown signal received, stopping watch")
			return nil
		case c := <-changes:
			if err := g.printJSON(changeLine{Key: c.Key, Origin: c.Origin, At: c.At, NewValue: c.NewValue}); err != nil {
				return err
			}
		}
	}
}

func (w *WatchCmd) serveMetrics(g *Global, addr, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.HTTPHandler(g.Registry))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.Logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	_, _ = fmt.Fprintf(g.Err, "serving metrics on http://%s%s\n", addr, path)
	return srv
}
