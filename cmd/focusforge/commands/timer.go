package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/focusforge/internal/focus"
	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/session"
)

// TimerCmd implements the 'timer' command.
type TimerCmd struct {
	Work  int           `help:"Work length in minutes (defaults to the stored or configured length)"`
	Break int           `help:"Break length in minutes (defaults to the stored or configured length)"`
	Mode  string        `help:"Countdown mode" enum:"work,break" default:"work"`
	Name  string        `short:"n" help:"Session name; defaults to the current intention"`
	Tick  time.Duration `help:"Wall time of one countdown second" default:"1s" hidden:""`
}

func (t *TimerCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bus, cfg, err := g.openBus(ctx, root)
	if err != nil {
		return err
	}

	w, err := focus.Open(ctx, bus,
		focus.WithDefaultLengths(cfg.Session.WorkMinutes, cfg.Session.BreakMinutes),
		focus.WithTickInterval(t.Tick),
		focus.WithRecorder(g.Recorder),
		focus.WithLogger(g.Logger),
	)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	snap := w.Machine().Snapshot()
	work, brk := snap.WorkMinutes, snap.BreakMinutes
	if t.Work > 0 {
		work = t.Work
	}
	if t.Break > 0 {
		brk = t.Break
	}
	if err := w.SetLengths(work, brk); err != nil {
		return err
	}
	if err := w.SetMode(session.Mode(t.Mode)); err != nil {
		return err
	}
	if t.Name != "" {
		w.SetSessionName(ctx, t.Name)
	}

	events, stop := w.Machine().Subscribe(16)
	defer stop()

	w.Reset()
	done := w.Machine().Completed()
	if err := w.Start(ctx); err != nil {
		return err
	}
	snap = w.Machine().Snapshot()
	_, _ = fmt.Fprintf(g.Out, "%s session %q started: %s\n", snap.Mode, snap.Name, clock(snap.Remaining))

	// Events may be dropped under load; the completion count is authoritative.
	poll := time.NewTicker(max(t.Tick, 10*time.Millisecond))
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			w.Pause()
			return ferrors.SessionError("countdown interrupted").
				WithContext("remaining", clock(w.Machine().Snapshot().Remaining)).
				Build()
		case ev := <-events:
			if ev.Type == session.EventTick && ev.Remaining%60 == 0 {
				_, _ = fmt.Fprintf(g.Out, "%s remaining\n", clock(ev.Remaining))
			}
		case <-poll.C:
		}
		if w.Machine().Completed() > done {
			if snap.Name == "" {
				_, _ = fmt.Fprintln(g.Out, "session complete (unnamed, no outcome recorded)")
			} else {
				_, _ = fmt.Fprintf(g.Out, "session %q complete\n", snap.Name)
			}
			return nil
		}
	}
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
