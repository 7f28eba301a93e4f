// Package focus is the focus timer widget: a local task list, a countdown and
// the preferences that survive restarts, connected to the shared bus.
package focus

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/logfields"
	"git.home.luguber.info/inful/focusforge/internal/metrics"
	"git.home.luguber.info/inful/focusforge/internal/session"
	"git.home.luguber.info/inful/focusforge/internal/slot"
	"git.home.luguber.info/inful/focusforge/internal/suite"
)

// Source tags every shared record created by the widget.
const Source = "focus"

type options struct {
	workMinutes  int
	breakMinutes int
	tickInterval time.Duration
	manual       bool
	recorder     metrics.Recorder
	logger       *slog.Logger
}

type Option func(*options)

// WithDefaultLengths sets the lengths used when none are stored.
func WithDefaultLengths(workMinutes, breakMinutes int) Option {
	return func(o *options) { o.workMinutes, o.breakMinutes = workMinutes, breakMinutes }
}

func WithTickInterval(d time.Duration) Option { return func(o *options) { o.tickInterval = d } }

// WithManualClock leaves ticking to the caller through Machine().Tick.
func WithManualClock() Option { return func(o *options) { o.manual = true } }

func WithRecorder(r metrics.Recorder) Option { return func(o *options) { o.recorder = r } }

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Widget is one open focus timer.
type Widget struct {
	bus     *suite.Bus
	store   *slot.Store
	machine *session.Machine
	runner  *session.Runner
	logger  *slog.Logger

	mu            sync.Mutex
	tab           Tab
	tasks         []LocalTask
	hideCompleted bool

	cancelEvents func()
	done         chan struct{}
}

// Open restores the widget from its stored preferences. An empty session name is
// prefilled from the current shared intention.
func Open(ctx context.Context, bus *suite.Bus, opts ...Option) (*Widget, error) {
	o := options{
		workMinutes:  session.DefaultWorkMinutes,
		breakMinutes: session.DefaultBreakMinutes,
		tickInterval: time.Second,
		recorder:     metrics.NoopRecorder{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	store := bus.Store()
	work := slot.Read(ctx, store, KeyWork, o.workMinutes)
	brk := slot.Read(ctx, store, KeyBreak, o.breakMinutes)
	mode, ok := session.ParseMode(slot.Read(ctx, store, KeyMode, string(session.ModeWork)))
	if !ok {
		mode = session.ModeWork
	}
	name := slot.Read(ctx, store, KeyBlockName, "")
	if name == "" {
		if current := bus.GetCurrentIntention(ctx); current != nil && current.Text != "" {
			name = current.Text
			o.logger.Debug("Prefilled session name from current intention", logfields.EntryID(current.ID))
		}
	}

	tab := Tab(slot.Read(ctx, store, KeyTab, string(TabTimer)))
	if tab != TabTasks {
		tab = TabTimer
	}

	w := &Widget{
		bus:   bus,
		store: store,
		machine: session.New(bus,
			session.WithLengths(work, brk),
			session.WithMode(mode),
			session.WithRemaining(slot.Read(ctx, store, KeySecs, 0)),
			session.WithName(name),
			session.WithRecorder(o.recorder),
			session.WithLogger(o.logger),
		),
		logger:        o.logger,
		tab:           tab,
		tasks:         slot.Read(ctx, store, KeyTasks, []LocalTask{}),
		hideCompleted: slot.Read(ctx, store, KeyHideCompleted, false),
		done:          make(chan struct{}),
	}

	if !o.manual {
		r, err := session.NewRunner(w.machine, session.WithInterval(o.tickInterval), session.WithRunnerLogger(o.logger))
		if err != nil {
			return nil, err
		}
		w.runner = r
	}

	events, cancel := w.machine.Subscribe(64)
	w.cancelEvents = cancel
	go w.persistTimer(events)

	w.store.Write(ctx, KeyBlockName, name)
	return w, nil
}

// persistTimer stores the countdown fields that changed since the last event.
// Only the latest snapshot matters, so dropped events are harmless.
func (w *Widget) persistTimer(events <-chan session.Event) {
	defer close(w.done)
	ctx := context.Background()
	var last *session.Snapshot
	for range events {
		snap := w.machine.Snapshot()
		if last == nil || snap.Remaining != last.Remaining {
			w.store.Write(ctx, KeySecs, snap.Remaining)
		}
		if last == nil || snap.Mode != last.Mode {
			w.store.Write(ctx, KeyMode, string(snap.Mode))
		}
		if last == nil || snap.WorkMinutes != last.WorkMinutes {
			w.store.Write(ctx, KeyWork, snap.WorkMinutes)
		}
		if last == nil || snap.BreakMinutes != last.BreakMinutes {
			w.store.Write(ctx, KeyBreak, snap.BreakMinutes)
		}
		last = &snap
	}
}

func (w *Widget) Machine() *session.Machine { return w.machine }

func (w *Widget) Bus() *suite.Bus { return w.bus }

func (w *Widget) Tab() Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tab
}

func (w *Widget) SetTab(ctx context.Context, tab Tab) {
	w.mu.Lock()
	w.tab = tab
	w.mu.Unlock()
	w.store.Write(ctx, KeyTab, string(tab))
}

func (w *Widget) SessionName() string { return w.machine.Snapshot().Name }

func (w *Widget) SetSessionName(ctx context.Context, name string) {
	w.machine.SetName(name)
	w.store.Write(ctx, KeyBlockName, name)
}

// AddTask adds a task to the top of the local list, makes it the session name
// and appends it to the shared task log.
func (w *Widget) AddTask(ctx context.Context, title string, estimate int) (LocalTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return LocalTask{}, ferrors.ValidationError("task title is empty").Build()
	}
	t := LocalTask{ID: uuid.NewString(), Title: title, Estimate: max(1, estimate)}

	w.mu.Lock()
	w.tasks = append([]LocalTask{t}, w.tasks...)
	tasks := cloneTasks(w.tasks)
	w.mu.Unlock()

	w.store.Write(ctx, KeyTasks, tasks)
	w.SetSessionName(ctx, t.Title)
	w.bus.AddTask(ctx, suite.Task{Title: t.Title, Estimate: t.Estimate, Source: Source})
	return t, nil
}

// ToggleTask flips the done flag of the local task with id.
func (w *Widget) ToggleTask(ctx context.Context, id string) bool {
	return w.updateTasks(ctx, func(tasks []LocalTask) ([]LocalTask, bool) {
		for i := range tasks {
			if tasks[i].ID == id {
				tasks[i].Done = !tasks[i].Done
				return tasks, true
			}
		}
		return tasks, false
	})
}

// RemoveTask drops the local task with id. The shared log is not touched.
func (w *Widget) RemoveTask(ctx context.Context, id string) bool {
	return w.updateTasks(ctx, func(tasks []LocalTask) ([]LocalTask, bool) {
		for i := range tasks {
			if tasks[i].ID == id {
				return append(tasks[:i], tasks[i+1:]...), true
			}
		}
		return tasks, false
	})
}

func (w *Widget) updateTasks(ctx context.Context, fn func([]LocalTask) ([]LocalTask, bool)) bool {
	w.mu.Lock()
	updated, changed := fn(w.tasks)
	w.tasks = updated
	tasks := cloneTasks(updated)
	w.mu.Unlock()

	if changed {
		w.store.Write(ctx, KeyTasks, tasks)
	}
	return changed
}

func (w *Widget) Tasks() []LocalTask {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneTasks(w.tasks)
}

// VisibleTasks hides completed tasks when that preference is on.
func (w *Widget) VisibleTasks() []LocalTask {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]LocalTask, 0, len(w.tasks))
	for _, t := range w.tasks {
		if w.hideCompleted && t.Done {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (w *Widget) SetHideCompleted(ctx context.Context, hide bool) {
	w.mu.Lock()
	w.hideCompleted = hide
	w.mu.Unlock()
	w.store.Write(ctx, KeyHideCompleted, hide)
}

func (w *Widget) Start(ctx context.Context) error {
	if w.runner != nil {
		return w.runner.Start(ctx)
	}
	w.machine.Start()
	return nil
}

func (w *Widget) Pause() {
	if w.runner != nil {
		w.runner.Pause()
		return
	}
	w.machine.Pause()
}

func (w *Widget) Reset() {
	if w.runner != nil {
		w.runner.Reset()
		return
	}
	w.machine.Reset()
}

func (w *Widget) SetMode(mode session.Mode) error { return w.machine.SetMode(mode) }

func (w *Widget) SetLengths(workMinutes, breakMinutes int) error {
	return w.machine.SetLengths(workMinutes, breakMinutes)
}

// Close stops the countdown and waits for pending preference writes.
func (w *Widget) Close() error {
	var err error
	if w.runner != nil {
		err = w.runner.Stop()
	}
	w.cancelEvents()
	<-w.done
	return err
}

func cloneTasks(tasks []LocalTask) []LocalTask {
	return append([]LocalTask(nil), tasks...)
}
