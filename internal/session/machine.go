// Package session implements the countdown state machine of the focus timer.
//
// A session moves idle -> running -> expired -> idle, with paused in between
// running and idle. Expiry records exactly one task outcome.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/logfields"
	"git.home.luguber.info/inful/focusforge/internal/metrics"
	"git.home.luguber.info/inful/focusforge/internal/suite"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateExpired State = "expired"
)

type Mode string

const (
	ModeWork  Mode = "work"
	ModeBreak Mode = "break"
)

// ParseMode returns the mode named by raw, or false.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModeWork, ModeBreak:
		return Mode(raw), true
	default:
		return "", false
	}
}

const (
	DefaultWorkMinutes  = 25
	DefaultBreakMinutes = 5
)

// OutcomeSink receives the outcome of a completed session. *suite.Bus satisfies it.
type OutcomeSink interface {
	AddTaskOutcome(ctx context.Context, outcome suite.TaskOutcome) suite.TaskOutcome
}

// Snapshot is a consistent view of the machine.
type Snapshot struct {
	State        State
	Mode         Mode
	Remaining    int // seconds
	WorkMinutes  int
	BreakMinutes int
	Name         string
}

// Machine is the countdown. All methods are safe for concurrent use.
type Machine struct {
	mu           sync.Mutex
	state        State
	mode         Mode
	workMinutes  int
	breakMinutes int
	remaining    int
	name         string

	sink     OutcomeSink
	recorder metrics.Recorder
	logger   *slog.Logger
	events   *broadcaster

	completed atomic.Uint64 // expiries whose outcome handling has finished
}

type Option func(*Machine)

// WithLengths sets the work and break lengths in minutes. Values below one are ignored.
func WithLengths(workMinutes, breakMinutes int) Option {
	return func(m *Machine) {
		if workMinutes >= 1 {
			m.workMinutes = workMinutes
		}
		if breakMinutes >= 1 {
			m.breakMinutes = breakMinutes
		}
	}
}

func WithMode(mode Mode) Option { return func(m *Machine) { m.mode = mode } }

// WithRemaining restores a countdown position, in seconds.
func WithRemaining(seconds int) Option { return func(m *Machine) { m.remaining = seconds } }

// WithName sets the session name; outcomes are only recorded for named sessions.
func WithName(name string) Option { return func(m *Machine) { m.name = name } }

func WithRecorder(r metrics.Recorder) Option { return func(m *Machine) { m.recorder = r } }

func WithLogger(l *slog.Logger) Option { return func(m *Machine) { m.logger = l } }

// New returns an idle machine. sink may be nil, in which case nothing is recorded.
func New(sink OutcomeSink, opts ...Option) *Machine {
	m := &Machine{
		state:        StateIdle,
		mode:         ModeWork,
		workMinutes:  DefaultWorkMinutes,
		breakMinutes: DefaultBreakMinutes,
		sink:         sink,
		recorder:     metrics.NoopRecorder{},
		logger:       slog.Default(),
		events:       newBroadcaster(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, ok := ParseMode(string(m.mode)); !ok {
		m.mode = ModeWork
	}
	if m.remaining <= 0 || m.remaining > m.fullLength() {
		m.remaining = m.fullLength()
	}
	return m
}

func (m *Machine) minutes() int {
	if m.mode == ModeBreak {
		return m.breakMinutes
	}
	return m.workMinutes
}

func (m *Machine) fullLength() int { return m.minutes() * 60 }

func (m *Machine) snapshot() Snapshot {
	return Snapshot{
		State:        m.state,
		Mode:         m.mode,
		Remaining:    m.remaining,
		WorkMinutes:  m.workMinutes,
		BreakMinutes: m.breakMinutes,
		Name:         m.name,
	}
}

func (m *Machine) event(t EventType) Event {
	return Event{Type: t, State: m.state, Mode: m.mode, Remaining: m.remaining}
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Completed counts expiries so far. It increases only after the expiry's
// outcome has been recorded, and does not depend on event delivery.
func (m *Machine) Completed() uint64 { return m.completed.Load() }

// Progress is the completed fraction of the current countdown, in [0, 1].
func (m *Machine) Progress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.fullLength()
	if total <= 0 {
		return 0
	}
	p := 1 - float64(m.remaining)/float64(total)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// SetName changes the name of the session.
func (m *Machine) SetName(name string) {
	m.mu.Lock()
	m.name = name
	m.mu.Unlock()
}

// Start begins or resumes the countdown. An exhausted countdown restarts at full length.
func (m *Machine) Start() bool {
	m.mu.Lock()
	if m.state == StateRunning {
		m.mu.Unlock()
		return false
	}
	if m.remaining <= 0 {
		m.remaining = m.fullLength()
	}
	m.state = StateRunning
	ev := m.event(EventStarted)
	m.mu.Unlock()

	m.events.publish(ev)
	return true
}

// Pause stops a running countdown, keeping its position.
func (m *Machine) Pause() bool {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return false
	}
	m.state = StatePaused
	ev := m.event(EventPaused)
	m.mu.Unlock()

	m.events.publish(ev)
	return true
}

// Reset returns to idle at full length without recording anything.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.state = StateIdle
	m.remaining = m.fullLength()
	ev := m.event(EventReset)
	m.mu.Unlock()

	m.events.publish(ev)
}

// SetMode switches between work and break. A countdown that is not running is
// reset to the new length.
func (m *Machine) SetMode(mode Mode) error {
	if _, ok := ParseMode(string(mode)); !ok {
		return ferrors.ValidationError("unknown session mode").WithContext("mode", string(mode)).Build()
	}
	m.mu.Lock()
	m.mode = mode
	if m.state != StateRunning {
		m.remaining = m.fullLength()
	}
	ev := m.event(EventModeChanged)
	m.mu.Unlock()

	m.events.publish(ev)
	return nil
}

// SetLengths changes the work and break lengths in minutes. A countdown that is
// not running is reset to the new length.
func (m *Machine) SetLengths(workMinutes, breakMinutes int) error {
	if workMinutes < 1 || breakMinutes < 1 {
		return ferrors.ValidationError("session lengths must be at least one minute").
			WithContext("work", workMinutes).
			WithContext("break", breakMinutes).
			Build()
	}
	m.mu.Lock()
	m.workMinutes, m.breakMinutes = workMinutes, breakMinutes
	if m.state != StateRunning {
		m.remaining = m.fullLength()
	}
	ev := m.event(EventLengthsChanged)
	m.mu.Unlock()

	m.events.publish(ev)
	return nil
}

// Tick advances a running countdown by one second. It reports whether this tick
// expired the session. Ticks in any other state do nothing.
func (m *Machine) Tick(ctx context.Context) bool {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return false
	}
	if m.remaining > 1 {
		m.remaining--
		ev := m.event(EventTick)
		m.mu.Unlock()
		m.events.publish(ev)
		return false
	}

	// Leaving running before anything else makes further ticks no-ops.
	m.remaining = 0
	m.state = StateExpired
	expired := m.event(EventExpired)
	name, mode, minutes := m.name, m.mode, m.minutes()

	m.remaining = m.fullLength()
	m.state = StateIdle
	idle := m.event(EventReset)
	m.mu.Unlock()

	m.events.publish(expired)
	m.recordOutcome(ctx, name, mode, minutes)
	m.completed.Add(1)
	m.events.publish(idle)
	return true
}

func (m *Machine) recordOutcome(ctx context.Context, name string, mode Mode, minutes int) {
	if name == "" || m.sink == nil {
		m.logger.Debug("Session expired without a name; no outcome recorded", logfields.Mode(string(mode)))
		return
	}
	rec := m.sink.AddTaskOutcome(ctx, suite.TaskOutcome{
		Title:    name,
		Success:  true,
		Duration: minutes,
	})
	m.recorder.IncSessionOutcome(string(mode))
	m.logger.Info("Recorded session outcome",
		logfields.EntryID(rec.ID),
		logfields.Mode(string(mode)),
		slog.Int("duration_min", minutes))
}

// Subscribe returns a channel receiving machine events. Events are dropped when
// the buffer is full. The channel is closed by the returned cancel function.
func (m *Machine) Subscribe(buffer int) (<-chan Event, func()) {
	return m.events.subscribe(buffer)
}
