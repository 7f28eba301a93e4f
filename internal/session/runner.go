package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/logfields"
)

// Runner drives a Machine from a gocron job that ticks while the machine runs.
type Runner struct {
	machine   *Machine
	scheduler gocron.Scheduler
	interval  time.Duration
	logger    *slog.Logger

	mu    sync.Mutex
	ctx   context.Context
	jobID uuid.UUID
}

type RunnerOption func(*Runner)

// WithInterval sets the wall time of one tick. Defaults to one second.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithRunnerLogger(l *slog.Logger) RunnerOption { return func(r *Runner) { r.logger = l } }

// NewRunner creates and starts the underlying scheduler.
func NewRunner(m *Machine, opts ...RunnerOption) (*Runner, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create gocron scheduler").Build()
	}
	r := &Runner{
		machine:   m,
		scheduler: s,
		interval:  time.Second,
		logger:    slog.Default(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	s.Start()
	return r, nil
}

func (r *Runner) Machine() *Machine { return r.machine }

// Start starts the machine and schedules the tick job. ctx is passed to the
// outcome sink when the session expires.
func (r *Runner) Start(ctx context.Context) error {
	r.machine.Start()
	if r.machine.State() != StateRunning {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
	if r.jobID != uuid.Nil {
		return nil
	}
	job, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.tick),
		gocron.WithName("session-tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to schedule session tick").
			WithContext("interval", r.interval.String()).
			Build()
	}
	r.jobID = job.ID()
	r.logger.Debug("Scheduled session tick", slog.String("job_id", r.jobID.String()))
	return nil
}

// Pause pauses the machine and removes the tick job.
func (r *Runner) Pause() {
	r.machine.Pause()
	r.removeJob(r.currentJob())
}

// Reset resets the machine and removes the tick job.
func (r *Runner) Reset() {
	r.machine.Reset()
	r.removeJob(r.currentJob())
}

// Scheduled reports whether a tick job is active.
func (r *Runner) Scheduled() bool {
	return r.currentJob() != uuid.Nil
}

// Stop removes all jobs and shuts the scheduler down.
func (r *Runner) Stop() error {
	r.mu.Lock()
	r.jobID = uuid.Nil
	r.mu.Unlock()
	return r.scheduler.Shutdown()
}

func (r *Runner) currentJob() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobID
}

func (r *Runner) tick() {
	r.mu.Lock()
	ctx, id := r.ctx, r.jobID
	r.mu.Unlock()

	r.machine.Tick(ctx)
	if r.machine.State() != StateRunning && r.detach(id) {
		// Removal goes through the scheduler loop; do not block the executing job on it.
		go r.unschedule(id)
	}
}

func (r *Runner) detach(id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jobID != id {
		return false
	}
	r.jobID = uuid.Nil
	return true
}

func (r *Runner) removeJob(id uuid.UUID) {
	if r.detach(id) {
		r.unschedule(id)
	}
}

func (r *Runner) unschedule(id uuid.UUID) {
	if err := r.scheduler.RemoveJob(id); err != nil {
		r.logger.Debug("Session tick job already removed", logfields.Error(err))
	}
}
