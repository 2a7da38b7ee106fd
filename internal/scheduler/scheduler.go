// Package scheduler runs the daily rollover that materializes the log entries of
// every due medicine.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	cronlog "github.com/medtracker/medtracker/internal/logger/adapter/cron"
	"github.com/medtracker/medtracker/internal/schedule"
)

var (
	// ErrAlreadyRunning is returned when Start is called twice.
	ErrAlreadyRunning = errors.New("scheduler already running")
	// ErrInvalidSpec is returned when the cron spec can not be parsed.
	ErrInvalidSpec = errors.New("invalid cron spec")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Runner owns the cron instance of the rollover job.
type Runner struct {
	cfg config.Scheduler
	db  *gorm.DB
	now func() time.Time

	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// Option configures a Runner.
type Option func(r *Runner)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// New validates the cron spec and prepares the rollover job.
func New(cfg config.Scheduler, db *gorm.DB, opts ...Option) (*Runner, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	r := &Runner{
		cfg: cfg,
		db:  db,
		now: time.Now,
	}

	for _, o := range opts {
		o(r)
	}

	l := cronlog.New(log.Logger)

	r.cron = cron.New(
		cron.WithLocation(time.Local),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)

	if _, err := r.cron.AddFunc(cfg.Spec, r.tick); err != nil {
		return nil, errors.Join(ErrInvalidSpec, err)
	}

	return r, nil
}

// RunOnce materializes all due medicines for the current day.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	day := schedule.Day(r.now())

	created, err := schedule.MaterializeAll(r.db.WithContext(ctx), day)
	if err != nil {
		return created, err
	}

	log.Info().Str("day", day).Int("created", created).Msg("daily log entries materialized")

	return created, nil
}

func (r *Runner) tick() {
	if _, err := r.RunOnce(context.Background()); err != nil {
		log.Error().Err(err).Msg("scheduled materialization failed")
	}
}

// Start runs the catch up materialization if configured and starts the cron loop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}

	if r.cfg.RunOnStart {
		// a failed catch up is retried by the next tick
		if _, err := r.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("startup materialization failed")
		}
	}

	r.cron.Start()
	r.running = true

	log.Info().Str("spec", r.cfg.Spec).Time("next", r.Next()).Msg("scheduler started")

	return nil
}

// Next returns the next time the job runs, zero if it is not scheduled.
func (r *Runner) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}

	return entries[0].Schedule.Next(r.now())
}

// IsRunning reports whether the cron loop is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.running
}

// Stop stops the cron loop and waits for a running job until ctx is done.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()

	if !r.running {
		r.mu.Unlock()
		return nil
	}

	r.running = false
	r.mu.Unlock()

	select {
	case <-r.cron.Stop().Done():
		log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
