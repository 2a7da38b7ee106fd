// Package daemon owns the long running parts of medtracker: the database pool,
// the rollover scheduler and the web service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/engine"
	"github.com/medtracker/medtracker/internal/schedule"
	"github.com/medtracker/medtracker/internal/scheduler"
	"github.com/medtracker/medtracker/internal/web"
)

// ErrConfigNil is returned without a configuration.
var ErrConfigNil = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
	scheduler  *scheduler.Runner
}

// New opens and migrates the database, seeds the default settings and
// prepares the scheduler and the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	d := &Daemon{cfg: cfg, db: db}

	if err = seed(db); err != nil {
		_ = engine.Close(db)
		return nil, err
	}

	if cfg.Scheduler.Enabled {
		if d.scheduler, err = scheduler.New(cfg.Scheduler, db); err != nil {
			_ = engine.Close(db)
			return nil, err //nolint:wrapcheck
		}
	}

	if d.webService, err = web.New(cfg, db); err != nil {
		_ = engine.Close(db)
		return nil, err //nolint:wrapcheck
	}

	return d, nil
}

// Start runs the scheduler and the web service until SIGINT or SIGTERM.
func (d *Daemon) Start(ctx context.Context) error {
	if d.scheduler != nil {
		if err := d.scheduler.Start(ctx); err != nil {
			return err //nolint:wrapcheck
		}
	}

	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
	listenErr := make(chan error, 1)

	go func() {
		log.Info().Str("addr", addr).Msg("starting http server")
		listenErr <- d.webService.Start(addr)
	}()

	go d.webService.WaitShutdown()

	err := <-listenErr
	if err != nil {
		log.Error().Err(err).Msg("http server failed")
	}

	return errors.Join(err, d.stop())
}

// stop stops the scheduler and closes the pool.
func (d *Daemon) stop() error {
	var errs []error

	if d.scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(d.cfg.Webserver.ShutDownTime)*time.Second)
		defer cancel()

		if err := d.scheduler.Stop(ctx); err != nil {
			errs = append(errs, pkgerrors.Wrap(err, "stop scheduler"))
		}
	}

	if err := engine.Close(d.db); err != nil {
		errs = append(errs, err)
	}

	log.Info().Msg("daemon stopped ... good bye")

	return errors.Join(errs...)
}

// Materialize creates the log entries of every medicine due on day and returns how many were added.
// An empty day means today.
func Materialize(cfg *config.Config, day string) (int, error) {
	if cfg == nil {
		return 0, ErrConfigNil
	}

	if day == "" {
		day = schedule.Day(time.Now())
	}

	if _, err := schedule.ParseDay(day); err != nil {
		return 0, err //nolint:wrapcheck
	}

	db, err := openDB(cfg)
	if err != nil {
		return 0, err
	}

	defer func() {
		if closeErr := engine.Close(db); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close database")
		}
	}()

	return schedule.MaterializeAll(db, day) //nolint:wrapcheck
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := engine.Open(&cfg.DB)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to connect database")
	}

	if err = engine.Migrate(db); err != nil {
		_ = engine.Close(db)
		return nil, pkgerrors.Wrap(err, "failed to migrate database")
	}

	return db, nil
}
