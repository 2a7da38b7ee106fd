// Package web wires the fiber application of the medication tracker.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	accesslog "github.com/medtracker/medtracker/internal/logger/adapter/fiber"
	"github.com/medtracker/medtracker/internal/web/handler"
	"github.com/medtracker/medtracker/internal/web/handler/dose"
	"github.com/medtracker/medtracker/internal/web/handler/export"
	"github.com/medtracker/medtracker/internal/web/handler/health"
	"github.com/medtracker/medtracker/internal/web/handler/medicine"
	"github.com/medtracker/medtracker/internal/web/handler/schedule"
	"github.com/medtracker/medtracker/internal/web/handler/settings"
	"github.com/medtracker/medtracker/internal/web/handler/statistics"
)

// ErrConfigNil is returned by New without a configuration.
var ErrConfigNil = errors.New("config cannot be nil")

// ErrDBNil is returned by New without a database.
var ErrDBNil = errors.New("db cannot be nil")

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address and blocks until it is shut down.
func (s *Service) Start(addr string) error {
	if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err //nolint:wrapcheck
	}

	return nil
}

// Alive reports false once a graceful shutdown started.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// WaitShutdown blocks until SIGINT or SIGTERM and shuts the web service down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown stops the http server. Unless fast shutdown is set, the health route
// returns 503 for ShutDownTime seconds first so load balancers drain this instance.
func (s *Service) Shutdown() {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	log.Info().Msg("http server was stopped")
}

// New creates the web service with every api route registered.
func New(cfg *config.Config, db *gorm.DB) (*Service, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	if db == nil {
		return nil, ErrDBNil
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192, //nolint:mnd
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	service := &Service{
		cfg:          cfg,
		App:          app,
		db:           db,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: handler.APIPath + health.Path,
	}))

	if cfg.Webserver.RateLimit.Enabled {
		app.Use(handler.APIPath, newLimiter(cfg))
	}

	if cfg.Webserver.MetricsPath != "" {
		app.Get(cfg.Webserver.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	}

	health.Handler.Alive = service.Alive

	for _, h := range []handler.Service{
		&medicine.Handler,
		&schedule.Handler,
		&dose.Handler,
		&statistics.Handler,
		&settings.Handler,
		&export.Handler,
		&health.Handler,
	} {
		if err := h.Init(app, cfg, db); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return service, nil
}
