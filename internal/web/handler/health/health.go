// Package health serves the liveness check used by load balancers.
package health

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/engine"
	"github.com/medtracker/medtracker/internal/web/handler"
)

const (
	// Path of the health route below the api prefix.
	Path = "/health"

	// PingTimeout bounds the database ping.
	PingTimeout = 2 * time.Second

	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusShutdown  = "shutting down"

	unreachable = "database unreachable"
)

// Response is the body of the health route.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Service is the health handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
	now handler.Clock

	// Alive reports false once a graceful shutdown started, nil means always alive.
	Alive func() bool
}

// Handler is the health handler.
var Handler = Service{}

// Init initializes the health handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDMsg)
	}

	s.db = db
	s.cfg = cfg

	if s.now == nil {
		s.now = time.Now
	}

	app.Get(handler.APIPath+Path, s.Get)

	return nil
}

// Get pings the database.
func (s *Service) Get(c *fiber.Ctx) error {
	if s.Alive != nil && !s.Alive() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(Response{Status: statusShutdown, Timestamp: s.now()})
	}

	if err := engine.Ping(c.UserContext(), s.db, PingTimeout); err != nil {
		log.Error().Err(err).Msg("health check failed")

		msg := unreachable
		if s.cfg.Webserver.ExposeErrors {
			msg = err.Error()
		}

		return c.Status(fiber.StatusInternalServerError).JSON(Response{
			Status:    statusUnhealthy,
			Timestamp: s.now(),
			Error:     msg,
		})
	}

	return c.JSON(Response{Status: statusHealthy, Timestamp: s.now()})
}
