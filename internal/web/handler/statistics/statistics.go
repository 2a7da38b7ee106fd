// Package statistics serves the dashboard summary.
package statistics

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/adherence"
	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/web/handler"
)

// Path of the statistics route below the api prefix.
const Path = "/statistics"

// Service is the statistics handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
	now handler.Clock
}

// Handler is the statistics handler.
var Handler = Service{}

// Init initializes the statistics handler.
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

// Get returns the statistics at the current time.
func (s *Service) Get(c *fiber.Ctx) error {
	stats, err := adherence.Compute(s.db.WithContext(c.UserContext()), s.now())
	if err != nil {
		return handler.ServerError(c, s.cfg, err, "failed to compute statistics")
	}

	return c.JSON(stats)
}
