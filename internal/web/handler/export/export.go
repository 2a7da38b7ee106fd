// Package export serves the full data export.
package export

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/export"
	"github.com/medtracker/medtracker/internal/web/handler"
)

// Path of the export route below the api prefix.
const Path = "/export"

// Service is the export handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
	now handler.Clock
}

// Handler is the export handler.
var Handler = Service{}

// Init initializes the export handler.
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

// Get returns a snapshot of all medicines, log entries and settings.
func (s *Service) Get(c *fiber.Ctx) error {
	snapshot, err := export.Take(s.db.WithContext(c.UserContext()), s.now())
	if err != nil {
		return handler.ServerError(c, s.cfg, err, "failed to export data")
	}

	return c.JSON(snapshot)
}
