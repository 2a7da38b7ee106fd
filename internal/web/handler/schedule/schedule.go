// Package schedule serves the daily schedule routes.
package schedule

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/controller/logentry"
	generator "github.com/medtracker/medtracker/internal/schedule"
	"github.com/medtracker/medtracker/internal/web/handler"
)

const (
	// TodayPath returns the schedule of a day.
	TodayPath = "/today-schedule"
	// MaterializePath creates the entries of a day.
	MaterializePath = "/schedule/materialize"
)

// Service is the schedule handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
	now handler.Clock
}

// MaterializeResponse reports a materialization run.
type MaterializeResponse struct {
	Status  string `json:"status"`
	Date    string `json:"date"`
	Created int    `json:"created"`
}

// Handler is the schedule handler.
var Handler = Service{}

// Init initializes the schedule handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDMsg)
	}

	s.db = db
	s.cfg = cfg

	if s.now == nil {
		s.now = time.Now
	}

	app.Get(handler.APIPath+TodayPath, s.Today)
	app.Post(handler.APIPath+MaterializePath, s.Materialize)

	return nil
}

// Today returns the entries of a day ordered by time.
// Only the current day is materialized on read, other days show what exists.
func (s *Service) Today(c *fiber.Ctx) error {
	day, err := handler.Day(c, s.now)
	if err != nil {
		return handler.BadRequest(c, err.Error())
	}

	db := s.db.WithContext(c.UserContext())

	if day == generator.Day(s.now()) {
		if _, err = generator.MaterializeAll(db, day); err != nil {
			return handler.ServerError(c, s.cfg, err, "failed to materialize schedule")
		}
	}

	items, err := logentry.Today(db, day)
	if err != nil {
		return handler.ServerError(c, s.cfg, err, "failed to load schedule")
	}

	return c.JSON(items)
}

// Materialize creates the missing entries of the day and reports how many were added.
func (s *Service) Materialize(c *fiber.Ctx) error {
	day, err := handler.Day(c, s.now)
	if err != nil {
		return handler.BadRequest(c, err.Error())
	}

	created, err := generator.MaterializeAll(s.db.WithContext(c.UserContext()), day)
	if err != nil {
		return handler.ServerError(c, s.cfg, err, "failed to materialize schedule")
	}

	return c.JSON(MaterializeResponse{Status: handler.StatusSuccess, Date: day, Created: created})
}
