// Package settings serves the user preferences.
package settings

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/controller/setting"
	"github.com/medtracker/medtracker/internal/web/handler"
)

// Path of the settings routes below the api prefix.
const Path = "/settings"

// Service is the settings handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the settings handler.
var Handler = Service{}

// Init initializes the settings handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDMsg)
	}

	s.db = db
	s.cfg = cfg

	app.Route(handler.APIPath+Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get returns every setting as key to typed value.
func (s *Service) Get(c *fiber.Ctx) error {
	values, err := setting.Map(s.db.WithContext(c.UserContext()))
	if err != nil {
		return handler.ServerError(c, s.cfg, err, "failed to load settings")
	}

	return c.JSON(values)
}

// Post writes all given settings or none of them.
func (s *Service) Post(c *fiber.Ctx) error {
	values := map[string]any{}

	if err := c.BodyParser(&values); err != nil {
		log.Debug().Err(err).Msg("failed to parse settings body")
		return handler.BadRequest(c, "Invalid JSON body")
	}

	err := setting.SetMany(s.db.WithContext(c.UserContext()), values)

	switch {
	case errors.Is(err, setting.ErrInvalidSettingValue), errors.Is(err, setting.ErrSettingKeyEmpty):
		return handler.BadRequest(c, err.Error())
	case err != nil:
		return handler.ServerError(c, s.cfg, err, "failed to save settings")
	}

	log.Info().Int("count", len(values)).Msg("settings updated")

	return handler.Success(c, "Settings updated successfully")
}
