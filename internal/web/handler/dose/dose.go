// Package dose serves the dose journal routes.
package dose

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/adherence"
	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/controller/logentry"
	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/web/handler"
)

const (
	// Path is the path of the journal routes below the api prefix.
	Path = "/logs"

	// DaysQuery is the size of the history window in days.
	DaysQuery = "days"
)

// Service is the dose handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
	now handler.Clock
}

// Request marks a scheduled entry when LogID is set and records an ad-hoc dose otherwise.
type Request struct {
	LogID        *uint64       `json:"log_id"`
	MedicineName string        `json:"medicine_name"`
	Dosage       string        `json:"dosage"`
	Status       models.Status `json:"status"`
	Notes        string        `json:"notes"`
}

// Handler is the dose handler.
var Handler = Service{}

// Init initializes the dose handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDMsg)
	}

	s.db = db
	s.cfg = cfg

	if s.now == nil {
		s.now = time.Now
	}

	app.Route(handler.APIPath+Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.History)
		router.Post(handler.RouterRootPath, s.Log)
	})

	return nil
}

// History returns the entries of the last days, newest first.
func (s *Service) History(c *fiber.Ctx) error {
	days := adherence.DefaultWindowDays

	if raw := c.Query(DaysQuery); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return handler.BadRequest(c, "days must be a non negative number")
		}

		days = n
	}

	entries, err := logentry.History(s.db.WithContext(c.UserContext()), adherence.Since(days, s.now()))
	if err != nil {
		return handler.ServerError(c, s.cfg, err, "failed to load history")
	}

	return c.JSON(entries)
}

// Log records a dose.
func (s *Service) Log(c *fiber.Ctx) error {
	var req Request

	if err := c.BodyParser(&req); err != nil {
		log.Debug().Err(err).Msg("failed to parse dose body")
		return handler.BadRequest(c, "Invalid JSON body")
	}

	db := s.db.WithContext(c.UserContext())

	var err error

	if req.LogID != nil {
		_, err = logentry.Mark(db, *req.LogID, req.Status, req.Notes, s.now())
	} else {
		_, err = logentry.LogAdHoc(db, req.MedicineName, req.Dosage, req.Status, req.Notes, s.now())
	}

	switch {
	case errors.Is(err, logentry.ErrLogEntryNotFound):
		log.Warn().Uint64("log", *req.LogID).Msg("dose for unknown log entry ignored")
	case errors.Is(err, logentry.ErrInvalidStatus),
		errors.Is(err, logentry.ErrNameEmpty),
		errors.Is(err, logentry.ErrDosageEmpty):
		return handler.BadRequest(c, err.Error())
	case err != nil:
		return handler.ServerError(c, s.cfg, err, "failed to log dose")
	}

	return handler.Success(c, "Dose logged successfully")
}
