// Package medicine serves the medicine regimen routes.
package medicine

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	controller "github.com/medtracker/medtracker/internal/db/controller/medicine"
	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/schedule"
	"github.com/medtracker/medtracker/internal/web/handler"
)

const (
	// Path is the path of the medicine routes below the api prefix.
	Path = "/medicines"
)

// Service is the medicine handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
	now       handler.Clock
}

// Request is the body of create and update.
type Request struct {
	Name         string   `json:"name"          validate:"required"`
	Dosage       string   `json:"dosage"        validate:"required"`
	TimesPerDay  int      `json:"times_per_day" validate:"required,min=1,max=48"`
	Schedule     []string `json:"schedule"      validate:"required"`
	StartDate    string   `json:"start_date"    validate:"required,datetime=2006-01-02"`
	EndDate      string   `json:"end_date"      validate:"omitempty,datetime=2006-01-02"`
	Frequency    string   `json:"frequency"`
	Instructions string   `json:"instructions"`
}

// CreateResponse is the body of a successful create.
type CreateResponse struct {
	handler.Ack
	ID      uint64            `json:"id"`
	Entries []models.LogEntry `json:"entries"`
}

// Handler is the medicine handler.
var Handler = Service{}

// Init initializes the medicine handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDMsg)
	}

	s.db = db
	s.cfg = cfg
	s.validator = handler.NewValidator()

	if s.now == nil {
		s.now = time.Now
	}

	// register routes
	app.Route(handler.APIPath+Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.List)
		router.Post(handler.RouterRootPath, s.Create)
		router.Put("/:id", s.Update)
		router.Delete("/:id", s.Delete)
	})

	return nil
}

// List returns the active medicines ordered by name.
func (s *Service) List(c *fiber.Ctx) error {
	medicines, err := controller.ListActive(s.db.WithContext(c.UserContext()))
	if err != nil {
		return handler.ServerError(c, s.cfg, err, "failed to list medicines")
	}

	return c.JSON(medicines)
}

// Create stores a new medicine and returns today's entries if it is due today.
func (s *Service) Create(c *fiber.Ctx) error {
	m, msg := s.parse(c)
	if m == nil {
		return handler.BadRequest(c, msg)
	}

	res, err := controller.Create(s.db.WithContext(c.UserContext()), m, schedule.Day(s.now()))
	if err != nil {
		if isValidation(err) {
			return handler.BadRequest(c, err.Error())
		}

		return handler.ServerError(c, s.cfg, err, "failed to create medicine")
	}

	entries := res.Entries
	if entries == nil {
		entries = []models.LogEntry{}
	}

	log.Info().Uint64("medicine", m.ID).Str("name", m.Name).Int("entries", res.Created).Msg("medicine added")

	return c.JSON(CreateResponse{
		Ack:     handler.Ack{Status: handler.StatusSuccess, Message: "Medicine added successfully"},
		ID:      m.ID,
		Entries: entries,
	})
}

// Update replaces a medicine. An unknown id is reported as success.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.BadRequest(c, "invalid medicine id")
	}

	m, msg := s.parse(c)
	if m == nil {
		return handler.BadRequest(c, msg)
	}

	_, err = controller.Update(s.db.WithContext(c.UserContext()), id, m, schedule.Day(s.now()))

	switch {
	case errors.Is(err, controller.ErrMedicineNotFound):
		log.Warn().Uint64("medicine", id).Msg("update of unknown medicine ignored")
	case err != nil && isValidation(err):
		return handler.BadRequest(c, err.Error())
	case err != nil:
		return handler.ServerError(c, s.cfg, err, "failed to update medicine")
	}

	return handler.Success(c, "Medicine updated successfully")
}

// Delete soft deletes a medicine. An unknown id is reported as success.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.BadRequest(c, "invalid medicine id")
	}

	err = controller.Deactivate(s.db.WithContext(c.UserContext()), id)

	switch {
	case errors.Is(err, controller.ErrMedicineNotFound):
		log.Warn().Uint64("medicine", id).Msg("delete of unknown medicine ignored")
	case err != nil:
		return handler.ServerError(c, s.cfg, err, "failed to delete medicine")
	}

	return handler.Success(c, "Medicine deleted successfully")
}

// parse reads and validates the body. On failure the medicine is nil and msg says why.
func (s *Service) parse(c *fiber.Ctx) (*models.Medicine, string) {
	var req Request

	if err := c.BodyParser(&req); err != nil {
		log.Debug().Err(err).Msg("failed to parse medicine body")
		return nil, "Invalid JSON body"
	}

	if err := s.validator.Struct(&req); err != nil {
		return nil, handler.ValidationMessage(err)
	}

	return &models.Medicine{
		Name:         req.Name,
		Dosage:       req.Dosage,
		TimesPerDay:  req.TimesPerDay,
		Schedule:     req.Schedule,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Frequency:    req.Frequency,
		Instructions: req.Instructions,
	}, ""
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

func isValidation(err error) bool {
	for _, target := range []error{
		controller.ErrNameEmpty,
		controller.ErrDosageEmpty,
		controller.ErrEndBeforeStart,
		controller.ErrUnsupportedFrequency,
		schedule.ErrScheduleMismatch,
		schedule.ErrInvalidSlot,
		schedule.ErrDuplicateSlot,
		schedule.ErrInvalidDay,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
