package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/schedule"
)

// genericServerError is sent instead of the storage error unless errors are exposed.
const genericServerError = "internal server error"

// Ack is the body of every mutating request and of every error.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewValidator returns a validator reporting json field names.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		if name == "" {
			return fld.Name
		}

		return name
	})

	return v
}

// ValidationMessage turns validator errors into one readable line.
func ValidationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, len(validationErrors))

	for i, ve := range validationErrors {
		switch ve.Tag() {
		case "required":
			messages[i] = "Missing required field: " + ve.Field()
		case "datetime":
			messages[i] = fmt.Sprintf("Field '%s' must be a date like %s", ve.Field(), ve.Param())
		default:
			messages[i] = "Field '" + ve.Field() + "' failed validation tag '" + ve.Tag() + "'"
		}
	}

	return strings.Join(messages, "; ")
}

// Success sends a success ack.
func Success(c *fiber.Ctx, message string) error {
	return c.JSON(Ack{Status: StatusSuccess, Message: message})
}

// BadRequest sends a 400 error ack with message.
func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Ack{Status: StatusError, Message: message})
}

// ServerError logs err and sends a 500 error ack.
// The error text is only sent when the webserver is configured to expose errors.
func ServerError(c *fiber.Ctx, cfg *config.Config, err error, msg string) error {
	log.Error().Err(err).Str("path", c.Path()).Msg(msg)

	message := genericServerError
	if cfg != nil && cfg.Webserver.ExposeErrors {
		message = err.Error()
	}

	return c.Status(fiber.StatusInternalServerError).JSON(Ack{Status: StatusError, Message: message})
}

// Day reads the date query parameter, defaulting to the day of now.
func Day(c *fiber.Ctx, now Clock) (string, error) {
	day := c.Query(DateQuery)
	if day == "" {
		return schedule.Day(now()), nil
	}

	if _, err := schedule.ParseDay(day); err != nil {
		return "", err
	}

	return day, nil
}
