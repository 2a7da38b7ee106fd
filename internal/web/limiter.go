package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/dsn"
	"github.com/medtracker/medtracker/internal/web/handler"
)

// newLimiter limits api requests per client ip.
func newLimiter(cfg *config.Config) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Webserver.RateLimit.Max,
		Expiration: cfg.Webserver.RateLimit.Expiration,
		Storage:    limiterStorage(cfg),
		LimitReached: func(c *fiber.Ctx) error {
			log.Warn().Str("ip", c.IP()).Str("path", c.Path()).Msg("rate limit reached")

			return c.Status(fiber.StatusTooManyRequests).JSON(handler.Ack{
				Status:  handler.StatusError,
				Message: "too many requests",
			})
		},
	})
}

// limiterStorage shares the counters of several instances through the database.
// SQLite deployments run a single instance and keep the counters in memory.
func limiterStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return mysql.New(mysql.Config{
			ConnectionURI: dsn.MySQL(&cfg.DB),
			Table:         cfg.Webserver.RateLimit.Table,
		})
	case config.EnginePostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.Postgres(&cfg.DB),
			Table:         cfg.Webserver.RateLimit.Table,
		})
	default:
		return nil
	}
}
