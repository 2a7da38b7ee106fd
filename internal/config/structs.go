package config

import (
	"time"

	"github.com/medtracker/medtracker/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Scheduler Scheduler
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string    // domain name for the webserver
	Port         int       // listening port for the webserver
	ShutDownTime int       // wait time for shutdown
	URL          string    // base url for the webserver
	ExposeErrors bool      // return raw storage errors to API clients
	MetricsPath  string    // prometheus exposition path, empty disables it
	RateLimit    RateLimit // per client request limit
}

// RateLimit configures the fiber limiter middleware.
type RateLimit struct {
	Enabled    bool
	Max        int
	Expiration time.Duration
	Table      string // storage table when the db engine is mysql or postgres
}

// Scheduler configures the daily dose materialization job.
type Scheduler struct {
	Enabled    bool
	Spec       string // cron expression evaluated in local time
	RunOnStart bool   // materialize today right after start
}
