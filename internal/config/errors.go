package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if config db.gormEngine is not supported.
	ErrUnknownGormEngine = errors.New("config db.gormEngine must be sqlite, mysql or postgres")

	// ErrEmptyDBName error if config db.name is empty.
	ErrEmptyDBName = errors.New("config db.name can not be empty")

	// ErrEmptySchedulerSpec error if the scheduler is enabled without a cron spec.
	ErrEmptySchedulerSpec = errors.New("config scheduler.spec can not be empty when the scheduler is enabled")
)
