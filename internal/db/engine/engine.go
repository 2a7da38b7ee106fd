// Package engine opens the gorm connection pool for the configured database engine.
package engine

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/dsn"
	"github.com/medtracker/medtracker/internal/db/models"
	gormadapter "github.com/medtracker/medtracker/internal/logger/adapter/gorm"
)

var (
	// ErrDBConfigNil is returned when no database configuration is given.
	ErrDBConfigNil = errors.New("database config is nil")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Dialector returns the gorm dialector of the configured engine.
func Dialector(cfg *config.DB) (gorm.Dialector, error) {
	switch cfg.GormEngine {
	case config.EngineSQLite, "":
		return sqlite.Open(dsn.Create(cfg)), nil
	case config.EngineMySQL:
		return mysql.Open(dsn.Create(cfg)), nil
	case config.EnginePostgres:
		return postgres.Open(dsn.Create(cfg)), nil
	default:
		return nil, errors.Wrap(config.ErrUnknownGormEngine, cfg.GormEngine)
	}
}

// Open connects to the database and configures the pool.
// SQLite is limited to a single connection, writes are serialized by the pool
// and in-memory databases stay alive for the life of the pool.
func Open(cfg *config.DB) (*gorm.DB, error) {
	if cfg == nil {
		return nil, ErrDBConfigNil
	}

	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormadapter.Logger(log.Logger),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database pool")
	}

	switch cfg.GormEngine {
	case config.EngineSQLite, "":
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	default:
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}

		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}

		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	return db, nil
}

// Migrate creates or updates the schema of every model.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	if err := db.AutoMigrate(
		&models.Medicine{},
		&models.LogEntry{},
		&models.Setting{},
	); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	return nil
}

// Ping checks the database is reachable within timeout.
func Ping(ctx context.Context, db *gorm.DB, timeout time.Duration) error {
	if db == nil {
		return ErrDBNil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database pool")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return errors.Wrap(sqlDB.PingContext(ctx), "database ping failed")
}

// Close closes the underlying pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database pool")
	}

	return errors.Wrap(sqlDB.Close(), "failed to close database")
}
