package config

import "time"

// DB holds the database configuration settings.
type DB struct {
	Extras          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // database name, or file path for sqlite
	GormEngine      string // sqlite, mysql or postgres
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
