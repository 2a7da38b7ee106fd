// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/medtracker/medtracker/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
// For sqlite the database name is the file path.
func Create(dbCfg *config.DB) string {
	switch dbCfg.GormEngine {
	case config.EngineMySQL:
		return MySQL(dbCfg)
	case config.EnginePostgres:
		return Postgres(dbCfg)
	default:
		return dbCfg.Name
	}
}

// MySQL builds a go-sql-driver/mysql DSN, parseTime is always enabled.
func MySQL(dbCfg *config.DB) string {
	extras := dbCfg.Extras
	if !strings.Contains(extras, "parseTime=") {
		extras = joinParams(extras, "parseTime=true")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.Name,
		extras,
	)
}

// Postgres builds a postgres connection URI as understood by pgx.
// Extras are appended as query parameters, e.g. "sslmode=disable".
func Postgres(dbCfg *config.DB) string {
	out := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.Name,
	)

	if dbCfg.Extras != "" {
		out += "?" + dbCfg.Extras
	}

	return out
}

func joinParams(a, b string) string {
	if a == "" {
		return b
	}

	return a + "&" + b
}
