// Package testdb provides a migrated in-memory SQLite database for tests.
package testdb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/engine"
)

// New creates an in-memory SQLite database with every model migrated.
// The pool is closed when the test ends.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := engine.Open(&config.DB{GormEngine: config.EngineSQLite, Name: ":memory:"})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, engine.Migrate(db), "failed to migrate test database")

	t.Cleanup(func() {
		_ = engine.Close(db)
	})

	return db
}
