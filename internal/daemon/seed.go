package daemon

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/db/controller/setting"
)

// seed creates the default settings missing from the settings table.
func seed(db *gorm.DB) error {
	return errors.Wrap(setting.EnsureDefaults(db), "failed to seed default settings")
}
