// Package export builds a full snapshot of the database.
package export

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/db/controller/logentry"
	"github.com/medtracker/medtracker/internal/db/controller/medicine"
	"github.com/medtracker/medtracker/internal/db/controller/setting"
	"github.com/medtracker/medtracker/internal/db/models"
)

// Snapshot holds every stored entity.
type Snapshot struct {
	Medicines  []models.Medicine `json:"medicines"`
	Logs       []models.LogEntry `json:"logs"`
	Settings   []models.Setting  `json:"settings"`
	ExportedAt time.Time         `json:"exported_at"`
}

// Take reads all medicines, including deleted ones, all log entries and all settings.
// The reads share one transaction so the snapshot is consistent.
func Take(db *gorm.DB, now time.Time) (*Snapshot, error) {
	if db == nil {
		return nil, medicine.ErrDBNil
	}

	s := &Snapshot{ExportedAt: now}

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error

		if s.Medicines, err = medicine.ListAll(tx); err != nil {
			return errors.Wrap(err, "export medicines")
		}

		if s.Logs, err = logentry.All(tx); err != nil {
			return errors.Wrap(err, "export log entries")
		}

		if s.Settings, err = setting.GetAll(tx); err != nil {
			return errors.Wrap(err, "export settings")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Settings == nil {
		s.Settings = []models.Setting{}
	}

	return s, nil
}
