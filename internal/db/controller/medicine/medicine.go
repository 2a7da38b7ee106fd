// Package medicine provides the operations on medicine regimens.
package medicine

import (
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/schedule"
)

var (
	// ErrMedicineNotFound is returned when no medicine has the given id.
	ErrMedicineNotFound = errors.New("medicine not found")
	// ErrNameEmpty is returned when the medicine name is blank.
	ErrNameEmpty = errors.New("medicine name cannot be empty")
	// ErrDosageEmpty is returned when the dosage is blank.
	ErrDosageEmpty = errors.New("medicine dosage cannot be empty")
	// ErrEndBeforeStart is returned when the end date lies before the start date.
	ErrEndBeforeStart = errors.New("end date is before start date")
	// ErrUnsupportedFrequency is returned for any frequency other than daily.
	ErrUnsupportedFrequency = errors.New("only daily frequency is supported")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Prepare trims and validates m in place and normalizes its schedule.
// The frequency defaults to daily and no other frequency is accepted.
func Prepare(m *models.Medicine) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Dosage = strings.TrimSpace(m.Dosage)
	m.Frequency = strings.ToLower(strings.TrimSpace(m.Frequency))
	m.Instructions = strings.TrimSpace(m.Instructions)

	if m.Name == "" {
		return ErrNameEmpty
	}

	if m.Dosage == "" {
		return ErrDosageEmpty
	}

	if m.Frequency == "" {
		m.Frequency = models.FrequencyDaily
	}

	if m.Frequency != models.FrequencyDaily {
		return pkgerrors.Wrap(ErrUnsupportedFrequency, m.Frequency)
	}

	if _, err := schedule.ParseDay(m.StartDate); err != nil {
		return pkgerrors.Wrap(err, "start_date")
	}

	if m.EndDate != "" {
		if _, err := schedule.ParseDay(m.EndDate); err != nil {
			return pkgerrors.Wrap(err, "end_date")
		}

		if m.EndDate < m.StartDate {
			return ErrEndBeforeStart
		}
	}

	slots, err := schedule.Normalize(m.TimesPerDay, m.Schedule)
	if err != nil {
		return err
	}

	m.Schedule = slots

	return nil
}

// Create stores a new active medicine and materializes its entries for day when it is due.
// Both happen in one transaction.
func Create(db *gorm.DB, m *models.Medicine, day string) (schedule.Result, error) {
	if db == nil {
		return schedule.Result{}, ErrDBNil
	}

	if err := Prepare(m); err != nil {
		return schedule.Result{}, err
	}

	m.ID = 0
	m.IsActive = true

	var res schedule.Result

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return pkgerrors.Wrap(err, "create medicine")
		}

		if !schedule.DueOn(m, day) {
			return nil
		}

		var err error

		res, err = schedule.Materialize(tx, m, day)

		return err
	})
	if err != nil {
		return schedule.Result{}, err
	}

	return res, nil
}

// Get retrieves a medicine by id, active or not.
func Get(db *gorm.DB, id uint64) (*models.Medicine, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var m models.Medicine

	if err := db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMedicineNotFound
		}

		return nil, err
	}

	return &m, nil
}

// ListActive returns all active medicines ordered by name.
func ListActive(db *gorm.DB) ([]models.Medicine, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	medicines := []models.Medicine{}

	if err := db.Where("is_active = ?", true).Order("name").Order("id").Find(&medicines).Error; err != nil {
		return nil, err
	}

	return medicines, nil
}

// ListAll returns every medicine including deleted ones ordered by id.
func ListAll(db *gorm.DB) ([]models.Medicine, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	medicines := []models.Medicine{}

	if err := db.Order("id").Find(&medicines).Error; err != nil {
		return nil, err
	}

	return medicines, nil
}

// CountActive returns the number of active medicines.
func CountActive(db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var n int64

	err := db.Model(&models.Medicine{}).Where("is_active = ?", true).Count(&n).Error

	return n, err
}

// Update replaces the editable fields of medicine id with those of in and
// reconciles the entries of day with the new schedule.
func Update(db *gorm.DB, id uint64, in *models.Medicine, day string) (*models.Medicine, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := Prepare(in); err != nil {
		return nil, err
	}

	var updated *models.Medicine

	err := db.Transaction(func(tx *gorm.DB) error {
		m, err := Get(tx, id)
		if err != nil {
			return err
		}

		m.Name = in.Name
		m.Dosage = in.Dosage
		m.TimesPerDay = in.TimesPerDay
		m.Schedule = in.Schedule
		m.StartDate = in.StartDate
		m.EndDate = in.EndDate
		m.Frequency = in.Frequency
		m.Instructions = in.Instructions

		if err = tx.Save(m).Error; err != nil {
			return pkgerrors.Wrap(err, "update medicine")
		}

		if _, err = schedule.Reconcile(tx, m, day); err != nil {
			return err
		}

		updated = m

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Deactivate soft deletes a medicine. Its log entries stay for the history,
// the active filter hides them from today's schedule and the statistics.
func Deactivate(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Medicine{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "deactivate medicine")
	}

	if result.RowsAffected == 0 {
		return ErrMedicineNotFound
	}

	return nil
}
