// Package logentry provides the operations on the dose journal.
package logentry

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/metrics"
)

const (
	activeMedicineJoin = "LEFT JOIN medicines ON medicines.id = log_entries.medicine_id"
	activeMedicineCond = "(medicines.is_active = ? OR medicines.is_active IS NULL)"
	sortTimeLayout     = "2006-01-02 15:04:05"
)

var (
	// ErrLogEntryNotFound is returned when no log entry has the given id.
	ErrLogEntryNotFound = errors.New("log entry not found")
	// ErrInvalidStatus is returned for a status other than pending, taken or skipped.
	ErrInvalidStatus = errors.New("invalid status, expected pending, taken or skipped")
	// ErrNameEmpty is returned when an ad-hoc dose has no medicine name.
	ErrNameEmpty = errors.New("medicine name cannot be empty")
	// ErrDosageEmpty is returned when an ad-hoc dose has no dosage.
	ErrDosageEmpty = errors.New("dosage cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// ScheduleItem is a scheduled entry joined with the instructions of its medicine.
type ScheduleItem struct {
	models.LogEntry
	Instructions string `json:"instructions"`
}

// Filter narrows the scheduled, active scoped entries that are counted.
type Filter struct {
	// FromDay is the first day included, empty for no lower bound.
	FromDay string
	// ToDay is the last day included, empty for no upper bound.
	ToDay string
	// Status restricts the count to one status, empty for all.
	Status models.Status
}

// scheduledActive selects scheduled entries whose medicine is active or unknown.
func scheduledActive(db *gorm.DB) *gorm.DB {
	return db.Model(&models.LogEntry{}).
		Joins(activeMedicineJoin).
		Where(activeMedicineCond, true).
		Where("log_entries.scheduled_time IS NOT NULL")
}

func normalizeStatus(status models.Status) (models.Status, error) {
	status = models.Status(strings.ToLower(strings.TrimSpace(string(status))))
	if status == "" {
		return models.StatusTaken, nil
	}

	if !status.Valid() {
		return "", pkgerrors.Wrapf(ErrInvalidStatus, "%q", status)
	}

	return status, nil
}

// Get retrieves a log entry by id.
func Get(db *gorm.DB, id uint64) (*models.LogEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var e models.LogEntry

	if err := db.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLogEntryNotFound
		}

		return nil, err
	}

	return &e, nil
}

// Mark sets the status and notes of an entry. An empty status means taken.
// TakenTime is set to now for taken entries and cleared for any other status.
func Mark(db *gorm.DB, id uint64, status models.Status, notes string, now time.Time) (*models.LogEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	status, err := normalizeStatus(status)
	if err != nil {
		return nil, err
	}

	e, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	var taken *time.Time
	if status == models.StatusTaken {
		taken = &now
	}

	err = db.Model(e).Updates(map[string]any{
		"status":     status,
		"taken_time": taken,
		"notes":      notes,
	}).Error
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "mark log entry %d", id)
	}

	e.Status = status
	e.TakenTime = taken
	e.Notes = notes

	metrics.DosesRecorded.WithLabelValues(string(status)).Inc()

	return e, nil
}

// LogAdHoc records a dose that was not materialized from a schedule.
// It has no medicine link and no scheduled time, the day is the day of now.
func LogAdHoc(db *gorm.DB, name, dosage string, status models.Status, notes string, now time.Time) (*models.LogEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name = strings.TrimSpace(name)
	dosage = strings.TrimSpace(dosage)

	if name == "" {
		return nil, ErrNameEmpty
	}

	if dosage == "" {
		return nil, ErrDosageEmpty
	}

	status, err := normalizeStatus(status)
	if err != nil {
		return nil, err
	}

	e := &models.LogEntry{
		MedicineName: name,
		Dosage:       dosage,
		Day:          now.Format(models.DateLayout),
		TakenTime:    &now,
		Status:       status,
		Notes:        notes,
	}

	if err = db.Create(e).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "log ad-hoc dose")
	}

	metrics.DosesRecorded.WithLabelValues(string(status)).Inc()

	return e, nil
}

// Today returns the scheduled entries of day whose medicine is active, by scheduled time.
func Today(db *gorm.DB, day string) ([]ScheduleItem, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	items := []ScheduleItem{}

	err := scheduledActive(db).
		Select("log_entries.*, COALESCE(medicines.instructions, '') AS instructions").
		Where("log_entries.day = ?", day).
		Order("log_entries.scheduled_time").
		Order("log_entries.id").
		Scan(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load schedule of %s", day)
	}

	return items, nil
}

// PendingOn returns the pending scheduled entries of day whose medicine is active.
func PendingOn(db *gorm.DB, day string) ([]models.LogEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	entries := []models.LogEntry{}

	err := scheduledActive(db).
		Select("log_entries.*").
		Where("log_entries.day = ? AND log_entries.status = ?", day, models.StatusPending).
		Order("log_entries.scheduled_time").
		Find(&entries).Error
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load pending entries of %s", day)
	}

	return entries, nil
}

// CountScheduled counts scheduled entries of active or unknown medicines matching f.
func CountScheduled(db *gorm.DB, f Filter) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	q := scheduledActive(db)

	if f.FromDay != "" {
		q = q.Where("log_entries.day >= ?", f.FromDay)
	}

	if f.ToDay != "" {
		q = q.Where("log_entries.day <= ?", f.ToDay)
	}

	if f.Status != "" {
		q = q.Where("log_entries.status = ?", f.Status)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, pkgerrors.Wrap(err, "count log entries")
	}

	return n, nil
}

// History returns every entry from sinceDay on, ad-hoc entries and entries of
// deleted medicines included, newest first.
func History(db *gorm.DB, sinceDay string) ([]models.LogEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	entries := []models.LogEntry{}

	if err := db.Where("day >= ?", sinceDay).Find(&entries).Error; err != nil {
		return nil, pkgerrors.Wrapf(err, "load history since %s", sinceDay)
	}

	slices.SortStableFunc(entries, func(a, b models.LogEntry) int {
		if c := strings.Compare(sortKey(&b), sortKey(&a)); c != 0 {
			return c
		}

		return cmp.Compare(b.ID, a.ID)
	})

	return entries, nil
}

// All returns every entry ordered by id.
func All(db *gorm.DB) ([]models.LogEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	entries := []models.LogEntry{}

	if err := db.Order("id").Find(&entries).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "load log entries")
	}

	return entries, nil
}

// sortKey is the moment an entry stands for, the scheduled time or else the taken time.
func sortKey(e *models.LogEntry) string {
	switch {
	case e.ScheduledTime != nil:
		return *e.ScheduledTime + ":00"
	case e.TakenTime != nil:
		return e.TakenTime.Local().Format(sortTimeLayout)
	default:
		return e.Day
	}
}
