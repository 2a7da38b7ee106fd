// Package schedule turns medicine schedules into concrete log entries.
//
// Materialization is idempotent: log entries are unique per medicine and
// scheduled time, so running it again for the same day creates nothing new.
package schedule

import (
	"errors"
	"slices"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/metrics"
)

const dayLayout = models.DateLayout

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Day formats t as "YYYY-MM-DD" in local time.
func Day(t time.Time) string {
	return t.Local().Format(dayLayout)
}

// DueOn reports whether the medicine has doses on day.
// Only active medicines with a daily frequency are due, within start and end date.
func DueOn(m *models.Medicine, day string) bool {
	if m == nil || !m.IsActive {
		return false
	}

	if m.Frequency != "" && m.Frequency != models.FrequencyDaily {
		return false
	}

	if m.StartDate != "" && day < m.StartDate {
		return false
	}

	return m.EndDate == "" || day <= m.EndDate
}

// Generate returns one pending entry per schedule slot of m on day, in schedule order.
// Nothing is persisted.
func Generate(m *models.Medicine, day string) ([]models.LogEntry, error) {
	if _, err := ParseDay(day); err != nil {
		return nil, err
	}

	slots, err := Normalize(m.TimesPerDay, m.Schedule)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LogEntry, 0, len(slots))

	for _, slot := range slots {
		medicineID := m.ID
		scheduled := day + " " + slot

		entries = append(entries, models.LogEntry{
			MedicineID:    &medicineID,
			MedicineName:  m.Name,
			Dosage:        m.Dosage,
			Day:           day,
			ScheduledTime: &scheduled,
			Status:        models.StatusPending,
		})
	}

	return entries, nil
}

// Result of materializing one medicine for one day.
type Result struct {
	// Created is the number of new entries.
	Created int
	// Entries are all entries of the medicine on that day, in schedule order.
	Entries []models.LogEntry
}

// Materialize persists the entries of m for day. Existing entries are kept as they are.
func Materialize(db *gorm.DB, m *models.Medicine, day string) (Result, error) {
	if db == nil {
		return Result{}, ErrDBNil
	}

	generated, err := Generate(m, day)
	if err != nil {
		return Result{}, err
	}

	var created int

	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range generated {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&generated[i])
			if res.Error != nil {
				return res.Error
			}

			created += int(res.RowsAffected)
		}

		return nil
	})
	if err != nil {
		return Result{}, pkgerrors.Wrapf(err, "materialize medicine %d on %s", m.ID, day)
	}

	entries, err := entriesOf(db, m, day)
	if err != nil {
		return Result{}, err
	}

	if created > 0 {
		metrics.EntriesMaterialized.Add(float64(created))
		log.Debug().Uint64("medicine", m.ID).Str("day", day).Int("created", created).Msg("log entries materialized")
	}

	return Result{Created: created, Entries: entries}, nil
}

// Reconcile brings the entries of day in line with an updated medicine.
// Pending entries whose slot left the schedule are removed, taken and skipped
// entries are history and stay. If the medicine is no longer due on day all
// pending entries of the day are removed.
func Reconcile(db *gorm.DB, m *models.Medicine, day string) (Result, error) {
	if db == nil {
		return Result{}, ErrDBNil
	}

	if _, err := ParseDay(day); err != nil {
		return Result{}, err
	}

	if !DueOn(m, day) {
		if err := pendingOn(db, m, day).Delete(&models.LogEntry{}).Error; err != nil {
			return Result{}, pkgerrors.Wrapf(err, "reconcile medicine %d on %s", m.ID, day)
		}

		return Result{}, nil
	}

	generated, err := Generate(m, day)
	if err != nil {
		return Result{}, err
	}

	keep := make([]string, 0, len(generated))
	for _, e := range generated {
		keep = append(keep, *e.ScheduledTime)
	}

	if err = pendingOn(db, m, day).Where("scheduled_time NOT IN ?", keep).Delete(&models.LogEntry{}).Error; err != nil {
		return Result{}, pkgerrors.Wrapf(err, "reconcile medicine %d on %s", m.ID, day)
	}

	return Materialize(db, m, day)
}

// MaterializeAll materializes every medicine due on day and returns the number of created entries.
// A failing medicine does not stop the others, all errors are returned joined.
func MaterializeAll(db *gorm.DB, day string) (int, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	if _, err := ParseDay(day); err != nil {
		return 0, err
	}

	var medicines []models.Medicine

	if err := db.Where("is_active = ?", true).Order("id").Find(&medicines).Error; err != nil {
		metrics.MaterializeRuns.WithLabelValues(metrics.ResultError).Inc()
		return 0, pkgerrors.Wrap(err, "list active medicines")
	}

	var (
		created int
		errs    []error
	)

	for i := range medicines {
		if !DueOn(&medicines[i], day) {
			continue
		}

		res, err := Materialize(db, &medicines[i], day)
		if err != nil {
			log.Error().Err(err).Uint64("medicine", medicines[i].ID).Str("day", day).Msg("materialize failed")
			errs = append(errs, err)

			continue
		}

		created += res.Created
	}

	if len(errs) > 0 {
		metrics.MaterializeRuns.WithLabelValues(metrics.ResultError).Inc()
		return created, errors.Join(errs...)
	}

	metrics.MaterializeRuns.WithLabelValues(metrics.ResultOK).Inc()

	return created, nil
}

func pendingOn(db *gorm.DB, m *models.Medicine, day string) *gorm.DB {
	return db.Where("medicine_id = ? AND day = ? AND status = ?", m.ID, day, models.StatusPending)
}

// entriesOf loads the entries of m on day sorted by the position of their slot in the schedule.
func entriesOf(db *gorm.DB, m *models.Medicine, day string) ([]models.LogEntry, error) {
	var entries []models.LogEntry

	if err := db.Where("medicine_id = ? AND day = ?", m.ID, day).Order("scheduled_time").Find(&entries).Error; err != nil {
		return nil, pkgerrors.Wrapf(err, "load entries of medicine %d on %s", m.ID, day)
	}

	order := make(map[string]int, len(m.Schedule))

	for i, s := range m.Schedule {
		if n, err := NormalizeSlot(s); err == nil {
			order[n] = i
		}
	}

	position := func(e *models.LogEntry) int {
		if i, ok := order[e.Slot()]; ok {
			return i
		}

		return len(order)
	}

	slices.SortStableFunc(entries, func(a, b models.LogEntry) int {
		return position(&a) - position(&b)
	})

	return entries, nil
}
