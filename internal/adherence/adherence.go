// Package adherence computes adherence rates and the dashboard statistics.
package adherence

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/db/controller/logentry"
	"github.com/medtracker/medtracker/internal/db/controller/medicine"
	"github.com/medtracker/medtracker/internal/db/models"
)

// DefaultWindowDays is the trailing window of the adherence rate.
const DefaultWindowDays = 7

// Window is the adherence over a trailing window of days.
type Window struct {
	Since string  `json:"since"`
	Until string  `json:"until"`
	Total int64   `json:"total"`
	Taken int64   `json:"taken"`
	Rate  float64 `json:"adherence_rate"`
}

// Statistics is the read only summary of the dose journal.
type Statistics struct {
	TotalMedicines int64   `json:"total_medicines"`
	TakenToday     int64   `json:"taken_today"`
	TotalToday     int64   `json:"total_today"`
	AdherenceRate  float64 `json:"adherence_rate"`
	TakenThisWeek  int64   `json:"taken_this_week"`
	UpcomingToday  int64   `json:"upcoming_today"`
}

// Rate returns taken as a percentage of total rounded to two decimals, 0 if total is 0.
func Rate(taken, total int64) float64 {
	if total <= 0 {
		return 0
	}

	return math.Round(float64(taken)/float64(total)*10000) / 100 //nolint:mnd
}

// Since returns the first day of a window of days ending at now.
// The window is truncated to calendar days.
func Since(days int, now time.Time) string {
	return now.AddDate(0, 0, -days).Format(models.DateLayout)
}

// ForWindow counts the scheduled entries from Since(days, now) up to the day of now.
// Entries of later days are not part of the window.
func ForWindow(db *gorm.DB, days int, now time.Time) (Window, error) {
	w := Window{Since: Since(days, now), Until: now.Format(models.DateLayout)}

	var err error

	w.Total, err = logentry.CountScheduled(db, logentry.Filter{FromDay: w.Since, ToDay: w.Until})
	if err != nil {
		return Window{}, err
	}

	w.Taken, err = logentry.CountScheduled(db, logentry.Filter{FromDay: w.Since, ToDay: w.Until, Status: models.StatusTaken})
	if err != nil {
		return Window{}, err
	}

	w.Rate = Rate(w.Taken, w.Total)

	return w, nil
}

// Upcoming counts today's pending entries scheduled later than the wall clock of now.
func Upcoming(db *gorm.DB, now time.Time) (int64, error) {
	pending, err := logentry.PendingOn(db, now.Format(models.DateLayout))
	if err != nil {
		return 0, err
	}

	clock := now.Format("15:04:05")

	var n int64

	for i := range pending {
		slot := pending[i].Slot()
		if slot == "" {
			continue
		}

		if len(slot) == len("15:04") {
			slot += ":00"
		}

		if slot > clock {
			n++
		}
	}

	return n, nil
}

// Compute builds the statistics at now.
func Compute(db *gorm.DB, now time.Time) (*Statistics, error) {
	if db == nil {
		return nil, logentry.ErrDBNil
	}

	var (
		s     Statistics
		err   error
		today = now.Format(models.DateLayout)
	)

	if s.TotalMedicines, err = medicine.CountActive(db); err != nil {
		return nil, errors.Wrap(err, "count medicines")
	}

	if s.TotalToday, err = logentry.CountScheduled(db, logentry.Filter{FromDay: today, ToDay: today}); err != nil {
		return nil, err
	}

	s.TakenToday, err = logentry.CountScheduled(db, logentry.Filter{FromDay: today, ToDay: today, Status: models.StatusTaken})
	if err != nil {
		return nil, err
	}

	week, err := ForWindow(db, DefaultWindowDays, now)
	if err != nil {
		return nil, err
	}

	s.AdherenceRate = week.Rate
	s.TakenThisWeek = week.Taken

	if s.UpcomingToday, err = Upcoming(db, now); err != nil {
		return nil, err
	}

	return &s, nil
}
