package schedule

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const slotLayout = "15:04"

var (
	// ErrScheduleMismatch is returned when the number of slots differs from times per day.
	ErrScheduleMismatch = errors.New("schedule length does not match times per day")
	// ErrInvalidSlot is returned when a slot is not a time of day.
	ErrInvalidSlot = errors.New("invalid schedule time")
	// ErrDuplicateSlot is returned when a slot appears twice in a schedule.
	ErrDuplicateSlot = errors.New("duplicate schedule time")
	// ErrInvalidDay is returned when a day is not formatted as YYYY-MM-DD.
	ErrInvalidDay = errors.New("invalid date, expected YYYY-MM-DD")
)

// NormalizeSlot returns slot as zero padded "HH:MM".
// "8:00", "08:00" and "08:00:00" are all accepted.
func NormalizeSlot(slot string) (string, error) {
	for _, layout := range []string{slotLayout, "15:04:05"} {
		if t, err := time.Parse(layout, slot); err == nil {
			return t.Format(slotLayout), nil
		}
	}

	return "", errors.Wrapf(ErrInvalidSlot, "%q", slot)
}

// Normalize validates a schedule against timesPerDay and returns the normalized slots
// in the order given.
func Normalize(timesPerDay int, slots []string) ([]string, error) {
	if len(slots) != timesPerDay {
		return nil, errors.Wrap(ErrScheduleMismatch,
			fmt.Sprintf("expected %d time slots, got %d", timesPerDay, len(slots)))
	}

	out := make([]string, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))

	for _, s := range slots {
		n, err := NormalizeSlot(s)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[n]; ok {
			return nil, errors.Wrapf(ErrDuplicateSlot, "%s", n)
		}

		seen[n] = struct{}{}
		out = append(out, n)
	}

	return out, nil
}

// ParseDay checks day is a calendar date "YYYY-MM-DD".
func ParseDay(day string) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, day, time.Local)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidDay, "%q", day)
	}

	return t, nil
}
