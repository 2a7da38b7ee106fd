package models

import "time"

// Status of a log entry.
type Status string

const (
	// StatusPending is a materialized dose nobody acted on yet.
	StatusPending Status = "pending"
	// StatusTaken is a dose that was taken.
	StatusTaken Status = "taken"
	// StatusSkipped is a dose that was deliberately skipped.
	StatusSkipped Status = "skipped"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusTaken, StatusSkipped:
		return true
	default:
		return false
	}
}

// ScheduledTimeLayout is the layout of LogEntry.ScheduledTime.
const ScheduledTimeLayout = "2006-01-02 15:04"

// LogEntry is one concrete dose occurrence, either materialized from a medicine
// schedule or logged ad-hoc.
//
// Name and dosage are a snapshot taken when the entry is created, later edits of
// the medicine don't rewrite history. MedicineID is a weak reference and nil for
// ad-hoc entries.
type LogEntry struct {
	ID           uint64  `gorm:"primaryKey"                                   json:"id"`
	MedicineID   *uint64 `gorm:"uniqueIndex:idx_log_entry_slot"               json:"medicine_id"`
	MedicineName string  `gorm:"size:255;not null"                            json:"medicine_name"`
	Dosage       string  `gorm:"size:255;not null"                            json:"dosage"`
	// Day is the calendar day the entry belongs to, "YYYY-MM-DD".
	Day string `gorm:"size:10;not null;index" json:"day"`
	// ScheduledTime is "YYYY-MM-DD HH:MM", nil for ad-hoc entries.
	ScheduledTime *string    `gorm:"size:16;uniqueIndex:idx_log_entry_slot"  json:"scheduled_time"`
	TakenTime     *time.Time `json:"taken_time"`
	Status        Status     `gorm:"size:10;not null;default:'pending';index" json:"status"`
	Notes         string     `gorm:"type:text"                              json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Slot returns the time of day part of the scheduled time, empty for ad-hoc entries.
func (e *LogEntry) Slot() string {
	if e.ScheduledTime == nil || len(*e.ScheduledTime) <= len(DateLayout)+1 {
		return ""
	}

	return (*e.ScheduledTime)[len(DateLayout)+1:]
}
