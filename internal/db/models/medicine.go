package models

import (
	"time"

	"gorm.io/datatypes"
)

// FrequencyDaily is the only frequency a medicine schedule currently supports.
const FrequencyDaily = "daily"

// DateLayout is the layout of every calendar day stored in the database.
const DateLayout = "2006-01-02"

// Medicine is a tracked drug regimen. It is the template log entries are materialized from.
// Medicines are never removed, deleting one clears IsActive.
type Medicine struct {
	// ID is the unique identifier of the medicine.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Name of the medicine, copied into every log entry.
	Name string `gorm:"size:255;not null" json:"name"`
	// Dosage is free text like "500mg", copied into every log entry.
	Dosage string `gorm:"size:255;not null" json:"dosage"`
	// TimesPerDay must equal the length of Schedule.
	TimesPerDay int `gorm:"not null;default:1" json:"times_per_day"`
	// Schedule holds the time of day slots as "HH:MM" in the order entries are created.
	Schedule datatypes.JSONSlice[string] `json:"schedule"`
	// StartDate is the first day the medicine is due, "YYYY-MM-DD".
	StartDate string `gorm:"size:10;not null" json:"start_date"`
	// EndDate is the last day the medicine is due, empty if open ended.
	EndDate string `gorm:"size:10" json:"end_date"`
	// Frequency of the schedule, only FrequencyDaily is materialized.
	Frequency string `gorm:"size:20;not null;default:'daily'" json:"frequency"`
	// Instructions like "with food".
	Instructions string `gorm:"type:text" json:"instructions"`
	// IsActive is the soft delete flag.
	IsActive bool `gorm:"not null;default:true;index" json:"is_active"`
	// CreatedAt is managed by GORM.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is managed by GORM.
	UpdatedAt time.Time `json:"updated_at"`
}
