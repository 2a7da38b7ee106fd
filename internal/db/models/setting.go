// Package models contains database model definitions.
package models

// SettingKind is the value type of a setting.
type SettingKind string

const (
	// KindBool settings hold "true" or "false".
	KindBool SettingKind = "bool"
	// KindInt settings hold a base 10 integer.
	KindInt SettingKind = "int"
	// KindString settings hold any lowercase string.
	KindString SettingKind = "string"
)

// Setting represents a user preference stored in the database.
// Value is always stored lowercase, Kind tells how to decode it.
type Setting struct {
	ID    uint64      `gorm:"primaryKey"             json:"id"`
	Key   string      `gorm:"size:100;unique;not null" json:"key"`
	Kind  SettingKind `gorm:"size:10;not null"        json:"kind"`
	Value string      `gorm:"size:255;not null"       json:"value"`
}
