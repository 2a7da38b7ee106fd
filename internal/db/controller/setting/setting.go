// Package setting provides CRUD operations for managing typed user settings.
package setting

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medtracker/medtracker/internal/db/models"
)

const (
	// KeyNotificationsEnabled toggles dose reminders.
	KeyNotificationsEnabled = "notifications_enabled"
	// KeySnoozeDuration is the reminder snooze in minutes.
	KeySnoozeDuration = "snooze_duration"
	// KeyLanguage is the ui language code.
	KeyLanguage = "language"
	// KeyReminderLeadTime is how many minutes before a dose the reminder fires.
	KeyReminderLeadTime = "reminder_lead_time"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingKeyEmpty is returned when attempting to create/update a setting with an empty key.
	ErrSettingKeyEmpty = errors.New("setting key cannot be empty")
	// ErrSettingAlreadyExists is returned when attempting to create a setting that already exists.
	ErrSettingAlreadyExists = errors.New("setting already exists")
	// ErrInvalidSettingValue is returned when a value does not fit the kind of the setting.
	ErrInvalidSettingValue = errors.New("invalid setting value")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Known maps the settings with a fixed kind. Other keys get their kind from the first value written.
var Known = map[string]models.SettingKind{ //nolint:gochecknoglobals
	KeyNotificationsEnabled: models.KindBool,
	KeySnoozeDuration:       models.KindInt,
	KeyLanguage:             models.KindString,
	KeyReminderLeadTime:     models.KindInt,
}

// Defaults are seeded when the settings table misses a key.
var Defaults = map[string]any{ //nolint:gochecknoglobals
	KeyNotificationsEnabled: true,
	KeySnoozeDuration:       10,
	KeyLanguage:             "en",
	KeyReminderLeadTime:     5,
}

// byKey quotes the column, key is reserved in mysql.
func byKey(db *gorm.DB, key string) *gorm.DB {
	return db.Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key})
}

// Get retrieves a setting by its key.
func Get(db *gorm.DB, key string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var setting models.Setting

	result := byKey(db, key).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, result.Error
	}

	return &setting, nil
}

// GetAll retrieves all settings ordered by key.
func GetAll(db *gorm.DB) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting

	result := db.Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}

// Map returns all settings decoded into their typed values.
func Map(db *gorm.DB) (map[string]any, error) {
	settings, err := GetAll(db)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(settings))

	for i := range settings {
		v, decErr := Decode(&settings[i])
		if decErr != nil {
			return nil, decErr
		}

		out[settings[i].Key] = v
	}

	return out, nil
}

// Create creates a new setting, the value is validated against the kind of the key.
func Create(db *gorm.DB, key string, value any) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	kind, encoded, err := Encode(key, value)
	if err != nil {
		return nil, err
	}

	// Check if setting already exists
	var existing models.Setting

	result := byKey(db, key).First(&existing)
	if result.Error == nil {
		return nil, ErrSettingAlreadyExists
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	setting := &models.Setting{
		Key:   key,
		Kind:  kind,
		Value: encoded,
	}

	result = db.Create(setting)
	if result.Error != nil {
		return nil, result.Error
	}

	return setting, nil
}

// Set creates or updates a setting by key (upsert operation).
func Set(db *gorm.DB, key string, value any) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var setting models.Setting

	result := byKey(db, key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		// Setting doesn't exist, create it
		return Create(db, key, value)
	}

	if result.Error != nil {
		return nil, result.Error
	}

	encoded, err := reencode(&setting, value)
	if err != nil {
		return nil, err
	}

	// Setting exists, update it
	setting.Value = encoded

	result = db.Save(&setting)
	if result.Error != nil {
		return nil, result.Error
	}

	return &setting, nil
}

// SetMany upserts all values in one transaction. Nothing is written if a single value is invalid.
func SetMany(db *gorm.DB, values map[string]any) error {
	if db == nil {
		return ErrDBNil
	}

	// validate up front, a bad value should not even open a transaction
	keys := make([]string, 0, len(values))

	for k, v := range values {
		if k == "" {
			return ErrSettingKeyEmpty
		}

		if _, _, err := Encode(k, v); err != nil {
			return err
		}

		keys = append(keys, k)
	}

	sort.Strings(keys)

	return db.Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			if _, err := Set(tx, k, values[k]); err != nil {
				return err
			}
		}

		return nil
	})
}

// EnsureDefaults creates every default setting that does not exist yet.
// Existing values are left untouched.
func EnsureDefaults(db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	for key, value := range Defaults {
		_, err := Create(db, key, value)
		if err != nil && !errors.Is(err, ErrSettingAlreadyExists) {
			return err
		}
	}

	return nil
}

// Update updates an existing setting by ID.
func Update(db *gorm.DB, id uint64, value any) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var setting models.Setting

	result := db.First(&setting, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, result.Error
	}

	encoded, err := reencode(&setting, value)
	if err != nil {
		return nil, err
	}

	setting.Value = encoded

	result = db.Save(&setting)
	if result.Error != nil {
		return nil, result.Error
	}

	return &setting, nil
}

// Delete deletes a setting by ID.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.Setting{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// DeleteByKey deletes a setting by key.
func DeleteByKey(db *gorm.DB, key string) error {
	if db == nil {
		return ErrDBNil
	}

	if key == "" {
		return ErrSettingKeyEmpty
	}

	result := byKey(db, key).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// Encode validates value for key and returns the kind and the lowercase string stored in the database.
// Known keys have a fixed kind, the kind of other keys is inferred from the value.
func Encode(key string, value any) (models.SettingKind, string, error) {
	kind, known := Known[key]
	if !known {
		var err error

		kind, err = inferKind(value)
		if err != nil {
			return "", "", pkgerrors.Wrapf(err, "setting %s", key)
		}
	}

	encoded, err := encodeValue(kind, value)
	if err != nil {
		return "", "", pkgerrors.Wrapf(err, "setting %s expects %s", key, kind)
	}

	return kind, encoded, nil
}

// reencode validates value against the kind s already has and returns the string to store.
// Known keys keep their fixed kind, other keys keep the kind of their first value.
func reencode(s *models.Setting, value any) (string, error) {
	if kind, known := Known[s.Key]; known {
		s.Kind = kind
	}

	if s.Kind == "" {
		kind, encoded, err := Encode(s.Key, value)
		if err != nil {
			return "", err
		}

		s.Kind = kind

		return encoded, nil
	}

	encoded, err := encodeValue(s.Kind, value)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "setting %s expects %s", s.Key, s.Kind)
	}

	return encoded, nil
}

// Decode returns the typed value of a stored setting.
func Decode(s *models.Setting) (any, error) {
	switch s.Kind {
	case models.KindBool:
		b, err := strconv.ParseBool(s.Value)
		if err != nil {
			return nil, pkgerrors.Wrapf(ErrInvalidSettingValue, "stored setting %s: %v", s.Key, err)
		}

		return b, nil
	case models.KindInt:
		i, err := strconv.ParseInt(s.Value, 10, 64)
		if err != nil {
			return nil, pkgerrors.Wrapf(ErrInvalidSettingValue, "stored setting %s: %v", s.Key, err)
		}

		return i, nil
	default:
		return s.Value, nil
	}
}

func inferKind(value any) (models.SettingKind, error) {
	switch v := value.(type) {
	case bool:
		return models.KindBool, nil
	case int, int32, int64, uint, uint32, uint64, float64:
		if _, err := encodeValue(models.KindInt, v); err != nil {
			return "", err
		}

		return models.KindInt, nil
	case string:
		return models.KindString, nil
	default:
		return "", pkgerrors.Wrapf(ErrInvalidSettingValue, "unsupported type %T", value)
	}
}

func encodeValue(kind models.SettingKind, value any) (string, error) {
	switch kind {
	case models.KindBool:
		switch v := value.(type) {
		case bool:
			return strconv.FormatBool(v), nil
		case string:
			b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
			if err != nil {
				return "", pkgerrors.Wrapf(ErrInvalidSettingValue, "%q is not a bool", v)
			}

			return strconv.FormatBool(b), nil
		}
	case models.KindInt:
		switch v := value.(type) {
		case int:
			return strconv.Itoa(v), nil
		case int32:
			return strconv.FormatInt(int64(v), 10), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case uint:
			return formatUint(uint64(v))
		case uint32:
			return strconv.FormatUint(uint64(v), 10), nil
		case uint64:
			return formatUint(v)
		case float64:
			if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
				return "", pkgerrors.Wrapf(ErrInvalidSettingValue, "%v is not an integer", v)
			}

			// float64(math.MaxInt64) rounds up to 1<<63, which does not fit
			if v >= maxInt64Float || v < -maxInt64Float {
				return "", pkgerrors.Wrapf(ErrInvalidSettingValue, "%v is out of range", v)
			}

			return strconv.FormatInt(int64(v), 10), nil
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return "", pkgerrors.Wrapf(ErrInvalidSettingValue, "%q is not an integer", v)
			}

			return strconv.FormatInt(i, 10), nil
		}
	case models.KindString:
		if v, ok := value.(string); ok {
			return strings.ToLower(v), nil
		}
	}

	return "", pkgerrors.Wrap(ErrInvalidSettingValue, fmt.Sprintf("unsupported type %T", value))
}

// maxInt64Float is 1<<63, the first float64 above the int64 range.
const maxInt64Float = float64(1 << 63)

func formatUint(v uint64) (string, error) {
	if v > math.MaxInt64 {
		return "", pkgerrors.Wrapf(ErrInvalidSettingValue, "%d is out of range", v)
	}

	return strconv.FormatUint(v, 10), nil
}
