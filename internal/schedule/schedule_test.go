package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/db/testdb"
)

const testDay = "2026-10-19"

func newMedicine(t *testing.T, db *gorm.DB, name string, slots ...string) *models.Medicine {
	t.Helper()

	m := &models.Medicine{
		Name:        name,
		Dosage:      "10mg",
		TimesPerDay: len(slots),
		Schedule:    slots,
		StartDate:   "2026-01-01",
		Frequency:   models.FrequencyDaily,
		IsActive:    true,
	}
	require.NoError(t, db.Create(m).Error)

	return m
}

func countEntries(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.LogEntry{}).Count(&n).Error)

	return n
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		timesPerDay int
		slots       []string
		want        []string
		wantErr     error
	}{
		{
			name:        "two slots",
			timesPerDay: 2,
			slots:       []string{"08:00", "20:00"},
			want:        []string{"08:00", "20:00"},
		},
		{
			name:        "padding and seconds",
			timesPerDay: 3,
			slots:       []string{"8:00", "12:30:00", "21:05"},
			want:        []string{"08:00", "12:30", "21:05"},
		},
		{
			name:        "order is kept",
			timesPerDay: 2,
			slots:       []string{"20:00", "08:00"},
			want:        []string{"20:00", "08:00"},
		},
		{
			name:        "too few slots",
			timesPerDay: 2,
			slots:       []string{"08:00"},
			wantErr:     ErrScheduleMismatch,
		},
		{
			name:        "too many slots",
			timesPerDay: 1,
			slots:       []string{"08:00", "09:00"},
			wantErr:     ErrScheduleMismatch,
		},
		{
			name:        "not a time",
			timesPerDay: 1,
			slots:       []string{"morning"},
			wantErr:     ErrInvalidSlot,
		},
		{
			name:        "hour out of range",
			timesPerDay: 1,
			slots:       []string{"25:00"},
			wantErr:     ErrInvalidSlot,
		},
		{
			name:        "duplicate after normalizing",
			timesPerDay: 2,
			slots:       []string{"8:00", "08:00"},
			wantErr:     ErrDuplicateSlot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.timesPerDay, tt.slots)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDay(t *testing.T) {
	_, err := ParseDay(testDay)
	require.NoError(t, err)

	for _, bad := range []string{"", "19.10.2026", "2026-13-01", "2026-10-19 08:00"} {
		_, err = ParseDay(bad)
		require.ErrorIs(t, err, ErrInvalidDay, bad)
	}

	assert.Equal(t, testDay, Day(time.Date(2026, 10, 19, 23, 59, 0, 0, time.Local)))
}

func TestDueOn(t *testing.T) {
	base := models.Medicine{IsActive: true, Frequency: models.FrequencyDaily, StartDate: "2026-10-01"}

	tests := []struct {
		name   string
		mutate func(m *models.Medicine)
		day    string
		want   bool
	}{
		{name: "open ended", day: testDay, want: true},
		{name: "first day", day: "2026-10-01", want: true},
		{name: "before start", day: "2026-09-30", want: false},
		{name: "inactive", mutate: func(m *models.Medicine) { m.IsActive = false }, day: testDay, want: false},
		{name: "last day", mutate: func(m *models.Medicine) { m.EndDate = testDay }, day: testDay, want: true},
		{name: "after end", mutate: func(m *models.Medicine) { m.EndDate = "2026-10-18" }, day: testDay, want: false},
		{name: "weekly not materialized", mutate: func(m *models.Medicine) { m.Frequency = "weekly" }, day: testDay, want: false},
		{name: "empty frequency is daily", mutate: func(m *models.Medicine) { m.Frequency = "" }, day: testDay, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base
			if tt.mutate != nil {
				tt.mutate(&m)
			}

			assert.Equal(t, tt.want, DueOn(&m, tt.day))
		})
	}

	assert.False(t, DueOn(nil, testDay))
}

func TestGenerate(t *testing.T) {
	m := &models.Medicine{
		ID:          7,
		Name:        "Metformin",
		Dosage:      "500mg",
		TimesPerDay: 2,
		Schedule:    []string{"08:00", "20:00"},
	}

	entries, err := Generate(m, testDay)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for i, slot := range []string{"08:00", "20:00"} {
		assert.Equal(t, testDay+" "+slot, *entries[i].ScheduledTime)
		assert.Equal(t, models.StatusPending, entries[i].Status)
		assert.Equal(t, uint64(7), *entries[i].MedicineID)
		assert.Equal(t, "Metformin", entries[i].MedicineName)
		assert.Equal(t, "500mg", entries[i].Dosage)
		assert.Equal(t, testDay, entries[i].Day)
		assert.Nil(t, entries[i].TakenTime)
	}

	m.TimesPerDay = 3
	_, err = Generate(m, testDay)
	require.ErrorIs(t, err, ErrScheduleMismatch)

	_, err = Generate(&models.Medicine{TimesPerDay: 0}, "today")
	require.ErrorIs(t, err, ErrInvalidDay)
}

func TestMaterialize(t *testing.T) {
	db := testdb.New(t)

	_, err := Materialize(nil, &models.Medicine{}, testDay)
	require.ErrorIs(t, err, ErrDBNil)

	m := newMedicine(t, db, "Metformin", "20:00", "08:00")

	res, err := Materialize(db, m, testDay)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "20:00", res.Entries[0].Slot())
	assert.Equal(t, "08:00", res.Entries[1].Slot())

	// a second run is a no-op
	res, err = Materialize(db, m, testDay)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Len(t, res.Entries, 2)
	assert.Equal(t, int64(2), countEntries(t, db))

	// another day gets its own entries
	res, err = Materialize(db, m, "2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, int64(4), countEntries(t, db))
}

func TestMaterializeKeepsMarkedEntries(t *testing.T) {
	db := testdb.New(t)
	m := newMedicine(t, db, "Aspirin", "09:00")

	res, err := Materialize(db, m, testDay)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, db.Model(&models.LogEntry{}).Where("id = ?", res.Entries[0].ID).
		Updates(map[string]any{"status": models.StatusTaken, "taken_time": now}).Error)

	res, err = Materialize(db, m, testDay)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, models.StatusTaken, res.Entries[0].Status)
	assert.NotNil(t, res.Entries[0].TakenTime)
}

func TestReconcile(t *testing.T) {
	db := testdb.New(t)
	m := newMedicine(t, db, "Ibuprofen", "08:00", "14:00", "20:00")

	res, err := Materialize(db, m, testDay)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	// 14:00 was skipped, it must survive the schedule change
	require.NoError(t, db.Model(&models.LogEntry{}).Where("id = ?", res.Entries[1].ID).
		Update("status", models.StatusSkipped).Error)

	m.TimesPerDay = 2
	m.Schedule = []string{"09:00", "14:00"}
	require.NoError(t, db.Save(m).Error)

	res, err = Reconcile(db, m, testDay)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	var slots []string
	for _, e := range res.Entries {
		slots = append(slots, e.Slot())
	}

	assert.Equal(t, []string{"09:00", "14:00"}, slots)
	assert.Equal(t, models.StatusSkipped, res.Entries[1].Status)

	// deactivated medicines lose their pending entries of the day
	m.IsActive = false
	res, err = Reconcile(db, m, testDay)
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Equal(t, int64(1), countEntries(t, db))

	_, err = Reconcile(nil, m, testDay)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Reconcile(db, m, "yesterday")
	require.ErrorIs(t, err, ErrInvalidDay)
}

func TestMaterializeAll(t *testing.T) {
	db := testdb.New(t)

	_, err := MaterializeAll(nil, testDay)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = MaterializeAll(db, "19/10/2026")
	require.ErrorIs(t, err, ErrInvalidDay)

	newMedicine(t, db, "A", "08:00", "20:00")
	newMedicine(t, db, "B", "12:00")

	ended := newMedicine(t, db, "Ended", "08:00")
	require.NoError(t, db.Model(ended).Update("end_date", "2026-10-01").Error)

	future := newMedicine(t, db, "Future", "08:00")
	require.NoError(t, db.Model(future).Update("start_date", "2026-11-01").Error)

	inactive := newMedicine(t, db, "Inactive", "08:00")
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	created, err := MaterializeAll(db, testDay)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	created, err = MaterializeAll(db, testDay)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, int64(3), countEntries(t, db))
}

func TestMaterializeAllReportsBrokenMedicine(t *testing.T) {
	db := testdb.New(t)

	newMedicine(t, db, "Good", "08:00")

	broken := newMedicine(t, db, "Broken", "08:00")
	require.NoError(t, db.Model(broken).Update("times_per_day", 2).Error)

	created, err := MaterializeAll(db, testDay)
	require.ErrorIs(t, err, ErrScheduleMismatch)
	assert.Equal(t, 1, created)
}
