package medicine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/db/testdb"
	"github.com/medtracker/medtracker/internal/schedule"
)

const today = "2026-10-19"

func validMedicine() *models.Medicine {
	return &models.Medicine{
		Name:        "  Metformin ",
		Dosage:      "500mg ",
		TimesPerDay: 2,
		Schedule:    []string{"8:00", "20:00"},
		StartDate:   "2026-10-01",
	}
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *models.Medicine)
		wantErr error
	}{
		{name: "valid"},
		{name: "blank name", mutate: func(m *models.Medicine) { m.Name = "  " }, wantErr: ErrNameEmpty},
		{name: "blank dosage", mutate: func(m *models.Medicine) { m.Dosage = "" }, wantErr: ErrDosageEmpty},
		{name: "bad start", mutate: func(m *models.Medicine) { m.StartDate = "" }, wantErr: schedule.ErrInvalidDay},
		{name: "bad end", mutate: func(m *models.Medicine) { m.EndDate = "soon" }, wantErr: schedule.ErrInvalidDay},
		{name: "upper case daily", mutate: func(m *models.Medicine) { m.Frequency = " Daily " }},
		{name: "weekly", mutate: func(m *models.Medicine) { m.Frequency = "weekly" }, wantErr: ErrUnsupportedFrequency},
		{name: "end before start", mutate: func(m *models.Medicine) { m.EndDate = "2026-09-01" }, wantErr: ErrEndBeforeStart},
		{
			name:    "schedule mismatch",
			mutate:  func(m *models.Medicine) { m.Schedule = []string{"08:00"} },
			wantErr: schedule.ErrScheduleMismatch,
		},
		{
			name:    "duplicate slot",
			mutate:  func(m *models.Medicine) { m.Schedule = []string{"08:00", "8:00"} },
			wantErr: schedule.ErrDuplicateSlot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMedicine()
			if tt.mutate != nil {
				tt.mutate(m)
			}

			err := Prepare(m)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Metformin", m.Name)
			assert.Equal(t, "500mg", m.Dosage)
			assert.Equal(t, models.FrequencyDaily, m.Frequency)
			assert.Equal(t, []string{"08:00", "20:00"}, []string(m.Schedule))
		})
	}
}

func TestCreate(t *testing.T) {
	db := testdb.New(t)

	_, err := Create(nil, validMedicine(), today)
	require.ErrorIs(t, err, ErrDBNil)

	m := validMedicine()
	res, err := Create(db, m, today)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.True(t, m.IsActive)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, today+" 08:00", *res.Entries[0].ScheduledTime)
	assert.Equal(t, today+" 20:00", *res.Entries[1].ScheduledTime)

	for _, e := range res.Entries {
		assert.Equal(t, models.StatusPending, e.Status)
		assert.Equal(t, "Metformin", e.MedicineName)
	}

	// not yet due, nothing materialized
	future := validMedicine()
	future.StartDate = "2026-11-01"
	res, err = Create(db, future, today)
	require.NoError(t, err)
	assert.NotZero(t, future.ID)
	assert.Empty(t, res.Entries)

	// invalid input stores nothing
	bad := validMedicine()
	bad.TimesPerDay = 3
	_, err = Create(db, bad, today)
	require.ErrorIs(t, err, schedule.ErrScheduleMismatch)

	all, err := ListAll(db)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListAndCount(t *testing.T) {
	db := testdb.New(t)

	active, err := ListActive(db)
	require.NoError(t, err)
	assert.NotNil(t, active)
	assert.Empty(t, active)

	for _, name := range []string{"Zinc", "Aspirin", "Magnesium"} {
		m := validMedicine()
		m.Name = name
		_, err = Create(db, m, today)
		require.NoError(t, err)
	}

	require.NoError(t, Deactivate(db, 3))

	active, err = ListActive(db)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Aspirin", active[0].Name)
	assert.Equal(t, "Zinc", active[1].Name)

	all, err := ListAll(db)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.False(t, all[2].IsActive)

	n, err := CountActive(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = ListActive(nil)
	require.ErrorIs(t, err, ErrDBNil)
	_, err = ListAll(nil)
	require.ErrorIs(t, err, ErrDBNil)
	_, err = CountActive(nil)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestGet(t *testing.T) {
	db := testdb.New(t)

	_, err := Get(nil, 1)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Get(db, 42)
	require.ErrorIs(t, err, ErrMedicineNotFound)

	m := validMedicine()
	_, err = Create(db, m, today)
	require.NoError(t, err)

	got, err := Get(db, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Metformin", got.Name)
	assert.Equal(t, []string{"08:00", "20:00"}, []string(got.Schedule))
}

func TestUpdate(t *testing.T) {
	db := testdb.New(t)

	m := validMedicine()
	_, err := Create(db, m, today)
	require.NoError(t, err)

	in := validMedicine()
	in.Name = "Metformin XR"
	in.TimesPerDay = 1
	in.Schedule = []string{"20:00"}
	in.Instructions = "with dinner"

	updated, err := Update(db, m.ID, in, today)
	require.NoError(t, err)
	assert.Equal(t, "Metformin XR", updated.Name)
	assert.Equal(t, "with dinner", updated.Instructions)
	assert.True(t, updated.IsActive)

	var entries []models.LogEntry
	require.NoError(t, db.Where("medicine_id = ?", m.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "20:00", entries[0].Slot())
	// snapshot of the old name is kept
	assert.Equal(t, "Metformin", entries[0].MedicineName)

	_, err = Update(db, 999, validMedicine(), today)
	require.ErrorIs(t, err, ErrMedicineNotFound)

	bad := validMedicine()
	bad.Schedule = []string{"08:00"}
	_, err = Update(db, m.ID, bad, today)
	require.ErrorIs(t, err, schedule.ErrScheduleMismatch)

	_, err = Update(nil, m.ID, validMedicine(), today)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestDeactivate(t *testing.T) {
	db := testdb.New(t)

	require.ErrorIs(t, Deactivate(nil, 1), ErrDBNil)
	require.ErrorIs(t, Deactivate(db, 1), ErrMedicineNotFound)

	m := validMedicine()
	_, err := Create(db, m, today)
	require.NoError(t, err)

	require.NoError(t, Deactivate(db, m.ID))

	got, err := Get(db, m.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// entries are history, they stay
	var n int64
	require.NoError(t, db.Model(&models.LogEntry{}).Where("medicine_id = ?", m.ID).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}
