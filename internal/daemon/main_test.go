package daemon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/controller/medicine"
	"github.com/medtracker/medtracker/internal/db/controller/setting"
	"github.com/medtracker/medtracker/internal/db/engine"
	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/schedule"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Title: "medtracker-test",
		DB: config.DB{
			GormEngine: config.EngineSQLite,
			Name:       filepath.Join(t.TempDir(), "medtracker.db"),
		},
		Webserver: config.Webserver{Port: 5000, URL: "http://localhost:5000", ShutDownTime: 1},
		Scheduler: config.Scheduler{Enabled: true, Spec: "5 0 * * *"},
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrConfigNil)

	cfg := testConfig(t)

	d, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, d.scheduler)
	require.NotNil(t, d.webService)

	values, err := setting.Map(d.db)
	require.NoError(t, err)
	assert.Len(t, values, len(setting.Defaults))

	require.NoError(t, d.stop())

	cfg.Scheduler.Enabled = false

	d, err = New(cfg)
	require.NoError(t, err)
	assert.Nil(t, d.scheduler)
	require.NoError(t, d.stop())
}

func TestNewInvalidSpec(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.Spec = "every now and then"

	_, err := New(cfg)
	require.Error(t, err)
}

func TestMaterialize(t *testing.T) {
	cfg := testConfig(t)

	db, err := openDB(cfg)
	require.NoError(t, err)

	_, err = medicine.Create(db, &models.Medicine{
		Name:        "Metformin",
		Dosage:      "500mg",
		TimesPerDay: 2,
		Schedule:    []string{"08:00", "20:00"},
		StartDate:   "2026-01-01",
	}, "2025-12-31")
	require.NoError(t, err)
	require.NoError(t, engine.Close(db))

	created, err := Materialize(cfg, "2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = Materialize(cfg, "2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	_, err = Materialize(cfg, "19.10.2026")
	require.ErrorIs(t, err, schedule.ErrInvalidDay)

	_, err = Materialize(nil, "")
	require.ErrorIs(t, err, ErrConfigNil)
}
