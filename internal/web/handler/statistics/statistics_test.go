package statistics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/controller/logentry"
	"github.com/medtracker/medtracker/internal/db/controller/medicine"
	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/db/testdb"
)

func TestGet(t *testing.T) {
	db := testdb.New(t)
	now := time.Date(2026, 10, 19, 13, 0, 0, 0, time.Local)

	app := fiber.New()
	s := &Service{now: func() time.Time { return now }}
	require.NoError(t, s.Init(app, &config.Config{}, db))

	get := func() string {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
		require.NoError(t, err)

		defer func() {
			_ = resp.Body.Close()
		}()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		return string(body)
	}

	assert.JSONEq(t, `{
		"total_medicines": 0,
		"taken_today": 0,
		"total_today": 0,
		"adherence_rate": 0,
		"taken_this_week": 0,
		"upcoming_today": 0
	}`, get())

	res, err := medicine.Create(db, &models.Medicine{
		Name:        "Metformin",
		Dosage:      "500mg",
		TimesPerDay: 3,
		Schedule:    []string{"08:00", "12:00", "20:00"},
		StartDate:   "2026-10-19",
	}, "2026-10-19")
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	_, err = logentry.Mark(db, res.Entries[0].ID, models.StatusTaken, "", now)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"total_medicines": 1,
		"taken_today": 1,
		"total_today": 3,
		"adherence_rate": 33.33,
		"taken_this_week": 1,
		"upcoming_today": 1
	}`, get())
}

func TestGetStorageError(t *testing.T) {
	db := testdb.New(t)
	require.NoError(t, db.Migrator().DropTable(&models.LogEntry{}))

	app := fiber.New()
	s := &Service{}
	require.NoError(t, s.Init(app, &config.Config{}, db))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
