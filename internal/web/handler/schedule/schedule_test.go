package schedule

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medtracker/medtracker/internal/adherence"
	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/controller/logentry"
	"github.com/medtracker/medtracker/internal/db/controller/medicine"
	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/db/testdb"
	generator "github.com/medtracker/medtracker/internal/schedule"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := testdb.New(t)

	for _, m := range []*models.Medicine{
		{
			Name:         "Metformin",
			Dosage:       "500mg",
			TimesPerDay:  2,
			Schedule:     []string{"20:00", "08:00"},
			StartDate:    "2026-10-01",
			Instructions: "with food",
		},
		{
			Name:        "Vitamin D",
			Dosage:      "1000IU",
			TimesPerDay: 1,
			Schedule:    []string{"12:00"},
			StartDate:   "2026-10-01",
			EndDate:     "2026-10-19",
		},
	} {
		// created before the start day, nothing is materialized yet
		_, err := medicine.Create(db, m, "2026-09-01")
		require.NoError(t, err)
	}

	app := fiber.New()
	s := &Service{now: func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.Local) }}
	require.NoError(t, s.Init(app, &config.Config{}, db))

	return app, db
}

func do(t *testing.T, app *fiber.App, method, target string) (int, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, out
}

func TestToday(t *testing.T) {
	app, db := setupApp(t)

	status, body := do(t, app, http.MethodGet, "/api/today-schedule")
	require.Equal(t, http.StatusOK, status)

	var items []logentry.ScheduleItem
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 3)
	assert.Equal(t, "2026-10-19 08:00", *items[0].ScheduledTime)
	assert.Equal(t, "with food", items[0].Instructions)
	assert.Equal(t, "Vitamin D", items[1].MedicineName)
	assert.Equal(t, "2026-10-19 20:00", *items[2].ScheduledTime)

	// a second read does not duplicate entries
	status, _ = do(t, app, http.MethodGet, "/api/today-schedule")
	require.Equal(t, http.StatusOK, status)

	var n int64
	require.NoError(t, db.Model(&models.LogEntry{}).Count(&n).Error)
	assert.Equal(t, int64(3), n)
}

func TestTodayDate(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		materialize bool
		wantStatus  int
		wantCount   int
	}{
		{name: "other day is not materialized", target: "/api/today-schedule?date=2026-10-20", wantStatus: http.StatusOK},
		{
			name:        "other day after materialize",
			target:      "/api/today-schedule?date=2026-10-20",
			materialize: true,
			wantStatus:  http.StatusOK,
			wantCount:   2,
		},
		{name: "explicit today", target: "/api/today-schedule?date=2026-10-19", wantStatus: http.StatusOK, wantCount: 3},
		{name: "before start", target: "/api/today-schedule?date=2026-09-30", materialize: true, wantStatus: http.StatusOK},
		{name: "bad date", target: "/api/today-schedule?date=20.10.2026", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, db := setupApp(t)

			if tt.materialize {
				day := tt.target[len(tt.target)-len("2006-01-02"):]
				_, err := generator.MaterializeAll(db, day)
				require.NoError(t, err)
			}

			status, body := do(t, app, http.MethodGet, tt.target)
			require.Equal(t, tt.wantStatus, status)

			if status != http.StatusOK {
				return
			}

			var items []logentry.ScheduleItem
			require.NoError(t, json.Unmarshal(body, &items))
			assert.Len(t, items, tt.wantCount)
		})
	}
}

func TestViewingOtherDaysKeepsStatistics(t *testing.T) {
	app, db := setupApp(t)
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.Local)

	status, _ := do(t, app, http.MethodGet, "/api/today-schedule")
	require.Equal(t, http.StatusOK, status)

	before, err := adherence.Compute(db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), before.TotalToday)

	for _, day := range []string{"2026-10-14", "2026-11-01", "2026-11-02", "2026-11-03"} {
		status, _ = do(t, app, http.MethodGet, "/api/today-schedule?date="+day)
		require.Equal(t, http.StatusOK, status)
	}

	after, err := adherence.Compute(db, now)
	require.NoError(t, err)
	assert.Equal(t, *before, *after)

	var n int64
	require.NoError(t, db.Model(&models.LogEntry{}).Count(&n).Error)
	assert.Equal(t, int64(3), n)
}

func TestMaterialize(t *testing.T) {
	app, _ := setupApp(t)

	status, body := do(t, app, http.MethodPost, "/api/schedule/materialize?date=2026-10-18")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"success","date":"2026-10-18","created":3}`, string(body))

	status, body = do(t, app, http.MethodPost, "/api/schedule/materialize?date=2026-10-18")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"success","date":"2026-10-18","created":0}`, string(body))

	status, body = do(t, app, http.MethodPost, "/api/schedule/materialize")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"success","date":"2026-10-19","created":3}`, string(body))

	status, _ = do(t, app, http.MethodPost, "/api/schedule/materialize?date=tomorrow")
	assert.Equal(t, http.StatusBadRequest, status)
}
